package core

import (
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Bucket is a semantic spending class used by allocation templates.
type Bucket string

const (
	BucketIncome      Bucket = "income"
	BucketDebt        Bucket = "debt"
	BucketSavings     Bucket = "savings"
	BucketInvestments Bucket = "investments"
	BucketNeeds       Bucket = "needs"
	BucketWants       Bucket = "wants"
)

// classifyRules maps category-name keywords to buckets. Rules are evaluated
// in order; the first bucket with a matching keyword wins. Categories that
// match nothing fall through to BucketWants.
var classifyRules = []struct {
	bucket   Bucket
	keywords []string
}{
	{BucketIncome, []string{
		"income", "salary", "paycheck", "wage", "bonus", "dividend", "refund",
	}},
	{BucketDebt, []string{
		"debt", "loan", "mortgage", "credit card", "student loan", "financing", "interest",
	}},
	{BucketSavings, []string{
		"saving", "emergency", "rainy day", "sinking fund", "reserve",
	}},
	{BucketInvestments, []string{
		"invest", "brokerage", "retirement", "401k", "ira", "pension", "stocks", "crypto",
	}},
	{BucketNeeds, []string{
		"rent", "groceries", "grocery", "utilities", "electric", "water", "gas",
		"insurance", "transport", "fuel", "commute", "phone", "internet",
		"medical", "health", "pharmacy", "childcare", "daycare", "car", "tax",
	}},
}

// ClassifyCategory maps a category name to exactly one bucket via
// case-insensitive substring matching against the curated keyword lists.
func ClassifyCategory(name string) Bucket {
	lower := strings.ToLower(name)
	for _, rule := range classifyRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.bucket
			}
		}
	}
	return BucketWants
}

// AllocationTemplate is a named percentage breakdown across buckets. Shares
// are whole percentages; buckets missing from the map get nothing.
type AllocationTemplate struct {
	Name   string
	Shares map[Bucket]int
}

// Built-in templates, keyed by name.
var allocationTemplates = map[string]AllocationTemplate{
	"50-30-20": {
		Name:   "50-30-20",
		Shares: map[Bucket]int{BucketNeeds: 50, BucketWants: 30, BucketSavings: 20},
	},
	"50-30-10-10": {
		Name:   "50-30-10-10",
		Shares: map[Bucket]int{BucketNeeds: 50, BucketWants: 30, BucketDebt: 10, BucketSavings: 10},
	},
	"70-20-10": {
		Name:   "70-20-10",
		Shares: map[Bucket]int{BucketNeeds: 70, BucketWants: 20, BucketInvestments: 10},
	},
}

var ErrUnknownTemplate = errors.New("unknown allocation template")

// Templates lists the built-in allocation templates sorted by name.
func Templates() []AllocationTemplate {
	out := make([]AllocationTemplate, 0, len(allocationTemplates))
	for _, t := range allocationTemplates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TemplateByName resolves a built-in template.
func TemplateByName(name string) (AllocationTemplate, error) {
	t, ok := allocationTemplates[name]
	if !ok {
		return AllocationTemplate{}, ErrUnknownTemplate
	}
	return t, nil
}

// AllocationLine is one (category, amount) pair of a template preview.
type AllocationLine struct {
	CategoryID   uuid.UUID
	CategoryName string
	Bucket       Bucket
	Budgeted     Money
}

// AllocationPreview is the outcome of distributing a target income across
// categories. Applying it is a separate step. Unassigned is the computed
// difference between the target and the assigned total; a bucket with a
// share but no matching categories inflates it rather than being silently
// absorbed.
type AllocationPreview struct {
	Template   string
	Target     Money
	Assigned   Money
	Unassigned Money
	Lines      []AllocationLine
}

// DistributeTemplate classifies the given categories and spreads the target
// income across buckets per the template's shares, splitting each bucket
// total evenly (half-up rounded) across its categories.
func DistributeTemplate(t AllocationTemplate, target Money, categories []Category) AllocationPreview {
	byBucket := make(map[Bucket][]Category)
	for _, c := range categories {
		b := ClassifyCategory(c.Name)
		byBucket[b] = append(byBucket[b], c)
	}

	preview := AllocationPreview{Template: t.Name, Target: target}
	// Walk rule order (then wants) so line order is stable.
	for _, b := range []Bucket{BucketIncome, BucketDebt, BucketSavings, BucketInvestments, BucketNeeds, BucketWants} {
		share := t.Shares[b]
		cats := byBucket[b]
		if share <= 0 || len(cats) == 0 {
			continue
		}
		bucketTotal := roundedShare(target.Cents, share)
		perCategory := halfUpDiv(bucketTotal, int64(len(cats)))
		for _, c := range cats {
			preview.Lines = append(preview.Lines, AllocationLine{
				CategoryID:   c.ID,
				CategoryName: c.Name,
				Bucket:       b,
				Budgeted:     Money{Cents: perCategory},
			})
			preview.Assigned.Cents += perCategory
		}
	}
	preview.Unassigned = Money{Cents: target.Cents - preview.Assigned.Cents}
	return preview
}

// roundedShare returns cents*percent/100 with half-up rounding.
func roundedShare(cents int64, percent int) int64 {
	return halfUpDiv(cents*int64(percent), 100)
}

// halfUpDiv divides with half-up rounding; n may be negative, d must be > 0.
func halfUpDiv(n, d int64) int64 {
	if n >= 0 {
		return (n + d/2) / d
	}
	return -((-n + d/2) / d)
}
