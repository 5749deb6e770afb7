package core

// MonthSummary is the plan-wide aggregate picture for one month. It is
// derived on every read from the current envelope rows plus the income
// figure; nothing here is ever stored.
type MonthSummary struct {
	Month          Month
	Income         Money
	TotalBudgeted  Money
	TotalActivity  Money
	TotalAvailable Money
	ToBeBudgeted   Money
}

// ComputeMonthSummary recomputes the plan aggregates from a month's full
// envelope set and its total income. Envelopes of hidden categories are
// excluded from every sum.
func ComputeMonthSummary(month Month, income Money, envelopes []EnvelopeRow) MonthSummary {
	s := MonthSummary{Month: month, Income: income}
	for _, e := range envelopes {
		if e.Hidden {
			continue
		}
		s.TotalBudgeted.Cents += e.Budgeted.Cents
		s.TotalActivity.Cents += e.Activity.Cents
		s.TotalAvailable.Cents += e.Available.Cents
	}
	s.ToBeBudgeted = Money{Cents: income.Cents - s.TotalBudgeted.Cents}
	return s
}
