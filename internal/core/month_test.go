package core

import (
	"testing"
	"time"
)

func TestMonthOfTruncates(t *testing.T) {
	m := MonthOf(time.Date(2025, 3, 17, 14, 33, 12, 0, time.UTC))
	want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if !m.Equal(want) {
		t.Fatalf("MonthOf = %v, want %v", m.Time, want)
	}
}

func TestMonthKeyAndString(t *testing.T) {
	m := NewMonth(2025, 2)
	if m.Key() != "2025-02-01" {
		t.Fatalf("Key = %q", m.Key())
	}
	if m.String() != "2025-02" {
		t.Fatalf("String = %q", m.String())
	}
}

func TestParseMonth(t *testing.T) {
	cases := []struct {
		in   string
		want Month
		ok   bool
	}{
		{"2025-03", NewMonth(2025, 3), true},
		{"2025-03-17", NewMonth(2025, 3), true},
		{"2025", Month{}, false},
		{"garbage", Month{}, false},
	}
	for _, tc := range cases {
		m, err := ParseMonth(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("ParseMonth(%q) unexpected error: %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseMonth(%q) expected error", tc.in)
		}
		if tc.ok && !m.Equal(tc.want.Time) {
			t.Fatalf("ParseMonth(%q) = %v, want %v", tc.in, m, tc.want)
		}
	}
}

func TestMonthNextAndContains(t *testing.T) {
	m := NewMonth(2025, 12)
	if next := m.Next(); !next.Equal(NewMonth(2026, 1).Time) {
		t.Fatalf("Next = %v", next)
	}
	if !m.Contains(time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)) {
		t.Fatal("Contains should accept the last instant of the month")
	}
	if m.Contains(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("Contains should reject the following month")
	}
}
