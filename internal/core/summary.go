package core

import "github.com/shopspring/decimal"

// CategoryAmount is the total spent in one category.
type CategoryAmount struct {
	Name   string
	Count  int
	Amount decimal.Decimal
}

// Summary is the money-out overview of a set of records against a cap.
type Summary struct {
	Count      int
	Total      decimal.Decimal
	Cap        decimal.Decimal
	Remaining  decimal.Decimal // set when a cap is active and not exceeded
	Over       decimal.Decimal // set when a cap is active and exceeded
	ByCategory []CategoryAmount
}

// HasCap reports whether a spending cap is in effect. A zero cap means none.
func (s Summary) HasCap() bool {
	return s.Cap.IsPositive()
}

// OverCap reports whether the total exceeds an active cap.
func (s Summary) OverCap() bool {
	return s.HasCap() && s.Total.GreaterThan(s.Cap)
}

// Summarize totals records and compares the total with the profile's cap.
// ByCategory follows the order of the profile's categories; categories with no
// records are omitted, and categories no longer configured are appended in
// first-seen order.
func Summarize(records []Record, profile Profile) Summary {
	total := decimal.Zero
	byName := make(map[string]*CategoryAmount)
	var seen []string
	for _, r := range records {
		total = total.Add(r.Amount)
		ca, ok := byName[r.Category]
		if !ok {
			ca = &CategoryAmount{Name: r.Category, Amount: decimal.Zero}
			byName[r.Category] = ca
			seen = append(seen, r.Category)
		}
		ca.Count++
		ca.Amount = ca.Amount.Add(r.Amount)
	}

	s := Summary{Count: len(records), Total: total, Cap: profile.Cap}
	for _, name := range profile.Settings.Categories {
		if ca, ok := byName[name]; ok {
			s.ByCategory = append(s.ByCategory, *ca)
			delete(byName, name)
		}
	}
	for _, name := range seen {
		if ca, ok := byName[name]; ok {
			s.ByCategory = append(s.ByCategory, *ca)
		}
	}

	if !s.HasCap() {
		return s
	}
	if s.OverCap() {
		s.Over = total.Sub(profile.Cap)
	} else {
		s.Remaining = profile.Cap.Sub(total)
	}
	return s
}
