// Package valuation computes the estimated dollar value of a card from its
// tiered book values, its condition grade, and the owner's market factors.
// All functions are pure; persistence happens in the store.
package valuation

import (
	"math"

	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

// PickAvgBook returns the arithmetic mean of the card's non-nil book values,
// rounded to 2 decimal places, or nil when no book value is present. Every
// present tier counts equally; a card with only book_high set averages to
// book_high itself.
func PickAvgBook(card *schema.Card) *float64 {
	books := []*float64{
		card.BookHigh,
		card.BookHighMid,
		card.BookMid,
		card.BookLowMid,
		card.BookLow,
	}

	var sum float64
	var n int
	for _, b := range books {
		if b != nil {
			sum += *b
			n++
		}
	}
	if n == 0 {
		return nil
	}

	avg := round2(sum / float64(n))
	return &avg
}

// MarketFactor picks the factor for a (grade, rookie) pair from the owner's
// settings. The rules form a fixed priority list evaluated top to bottom,
// first match wins; ties are broken by position, not specificity.
// Returns nil when no rule matches (grade off the fixed scale).
func MarketFactor(grade float64, rookie bool, s *schema.Settings) *float64 {
	if s == nil {
		return nil
	}

	rules := []struct {
		match  bool
		factor float64
	}{
		{grade == 3.0 && rookie, s.AutoFactor},
		{grade == 3.0, s.MTGradeFactor},
		{rookie, s.RookieFactor},
		{grade == 1.5, s.EXGradeFactor},
		{grade == 1.0, s.VGGradeFactor},
		{grade == 0.8, s.GDGradeFactor},
		{grade == 0.4, s.FRGradeFactor},
		{grade == 0.2, s.PRGradeFactor},
	}

	for _, r := range rules {
		if r.match {
			f := r.factor
			return &f
		}
	}
	return nil
}

// CardValue computes round(avgBook * grade * factor) to the nearest whole
// dollar, half away from zero. Returns nil if any input is nil; values are
// never partially computed.
func CardValue(avgBook, grade, factor *float64) *float64 {
	if avgBook == nil || grade == nil || factor == nil {
		return nil
	}

	v := math.Round(*avgBook * *grade * *factor)
	return &v
}

// Revalue recomputes the card's market factor and value in place from the
// owner's settings. Called on every card mutation and during bulk
// revaluation.
func Revalue(card *schema.Card, s *schema.Settings) {
	var factor *float64
	if card.Grade != nil {
		factor = MarketFactor(*card.Grade, card.Rookie, s)
	}

	card.MarketFactor = factor
	card.Value = CardValue(PickAvgBook(card), card.Grade, factor)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
