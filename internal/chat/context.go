package chat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

// BuildCollectionContext renders the user's collection as the grounding text
// sent with every chat turn: aggregate summaries first, then the full card
// list so the model can answer about specific cards by id.
func BuildCollectionContext(cards []schema.Card, settings *schema.Settings) string {
	var b strings.Builder

	b.WriteString("COLLECTION SUMMARY\n")
	fmt.Fprintf(&b, "Total cards: %d\n", len(cards))

	var total float64
	for _, c := range cards {
		if c.Value != nil {
			total += *c.Value
		}
	}
	fmt.Fprintf(&b, "Total estimated value: $%.0f\n", total)

	writeBreakdown(&b, "By player", cards, func(c schema.Card) string {
		return c.FirstName + " " + c.LastName
	})
	writeBreakdown(&b, "By brand", cards, func(c schema.Card) string {
		if c.Brand == "" {
			return "(unknown)"
		}
		return c.Brand
	})
	writeBreakdown(&b, "By grade", cards, func(c schema.Card) string {
		if c.Grade == nil {
			return "ungraded"
		}
		return gradeLabel(*c.Grade)
	})

	if settings != nil {
		b.WriteString("\nMARKET FACTORS\n")
		fmt.Fprintf(&b, "rookie=%.2f auto=%.2f mint=%.2f excellent=%.2f very_good=%.2f good=%.2f fair=%.2f poor=%.2f\n",
			settings.RookieFactor, settings.AutoFactor,
			settings.MTGradeFactor, settings.EXGradeFactor,
			settings.VGGradeFactor, settings.GDGradeFactor,
			settings.FRGradeFactor, settings.PRGradeFactor)
	}

	b.WriteString("\nCARDS\n")
	for _, c := range cards {
		fmt.Fprintf(&b, "id=%d %d %s %s %s #%s", c.ID, c.Year, c.Brand, c.FirstName, c.LastName, c.CardNumber)
		if c.Rookie {
			b.WriteString(" rookie")
		}
		if c.Grade != nil {
			fmt.Fprintf(&b, " grade=%s", gradeLabel(*c.Grade))
		}
		if c.Value != nil {
			fmt.Fprintf(&b, " value=$%.0f", *c.Value)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeBreakdown(b *strings.Builder, title string, cards []schema.Card, key func(schema.Card) string) {
	counts := make(map[string]int)
	values := make(map[string]float64)
	for _, c := range cards {
		k := key(c)
		counts[k]++
		if c.Value != nil {
			values[k] += *c.Value
		}
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if values[keys[i]] != values[keys[j]] {
			return values[keys[i]] > values[keys[j]]
		}
		return keys[i] < keys[j]
	})

	fmt.Fprintf(b, "\n%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(b, "  %s: %d cards, $%.0f\n", k, counts[k], values[k])
	}
}

func gradeLabel(grade float64) string {
	switch grade {
	case 3.0:
		return "mint"
	case 1.5:
		return "excellent"
	case 1.0:
		return "very good"
	case 0.8:
		return "good"
	case 0.4:
		return "fair"
	case 0.2:
		return "poor"
	default:
		return fmt.Sprintf("%.1f", grade)
	}
}
