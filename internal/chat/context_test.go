package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

func f(v float64) *float64 { return &v }

func TestBuildCollectionContext(t *testing.T) {
	cards := []schema.Card{
		{
			ID: 1, Year: 1952, Brand: "Topps",
			FirstName: "Mickey", LastName: "Mantle", CardNumber: "311",
			Rookie: true, Grade: f(3.0), Value: f(450),
		},
		{
			ID: 2, Year: 1954, Brand: "Topps",
			FirstName: "Hank", LastName: "Aaron", CardNumber: "128",
			Grade: f(1.5), Value: f(113),
		},
		{
			ID: 3, Year: 1951, Brand: "Bowman",
			FirstName: "Willie", LastName: "Mays", CardNumber: "305",
		},
	}
	settings := &schema.Settings{
		RookieFactor: 0.8, AutoFactor: 1.0,
		MTGradeFactor: 0.85, EXGradeFactor: 0.75,
		VGGradeFactor: 0.6, GDGradeFactor: 0.55,
		FRGradeFactor: 0.5, PRGradeFactor: 0.4,
	}

	out := BuildCollectionContext(cards, settings)

	assert.Contains(t, out, "Total cards: 3")
	assert.Contains(t, out, "Total estimated value: $563")
	assert.Contains(t, out, "Mickey Mantle: 1 cards, $450")
	assert.Contains(t, out, "Topps: 2 cards, $563")
	assert.Contains(t, out, "mint: 1 cards")
	assert.Contains(t, out, "ungraded: 1 cards")
	assert.Contains(t, out, "id=1 1952 Topps Mickey Mantle #311 rookie grade=mint value=$450")
	assert.Contains(t, out, "id=3 1951 Bowman Willie Mays #305")
	assert.Contains(t, out, "rookie=0.80")

	// Players ordered by value, highest first
	mantleIdx := strings.Index(out, "Mickey Mantle:")
	aaronIdx := strings.Index(out, "Hank Aaron:")
	assert.Less(t, mantleIdx, aaronIdx)
}

func TestBuildCollectionContextNilSettings(t *testing.T) {
	out := BuildCollectionContext(nil, nil)
	assert.Contains(t, out, "Total cards: 0")
	assert.NotContains(t, out, "MARKET FACTORS")
}
