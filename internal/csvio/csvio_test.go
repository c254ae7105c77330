package csvio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

const cardHeader = "First,Last,Year,Brand,Rookie,Card Number,BookHi,BookHiMid,BookMid,BookLowMid,BookLow,Grade\n"

func f(v float64) *float64 { return &v }

func TestParseRookie(t *testing.T) {
	tests := []struct {
		raw      string
		expected bool
	}{
		{"*", true},
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"yes", true},
		{" y ", true},
		{"", false},
		{"0", false},
		{"false", false},
		{"no", false},
		{"2", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseRookie(tt.raw), "raw=%q", tt.raw)
	}
}

func TestParseCards(t *testing.T) {
	csv := cardHeader +
		"Mickey,Mantle,1952,Topps,*,311,200,,150,,100,3.0\n" +
		"Hank,Aaron,1954,Topps,,128,$1500,,\"1,000\",,500,1.5\n"

	cards, rowErrs, err := ParseCards(strings.NewReader(csv), 9)
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, cards, 2)

	mantle := cards[0]
	assert.Equal(t, int64(9), mantle.UserID)
	assert.Equal(t, "Mickey", mantle.FirstName)
	assert.Equal(t, "Mantle", mantle.LastName)
	assert.Equal(t, 1952, mantle.Year)
	assert.Equal(t, "Topps", mantle.Brand)
	assert.Equal(t, "311", mantle.CardNumber)
	assert.True(t, mantle.Rookie)
	require.NotNil(t, mantle.Grade)
	assert.Equal(t, 3.0, *mantle.Grade)
	require.NotNil(t, mantle.BookHigh)
	assert.Equal(t, 200.0, *mantle.BookHigh)
	assert.Nil(t, mantle.BookHighMid)

	// Currency formatting tolerated
	aaron := cards[1]
	assert.False(t, aaron.Rookie)
	require.NotNil(t, aaron.BookHigh)
	assert.Equal(t, 1500.0, *aaron.BookHigh)
	require.NotNil(t, aaron.BookMid)
	assert.Equal(t, 1000.0, *aaron.BookMid)

	// Derived fields are never populated by the parser
	assert.Nil(t, mantle.MarketFactor)
	assert.Nil(t, mantle.Value)
}

func TestParseCardsRowErrors(t *testing.T) {
	csv := cardHeader +
		"Mickey,Mantle,1952,Topps,*,311,200,,,,,3.0\n" +
		",Mantle,1952,Topps,,311,,,,,,\n" +
		"Willie,Mays,not-a-year,Bowman,,261,,,,,,\n" +
		"Roberto,Clemente,1955,Topps,,164,,,,,,2.5\n" +
		"Ted,Williams,1939,Play Ball,,92,-5,,,,,1.0\n"

	cards, rowErrs, err := ParseCards(strings.NewReader(csv), 1)
	require.NoError(t, err)

	// Good row still loads even though later rows fail
	require.Len(t, cards, 1)
	assert.Equal(t, "Mantle", cards[0].LastName)

	require.Len(t, rowErrs, 4)
	assert.Equal(t, 3, rowErrs[0].Row)
	assert.Contains(t, rowErrs[0].Message, "missing player name")
	assert.Equal(t, 4, rowErrs[1].Row)
	assert.Contains(t, rowErrs[1].Message, "invalid year")
	assert.Equal(t, 5, rowErrs[2].Row)
	assert.Contains(t, rowErrs[2].Message, "grading scale")
	assert.Equal(t, 6, rowErrs[3].Row)
	assert.Contains(t, rowErrs[3].Message, "negative")
}

func TestExportCardsRoundTrip(t *testing.T) {
	cards := []schema.Card{
		{
			FirstName:  "Mickey",
			LastName:   "Mantle",
			Year:       1952,
			Brand:      "Topps",
			CardNumber: "311",
			Rookie:     true,
			BookHigh:   f(200),
			BookMid:    f(150),
			BookLow:    f(100),
			Grade:      f(3.0),
		},
		{
			FirstName:  "Hank",
			LastName:   "Aaron",
			Year:       1954,
			Brand:      "Topps",
			CardNumber: "128",
			Grade:      f(1.5),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportCards(&buf, cards))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, strings.TrimSuffix(cardHeader, "\n")))

	parsed, rowErrs, err := ParseCards(strings.NewReader(out), 1)
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, parsed, 2)
	assert.True(t, parsed[0].Rookie)
	assert.False(t, parsed[1].Rookie)
	require.NotNil(t, parsed[0].BookHigh)
	assert.Equal(t, 200.0, *parsed[0].BookHigh)
	require.NotNil(t, parsed[1].Grade)
	assert.Equal(t, 1.5, *parsed[1].Grade)
}

func testFingerprint(first, last string, year int, brand, cardNumber string) string {
	return strings.ToLower(strings.Join([]string{first, last, brand, cardNumber}, "|"))
}

func TestParseDictionary(t *testing.T) {
	csv := "First,Last,RookieYear,Brand,Year,CardNumber\n" +
		"Mickey,Mantle,1951,Topps,1952,311\n" +
		"Mickey,Mantle,1951,Bowman,1951,253\n" +
		"mickey,mantle,1951,Topps,1952,311\n" +
		"Willie,Mays,,Bowman,1951,305\n" +
		"Bad,,1951,Topps,1952,1\n"

	existing := map[string]struct{}{
		testFingerprint("Willie", "Mays", 1951, "Bowman", "305"): {},
	}

	entries, rowErrs, skipped, err := ParseDictionary(strings.NewReader(csv), existing, testFingerprint)
	require.NoError(t, err)

	// One in-file duplicate plus one already-in-db duplicate
	assert.Equal(t, 2, skipped)

	require.Len(t, rowErrs, 1)
	assert.Equal(t, 6, rowErrs[0].Row)

	require.Len(t, entries, 2)
	assert.Equal(t, "Mantle", entries[0].LastName)
	require.NotNil(t, entries[0].RookieYear)
	assert.Equal(t, 1951, *entries[0].RookieYear)
	assert.Equal(t, "Bowman", entries[1].Brand)
}
