// Package csvio parses and renders the card and dictionary CSV formats.
// Import is lenient row by row: bad rows are reported with their line number
// and skipped, good rows still load.
package csvio

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

// RowError describes one rejected CSV row. Row numbers are 1-based and count
// the header, matching what the user sees in a spreadsheet.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// CardRow is the card CSV wire format
type CardRow struct {
	First      string `csv:"First"`
	Last       string `csv:"Last"`
	Year       string `csv:"Year"`
	Brand      string `csv:"Brand"`
	Rookie     string `csv:"Rookie"`
	CardNumber string `csv:"Card Number"`
	BookHi     string `csv:"BookHi"`
	BookHiMid  string `csv:"BookHiMid"`
	BookMid    string `csv:"BookMid"`
	BookLowMid string `csv:"BookLowMid"`
	BookLow    string `csv:"BookLow"`
	Grade      string `csv:"Grade"`
}

// DictionaryRow is the dictionary CSV wire format
type DictionaryRow struct {
	First      string `csv:"First"`
	Last       string `csv:"Last"`
	RookieYear string `csv:"RookieYear"`
	Brand      string `csv:"Brand"`
	Year       string `csv:"Year"`
	CardNumber string `csv:"CardNumber"`
}

// ParseRookie normalizes the legacy rookie encodings. Historical exports used
// "*" and "1"; newer ones use booleans. Anything unrecognized is not a rookie.
func ParseRookie(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "*", "1", "true", "t", "yes", "y":
		return true
	default:
		return false
	}
}

// ParseCards reads the card CSV format and returns the cards that parsed
// cleanly plus a row error for each rejected line. Derived fields
// (market_factor, value) are left unset; the caller revalues before insert.
func ParseCards(r io.Reader, userID int64) ([]*schema.Card, []RowError, error) {
	var rows []CardRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	var cards []*schema.Card
	var rowErrs []RowError
	for i, row := range rows {
		// +2: 1-based plus the header line
		lineNo := i + 2

		card, err := cardFromRow(row, userID)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: lineNo, Message: err.Error()})
			continue
		}
		cards = append(cards, card)
	}
	return cards, rowErrs, nil
}

func cardFromRow(row CardRow, userID int64) (*schema.Card, error) {
	first := strings.TrimSpace(row.First)
	last := strings.TrimSpace(row.Last)
	if first == "" || last == "" {
		return nil, fmt.Errorf("missing player name")
	}

	year, err := parseYear(row.Year)
	if err != nil {
		return nil, err
	}

	card := schema.Card{
		UserID:     userID,
		FirstName:  first,
		LastName:   last,
		Year:       year,
		Brand:      strings.TrimSpace(row.Brand),
		CardNumber: strings.TrimSpace(row.CardNumber),
		Rookie:     ParseRookie(row.Rookie),
	}

	books := []struct {
		raw  string
		name string
		dst  **float64
	}{
		{row.BookHi, "BookHi", &card.BookHigh},
		{row.BookHiMid, "BookHiMid", &card.BookHighMid},
		{row.BookMid, "BookMid", &card.BookMid},
		{row.BookLowMid, "BookLowMid", &card.BookLowMid},
		{row.BookLow, "BookLow", &card.BookLow},
	}
	for _, b := range books {
		v, err := parseOptionalFloat(b.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", b.name, strings.TrimSpace(b.raw))
		}
		if v != nil && *v < 0 {
			return nil, fmt.Errorf("negative %s", b.name)
		}
		*b.dst = v
	}

	grade, err := parseOptionalFloat(row.Grade)
	if err != nil {
		return nil, fmt.Errorf("invalid Grade %q", strings.TrimSpace(row.Grade))
	}
	if grade != nil && !schema.GradeValid(*grade) {
		return nil, fmt.Errorf("grade %v is not on the grading scale", *grade)
	}
	card.Grade = grade

	return &card, nil
}

// ExportCards renders the user's cards in the same format ParseCards accepts,
// so an export re-imports losslessly. Rookie is written as "*" for
// compatibility with historical sheets.
func ExportCards(w io.Writer, cards []schema.Card) error {
	rows := make([]CardRow, 0, len(cards))
	for _, c := range cards {
		row := CardRow{
			First:      c.FirstName,
			Last:       c.LastName,
			Year:       strconv.Itoa(c.Year),
			Brand:      c.Brand,
			CardNumber: c.CardNumber,
			BookHi:     formatOptionalFloat(c.BookHigh),
			BookHiMid:  formatOptionalFloat(c.BookHighMid),
			BookMid:    formatOptionalFloat(c.BookMid),
			BookLowMid: formatOptionalFloat(c.BookLowMid),
			BookLow:    formatOptionalFloat(c.BookLow),
			Grade:      formatOptionalFloat(c.Grade),
		}
		if c.Rookie {
			row.Rookie = "*"
		}
		rows = append(rows, row)
	}
	return gocsv.Marshal(&rows, w)
}

// ParseDictionary reads the dictionary CSV format. Rows whose fingerprint is
// already in existing are skipped and counted, not errored; the dictionary is
// shared and imports overlap.
func ParseDictionary(r io.Reader, existing map[string]struct{}, fingerprint func(first, last string, year int, brand, cardNumber string) string) ([]*schema.DictionaryEntry, []RowError, int, error) {
	var rows []DictionaryRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, nil, 0, fmt.Errorf("failed to parse csv: %w", err)
	}

	seen := make(map[string]struct{}, len(existing))
	for k := range existing {
		seen[k] = struct{}{}
	}

	var entries []*schema.DictionaryEntry
	var rowErrs []RowError
	var skipped int
	for i, row := range rows {
		lineNo := i + 2

		entry, err := dictionaryEntryFromRow(row)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: lineNo, Message: err.Error()})
			continue
		}

		key := fingerprint(entry.FirstName, entry.LastName, entry.Year, entry.Brand, entry.CardNumber)
		if _, dup := seen[key]; dup {
			skipped++
			continue
		}
		seen[key] = struct{}{}
		entries = append(entries, entry)
	}
	return entries, rowErrs, skipped, nil
}

func dictionaryEntryFromRow(row DictionaryRow) (*schema.DictionaryEntry, error) {
	first := strings.TrimSpace(row.First)
	last := strings.TrimSpace(row.Last)
	if first == "" || last == "" {
		return nil, fmt.Errorf("missing player name")
	}

	year, err := parseYear(row.Year)
	if err != nil {
		return nil, err
	}

	entry := schema.DictionaryEntry{
		FirstName:  first,
		LastName:   last,
		Year:       year,
		Brand:      strings.TrimSpace(row.Brand),
		CardNumber: strings.TrimSpace(row.CardNumber),
	}

	if raw := strings.TrimSpace(row.RookieYear); raw != "" {
		ry, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid RookieYear %q", raw)
		}
		entry.RookieYear = &ry
	}
	return &entry, nil
}

func parseYear(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("missing year")
	}
	year, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid year %q", trimmed)
	}
	return year, nil
}

func parseOptionalFloat(raw string) (*float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	// Tolerate currency formatting from spreadsheet exports
	trimmed = strings.TrimPrefix(trimmed, "$")
	trimmed = strings.ReplaceAll(trimmed, ",", "")

	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
