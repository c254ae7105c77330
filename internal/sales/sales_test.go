package sales

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardstoard/cardstoard-api/internal/store"
	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time                  { return c.now }
func (c fixedClock) Since(t time.Time) time.Duration { return c.now.Sub(t) }
func (c fixedClock) Sleep(d time.Duration)           {}

// fakeStore embeds the interface so only the methods the sweep touches need
// implementing; anything else panics loudly.
type fakeStore struct {
	store.Store
	cards    []schema.Card
	existing map[string]bool
	recorded []schema.CardSale
}

func (s *fakeStore) ListAllCards(ctx context.Context) ([]schema.Card, error) {
	return s.cards, nil
}

func (s *fakeStore) CardSaleExists(ctx context.Context, cardID int64, url string) (bool, error) {
	return s.existing[url], nil
}

func (s *fakeStore) CreateCardSale(ctx context.Context, sale *schema.CardSale) error {
	s.recorded = append(s.recorded, *sale)
	return nil
}

type fakeFetcher struct {
	salesByCard map[int64][]Sale
	failFor     map[int64]bool
	calls       map[int64]int
}

func (f *fakeFetcher) FetchSales(ctx context.Context, card *schema.Card) ([]Sale, error) {
	if f.calls == nil {
		f.calls = make(map[int64]int)
	}
	f.calls[card.ID]++
	if f.failFor[card.ID] {
		return nil, errors.New("marketplace unavailable")
	}
	return f.salesByCard[card.ID], nil
}

func TestRunOnce(t *testing.T) {
	now := time.Date(2026, 9, 1, 3, 0, 0, 0, time.UTC)

	st := &fakeStore{
		cards: []schema.Card{
			{ID: 1, FirstName: "Mickey", LastName: "Mantle"},
			{ID: 2, FirstName: "Hank", LastName: "Aaron"},
		},
		existing: map[string]bool{
			"https://example.com/seen": true,
		},
	}
	fetcher := &fakeFetcher{
		salesByCard: map[int64][]Sale{
			1: {
				{Price: 120, SaleDate: now.Add(-24 * time.Hour), Source: "eBay", URL: "https://example.com/fresh"},
				{Price: 110, SaleDate: now.Add(-48 * time.Hour), Source: "eBay", URL: "https://example.com/seen"},
				{Price: 90, SaleDate: now.Add(-40 * 24 * time.Hour), Source: "eBay", URL: "https://example.com/stale"},
			},
			2: {
				{Price: 75, SaleDate: now.Add(-72 * time.Hour), Source: "eBay", URL: "https://example.com/aaron"},
			},
		},
	}

	syncer := NewSyncer(st, fetcher, fixedClock{now: now}, 30)
	syncer.RunOnce(context.Background())

	// Fresh sale recorded, already-seen URL and stale sale skipped
	require.Len(t, st.recorded, 2)
	assert.Equal(t, int64(1), st.recorded[0].CardID)
	assert.Equal(t, "https://example.com/fresh", st.recorded[0].URL)
	assert.Equal(t, 120.0, st.recorded[0].Price)
	assert.Equal(t, int64(2), st.recorded[1].CardID)
}

func TestRunOnceFailureIsolated(t *testing.T) {
	now := time.Date(2026, 9, 1, 3, 0, 0, 0, time.UTC)

	st := &fakeStore{
		cards: []schema.Card{
			{ID: 1},
			{ID: 2},
		},
		existing: map[string]bool{},
	}
	fetcher := &fakeFetcher{
		failFor: map[int64]bool{1: true},
		salesByCard: map[int64][]Sale{
			2: {{Price: 50, SaleDate: now.Add(-time.Hour), Source: "eBay", URL: "https://example.com/ok"}},
		},
	}

	syncer := NewSyncer(st, fetcher, fixedClock{now: now}, 30)
	syncer.RunOnce(context.Background())

	// Card 1 fails through its retries; card 2 still records
	assert.Equal(t, 4, fetcher.calls[1])
	require.Len(t, st.recorded, 1)
	assert.Equal(t, int64(2), st.recorded[0].CardID)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	syncer := NewSyncer(&fakeStore{}, NoopFetcher{}, fixedClock{}, 30)
	err := syncer.Start("not a cron expression")
	assert.Error(t, err)
}
