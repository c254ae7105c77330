// Package sales runs the recurring auction-sale sync: for every card it asks
// the configured fetcher for recently completed sales and records the ones it
// has not seen before. Failures are logged and skipped, never propagated; a
// bad card or a flaky source must not stop the sweep.
package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/cardstoard/cardstoard-api/internal/adapter"
	"github.com/cardstoard/cardstoard-api/internal/logger"
	"github.com/cardstoard/cardstoard-api/internal/store"
	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

// Sale is one completed listing observed at the source
type Sale struct {
	Price    float64
	SaleDate time.Time
	Source   string
	URL      string
}

// Fetcher retrieves completed sales for a card from an external marketplace
type Fetcher interface {
	FetchSales(ctx context.Context, card *schema.Card) ([]Sale, error)
}

// Syncer owns the scheduled sweep
type Syncer struct {
	store    store.Store
	fetcher  Fetcher
	clock    adapter.Clock
	lookback time.Duration
	cron     *cron.Cron
}

// NewSyncer creates a Syncer. lookbackDays bounds how old an observed sale
// may be and still be recorded.
func NewSyncer(st store.Store, fetcher Fetcher, clock adapter.Clock, lookbackDays int) *Syncer {
	return &Syncer{
		store:    st,
		fetcher:  fetcher,
		clock:    clock,
		lookback: time.Duration(lookbackDays) * 24 * time.Hour,
	}
}

// Start schedules the sweep with the given cron expression and launches the
// scheduler. Returns an error only for an invalid expression.
func (s *Syncer) Start(schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid sales schedule %q: %w", schedule, err)
	}

	c.Start()
	s.cron = c
	logger.Info("sales sync scheduled", zap.String("schedule", schedule))
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish
func (s *Syncer) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// RunOnce sweeps every card once. Exported so an operator can trigger a
// sweep outside the schedule.
func (s *Syncer) RunOnce(ctx context.Context) {
	started := s.clock.Now()

	cards, err := s.store.ListAllCards(ctx)
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("sales sync: failed to list cards: %w", err))
		return
	}

	var recorded, failed int
	for i := range cards {
		n, err := s.syncCard(ctx, &cards[i])
		if err != nil {
			failed++
			logger.WarnCtx(ctx, "sales sync: card failed",
				zap.Int64("card_id", cards[i].ID), zap.Error(err))
			continue
		}
		recorded += n
	}

	logger.InfoCtx(ctx, "sales sync finished",
		zap.Int("cards", len(cards)),
		zap.Int("recorded", recorded),
		zap.Int("failed", failed),
		zap.Duration("took", s.clock.Since(started)))
}

// syncCard fetches with retry and records unseen sales inside the lookback
// window.
func (s *Syncer) syncCard(ctx context.Context, card *schema.Card) (int, error) {
	var sales []Sale
	operation := func() error {
		var err error
		sales, err = s.fetcher.FetchSales(ctx, card)
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return 0, fmt.Errorf("fetch failed: %w", err)
	}

	cutoff := s.clock.Now().Add(-s.lookback)
	var recorded int
	for _, sale := range sales {
		if sale.SaleDate.Before(cutoff) {
			continue
		}

		exists, err := s.store.CardSaleExists(ctx, card.ID, sale.URL)
		if err != nil {
			return recorded, fmt.Errorf("dedupe check failed: %w", err)
		}
		if exists {
			continue
		}

		row := schema.CardSale{
			CardID:   card.ID,
			Price:    sale.Price,
			SaleDate: sale.SaleDate,
			Source:   sale.Source,
			URL:      sale.URL,
		}
		if err := s.store.CreateCardSale(ctx, &row); err != nil {
			return recorded, fmt.Errorf("record failed: %w", err)
		}
		recorded++
	}
	return recorded, nil
}
