package rest

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardstoard/cardstoard-api/internal/store"
	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

func TestGetAnalytics(t *testing.T) {
	st := newFakeStore()
	st.analytics = &store.Analytics{
		TotalCards: 3,
		TotalValue: 575,
		ByBrand: []store.GroupBreakdown{
			{Label: "Topps", Count: 2, Value: 450},
			{Label: "Bowman", Count: 1, Value: 125},
		},
		ByPlayer: []store.GroupBreakdown{
			{Label: "Mantle, Mickey", Count: 2, Value: 450},
			{Label: "Mays, Willie", Count: 1, Value: 125},
		},
		TrendInventory: []store.MonthBucket{
			{Year: 2026, Month: 7, Count: 2, Value: 450},
			{Year: 2026, Month: 8, Count: 1, Value: 125},
		},
	}
	st.history = []schema.ValuationHistory{
		{UserID: testUserID, Timestamp: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), TotalValue: 560, CardCount: 3},
		{UserID: testUserID, Timestamp: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), TotalValue: 575, CardCount: 3},
	}
	router := newTestRouter(st, &fakeMailer{})

	w := doJSON(t, router, http.MethodGet, "/analytics/", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got AnalyticsDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))

	assert.Equal(t, int64(3), got.TotalCards)
	assert.Equal(t, 575.0, got.TotalValue)
	require.Len(t, got.ByBrand, 2)
	assert.Equal(t, "Topps", got.ByBrand[0].Label)

	// Month buckets are labelled YYYY-MM with zero padding
	require.Len(t, got.TrendInventory, 2)
	assert.Equal(t, "2026-07", got.TrendInventory[0].Month)
	assert.Equal(t, "2026-08", got.TrendInventory[1].Month)

	require.Len(t, got.TrendValuation, 2)
	assert.Equal(t, 575.0, got.TrendValuation[1].TotalValue)
	assert.Equal(t, 3, got.TrendValuation[1].CardCount)
}
