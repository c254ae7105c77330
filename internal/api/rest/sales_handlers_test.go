package rest

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

func TestCreateSale(t *testing.T) {
	st := newFakeStore()
	st.cards[4] = &schema.Card{ID: 4, UserID: testUserID, FirstName: "Ken", LastName: "Griffey Jr", Year: 1989}
	router := newTestRouter(st, &fakeMailer{})

	w := doJSON(t, router, http.MethodPost, "/valuation/sales", map[string]any{
		"card_id":   4,
		"price":     42.50,
		"sale_date": testNow.Add(-24 * time.Hour).Format(time.RFC3339),
	})

	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, 42.5, body["price"])
	// Unsourced sales default to manual
	assert.Equal(t, "manual", body["source"])
	require.Len(t, st.createdSales, 1)
}

func TestCreateSaleForeignCard(t *testing.T) {
	st := newFakeStore()
	st.cards[4] = &schema.Card{ID: 4, UserID: 99}
	router := newTestRouter(st, &fakeMailer{})

	w := doJSON(t, router, http.MethodPost, "/valuation/sales", map[string]any{
		"card_id":   4,
		"price":     42.50,
		"sale_date": testNow.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListSalesLimitValidation(t *testing.T) {
	st := newFakeStore()
	st.cards[4] = &schema.Card{ID: 4, UserID: testUserID}
	router := newTestRouter(st, &fakeMailer{})

	w := doJSON(t, router, http.MethodGet, "/valuation/sales/4?limit=0", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/valuation/sales/4?limit=501", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/valuation/sales/4?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRollingAvg(t *testing.T) {
	now := testNow
	sales := []schema.CardSale{
		{Price: 100, SaleDate: now.AddDate(0, 0, -10)},
		{Price: 200, SaleDate: now.AddDate(0, 0, -60)},
		{Price: 300, SaleDate: now.AddDate(0, 0, -400)},
	}

	got := rollingAvg(sales, now, 30)
	require.NotNil(t, got)
	assert.Equal(t, 100.0, *got)

	got = rollingAvg(sales, now, 90)
	require.NotNil(t, got)
	assert.Equal(t, 150.0, *got)

	got = rollingAvg(sales, now, 365)
	require.NotNil(t, got)
	assert.Equal(t, 150.0, *got)

	assert.Nil(t, rollingAvg(nil, now, 30))
}

func TestFetchSalesNowUnconfigured(t *testing.T) {
	// The test router wires no sales runner
	router := newTestRouter(newFakeStore(), &fakeMailer{})

	w := doJSON(t, router, http.MethodPost, "/valuation/fetch-now", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatUnconfigured(t *testing.T) {
	router := newTestRouter(newFakeStore(), &fakeMailer{})

	w := doJSON(t, router, http.MethodPost, "/chat/", map[string]any{
		"message": "what is my collection worth?",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
