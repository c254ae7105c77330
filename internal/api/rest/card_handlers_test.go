package rest

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardstoard/cardstoard-api/internal/store"
	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

func fp(v float64) *float64 { return &v }

func TestCreateCard(t *testing.T) {
	st := newFakeStore()
	st.settings[testUserID] = schema.NewDefaultSettings(testUserID)
	router := newTestRouter(st, &fakeMailer{})

	w := doJSON(t, router, http.MethodPost, "/cards/", map[string]any{
		"first_name":  "Mickey",
		"last_name":   "Mantle",
		"year":        1952,
		"brand":       "Topps",
		"card_number": "311",
		"rookie":      true,
		"grade":       3.0,
		"book_high":   200.0,
		"book_low":    100.0,
	})

	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Mantle", body["last_name"])
	// Mint rookie: avg book 150, grade 3.0, auto factor 1.0
	assert.Equal(t, 1.0, body["market_factor"])
	assert.Equal(t, 450.0, body["value"])

	// A fully specified card grows the dictionary
	require.Len(t, st.createdEntries, 1)
	assert.Equal(t, "311", st.createdEntries[0].CardNumber)
	require.NotNil(t, st.createdEntries[0].RookieYear)
	assert.Equal(t, 1952, *st.createdEntries[0].RookieYear)
}

func TestCreateCardRejectsOffScaleGrade(t *testing.T) {
	st := newFakeStore()
	router := newTestRouter(st, &fakeMailer{})

	w := doJSON(t, router, http.MethodPost, "/cards/", map[string]any{
		"first_name": "Hank",
		"last_name":  "Aaron",
		"year":       1954,
		"grade":      2.5,
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, st.cards)
}

func TestGetCardNotFound(t *testing.T) {
	st := newFakeStore()
	// Owned by someone else
	st.cards[7] = &schema.Card{ID: 7, UserID: 99, FirstName: "Willie", LastName: "Mays", Year: 1951}
	router := newTestRouter(st, &fakeMailer{})

	w := doJSON(t, router, http.MethodGet, "/cards/7", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCardValue(t *testing.T) {
	st := newFakeStore()
	st.settings[testUserID] = schema.NewDefaultSettings(testUserID)
	st.cards[3] = &schema.Card{
		ID: 3, UserID: testUserID,
		FirstName: "Nolan", LastName: "Ryan", Year: 1968,
		Grade: fp(3.0), BookHigh: fp(200), BookLow: fp(100),
	}
	router := newTestRouter(st, &fakeMailer{})

	w := doJSON(t, router, http.MethodPost, "/cards/3/value", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, 150.0, body["avg_book"])
	// Non-rookie mint grade takes the mint factor: round(150 * 3.0 * 0.85)
	assert.Equal(t, schema.DefaultMTGradeFactor, body["market_factor"])
	assert.Equal(t, 383.0, body["value"])
	require.Len(t, st.updatedCards, 1)
}

func TestCardValueWithoutSettings(t *testing.T) {
	st := newFakeStore()
	st.cards[3] = &schema.Card{ID: 3, UserID: testUserID, FirstName: "Nolan", LastName: "Ryan", Year: 1968}
	router := newTestRouter(st, &fakeMailer{})

	w := doJSON(t, router, http.MethodPost, "/cards/3/value", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRevalueAll(t *testing.T) {
	st := newFakeStore()
	st.revalueResult = &store.RevalueResult{Updated: 3, TotalValue: 575}
	router := newTestRouter(st, &fakeMailer{})

	w := doJSON(t, router, http.MethodPost, "/cards/revalue-all", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, 3.0, body["updated"])
	assert.Equal(t, "Revalued 3 cards", body["message"])
}

func TestRevalueAllWithoutSettings(t *testing.T) {
	st := newFakeStore()
	st.revalueErr = store.ErrNoSettings
	router := newTestRouter(st, &fakeMailer{})

	w := doJSON(t, router, http.MethodPost, "/cards/revalue-all", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteCard(t *testing.T) {
	st := newFakeStore()
	st.cards[5] = &schema.Card{ID: 5, UserID: testUserID, FirstName: "Cal", LastName: "Ripken Jr", Year: 1982}
	router := newTestRouter(st, &fakeMailer{})

	w := doJSON(t, router, http.MethodDelete, "/cards/5", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, st.cards)
}
