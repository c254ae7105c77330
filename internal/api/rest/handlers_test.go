package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/cardstoard/cardstoard-api/internal/adapter"
	"github.com/cardstoard/cardstoard-api/internal/api/middleware"
	"github.com/cardstoard/cardstoard-api/internal/auth"
	"github.com/cardstoard/cardstoard-api/internal/store"
	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testUserID int64 = 1

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time                  { return c.now }
func (c fixedClock) Since(t time.Time) time.Duration { return c.now.Sub(t) }
func (c fixedClock) Sleep(d time.Duration)           {}

// fakeStore embeds the interface so only the methods a test touches need
// implementing; anything else panics loudly.
type fakeStore struct {
	store.Store

	users    []*schema.User
	settings map[int64]*schema.Settings
	cards    map[int64]*schema.Card
	dict     []schema.DictionaryEntry
	sales    map[int64][]schema.CardSale

	createdSettings []*schema.Settings
	createdEntries  []*schema.DictionaryEntry
	createdSales    []*schema.CardSale
	updatedCards    []*schema.Card

	revalueResult *store.RevalueResult
	revalueErr    error
	rookieUpdated int64

	analytics *store.Analytics
	history   []schema.ValuationHistory
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		settings: make(map[int64]*schema.Settings),
		cards:    make(map[int64]*schema.Card),
		sales:    make(map[int64][]schema.CardSale),
	}
}

func (s *fakeStore) GetUserByEmail(ctx context.Context, email string) (*schema.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetUserByID(ctx context.Context, id int64) (*schema.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CreateUser(ctx context.Context, user *schema.User) error {
	user.ID = int64(len(s.users) + 1)
	user.CreatedAt = testNow
	s.users = append(s.users, user)
	return nil
}

func (s *fakeStore) UpdateUser(ctx context.Context, user *schema.User) error {
	return nil
}

func (s *fakeStore) MarkUserVerified(ctx context.Context, email string) error {
	for _, u := range s.users {
		if u.Email == email {
			u.IsVerified = true
		}
	}
	return nil
}

func (s *fakeStore) GetSettings(ctx context.Context, userID int64) (*schema.Settings, error) {
	return s.settings[userID], nil
}

func (s *fakeStore) CreateSettings(ctx context.Context, st *schema.Settings) error {
	s.settings[st.UserID] = st
	s.createdSettings = append(s.createdSettings, st)
	return nil
}

func (s *fakeStore) UpdateSettings(ctx context.Context, userID int64, updates map[string]interface{}) (*schema.Settings, error) {
	existing, ok := s.settings[userID]
	if !ok {
		return nil, store.ErrNoSettings
	}
	if v, ok := updates["rookie_factor"]; ok {
		existing.RookieFactor = v.(float64)
	}
	return existing, nil
}

func (s *fakeStore) GetCard(ctx context.Context, userID, cardID int64) (*schema.Card, error) {
	card, ok := s.cards[cardID]
	if !ok || card.UserID != userID {
		return nil, nil
	}
	return card, nil
}

func (s *fakeStore) CreateCard(ctx context.Context, card *schema.Card) error {
	card.ID = int64(len(s.cards) + 1)
	s.cards[card.ID] = card
	return nil
}

func (s *fakeStore) CreateCards(ctx context.Context, cards []*schema.Card) error {
	for _, card := range cards {
		card.ID = int64(len(s.cards) + 1)
		s.cards[card.ID] = card
	}
	return nil
}

func (s *fakeStore) ListAllUserCards(ctx context.Context, userID int64) ([]schema.Card, error) {
	var out []schema.Card
	for _, card := range s.cards {
		if card.UserID == userID {
			out = append(out, *card)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateCard(ctx context.Context, card *schema.Card) error {
	s.updatedCards = append(s.updatedCards, card)
	s.cards[card.ID] = card
	return nil
}

func (s *fakeStore) DeleteCard(ctx context.Context, userID, cardID int64) error {
	delete(s.cards, cardID)
	return nil
}

func (s *fakeStore) RevalueAllCards(ctx context.Context, userID int64, at time.Time) (*store.RevalueResult, error) {
	return s.revalueResult, s.revalueErr
}

func (s *fakeStore) SearchDictionary(ctx context.Context, firstName, lastName, brand string, year *int) (*schema.DictionaryEntry, error) {
	for i := range s.dict {
		e := &s.dict[i]
		if !strings.EqualFold(e.FirstName, firstName) || !strings.EqualFold(e.LastName, lastName) {
			continue
		}
		if brand != "" && e.Brand != brand {
			continue
		}
		if year != nil && e.Year != *year {
			continue
		}
		return e, nil
	}
	return nil, nil
}

func (s *fakeStore) CreateDictionaryEntry(ctx context.Context, entry *schema.DictionaryEntry) error {
	entry.ID = int64(len(s.dict) + 1)
	s.dict = append(s.dict, *entry)
	s.createdEntries = append(s.createdEntries, entry)
	return nil
}

func (s *fakeStore) CreateDictionaryEntries(ctx context.Context, entries []*schema.DictionaryEntry) error {
	for _, entry := range entries {
		entry.ID = int64(len(s.dict) + 1)
		s.dict = append(s.dict, *entry)
		s.createdEntries = append(s.createdEntries, entry)
	}
	return nil
}

func (s *fakeStore) DictionaryFingerprints(ctx context.Context) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(s.dict))
	for _, e := range s.dict {
		out[store.Fingerprint(e.FirstName, e.LastName, e.Year, e.Brand, e.CardNumber)] = struct{}{}
	}
	return out, nil
}

func (s *fakeStore) SetPlayerRookieYear(ctx context.Context, firstName, lastName string, rookieYear *int) (int64, error) {
	return s.rookieUpdated, nil
}

func (s *fakeStore) CreateCardSale(ctx context.Context, sale *schema.CardSale) error {
	sale.ID = int64(len(s.sales[sale.CardID]) + 1)
	s.sales[sale.CardID] = append(s.sales[sale.CardID], *sale)
	s.createdSales = append(s.createdSales, sale)
	return nil
}

func (s *fakeStore) ListCardSales(ctx context.Context, cardID int64, limit int) ([]schema.CardSale, error) {
	return s.sales[cardID], nil
}

func (s *fakeStore) GetAnalytics(ctx context.Context, userID int64) (*store.Analytics, error) {
	return s.analytics, nil
}

func (s *fakeStore) ListValuationHistory(ctx context.Context, userID int64) ([]schema.ValuationHistory, error) {
	return s.history, nil
}

// fakeMailer records outgoing verification mails
type fakeMailer struct {
	sent []string
}

func (m *fakeMailer) SendVerificationMail(ctx context.Context, to, verifyURL string) error {
	m.sent = append(m.sent, to)
	return nil
}

// authAs stands in for the cookie-JWT middleware
func authAs(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
	}
}

func testIssuer() *auth.TokenIssuer {
	return auth.NewTokenIssuer("test-secret", 15*time.Minute, 24*time.Hour)
}

func newTestRouter(st store.Store, mail *fakeMailer) *gin.Engine {
	h := NewHandler(st, testIssuer(), auth.CookieWriter{}, mail, nil, nil,
		adapter.NewFileSystem(), fixedClock{now: testNow}, Config{
			FrontendURL: "http://localhost:3000",
			TOTPIssuer:  "CardStoard",
		})

	router := gin.New()
	SetupRoutes(router, h, authAs(testUserID))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(newFakeStore(), &fakeMailer{})
	w := doJSON(t, router, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", decode(t, w)["status"])
}
