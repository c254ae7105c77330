package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardstoard/cardstoard-api/internal/auth"
	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

func TestRegister(t *testing.T) {
	st := newFakeStore()
	mail := &fakeMailer{}
	router := newTestRouter(st, mail)

	w := doJSON(t, router, http.MethodPost, "/auth/register", map[string]any{
		"email":    "Collector@Example.com",
		"password": "long-enough-password",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, "collector@example.com", body["email"])
	assert.Equal(t, false, body["is_verified"])

	// Default settings provisioned and verification mail sent
	require.Len(t, st.createdSettings, 1)
	assert.Equal(t, schema.DefaultRookieFactor, st.createdSettings[0].RookieFactor)
	assert.Equal(t, []string{"collector@example.com"}, mail.sent)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	st := newFakeStore()
	st.users = append(st.users, &schema.User{ID: 1, Email: "taken@example.com"})
	router := newTestRouter(st, &fakeMailer{})

	w := doJSON(t, router, http.MethodPost, "/auth/register", map[string]any{
		"email":    "taken@example.com",
		"password": "long-enough-password",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, st.users, 1)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	router := newTestRouter(newFakeStore(), &fakeMailer{})

	w := doJSON(t, router, http.MethodPost, "/auth/register", map[string]any{
		"email":    "collector@example.com",
		"password": "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	hash, err := auth.HashPassword("correct-horse-battery")
	require.NoError(t, err)

	st := newFakeStore()
	st.users = append(st.users, &schema.User{ID: 1, Email: "collector@example.com", PasswordHash: hash})
	router := newTestRouter(st, &fakeMailer{})

	w := doJSON(t, router, http.MethodPost, "/auth/login", map[string]any{
		"email":    "collector@example.com",
		"password": "correct-horse-battery",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "collector@example.com", decode(t, w)["email"])
	assertAuthCookies(t, w, true, true)
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := auth.HashPassword("correct-horse-battery")
	require.NoError(t, err)

	st := newFakeStore()
	st.users = append(st.users, &schema.User{ID: 1, Email: "collector@example.com", PasswordHash: hash})
	router := newTestRouter(st, &fakeMailer{})

	w := doJSON(t, router, http.MethodPost, "/auth/login", map[string]any{
		"email":    "collector@example.com",
		"password": "wrong",
	})

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assertAuthCookies(t, w, false, false)
}

func TestLoginRequiresMFACode(t *testing.T) {
	hash, err := auth.HashPassword("correct-horse-battery")
	require.NoError(t, err)

	secret := "JBSWY3DPEHPK3PXP"
	st := newFakeStore()
	st.users = append(st.users, &schema.User{
		ID: 1, Email: "collector@example.com", PasswordHash: hash,
		MFAEnabled: true, MFASecret: &secret,
	})
	router := newTestRouter(st, &fakeMailer{})

	// Correct password without a code prompts for one, no cookies yet
	w := doJSON(t, router, http.MethodPost, "/auth/login", map[string]any{
		"email":    "collector@example.com",
		"password": "correct-horse-battery",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["mfa_required"])
	assertAuthCookies(t, w, false, false)

	// A wrong code is rejected
	w = doJSON(t, router, http.MethodPost, "/auth/login", map[string]any{
		"email":    "collector@example.com",
		"password": "correct-horse-battery",
		"mfa_code": "000000",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefresh(t *testing.T) {
	issuer := testIssuer()
	refresh, err := issuer.IssueRefreshToken(1)
	require.NoError(t, err)

	router := newTestRouter(newFakeStore(), &fakeMailer{})

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: auth.RefreshCookie, Value: refresh})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assertAuthCookies(t, w, true, false)
}

func TestRefreshWithoutCookie(t *testing.T) {
	router := newTestRouter(newFakeStore(), &fakeMailer{})
	w := doJSON(t, router, http.MethodPost, "/auth/refresh", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	issuer := testIssuer()
	access, err := issuer.IssueAccessToken(1)
	require.NoError(t, err)

	router := newTestRouter(newFakeStore(), &fakeMailer{})

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: auth.RefreshCookie, Value: access})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifyEmail(t *testing.T) {
	issuer := testIssuer()
	token, err := issuer.IssueVerifyToken("collector@example.com", 24*time.Hour)
	require.NoError(t, err)

	st := newFakeStore()
	st.users = append(st.users, &schema.User{ID: 1, Email: "collector@example.com"})
	router := newTestRouter(st, &fakeMailer{})

	w := doJSON(t, router, http.MethodGet, "/auth/verify?token="+token, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestVerifyEmailBadToken(t *testing.T) {
	router := newTestRouter(newFakeStore(), &fakeMailer{})

	w := doJSON(t, router, http.MethodGet, "/auth/verify?token=garbage", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

// assertAuthCookies checks which of the auth cookie pair the response set
func assertAuthCookies(t *testing.T, w *httptest.ResponseRecorder, wantAccess, wantRefresh bool) {
	t.Helper()

	var gotAccess, gotRefresh bool
	for _, cookie := range w.Result().Cookies() {
		switch cookie.Name {
		case auth.AccessCookie:
			gotAccess = cookie.Value != ""
		case auth.RefreshCookie:
			gotRefresh = cookie.Value != ""
		}
	}
	assert.Equal(t, wantAccess, gotAccess, "access cookie")
	assert.Equal(t, wantRefresh, gotRefresh, "refresh cookie")
}
