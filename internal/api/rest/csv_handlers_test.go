package rest

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

// doUpload posts content as the "file" part of a multipart form
func doUpload(t *testing.T, router *gin.Engine, path, content string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "upload.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestImportCardsCSV(t *testing.T) {
	st := newFakeStore()
	st.settings[testUserID] = schema.NewDefaultSettings(testUserID)
	router := newTestRouter(st, &fakeMailer{})

	csv := strings.Join([]string{
		"First,Last,Year,Brand,Rookie,Card Number,BookHi,BookHiMid,BookMid,BookLowMid,BookLow,Grade",
		"Mickey,Mantle,1952,Topps,*,311,$200,,,,100,3.0",
		",Nameless,1960,,,,,,,,,",
		"Hank,Aaron,1954,Topps,1,128,150,,,,50,1.0",
	}, "\n")

	w := doUpload(t, router, "/cards/import-csv", csv)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, 2.0, body["imported"])

	errs, ok := body["errors"].([]any)
	require.True(t, ok)
	require.Len(t, errs, 1)
	rowErr := errs[0].(map[string]any)
	assert.Equal(t, 3.0, rowErr["row"])

	// Imported cards were revalued before insert
	require.Len(t, st.cards, 2)
	for _, card := range st.cards {
		assert.NotNil(t, card.Value)
	}
}

func TestImportCardsCSVNothingImportable(t *testing.T) {
	st := newFakeStore()
	router := newTestRouter(st, &fakeMailer{})

	csv := strings.Join([]string{
		"First,Last,Year,Brand,Rookie,Card Number,BookHi,BookHiMid,BookMid,BookLowMid,BookLow,Grade",
		",Nameless,1960,,,,,,,,,",
	}, "\n")

	w := doUpload(t, router, "/cards/import-csv", csv)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, st.cards)
}

func TestExportCardsCSV(t *testing.T) {
	st := newFakeStore()
	st.cards[1] = &schema.Card{
		ID: 1, UserID: testUserID,
		FirstName: "Mickey", LastName: "Mantle", Year: 1952,
		Brand: "Topps", CardNumber: "311", Rookie: true,
		Grade: fp(3.0), BookHigh: fp(200), BookLow: fp(100),
	}
	router := newTestRouter(st, &fakeMailer{})

	w := doJSON(t, router, http.MethodGet, "/cards/export-csv", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "cards.csv")
	assert.Contains(t, w.Body.String(), "Mantle")
	assert.Contains(t, w.Body.String(), "*")
}

func TestValidateDictionaryCSV(t *testing.T) {
	st := newFakeStore()
	st.dict = []schema.DictionaryEntry{
		{ID: 1, FirstName: "Mickey", LastName: "Mantle", Brand: "Topps", Year: 1952, CardNumber: "311"},
	}
	router := newTestRouter(st, &fakeMailer{})

	csv := strings.Join([]string{
		"First,Last,RookieYear,Brand,Year,CardNumber",
		"Mickey,Mantle,1952,Topps,1952,311",
		"Willie,Mays,1951,Bowman,1951,305",
		"Broken,,1950,Topps,1950,1",
	}, "\n")

	w := doUpload(t, router, "/dictionary/validate-csv", csv)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, 1.0, body["importable"])
	assert.Equal(t, 1.0, body["duplicates"])

	// Dry run writes nothing
	assert.Empty(t, st.createdEntries)
}

func TestImportDictionaryCSV(t *testing.T) {
	st := newFakeStore()
	router := newTestRouter(st, &fakeMailer{})

	csv := strings.Join([]string{
		"First,Last,RookieYear,Brand,Year,CardNumber",
		"Willie,Mays,1951,Bowman,1951,305",
		"willie,mays,1951,bowman,1951,305",
	}, "\n")

	w := doUpload(t, router, "/dictionary/import-csv", csv)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, 1.0, body["imported"])
	assert.Equal(t, 1.0, body["duplicates"])
	require.Len(t, st.createdEntries, 1)
}
