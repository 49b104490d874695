package scheme

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"themedmark/model"
)

func newTestHandler(t *testing.T) (*http.ServeMux, *Registry, *[]string) {
	t.Helper()
	r := NewRegistry(nil)
	var notices []string
	h := NewHandler(r, func() model.Mode { return model.Light }, func(msg string) { notices = append(notices, msg) })
	mux := http.NewServeMux()
	h.Register(mux)
	return mux, r, &notices
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandler_CRUD(t *testing.T) {
	mux, r, notices := newTestHandler(t)

	rec := do(mux, http.MethodPost, "/api/schemes", `{"name":"Important","lightColor":"#ff0000","darkColor":"#aa0000"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.ColorScheme
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)

	rec = do(mux, http.MethodGet, "/api/schemes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.ColorScheme
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = do(mux, http.MethodPut, "/api/schemes/"+created.ID, `{"name":"Important","lightColor":"#ff2222","darkColor":"#aa0000"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	s, err := r.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "#ff2222", s.LightColor)

	rec = do(mux, http.MethodDelete, "/api/schemes/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, r.List())

	assert.Equal(t, []string{
		`Successfully created the scheme "Important"`,
		`Successfully updated the scheme "Important"`,
		`Successfully deleted the scheme "Important"`,
	}, *notices)
}

func TestHandler_Errors(t *testing.T) {
	mux, _, _ := newTestHandler(t)

	rec := do(mux, http.MethodPost, "/api/schemes", `{"name":"x","lightColor":"bad","darkColor":"#000"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(mux, http.MethodPost, "/api/schemes", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	do(mux, http.MethodPost, "/api/schemes", `{"name":"A","lightColor":"#fff","darkColor":"#000"}`)
	rec = do(mux, http.MethodPost, "/api/schemes", `{"name":"a","lightColor":"#fff","darkColor":"#000"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(mux, http.MethodGet, "/api/schemes/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(mux, http.MethodPatch, "/api/schemes", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandler_DefaultName(t *testing.T) {
	mux, r, _ := newTestHandler(t)
	rec := do(mux, http.MethodPost, "/api/schemes", `{"lightColor":"#fff","darkColor":"#000"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, DefaultName, r.List()[0].Name)
}

func TestHandler_Menu(t *testing.T) {
	mux, r, _ := newTestHandler(t)
	_, err := r.Add(model.ColorScheme{Name: "Important", LightColor: "#ff0000", DarkColor: "#aa0000"})
	require.NoError(t, err)

	rec := do(mux, http.MethodGet, "/api/schemes/menu", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "background:#ff0000;")
	assert.Contains(t, body, "Light theme")
	assert.Contains(t, body, "Important</button>")

	rec = do(mux, http.MethodGet, "/api/schemes/menu?mode=dark", "")
	assert.Contains(t, rec.Body.String(), "background:#aa0000;")
	assert.Contains(t, rec.Body.String(), "Dark theme")
}

func TestRenderSwatches(t *testing.T) {
	out := RenderSwatches([]model.ColorScheme{{Name: "My Scheme", LightColor: "#fff", DarkColor: "#000"}}, model.Dark)
	assert.Contains(t, out, "My Scheme")
	assert.Contains(t, out, "my-scheme")
	assert.Contains(t, out, "dark #000")
	assert.Contains(t, out, "light #fff")

	assert.Contains(t, RenderSwatches(nil, model.Light), "no color schemes configured")
}
