package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutocompleteRejectsShortInput(t *testing.T) {
	t.Parallel()
	h := NewPlacesHandler("key")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/places/autocomplete?input=a", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Autocomplete(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAutocompleteWithoutKeyIs503(t *testing.T) {
	t.Parallel()
	h := NewPlacesHandler("")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/places/autocomplete?input=main+st", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Autocomplete(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDetailsRequiresPlaceID(t *testing.T) {
	t.Parallel()
	h := NewPlacesHandler("key")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/places/details", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Details(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "place_id")
}

func TestDetailsWithoutKeyIs503(t *testing.T) {
	t.Parallel()
	h := NewPlacesHandler("")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/places/details?place_id=abc", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Details(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
