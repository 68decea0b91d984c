package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

const placesBaseURL = "https://maps.googleapis.com/maps/api/place"

// PlacesHandler proxies the two Google Places calls the checkout
// address form needs, keeping the API key server-side.
type PlacesHandler struct {
	apiKey string
	http   *http.Client
}

func NewPlacesHandler(apiKey string) *PlacesHandler {
	return &PlacesHandler{
		apiKey: apiKey,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

type prediction struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

// Autocomplete GET /api/places/autocomplete?input=
func (h *PlacesHandler) Autocomplete(c echo.Context) error {
	input := c.QueryParam("input")
	if len(input) < 2 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "input must be at least 2 characters",
		})
	}
	if h.apiKey == "" {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "places API key not configured",
		})
	}

	query := url.Values{}
	query.Set("input", input)
	query.Set("types", "address")
	query.Set("key", h.apiKey)

	res, err := h.http.Get(placesBaseURL + "/autocomplete/json?" + query.Encode())
	if err != nil {
		return h.upstreamError(c, err)
	}
	defer res.Body.Close()

	var upstream struct {
		Status      string `json:"status"`
		Predictions []struct {
			PlaceID     string `json:"place_id"`
			Description string `json:"description"`
		} `json:"predictions"`
	}
	if err := json.NewDecoder(res.Body).Decode(&upstream); err != nil {
		return h.upstreamError(c, err)
	}
	if upstream.Status != "OK" && upstream.Status != "ZERO_RESULTS" {
		log.Warnf("places autocomplete status %s", upstream.Status)
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "places lookup failed",
		})
	}

	// 最多返回 7 条
	predictions := make([]prediction, 0, 7)
	for _, p := range upstream.Predictions {
		if len(predictions) == 7 {
			break
		}
		predictions = append(predictions, prediction{PlaceID: p.PlaceID, Description: p.Description})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"predictions": predictions,
	})
}

// Details GET /api/places/details?place_id=
func (h *PlacesHandler) Details(c echo.Context) error {
	placeID := c.QueryParam("place_id")
	if placeID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "place_id is required",
		})
	}
	if h.apiKey == "" {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "places API key not configured",
		})
	}

	query := url.Values{}
	query.Set("place_id", placeID)
	query.Set("fields", "place_id,formatted_address,name,geometry")
	query.Set("key", h.apiKey)

	res, err := h.http.Get(placesBaseURL + "/details/json?" + query.Encode())
	if err != nil {
		return h.upstreamError(c, err)
	}
	defer res.Body.Close()

	var upstream struct {
		Status string `json:"status"`
		Result struct {
			PlaceID          string `json:"place_id"`
			FormattedAddress string `json:"formatted_address"`
			Name             string `json:"name"`
			Geometry         struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"result"`
	}
	if err := json.NewDecoder(res.Body).Decode(&upstream); err != nil {
		return h.upstreamError(c, err)
	}
	if upstream.Status != "OK" {
		log.Warnf("places details status %s", upstream.Status)
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "places lookup failed",
		})
	}

	return c.JSON(http.StatusOK, upstream.Result)
}

func (h *PlacesHandler) upstreamError(c echo.Context, err error) error {
	log.Warnf("places upstream error: %v", err)
	return c.JSON(http.StatusBadGateway, map[string]string{
		"error": "places lookup failed",
	})
}
