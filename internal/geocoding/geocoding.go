// Package geocoding resolves free-text addresses to coordinates using an
// external HTTP geocoding service.
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/stwalsh4118/rentals/api/internal/config"
	"github.com/stwalsh4118/rentals/api/internal/models"
)

// Geocoder resolves an address to a point.
type Geocoder interface {
	// Geocode returns the best match for query. ok is false, with a nil
	// error, when the service has no match.
	Geocode(ctx context.Context, query string) (point models.Point, ok bool, err error)
}

// StatusError is returned when the geocoding service answers with a non-2xx status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s geocoding returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// New returns the geocoder selected by cfg.Provider.
func New(cfg config.GeocoderConfig) (Geocoder, error) {
	client := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Provider {
	case config.GeocoderNominatim:
		return NewNominatim(cfg.NominatimURL, cfg.NominatimUserAgent, client), nil
	case config.GeocoderMapbox:
		return NewMapbox(cfg.MapboxURL, cfg.MapboxAccessToken, client), nil
	default:
		return nil, fmt.Errorf("unknown geocoder provider %q", cfg.Provider)
	}
}

// Nominatim queries an OpenStreetMap Nominatim server.
type Nominatim struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// NewNominatim creates a Nominatim geocoder. Nominatim's usage policy
// requires an identifying User-Agent.
func NewNominatim(baseURL, userAgent string, client *http.Client) *Nominatim {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Nominatim{client: client, baseURL: baseURL, userAgent: userAgent}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode calls GET /search?q=...&format=json&limit=1 and reads the first result.
func (n *Nominatim) Geocode(ctx context.Context, query string) (models.Point, bool, error) {
	params := url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}
	endpoint := n.baseURL + "/search?" + params.Encode()

	var results []nominatimResult
	if err := getJSON(ctx, n.client, "nominatim", endpoint, n.userAgent, &results); err != nil {
		return models.Point{}, false, err
	}

	if len(results) == 0 || results[0].Lat == "" || results[0].Lon == "" {
		return models.Point{}, false, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return models.Point{}, false, fmt.Errorf("nominatim returned invalid latitude %q: %w", results[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return models.Point{}, false, fmt.Errorf("nominatim returned invalid longitude %q: %w", results[0].Lon, err)
	}

	return models.NewPoint(lng, lat), true, nil
}

// Mapbox queries the Mapbox Geocoding v5 API.
type Mapbox struct {
	client      *http.Client
	baseURL     string
	accessToken string
}

// NewMapbox creates a Mapbox geocoder.
func NewMapbox(baseURL, accessToken string, client *http.Client) *Mapbox {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Mapbox{client: client, baseURL: baseURL, accessToken: accessToken}
}

type mapboxResponse struct {
	Features []struct {
		Center []float64 `json:"center"`
	} `json:"features"`
}

// Geocode reads features[0].center, which Mapbox orders [longitude, latitude].
func (m *Mapbox) Geocode(ctx context.Context, query string) (models.Point, bool, error) {
	params := url.Values{
		"access_token": {m.accessToken},
		"fuzzyMatch":   {"true"},
		"limit":        {"1"},
	}
	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s",
		m.baseURL, url.PathEscape(query), params.Encode())

	var resp mapboxResponse
	if err := getJSON(ctx, m.client, "mapbox", endpoint, "", &resp); err != nil {
		return models.Point{}, false, err
	}

	if len(resp.Features) == 0 || len(resp.Features[0].Center) < 2 {
		return models.Point{}, false, nil
	}

	center := resp.Features[0].Center
	return models.NewPoint(center[0], center[1]), true, nil
}

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

func getJSON(ctx context.Context, client *http.Client, provider, endpoint, userAgent string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", provider, err)
	}
	req.Header.Set("Accept", "application/json")
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Provider: provider, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s response: %w", provider, err)
	}
	return nil
}
