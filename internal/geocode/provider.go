package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrNotFound means the provider had no usable result for the city.
var ErrNotFound = errors.New("geocode: no result")

type Result struct {
	Lat         float64
	Lng         float64
	DisplayName string
}

// Provider is a single opaque forward-geocode call; the resolver does not
// care which concrete service backs it.
type Provider interface {
	Forward(ctx context.Context, city string) (Result, error)
}

// HTTPProvider queries a Nominatim-style search endpoint.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPProvider) Forward(ctx context.Context, city string) (Result, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, errors.New("geocode: status " + resp.Status)
	}

	var places []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return Result{}, err
	}
	if len(places) == 0 {
		return Result{}, ErrNotFound
	}

	lat, latErr := strconv.ParseFloat(places[0].Lat, 64)
	lng, lngErr := strconv.ParseFloat(places[0].Lon, 64)
	if latErr != nil || lngErr != nil {
		// Result without usable coordinates counts as a miss.
		return Result{}, ErrNotFound
	}

	return Result{Lat: lat, Lng: lng, DisplayName: places[0].DisplayName}, nil
}
