package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// breakerFor wraps every outbound adapter call in its own
// sony/gobreaker.CircuitBreaker: a tripped breaker rejects the call without
// making the network request. HTTPGeocoder and ExaSearch turn that rejection,
// like any other failure, into an empty result; HTTPGISAdapter.Get returns it
// as an error.
func breakerFor(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 4 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	})
}

// HTTPGeocoder implements Geocoder against the Google Places autocomplete +
// details endpoints.
type HTTPGeocoder struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewHTTPGeocoder builds a Google-Places-backed Geocoder.
func NewHTTPGeocoder(apiKey, baseURL string, timeout time.Duration) *HTTPGeocoder {
	if baseURL == "" {
		baseURL = "https://maps.googleapis.com/maps/api/place"
	}
	return &HTTPGeocoder{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
		breaker: breakerFor("geocoder"),
	}
}

func (g *HTTPGeocoder) Autocomplete(ctx context.Context, text, country string) ([]PlaceSuggestion, error) {
	if g.APIKey == "" {
		return nil, nil
	}
	result, err := g.breaker.Execute(func() (interface{}, error) {
		u := fmt.Sprintf("%s/autocomplete/json?%s", g.BaseURL, url.Values{
			"input":      {text},
			"types":      {"address"},
			"components": {"country:" + country},
			"key":        {g.APIKey},
		}.Encode())
		var payload struct {
			Status      string `json:"status"`
			Predictions []struct {
				PlaceID     string `json:"place_id"`
				Description string `json:"description"`
			} `json:"predictions"`
		}
		if err := g.getJSON(ctx, u, &payload); err != nil {
			return nil, err
		}
		if payload.Status != "OK" {
			return []PlaceSuggestion{}, nil
		}
		out := make([]PlaceSuggestion, 0, len(payload.Predictions))
		for _, p := range payload.Predictions {
			out = append(out, PlaceSuggestion{PlaceID: p.PlaceID, Description: p.Description})
		}
		return out, nil
	})
	if err != nil {
		return nil, nil // adapters never escape errors; degrade to "no result"
	}
	return result.([]PlaceSuggestion), nil
}

func (g *HTTPGeocoder) Details(ctx context.Context, placeID string) (*PlaceDetails, error) {
	if g.APIKey == "" {
		return nil, nil
	}
	result, err := g.breaker.Execute(func() (interface{}, error) {
		u := fmt.Sprintf("%s/details/json?%s", g.BaseURL, url.Values{
			"place_id": {placeID},
			"fields":   {"formatted_address,address_components,geometry"},
			"key":      {g.APIKey},
		}.Encode())
		var payload struct {
			Status string `json:"status"`
			Result struct {
				FormattedAddress  string `json:"formatted_address"`
				AddressComponents []struct {
					LongName string   `json:"long_name"`
					Types    []string `json:"types"`
				} `json:"address_components"`
				Geometry struct {
					Location struct {
						Lat float64 `json:"lat"`
						Lng float64 `json:"lng"`
					} `json:"location"`
				} `json:"geometry"`
			} `json:"result"`
		}
		if err := g.getJSON(ctx, u, &payload); err != nil {
			return nil, err
		}
		if payload.Status != "OK" {
			return (*PlaceDetails)(nil), nil
		}
		details := &PlaceDetails{
			FormattedAddress: payload.Result.FormattedAddress,
			Lat:              payload.Result.Geometry.Location.Lat,
			Lng:              payload.Result.Geometry.Location.Lng,
		}
		for _, c := range payload.Result.AddressComponents {
			if len(c.Types) == 0 {
				continue
			}
			switch c.Types[0] {
			case "locality", "postal_town":
				details.City = c.LongName
			case "administrative_area_level_1":
				details.State = c.LongName
			case "postal_code":
				details.Zip = c.LongName
			}
		}
		return details, nil
	})
	if err != nil {
		return nil, nil
	}
	return result.(*PlaceDetails), nil
}

func (g *HTTPGeocoder) getJSON(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// ExaSearch implements SearchProvider against the Exa search API.
type ExaSearch struct {
	APIKey     string
	BaseURL    string
	SearchType string
	Client     *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewExaSearch builds an Exa-backed SearchProvider.
func NewExaSearch(apiKey, baseURL string, timeout time.Duration) *ExaSearch {
	if baseURL == "" {
		baseURL = "https://api.exa.ai"
	}
	return &ExaSearch{
		APIKey:     apiKey,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		SearchType: "auto",
		Client:     &http.Client{Timeout: timeout},
		breaker:    breakerFor("search"),
	}
}

func (s *ExaSearch) Search(ctx context.Context, query string, maxResults int, includeText bool) []SearchHit {
	if s.APIKey == "" {
		return nil
	}
	result, err := s.breaker.Execute(func() (interface{}, error) {
		payload := map[string]interface{}{
			"query":      query,
			"type":       s.SearchType,
			"numResults": maxResults,
		}
		if includeText {
			payload["contents"] = map[string]interface{}{"text": true}
		}
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/search", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("x-api-key", s.APIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.Client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		var decoded struct {
			Results []struct {
				Title         string   `json:"title"`
				URL           string   `json:"url"`
				Text          string   `json:"text"`
				PublishedDate string   `json:"publishedDate"`
				Highlights    []string `json:"highlights"`
			} `json:"results"`
		}
		if err := json.Unmarshal(respBody, &decoded); err != nil {
			return nil, err
		}

		hits := make([]SearchHit, 0, len(decoded.Results))
		for _, r := range decoded.Results {
			if r.URL == "" {
				continue
			}
			snippet := r.Text
			if snippet == "" && len(r.Highlights) > 0 {
				snippet = strings.Join(r.Highlights[:min(2, len(r.Highlights))], " ")
			}
			if len(snippet) > 800 {
				snippet = snippet[:800]
			}
			text := ""
			if includeText {
				text = r.Text
				if len(text) > 25000 {
					text = text[:25000]
				}
			}
			hits = append(hits, SearchHit{
				Title:         firstNonEmpty(r.Title, r.URL),
				URL:           r.URL,
				Snippet:       snippet,
				PublishedDate: r.PublishedDate,
				Text:          text,
			})
		}
		return hits, nil
	})
	if err != nil {
		return nil
	}
	return result.([]SearchHit)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// HTTPGISAdapter is the generic typed GIS/lookup adapter (FEMA, EPA, USGS,
// HUD, NPS, RapidAPI-backed portals): a GET against an operator-supplied
// base URL and query parameters, decoded as JSON.
type HTTPGISAdapter struct {
	Client  *http.Client
	Headers map[string]string
	breaker *gobreaker.CircuitBreaker
}

// NewHTTPGISAdapter builds a generic HTTP GIS adapter with the given
// timeout and optional static headers (e.g. RapidAPI subscription keys).
func NewHTTPGISAdapter(timeout time.Duration, headers map[string]string) *HTTPGISAdapter {
	return &HTTPGISAdapter{
		Client:  &http.Client{Timeout: timeout},
		Headers: headers,
		breaker: breakerFor("gis"),
	}
}

func (a *HTTPGISAdapter) Get(ctx context.Context, baseURL string, params map[string]string) (map[string]interface{}, error) {
	result, err := a.breaker.Execute(func() (interface{}, error) {
		values := url.Values{}
		for k, v := range params {
			values.Set(k, v)
		}
		full := baseURL
		if len(values) > 0 {
			sep := "?"
			if strings.Contains(baseURL, "?") {
				sep = "&"
			}
			full = baseURL + sep + values.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range a.Headers {
			req.Header.Set(k, v)
		}
		resp, err := a.Client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		var out map[string]interface{}
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]interface{}), nil
}
