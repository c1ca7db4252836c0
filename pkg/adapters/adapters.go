// Package adapters implements the Data Source Adapter Layer:
// a uniform contract over the geocoder, web-search provider, typed GIS/lookup
// services, and the narrative LLM, plus the shared source-quality scoring
// function workers use to weight evidence and comp candidates. No adapter
// may throw out of the worker contract: every failure surfaces as an empty
// or null result plus an error string.
package adapters

import "context"

// PlaceSuggestion is one autocomplete candidate returned by a Geocoder.
type PlaceSuggestion struct {
	PlaceID     string
	Description string
}

// PlaceDetails is the normalized result of resolving a place ID.
type PlaceDetails struct {
	FormattedAddress string
	City             string
	State            string
	Zip              string
	Lat              float64
	Lng              float64
}

// Geocoder resolves a free-text address into normalized place details.
// Implementations must never return an error for "no result found" — they
// return (nil, nil) and let the caller record an unknown.
type Geocoder interface {
	Autocomplete(ctx context.Context, text, country string) ([]PlaceSuggestion, error)
	Details(ctx context.Context, placeID string) (*PlaceDetails, error)
}

// SearchHit is one normalized web-search result.
type SearchHit struct {
	Title         string
	URL           string
	Snippet       string
	PublishedDate string
	Text          string
}

// SearchProvider performs a web search and returns normalized hits. It must
// return an empty slice (never an error) on any upstream failure.
type SearchProvider interface {
	Search(ctx context.Context, query string, maxResults int, includeText bool) []SearchHit
}

// GISAdapter is the parameterized HTTP contract shared by the typed
// environmental/hazard/government lookups (FEMA, EPA, USGS, HUD, NPS,
// RapidAPI-backed real-estate portals, ...). Each worker supplies its own
// base URL and query parameters; the adapter owns the timeout and circuit
// breaking. A failed call is not retried.
type GISAdapter interface {
	Get(ctx context.Context, baseURL string, params map[string]string) (map[string]interface{}, error)
}

// NarrativeLLM generates free-text narrative content from a prompt. It is a
// fallible capability: callers (the dossier writer) must fall back to a
// deterministic structured rendering on error.
type NarrativeLLM interface {
	Generate(ctx context.Context, prompt string, model string, maxTokens int) (string, error)
}
