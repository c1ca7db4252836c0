package adapters

import "context"

// NullGeocoder is the zero-configuration Geocoder: every call reports no
// result, the fail-closed "no provider configured" convention.
type NullGeocoder struct{}

func (NullGeocoder) Autocomplete(ctx context.Context, text, country string) ([]PlaceSuggestion, error) {
	return nil, nil
}

func (NullGeocoder) Details(ctx context.Context, placeID string) (*PlaceDetails, error) {
	return nil, nil
}

// NullSearch is the default SearchProvider: it always returns an empty
// result set, never an error.
type NullSearch struct{}

func (NullSearch) Search(ctx context.Context, query string, maxResults int, includeText bool) []SearchHit {
	return nil
}

// NullGIS is a GISAdapter that always reports "no data", for test fixtures
// and environments with no outbound network access configured.
type NullGIS struct{}

func (NullGIS) Get(ctx context.Context, baseURL string, params map[string]string) (map[string]interface{}, error) {
	return nil, nil
}

// NullLLM always fails, forcing callers onto the deterministic structured
// fallback path.
type NullLLM struct{}

func (NullLLM) Generate(ctx context.Context, prompt, model string, maxTokens int) (string, error) {
	return "", errNarrativeUnavailable
}

var errNarrativeUnavailable = narrativeUnavailableError{}

type narrativeUnavailableError struct{}

func (narrativeUnavailableError) Error() string { return "narrative LLM adapter not configured" }
