package adapters

import (
	"strings"
)

// HighTrustDomains always score 0.95, same as a .gov host.
var HighTrustDomains = map[string]bool{
	"tax.nj.gov": true, "countyoffice.org": true, "arcgis.com": true, "esri.com": true,
}

// MediumTrustDomains score 0.70.
var MediumTrustDomains = map[string]bool{
	"realtor.com": true, "redfin.com": true, "zillow.com": true,
	"trulia.com": true, "loopnet.com": true, "crexi.com": true,
}

var categoryDefaultQuality = map[string]bool{
	"public_records": true, "permits": true, "subdivision": true,
}

// SourceQualityScore scores a source URL's trustworthiness in [0,1].
func SourceQualityScore(sourceURL, category string) float64 {
	if sourceURL == "" {
		return 0.25
	}
	if strings.HasPrefix(sourceURL, "internal://") {
		return 0.95
	}

	host := hostOf(sourceURL)
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return 0.25
	}

	if strings.HasSuffix(host, ".gov") || hasTrustedSuffix(host, HighTrustDomains) {
		return 0.95
	}
	if hasTrustedSuffix(host, MediumTrustDomains) {
		return 0.70
	}
	if categoryDefaultQuality[category] {
		return 0.45
	}
	return 0.50
}

func hasTrustedSuffix(host string, domains map[string]bool) bool {
	for domain := range domains {
		if strings.HasSuffix(host, domain) {
			return true
		}
	}
	return false
}

// hostOf extracts the lowercased host/netloc from a URL-ish string without
// requiring it to be a fully valid URL (search-hit URLs are sometimes
// malformed).
func hostOf(rawURL string) string {
	s := strings.ToLower(rawURL)
	if idx := strings.Index(s, "://"); idx != -1 {
		s = s[idx+3:]
	}
	if idx := strings.IndexAny(s, "/?#"); idx != -1 {
		s = s[:idx]
	}
	if idx := strings.Index(s, "@"); idx != -1 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, ":"); idx != -1 {
		s = s[:idx]
	}
	return s
}
