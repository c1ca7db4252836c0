package comps

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	addressPattern = regexp.MustCompile(`\d{1,6}\s+[A-Za-z0-9 .#-]+,\s*[A-Za-z .-]+,\s*[A-Z]{2}\s*\d{5}`)
	// Listings sometimes lead with a year ("2021 123 Main St, ..."); the
	// street number follows it and the year must not poison the dedupe key.
	yearPrefixPattern = regexp.MustCompile(`^(?:19|20)\d{2}\s+(\d{1,6}\s.+)$`)
	rentPattern       = regexp.MustCompile(`(?i)\$([0-9][0-9,]*)\s*(?:/\s*mo|per\s*month)`)
	pricePattern      = regexp.MustCompile(`\$([0-9][0-9,]*)`)
	bedsPattern       = regexp.MustCompile(`(?i)(\d{1,2})\s*(?:bds?|beds?)`)
	bathsPattern      = regexp.MustCompile(`(?i)(\d{1,2}(?:\.\d+)?)\s*(?:ba|baths?)`)
	sqftPattern       = regexp.MustCompile(`(?i)([0-9][0-9,]{2,})\s*(?:sq ?ft|sqft)`)
	daysOnPattern     = regexp.MustCompile(`(?i)(\d+)\s+days on zillow`)
	cityStateZip      = regexp.MustCompile(`,\s*([A-Za-z .-]+),\s*([A-Z]{2})\s*(\d{5})`)

	maxExtractedMatches = 40
	extractWindow       = 260
)

// ExtractedRow is a raw comp row parsed from unstructured search-hit text,
// prior to hard-filtering and scoring.
type ExtractedRow struct {
	Address string
	City    string
	State   string
	Zip     string
	Price   *float64
	Beds    *int
	Baths   *float64
	Sqft    *int
	Date    *time.Time
}

// ExtractCompRows scans raw text for address-anchored windows and parses a
// candidate comp row from each. isRental selects rent-price parsing
// ($n/mo or $n per month, capped at $15,000) over sale-price parsing
// (first $n >= $50,000). The date resolves in priority order: a relative
// "N days on zillow" marker, an inline month-name date, then the search
// hit's published date. Rows lacking both a price and a date are rejected.
func ExtractCompRows(text string, isRental bool, published *time.Time, now time.Time) []ExtractedRow {
	if now.IsZero() {
		now = time.Now()
	}

	matches := addressPattern.FindAllStringIndex(text, -1)
	rows := make([]ExtractedRow, 0, len(matches))

	for i, loc := range matches {
		if i >= maxExtractedMatches {
			break
		}
		start := loc[0] - extractWindow
		if start < 0 {
			start = 0
		}
		end := loc[1] + extractWindow
		if end > len(text) {
			end = len(text)
		}
		window := text[start:end]
		addressText := text[loc[0]:loc[1]]
		if m := yearPrefixPattern.FindStringSubmatch(addressText); m != nil {
			addressText = m[1]
		}

		row := ExtractedRow{Address: addressText}
		if m := cityStateZip.FindStringSubmatch(addressText); m != nil {
			row.City = strings.TrimSpace(m[1])
			row.State = m[2]
			row.Zip = m[3]
		}

		row.Price = extractPrice(window, isRental)
		row.Beds = extractInt(bedsPattern, window)
		row.Baths = extractFloat(bathsPattern, window)
		row.Sqft = extractSqft(window)
		row.Date = extractDate(window, now)
		if row.Date == nil {
			row.Date = published
		}

		if row.Price == nil && row.Date == nil {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func extractPrice(window string, isRental bool) *float64 {
	if isRental {
		if m := rentPattern.FindStringSubmatch(window); m != nil {
			if v, ok := parseMoney(m[1]); ok && v <= 15000 {
				return &v
			}
		}
		return nil
	}

	for _, m := range pricePattern.FindAllStringSubmatch(window, -1) {
		if v, ok := parseMoney(m[1]); ok && v >= 50000 {
			return &v
		}
	}
	return nil
}

func parseMoney(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func extractInt(pattern *regexp.Regexp, window string) *int {
	m := pattern.FindStringSubmatch(window)
	if m == nil {
		return nil
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &v
}

func extractFloat(pattern *regexp.Regexp, window string) *float64 {
	m := pattern.FindStringSubmatch(window)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &v
}

func extractSqft(window string) *int {
	m := sqftPattern.FindStringSubmatch(window)
	if m == nil {
		return nil
	}
	cleaned := strings.ReplaceAll(m[1], ",", "")
	v, err := strconv.Atoi(cleaned)
	if err != nil {
		return nil
	}
	return &v
}

var monthNamePattern = regexp.MustCompile(`(?i)(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2}),?\s+(\d{4})`)

var monthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,
}

// ParsePublishedDate parses a search hit's published-date string in the
// common ISO shapes providers emit; unparseable or empty input yields nil.
func ParsePublishedDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if d, err := time.Parse(layout, raw); err == nil {
			return &d
		}
	}
	return nil
}

func extractDate(window string, now time.Time) *time.Time {
	if m := daysOnPattern.FindStringSubmatch(window); m != nil {
		days, err := strconv.Atoi(m[1])
		if err == nil {
			d := now.AddDate(0, 0, -days)
			return &d
		}
	}
	if m := monthNamePattern.FindStringSubmatch(window); m != nil {
		month, ok := monthNames[strings.ToLower(m[1])]
		if ok {
			day, errDay := strconv.Atoi(m[2])
			year, errYear := strconv.Atoi(m[3])
			if errDay == nil && errYear == nil {
				d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
				return &d
			}
		}
	}
	return nil
}
