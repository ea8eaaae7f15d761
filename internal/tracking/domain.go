package tracking

import "net/url"

const unknownDomain = "unknown"

// ExtractDomain returns the host component of rawURL, or "unknown" when the
// URL has no parsable host. It never fails; malformed input degrades to the
// fallback value.
func ExtractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return unknownDomain
	}
	host := parsed.Hostname()
	if host == "" {
		return unknownDomain
	}
	return host
}
