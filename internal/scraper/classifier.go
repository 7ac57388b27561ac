package scraper

import (
	"net/url"
	"strings"
)

// Classify inspects a URL's host and decides which extraction ruleset
// applies. Unmatched hosts classify as SiteUnknown; this is not an error.
func Classify(rawURL string) Site {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return SiteUnknown
	}

	host := strings.ToLower(parsed.Hostname())

	switch {
	case strings.Contains(host, "amazon.in"),
		strings.Contains(host, "amazon.com"),
		strings.Contains(host, "amzn.in"):
		return SiteAmazon
	case strings.Contains(host, "flipkart.com"):
		return SiteFlipkart
	default:
		return SiteUnknown
	}
}
