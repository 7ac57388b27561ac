package scraper

import (
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Site identifies which extraction ruleset applies to a product URL
type Site string

const (
	SiteAmazon   Site = "amazon"
	SiteFlipkart Site = "flipkart"
	SiteUnknown  Site = "unknown"
)

// ScrapeResult is the outcome of one scrape attempt. Site is always populated
// so callers can tell "unsupported site" from "supported site, transient
// failure".
type ScrapeResult struct {
	Success bool
	Title   string
	Price   float64
	Site    Site
	Err     error
}

// ErrorMessage returns the human-readable failure reason, or "" on success
func (r ScrapeResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// priceRule locates a candidate price element and parses it. Returns false
// when the element is absent or unparseable so the chain falls through to the
// next rule.
type priceRule struct {
	name    string
	extract func(doc *goquery.Document) (float64, bool)
}

// siteProfile bundles everything site-specific: request headers, timeout
// padding, title selectors and the ordered price rule chain. Rule order is
// fallback priority and must be preserved; later rules cover markup variants.
type siteProfile struct {
	headers        map[string]string
	timeoutPadding time.Duration
	titleSelectors []string
	defaultTitle   string
	priceRules     []priceRule
	failureHint    string
}
