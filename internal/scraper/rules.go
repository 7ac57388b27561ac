package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/veeranidhish-7/Automated-Price-Monitory/helpers"
)

// maxTitleLength bounds stored titles
const maxTitleLength = 200

var nonNumericPattern = regexp.MustCompile(`[^\d.]`)

// parsePrice strips all non-numeric, non-decimal-point characters and parses
// the remainder. Returns false for empty, unparseable or non-positive values
// so the rule chain falls through instead of aborting.
func parsePrice(text string) (float64, bool) {
	cleaned := nonNumericPattern.ReplaceAllString(text, "")
	if cleaned == "" {
		return 0, false
	}
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || price <= 0 {
		return 0, false
	}
	return price, true
}

// selectorPriceRule builds a rule that takes the first element matching
// selector and parses its text as a price.
func selectorPriceRule(name, selector string) priceRule {
	return priceRule{
		name: name,
		extract: func(doc *goquery.Document) (float64, bool) {
			sel := doc.Find(selector).First()
			if sel.Length() == 0 {
				return 0, false
			}
			return parsePrice(sel.Text())
		},
	}
}

// amazonWholeFraction composes Amazon's split price markup: the whole part
// with separators removed, then the fraction part appended after a decimal
// point when present.
func amazonWholeFraction(doc *goquery.Document) (float64, bool) {
	whole := doc.Find("span.a-price-whole").First()
	if whole.Length() == 0 {
		return 0, false
	}

	priceStr := strings.NewReplacer(",", "", ".", "").Replace(strings.TrimSpace(whole.Text()))
	if fraction := doc.Find("span.a-price-fraction").First(); fraction.Length() > 0 {
		priceStr += "." + strings.TrimSpace(fraction.Text())
	}
	return parsePrice(priceStr)
}

// siteProfiles holds the per-site rulesets. Price rule order is fallback
// priority: the chain stops at the first rule yielding a valid positive
// number, and later rules exist to cover markup variants.
var siteProfiles = map[Site]siteProfile{
	SiteAmazon: {
		titleSelectors: []string{"span#productTitle"},
		defaultTitle:   "Amazon Product",
		priceRules: []priceRule{
			{name: "whole-fraction", extract: amazonWholeFraction},
			selectorPriceRule("offscreen", "span.a-price span.a-offscreen"),
		},
		failureHint: "could not extract price from Amazon page. The page structure may have changed",
	},
	SiteFlipkart: {
		// Flipkart blocks requests that don't look like a full browser
		// navigation
		headers: map[string]string{
			"Sec-Fetch-Dest": "document",
			"Sec-Fetch-Mode": "navigate",
			"Sec-Fetch-Site": "none",
			"Cache-Control":  "max-age=0",
		},
		timeoutPadding: 5 * time.Second,
		titleSelectors: []string{"span.VU-ZEz", "span.B_NuCI", "span.yhB1nd", "span.G6XhRU"},
		defaultTitle:   "Flipkart Product",
		priceRules: []priceRule{
			selectorPriceRule("current", "div.Nx9bqj.CxhGGd"),
			selectorPriceRule("legacy-selling", "div._30jeq3._16Jk6d"),
			selectorPriceRule("legacy-plain", "div._30jeq3"),
			selectorPriceRule("range", "div._25b18c"),
			selectorPriceRule("bare", "div.Nx9bqj"),
		},
		failureHint: "could not extract price from Flipkart page. Try using the full product URL instead of the short link",
	},
}

// extractTitle tries the profile's selectors in order and takes the first
// non-empty match. Title absence is never fatal: the generic default is used.
func extractTitle(doc *goquery.Document, profile siteProfile) string {
	for _, selector := range profile.titleSelectors {
		title := strings.TrimSpace(doc.Find(selector).First().Text())
		if title != "" {
			return helpers.Truncate(title, maxTitleLength)
		}
	}
	return profile.defaultTitle
}

// extractPrice runs the profile's rule chain, stopping at the first rule that
// yields a valid positive number. Returns the winning rule's name for logging.
func extractPrice(doc *goquery.Document, profile siteProfile) (float64, string, bool) {
	for _, rule := range profile.priceRules {
		if price, ok := rule.extract(doc); ok {
			return price, rule.name, true
		}
	}
	return 0, "", false
}
