package scraper

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/veeranidhish-7/Automated-Price-Monitory/helpers"
	"github.com/veeranidhish-7/Automated-Price-Monitory/logger"
	scrapeerrors "github.com/veeranidhish-7/Automated-Price-Monitory/pkg/errors"
	"github.com/veeranidhish-7/Automated-Price-Monitory/services/cache"
)

// Scraper composes classification, fetching and extraction into a single
// Scrape call. It is the sole entry point for both the on-demand add-product
// flow and the periodic check cycle, so both observe identical behavior.
type Scraper struct {
	timeout   time.Duration
	cooldown  cache.CacheService
	blockTime time.Duration
	fetchFunc func(ctx context.Context, site, url string, headers map[string]string, timeout time.Duration) (io.Reader, error)
}

// New creates a Scraper. cooldown may be nil to disable the rate-limit
// cooldown window.
func New(timeout time.Duration, cooldown cache.CacheService, blockTime time.Duration) *Scraper {
	return &Scraper{
		timeout:   timeout,
		cooldown:  cooldown,
		blockTime: blockTime,
		fetchFunc: helpers.FetchPage,
	}
}

// Scrape fetches url and extracts a title and price according to the site's
// ruleset. Failures come back inside the result, never as a panic; Site is
// populated even on failure.
func (s *Scraper) Scrape(ctx context.Context, url string) ScrapeResult {
	site := Classify(url)
	result := ScrapeResult{Site: site}

	if site == SiteUnknown {
		result.Err = scrapeerrors.NewUnsupported(string(site))
		return result
	}

	profile := siteProfiles[site]
	log := logger.ForScraper(string(site))

	// Respect an active cooldown window instead of hammering a site that
	// already told us to back off
	cooldownKey := string(site) + "_rate_limited"
	if s.cooldown != nil {
		if _, err := s.cooldown.Get(cooldownKey); err == nil {
			blocked := scrapeerrors.NewHTTPStatus(string(site), http.StatusTooManyRequests)
			blocked.Message = "site is temporarily blocking requests. Please wait a few minutes and try again"
			result.Err = blocked
			return result
		}
	}

	body, err := s.fetchFunc(ctx, string(site), url, profile.headers, s.timeout+profile.timeoutPadding)
	if err != nil {
		if se, ok := scrapeerrors.AsScrapeError(err); ok && se.IsRateLimited() && s.cooldown != nil {
			if setErr := s.cooldown.Set(cooldownKey, []byte("1"), s.blockTime); setErr != nil {
				log.Warn().Err(setErr).Msg("failed to set rate-limit cooldown")
			}
		}
		result.Err = err
		return result
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		result.Err = scrapeerrors.New(scrapeerrors.ErrorTypeExtraction, string(site), "failed to parse page markup", err)
		return result
	}

	result.Title = extractTitle(doc, profile)

	price, ruleName, ok := extractPrice(doc, profile)
	if !ok {
		// Expected to happen periodically as sites change markup; a normal
		// outcome, retried next cycle
		result.Err = scrapeerrors.NewExtraction(string(site), profile.failureHint)
		return result
	}

	result.Price = price
	result.Success = true

	log.Debug().
		Str("rule", ruleName).
		Float64("price", price).
		Str("title", result.Title).
		Msg("scrape succeeded")

	return result
}
