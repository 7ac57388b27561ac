package helpers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	mathrand "math/rand"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"

	scrapeerrors "github.com/veeranidhish-7/Automated-Price-Monitory/pkg/errors"
)

// HTTP client and header configurations
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0.3 Safari/605.1.15",
	}

	referers = []string{
		"https://www.google.com/",
		"https://www.bing.com/",
	}

	// Shared client; per-request deadlines come from the context
	client = &http.Client{}
)

// FetchPage sends an HTTP GET request with browser-mimicking headers, converts
// the response body to UTF-8 if needed, and returns it as an io.Reader.
// Bare requests without these headers are blocked by some target sites.
// Fetch failures are returned as typed *errors.ScrapeError values; no retries
// happen here, the check cycle simply tries again on its next tick.
func FetchPage(ctx context.Context, site, url string, extraHeaders map[string]string, timeout time.Duration) (io.Reader, error) {
	rnd := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, scrapeerrors.NewNetwork(site, "failed to create request", err)
	}

	// Set browser-like headers
	req.Header.Set("User-Agent", userAgents[rnd.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", referers[rnd.Intn(len(referers))])
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	// Site-specific overrides win over the defaults
	for key, value := range extraHeaders {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(reqCtx, err) {
			return nil, scrapeerrors.NewTimeout(site, err)
		}
		return nil, scrapeerrors.NewNetwork(site, "failed to fetch URL", err)
	}
	defer resp.Body.Close()

	// 429 signals rate limiting and gets its own message so the on-demand
	// path can tell the user to try again later
	if resp.StatusCode == http.StatusTooManyRequests {
		statusErr := scrapeerrors.NewHTTPStatus(site, resp.StatusCode)
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			statusErr.Message = fmt.Sprintf("rate limited; retry after %s", retryAfter)
		} else {
			statusErr.Message = "rate limited"
		}
		return nil, statusErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, scrapeerrors.NewHTTPStatus(site, resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(reqCtx, err) {
			return nil, scrapeerrors.NewTimeout(site, err)
		}
		return nil, scrapeerrors.NewNetwork(site, "failed to read response body", err)
	}

	// Determine the encoding from Content-Type header and body content
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, resp.Header.Get("Content-Type"))

	// If already UTF-8, return as is
	if name == "utf-8" || name == "UTF-8" {
		return bytes.NewReader(bodyBytes), nil
	}

	// Convert to UTF-8 if necessary
	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, scrapeerrors.NewNetwork(site, "failed to read converted UTF-8 body", err)
	}

	return &buf, nil
}

// isTimeout reports whether err was caused by the per-request deadline
func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
