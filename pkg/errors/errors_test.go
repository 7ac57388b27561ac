package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrapeErrorMessage(t *testing.T) {
	err := NewHTTPStatus("flipkart", 503)
	assert.Contains(t, err.Error(), "flipkart")
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, 503, err.StatusCode)

	wrapped := NewNetwork("amazon", "failed to fetch URL", fmt.Errorf("connection refused"))
	assert.Contains(t, wrapped.Error(), "connection refused")
	assert.Error(t, wrapped.Unwrap())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, NewTimeout("amazon", nil).IsRetryable())
	assert.True(t, NewNetwork("amazon", "dns", nil).IsRetryable())
	assert.True(t, NewHTTPStatus("flipkart", 429).IsRetryable())
	assert.True(t, NewExtraction("amazon", "no price").IsRetryable())
	assert.True(t, NewNotifier("smtp down", nil).IsRetryable())
	assert.False(t, NewUnsupported("unknown").IsRetryable())
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, NewHTTPStatus("flipkart", 429).IsRateLimited())
	assert.False(t, NewHTTPStatus("flipkart", 500).IsRateLimited())
	assert.False(t, NewTimeout("flipkart", nil).IsRateLimited())
}

func TestAsScrapeError(t *testing.T) {
	inner := NewExtraction("amazon", "no price")
	wrapped := fmt.Errorf("scrape failed: %w", inner)

	se, ok := AsScrapeError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ErrorTypeExtraction, se.Type)

	_, ok = AsScrapeError(fmt.Errorf("plain"))
	assert.False(t, ok)
}
