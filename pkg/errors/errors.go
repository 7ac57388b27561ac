package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeUnsupported represents an URL whose host matches no known site
	ErrorTypeUnsupported ErrorType = "unsupported"
	// ErrorTypeTimeout represents a fetch that exceeded the request timeout
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeNetwork represents network-related fetch errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeHTTPStatus represents a non-2xx response from the site
	ErrorTypeHTTPStatus ErrorType = "http_status"
	// ErrorTypeExtraction represents a page whose markup yielded no price
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeNotifier represents an alert that could not be delivered
	ErrorTypeNotifier ErrorType = "notifier"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScrapeError represents a pipeline-specific error
type ScrapeError struct {
	Type       ErrorType
	Site       string
	Message    string
	StatusCode int
	Err        error
	Time       time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Site, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Site, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the next cycle may succeed without intervention
func (e *ScrapeError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeTimeout, ErrorTypeNetwork, ErrorTypeHTTPStatus:
		return true
	case ErrorTypeExtraction, ErrorTypeNotifier:
		return true
	case ErrorTypeUnsupported:
		return false
	default:
		return false
	}
}

// IsRateLimited returns true if the site answered 429
func (e *ScrapeError) IsRateLimited() bool {
	return e.Type == ErrorTypeHTTPStatus && e.StatusCode == http.StatusTooManyRequests
}

// New creates a new ScrapeError
func New(errType ErrorType, site, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		Site:    site,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewUnsupported creates an error for an URL no ruleset can handle
func NewUnsupported(site string) *ScrapeError {
	return New(ErrorTypeUnsupported, site, "unsupported website, only Amazon and Flipkart are supported", nil)
}

// NewTimeout creates a new fetch timeout error
func NewTimeout(site string, err error) *ScrapeError {
	return New(ErrorTypeTimeout, site, "request timed out", err)
}

// NewNetwork creates a new network error
func NewNetwork(site, message string, err error) *ScrapeError {
	return New(ErrorTypeNetwork, site, message, err)
}

// NewHTTPStatus creates an error for a non-2xx response
func NewHTTPStatus(site string, code int) *ScrapeError {
	e := New(ErrorTypeHTTPStatus, site, fmt.Sprintf("unexpected status code: %d", code), nil)
	e.StatusCode = code
	return e
}

// NewExtraction creates an error for markup that yielded no price
func NewExtraction(site, message string) *ScrapeError {
	return New(ErrorTypeExtraction, site, message, nil)
}

// NewNotifier creates an error for a failed alert delivery
func NewNotifier(message string, err error) *ScrapeError {
	return New(ErrorTypeNotifier, "", message, err)
}

// NewValidation creates a new validation error
func NewValidation(site, message string) *ScrapeError {
	return New(ErrorTypeValidation, site, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// AsScrapeError extracts a *ScrapeError from an error chain
func AsScrapeError(err error) (*ScrapeError, bool) {
	var se *ScrapeError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}
