package publisher

// Publisher represents a service for publishing alert events to downstream
// consumers (dashboards, chat bridges). Optional: a nil Publisher disables it.
type Publisher interface {
	// Publish publishes an encoded event
	Publish(message []byte) error

	// Trim trims the stream to the configured maximum length
	Trim() error

	// Close closes the publisher connection
	Close() error
}
