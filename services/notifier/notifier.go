package notifier

// Notifier represents a service that delivers price-drop alerts. An error
// means "not confirmed delivered"; the caller leaves the alert armed and
// retries on the next cycle.
type Notifier interface {
	// Send delivers a price-drop alert for one product
	Send(toEmail, productTitle string, currentPrice, targetPrice float64, productURL string) error
}
