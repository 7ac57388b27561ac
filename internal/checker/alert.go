package checker

// ShouldAlert reports whether a freshly scraped price should trigger an
// alert. The gate fires exactly once: a product whose alert was already
// delivered never alerts again, even if the price rises back above the
// target and drops a second time.
func ShouldAlert(alertSent bool, targetPrice, newPrice float64) bool {
	if alertSent {
		return false
	}
	return newPrice <= targetPrice
}
