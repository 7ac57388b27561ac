package helpers

// Truncate shortens s to at most max runes, protecting storage and display
// layers from unbounded scraped titles.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
