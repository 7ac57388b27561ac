package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldAlert(t *testing.T) {
	tests := []struct {
		name      string
		alertSent bool
		target    float64
		newPrice  float64
		want      bool
	}{
		{"price above target", false, 1000, 1200, false},
		{"price equals target", false, 1000, 1000, true},
		{"price below target", false, 1000, 899, true},
		{"already alerted at target", true, 1000, 1000, false},
		{"already alerted below target", true, 1000, 500, false},
		{"already alerted above target", true, 1000, 1500, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldAlert(tc.alertSent, tc.target, tc.newPrice))
		})
	}
}

func TestShouldAlertNeverRearms(t *testing.T) {
	// Once delivered, subsequent drops stay silent regardless of how far
	// the price swings.
	assert.False(t, ShouldAlert(true, 1000, 999))
	assert.False(t, ShouldAlert(true, 1000, 1))
}
