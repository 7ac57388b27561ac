package models

import "time"

// User represents a registered account
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Product represents a tracked product. CurrentPrice and LastCheckedAt are
// nil until the first successful scrape and are never rolled back by a failed
// one. AlertSent is monotone: once true it stays true while the product is
// active. IsActive false means soft-deleted; such rows are excluded from all
// future check cycles but kept for audit.
type Product struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	URL           string     `json:"url"`
	SiteSource    string     `json:"site_source"`
	Title         string     `json:"title"`
	CurrentPrice  *float64   `json:"current_price"`
	TargetPrice   float64    `json:"target_price"`
	LastCheckedAt *time.Time `json:"last_checked_at"`
	AlertSent     bool       `json:"alert_sent"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
}
