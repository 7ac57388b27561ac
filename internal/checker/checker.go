package checker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/veeranidhish-7/Automated-Price-Monitory/internal/models"
	"github.com/veeranidhish-7/Automated-Price-Monitory/internal/scraper"
	"github.com/veeranidhish-7/Automated-Price-Monitory/logger"
	"github.com/veeranidhish-7/Automated-Price-Monitory/services/notifier"
	"github.com/veeranidhish-7/Automated-Price-Monitory/services/publisher"
)

// Store is the subset of persistence the checker needs
type Store interface {
	ActiveProducts() ([]models.Product, error)
	UpdatePrice(id int64, price float64, checkedAt time.Time) error
	MarkAlertSent(id int64) error
	UserEmailByID(id int64) (string, error)
}

// Scraper fetches the current price and title for a product URL
type Scraper interface {
	Scrape(ctx context.Context, url string) scraper.ScrapeResult
}

// AlertEvent is the payload published to the alert stream when a
// price-drop notification is delivered
type AlertEvent struct {
	ProductID    int64   `json:"product_id"`
	UserID       int64   `json:"user_id"`
	Title        string  `json:"title"`
	URL          string  `json:"url"`
	CurrentPrice float64 `json:"current_price"`
	TargetPrice  float64 `json:"target_price"`
	AlertedAt    string  `json:"alerted_at"`
}

// Checker runs the periodic price-check cycle over all active products
type Checker struct {
	store       Store
	scraper     Scraper
	notifier    notifier.Notifier
	publisher   publisher.Publisher
	interval    time.Duration
	workerLimit int

	// guards against overlapping cycles when a tick fires while the
	// previous cycle is still scraping
	running sync.Mutex
}

// New creates a checker. publisher may be nil when no alert stream is
// configured.
func New(store Store, sc Scraper, n notifier.Notifier, pub publisher.Publisher, interval time.Duration, workerLimit int) *Checker {
	if workerLimit < 1 {
		workerLimit = 1
	}
	return &Checker{
		store:       store,
		scraper:     sc,
		notifier:    n,
		publisher:   pub,
		interval:    interval,
		workerLimit: workerLimit,
	}
}

// Start runs one cycle immediately, then repeats on the configured
// interval until ctx is cancelled.
func (c *Checker) Start(ctx context.Context) {
	logger.ForChecker().Info().
		Dur("interval", c.interval).
		Int("workerLimit", c.workerLimit).
		Msg("Price checker started")

	c.RunCycle(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.ForChecker().Info().Msg("Price checker stopped")
			return
		case <-ticker.C:
			c.RunCycle(ctx)
		}
	}
}

// RunCycle checks every active product once. If a previous cycle is
// still in flight the call returns without doing anything.
func (c *Checker) RunCycle(ctx context.Context) {
	if !c.running.TryLock() {
		logger.ForChecker().Warn().Msg("Previous check cycle still running, skipping tick")
		return
	}
	defer c.running.Unlock()

	products, err := c.store.ActiveProducts()
	if err != nil {
		logger.ForChecker().Error().Err(err).Msg("Failed to load active products")
		return
	}
	if len(products) == 0 {
		return
	}

	logger.ForChecker().Info().Int("count", len(products)).Msg("Starting check cycle")
	start := time.Now()

	sem := make(chan struct{}, c.workerLimit)
	var wg sync.WaitGroup
	for _, p := range products {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(p models.Product) {
			defer wg.Done()
			defer func() { <-sem }()
			c.checkProduct(ctx, p)
		}(p)
	}
	wg.Wait()

	if c.publisher != nil {
		if err := c.publisher.Trim(); err != nil {
			logger.ForChecker().Warn().Err(err).Msg("Failed to trim alert stream")
		}
	}

	logger.ForChecker().Info().
		Int("count", len(products)).
		Dur("elapsed", time.Since(start)).
		Msg("Check cycle finished")
}

// checkProduct scrapes one product and records the outcome. A failed
// scrape leaves the stored price and timestamp untouched so the last
// known good value survives transient errors.
func (c *Checker) checkProduct(ctx context.Context, p models.Product) {
	result := c.scraper.Scrape(ctx, p.URL)
	if !result.Success {
		logger.ForChecker().Warn().
			Int64("productID", p.ID).
			Str("url", p.URL).
			Str("error", result.ErrorMessage()).
			Msg("Price check failed")
		return
	}

	if err := c.store.UpdatePrice(p.ID, result.Price, time.Now().UTC()); err != nil {
		logger.ForChecker().Error().Err(err).Int64("productID", p.ID).Msg("Failed to record price")
		return
	}

	logger.ForChecker().Debug().
		Int64("productID", p.ID).
		Float64("price", result.Price).
		Float64("target", p.TargetPrice).
		Msg("Price recorded")

	if err := c.MaybeAlert(p, result.Price); err != nil {
		logger.ForChecker().Error().Err(err).Int64("productID", p.ID).Msg("Alert delivery failed")
	}
}

// MaybeAlert delivers the one-shot price-drop alert when newPrice
// crosses the product's target. alert_sent is only flipped after the
// notifier confirms delivery, so a failed send is retried on the next
// cycle. Also used by the API for the immediate check after a product
// is added.
func (c *Checker) MaybeAlert(p models.Product, newPrice float64) error {
	if !ShouldAlert(p.AlertSent, p.TargetPrice, newPrice) {
		return nil
	}

	email, err := c.store.UserEmailByID(p.UserID)
	if err != nil {
		return err
	}

	title := p.Title
	if title == "" {
		title = p.URL
	}
	if err := c.notifier.Send(email, title, newPrice, p.TargetPrice, p.URL); err != nil {
		return err
	}

	if err := c.store.MarkAlertSent(p.ID); err != nil {
		return err
	}

	logger.ForChecker().Info().
		Int64("productID", p.ID).
		Int64("userID", p.UserID).
		Float64("price", newPrice).
		Float64("target", p.TargetPrice).
		Msg("Price alert delivered")

	c.publishAlert(p, newPrice)
	return nil
}

func (c *Checker) publishAlert(p models.Product, newPrice float64) {
	if c.publisher == nil {
		return
	}
	event := AlertEvent{
		ProductID:    p.ID,
		UserID:       p.UserID,
		Title:        p.Title,
		URL:          p.URL,
		CurrentPrice: newPrice,
		TargetPrice:  p.TargetPrice,
		AlertedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		logger.ForChecker().Error().Err(err).Msg("Failed to encode alert event")
		return
	}
	if err := c.publisher.Publish(payload); err != nil {
		logger.ForChecker().Warn().Err(err).Msg("Failed to publish alert event")
	}
}
