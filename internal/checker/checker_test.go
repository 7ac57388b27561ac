package checker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veeranidhish-7/Automated-Price-Monitory/internal/models"
	"github.com/veeranidhish-7/Automated-Price-Monitory/internal/scraper"
)

type fakeStore struct {
	mu       sync.Mutex
	products map[int64]*models.Product
	emails   map[int64]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: make(map[int64]*models.Product),
		emails:   make(map[int64]string),
	}
}

func (s *fakeStore) add(p models.Product, email string) {
	s.products[p.ID] = &p
	s.emails[p.UserID] = email
}

func (s *fakeStore) ActiveProducts() ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdatePrice(id int64, price float64, checkedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[id]
	p.CurrentPrice = &price
	p.LastCheckedAt = &checkedAt
	return nil
}

func (s *fakeStore) MarkAlertSent(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[id].AlertSent = true
	return nil
}

func (s *fakeStore) UserEmailByID(id int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.emails[id]
	if !ok {
		return "", errors.New("no such user")
	}
	return email, nil
}

type fakeScraper struct {
	mu      sync.Mutex
	results map[string]scraper.ScrapeResult
	calls   map[string]int
}

func newFakeScraper() *fakeScraper {
	return &fakeScraper{
		results: make(map[string]scraper.ScrapeResult),
		calls:   make(map[string]int),
	}
}

func (f *fakeScraper) Scrape(_ context.Context, url string) scraper.ScrapeResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	return f.results[url]
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (f *fakeNotifier) Send(toEmail, productTitle string, currentPrice, targetPrice float64, productURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, fmt.Sprintf("%s:%s:%.2f", toEmail, productTitle, currentPrice))
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func product(id, userID int64, url string, target float64) models.Product {
	return models.Product{
		ID:          id,
		UserID:      userID,
		URL:         url,
		Title:       fmt.Sprintf("Product %d", id),
		TargetPrice: target,
		IsActive:    true,
	}
}

func TestAlertFiresOnceAcrossCycles(t *testing.T) {
	store := newFakeStore()
	store.add(product(1, 10, "https://www.amazon.in/dp/B01", 1000), "user@example.com")

	sc := newFakeScraper()
	sc.results["https://www.amazon.in/dp/B01"] = scraper.ScrapeResult{
		Success: true, Title: "Product 1", Price: 899, Site: scraper.SiteAmazon,
	}

	n := &fakeNotifier{}
	c := New(store, sc, n, nil, time.Hour, 2)

	c.RunCycle(context.Background())
	require.Equal(t, 1, n.count())
	assert.True(t, store.products[1].AlertSent)

	// Price still below target on the next cycle. No second alert.
	c.RunCycle(context.Background())
	assert.Equal(t, 1, n.count())
}

func TestNoAlertAboveTarget(t *testing.T) {
	store := newFakeStore()
	store.add(product(1, 10, "https://www.amazon.in/dp/B01", 1000), "user@example.com")

	sc := newFakeScraper()
	sc.results["https://www.amazon.in/dp/B01"] = scraper.ScrapeResult{
		Success: true, Title: "Product 1", Price: 1200, Site: scraper.SiteAmazon,
	}

	n := &fakeNotifier{}
	c := New(store, sc, n, nil, time.Hour, 2)
	c.RunCycle(context.Background())

	assert.Zero(t, n.count())
	assert.False(t, store.products[1].AlertSent)
	require.NotNil(t, store.products[1].CurrentPrice)
	assert.Equal(t, 1200.0, *store.products[1].CurrentPrice)
}

func TestFailedScrapeIsolatedAndRowUntouched(t *testing.T) {
	store := newFakeStore()
	store.add(product(1, 10, "https://www.amazon.in/dp/B01", 1000), "a@example.com")
	store.add(product(2, 11, "https://www.flipkart.com/p/x", 500), "b@example.com")

	sc := newFakeScraper()
	sc.results["https://www.amazon.in/dp/B01"] = scraper.ScrapeResult{
		Success: false, Site: scraper.SiteAmazon,
		Err: errors.New("connection refused"),
	}
	sc.results["https://www.flipkart.com/p/x"] = scraper.ScrapeResult{
		Success: true, Title: "Product 2", Price: 450, Site: scraper.SiteFlipkart,
	}

	n := &fakeNotifier{}
	c := New(store, sc, n, nil, time.Hour, 2)
	c.RunCycle(context.Background())

	// Failed product keeps its last known state.
	assert.Nil(t, store.products[1].CurrentPrice)
	assert.Nil(t, store.products[1].LastCheckedAt)
	assert.False(t, store.products[1].AlertSent)

	// The other product was still checked and alerted.
	require.NotNil(t, store.products[2].CurrentPrice)
	assert.Equal(t, 450.0, *store.products[2].CurrentPrice)
	assert.Equal(t, 1, n.count())
}

func TestNotifierFailureLeavesAlertArmed(t *testing.T) {
	store := newFakeStore()
	store.add(product(1, 10, "https://www.amazon.in/dp/B01", 1000), "user@example.com")

	sc := newFakeScraper()
	sc.results["https://www.amazon.in/dp/B01"] = scraper.ScrapeResult{
		Success: true, Title: "Product 1", Price: 899, Site: scraper.SiteAmazon,
	}

	n := &fakeNotifier{fail: true}
	c := New(store, sc, n, nil, time.Hour, 2)
	c.RunCycle(context.Background())

	// Delivery failed, so the alert stays armed for the next cycle.
	assert.False(t, store.products[1].AlertSent)

	// Price was still recorded.
	require.NotNil(t, store.products[1].CurrentPrice)
	assert.Equal(t, 899.0, *store.products[1].CurrentPrice)

	// SMTP recovers, the next cycle delivers.
	n.fail = false
	c.RunCycle(context.Background())
	assert.Equal(t, 1, n.count())
	assert.True(t, store.products[1].AlertSent)
}

func TestOverlappingCycleSkipped(t *testing.T) {
	store := newFakeStore()
	store.add(product(1, 10, "https://www.amazon.in/dp/B01", 1000), "user@example.com")

	sc := newFakeScraper()
	sc.results["https://www.amazon.in/dp/B01"] = scraper.ScrapeResult{
		Success: true, Title: "Product 1", Price: 2000, Site: scraper.SiteAmazon,
	}

	c := New(store, sc, &fakeNotifier{}, nil, time.Hour, 2)

	c.running.Lock()
	c.RunCycle(context.Background())
	c.running.Unlock()

	// The held lock made RunCycle bail out before scraping anything.
	assert.Zero(t, sc.calls["https://www.amazon.in/dp/B01"])
}

func TestMaybeAlertRequiresUserEmail(t *testing.T) {
	store := newFakeStore()
	p := product(1, 99, "https://www.amazon.in/dp/B01", 1000)
	store.products[p.ID] = &p // no email registered for user 99

	n := &fakeNotifier{}
	c := New(store, newFakeScraper(), n, nil, time.Hour, 1)

	err := c.MaybeAlert(p, 500)
	assert.Error(t, err)
	assert.Zero(t, n.count())
	assert.False(t, store.products[1].AlertSent)
}
