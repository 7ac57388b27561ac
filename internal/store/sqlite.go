package store

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/veeranidhish-7/Automated-Price-Monitory/internal/models"
	"github.com/veeranidhish-7/Automated-Price-Monitory/logger"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("store: not found")

// Store wraps the sqlite connection. All write operations are single-row
// atomic UPDATE or INSERT statements; the check cycle and the request path
// never do read-modify-write across calls.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and ensures the schema
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	logger.ForStore().Info().Str("path", path).Msg("Database initialized")
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		url TEXT NOT NULL,
		site_source TEXT,
		product_title TEXT,
		current_price REAL,
		target_price REAL NOT NULL,
		last_checked TIMESTAMP,
		is_active INTEGER DEFAULT 1,
		alert_sent INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ---------- Users ----------

// CreateUser inserts a user and returns the new id
func (s *Store) CreateUser(email, passwordHash string) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO users (email, password_hash) VALUES (?, ?)",
		email, passwordHash,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// FindUserByEmail returns the user with the given email, or ErrNotFound
func (s *Store) FindUserByEmail(email string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(
		"SELECT id, email, password_hash, created_at FROM users WHERE email = ?",
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserEmailByID returns the email of the user with the given id. Alerts are
// keyed by the stable user id, never by a request-supplied email.
func (s *Store) UserEmailByID(id int64) (string, error) {
	var email string
	err := s.db.QueryRow("SELECT email FROM users WHERE id = ?", id).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return email, nil
}

// ---------- Products ----------

// CreateProduct inserts a tracked product and returns the new id. The first
// scrape happens before creation, so current_price and last_checked are set
// from the start.
func (s *Store) CreateProduct(userID int64, url, siteSource, title string, currentPrice, targetPrice float64) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO products
		 (user_id, url, site_source, product_title, current_price, target_price, last_checked)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, url, siteSource, title, currentPrice, targetPrice, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const productColumns = `id, user_id, url, site_source, product_title, current_price,
	target_price, last_checked, alert_sent, is_active, created_at`

func scanProduct(scanner interface{ Scan(...any) error }) (models.Product, error) {
	var p models.Product
	var currentPrice sql.NullFloat64
	var lastChecked sql.NullTime

	err := scanner.Scan(
		&p.ID, &p.UserID, &p.URL, &p.SiteSource, &p.Title, &currentPrice,
		&p.TargetPrice, &lastChecked, &p.AlertSent, &p.IsActive, &p.CreatedAt,
	)
	if err != nil {
		return models.Product{}, err
	}

	if currentPrice.Valid {
		p.CurrentPrice = &currentPrice.Float64
	}
	if lastChecked.Valid {
		p.LastCheckedAt = &lastChecked.Time
	}
	return p, nil
}

func (s *Store) queryProducts(query string, args ...any) ([]models.Product, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ActiveProducts returns every active product across all users; this is the
// working set of one check cycle.
func (s *Store) ActiveProducts() ([]models.Product, error) {
	return s.queryProducts(
		"SELECT " + productColumns + " FROM products WHERE is_active = 1",
	)
}

// ProductsByUser returns the user's active products
func (s *Store) ProductsByUser(userID int64) ([]models.Product, error) {
	return s.queryProducts(
		"SELECT "+productColumns+" FROM products WHERE user_id = ? AND is_active = 1 ORDER BY created_at DESC",
		userID,
	)
}

// CountActiveByUser returns how many active products the user tracks
func (s *Store) CountActiveByUser(userID int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM products WHERE user_id = ? AND is_active = 1",
		userID,
	).Scan(&count)
	return count, err
}

// UpdatePrice records a successful scrape. Failed scrapes never call this, so
// current_price always reflects the most recent successful observation.
func (s *Store) UpdatePrice(id int64, price float64, checkedAt time.Time) error {
	_, err := s.db.Exec(
		"UPDATE products SET current_price = ?, last_checked = ? WHERE id = ?",
		price, checkedAt, id,
	)
	return err
}

// MarkAlertSent flips alert_sent to true. Called only after the notifier
// confirmed delivery; never reset while the product stays active.
func (s *Store) MarkAlertSent(id int64) error {
	_, err := s.db.Exec("UPDATE products SET alert_sent = 1 WHERE id = ?", id)
	return err
}

// Deactivate soft-deletes the product, scoped to its owner. The row is kept
// for audit; it just drops out of every future cycle.
func (s *Store) Deactivate(id, userID int64) error {
	res, err := s.db.Exec(
		"UPDATE products SET is_active = 0 WHERE id = ? AND user_id = ?",
		id, userID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
