package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/veeranidhish-7/Automated-Price-Monitory/internal/auth"
	"github.com/veeranidhish-7/Automated-Price-Monitory/internal/models"
	"github.com/veeranidhish-7/Automated-Price-Monitory/internal/scraper"
	"github.com/veeranidhish-7/Automated-Price-Monitory/internal/store"
	"github.com/veeranidhish-7/Automated-Price-Monitory/logger"
	scrapeerrors "github.com/veeranidhish-7/Automated-Price-Monitory/pkg/errors"
)

// Scraper fetches price and title for a product URL on the request path
type Scraper interface {
	Scrape(ctx context.Context, url string) scraper.ScrapeResult
}

// Alerter runs the one-shot alert gate for a freshly scraped price. The
// periodic checker implements it; the API reuses it so a product added
// already below target alerts immediately with the same semantics.
type Alerter interface {
	MaybeAlert(p models.Product, newPrice float64) error
}

// Server holds dependencies for the HTTP handlers
type Server struct {
	store       *store.Store
	scraper     Scraper
	alerter     Alerter
	jwtSecret   string
	maxProducts int
	mux         *http.ServeMux
}

// New wires up routes and returns a ready-to-use Server
func New(st *store.Store, sc Scraper, al Alerter, jwtSecret string, maxProducts int) *Server {
	s := &Server{
		store:       st,
		scraper:     sc,
		alerter:     al,
		jwtSecret:   jwtSecret,
		maxProducts: maxProducts,
		mux:         http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP makes Server satisfy http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	s.mux.Handle("GET /api/products", s.authenticated(s.handleListProducts))
	s.mux.Handle("POST /api/products", s.authenticated(s.handleAddProduct))
	s.mux.Handle("DELETE /api/products/{id}", s.authenticated(s.handleDeleteProduct))
	s.mux.Handle("POST /api/scrape-test", s.authenticated(s.handleScrapeTest))
}

type contextKey string

const claimsKey contextKey = "claims"

// authenticated rejects requests without a valid bearer token and puts the
// parsed claims on the request context.
func (s *Server) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			writeError(w, http.StatusUnauthorized, "missing or malformed Authorization header")
			return
		}
		claims, err := auth.ParseToken(s.jwtSecret, tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

func claimsFrom(r *http.Request) *auth.Claims {
	return r.Context().Value(claimsKey).(*auth.Claims)
}

// ---------- Handlers ----------

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to process password")
		return
	}

	id, err := s.store.CreateUser(req.Email, hash)
	if err != nil {
		// UNIQUE constraint on email
		writeError(w, http.StatusBadRequest, "email already registered")
		return
	}

	token, err := auth.IssueToken(s.jwtSecret, id, req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	logger.ForAPI().Info().Int64("userID", id).Msg("User registered")
	writeJSON(w, http.StatusCreated, authResponse{
		Token: token,
		User:  &models.User{ID: id, Email: req.Email},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.store.FindUserByEmail(req.Email)
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := auth.IssueToken(s.jwtSecret, user.ID, user.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	products, err := s.store.ProductsByUser(claims.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load products")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

type addProductRequest struct {
	URL         string  `json:"url"`
	TargetPrice float64 `json:"target_price"`
}

func (s *Server) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var req addProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	if req.TargetPrice <= 0 {
		writeError(w, http.StatusBadRequest, "target_price must be positive")
		return
	}

	count, err := s.store.CountActiveByUser(claims.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load products")
		return
	}
	if count >= s.maxProducts {
		writeError(w, http.StatusBadRequest,
			"you can track up to "+strconv.Itoa(s.maxProducts)+" products; remove one first")
		return
	}

	// First scrape happens synchronously so the caller gets the current
	// price (or a specific failure) in the response.
	result := s.scraper.Scrape(r.Context(), req.URL)
	if !result.Success {
		writeError(w, statusForScrapeError(result.Err), result.ErrorMessage())
		return
	}

	id, err := s.store.CreateProduct(claims.UserID, req.URL, string(result.Site),
		result.Title, result.Price, req.TargetPrice)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save product")
		return
	}

	now := time.Now().UTC()
	product := models.Product{
		ID:            id,
		UserID:        claims.UserID,
		URL:           req.URL,
		SiteSource:    string(result.Site),
		Title:         result.Title,
		CurrentPrice:  &result.Price,
		TargetPrice:   req.TargetPrice,
		LastCheckedAt: &now,
		IsActive:      true,
	}

	// The price may already be at or below target; run the same one-shot
	// gate the periodic cycle uses instead of waiting for the next tick.
	if err := s.alerter.MaybeAlert(product, result.Price); err != nil {
		logger.ForAPI().Error().Err(err).Int64("productID", id).Msg("Immediate alert failed")
	}

	logger.ForAPI().Info().
		Int64("productID", id).
		Int64("userID", claims.UserID).
		Str("site", string(result.Site)).
		Float64("price", result.Price).
		Msg("Product added")
	writeJSON(w, http.StatusCreated, product)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := s.store.Deactivate(id, claims.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to remove product")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "product removed"})
}

type scrapeTestRequest struct {
	URL string `json:"url"`
}

type scrapeTestResponse struct {
	Success bool    `json:"success"`
	Site    string  `json:"site"`
	Title   string  `json:"title,omitempty"`
	Price   float64 `json:"price,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// handleScrapeTest lets an authenticated user probe a URL without saving it
func (s *Server) handleScrapeTest(w http.ResponseWriter, r *http.Request) {
	var req scrapeTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	result := s.scraper.Scrape(r.Context(), req.URL)
	resp := scrapeTestResponse{
		Success: result.Success,
		Site:    string(result.Site),
		Title:   result.Title,
		Price:   result.Price,
		Error:   result.ErrorMessage(),
	}
	status := http.StatusOK
	if !result.Success {
		status = statusForScrapeError(result.Err)
	}
	writeJSON(w, status, resp)
}

// ---------- Helpers ----------

// statusForScrapeError maps the scrape error taxonomy onto HTTP statuses so
// a rate-limited site surfaces as 429 with its try-again message intact.
func statusForScrapeError(err error) int {
	se, ok := scrapeerrors.AsScrapeError(err)
	if !ok {
		return http.StatusBadRequest
	}
	switch {
	case se.IsRateLimited():
		return http.StatusTooManyRequests
	case se.Type == scrapeerrors.ErrorTypeTimeout || se.Type == scrapeerrors.ErrorTypeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
