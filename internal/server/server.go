// ABOUTME: Local control server: OAuth login flow, manual fetches, record dump and button presses.
// ABOUTME: Routes use gorilla/mux; manual fetches are throttled with x/time/rate.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/harperreed/whoop/internal/auth"
	"github.com/harperreed/whoop/internal/client"
	"github.com/harperreed/whoop/internal/models"
	"github.com/harperreed/whoop/internal/storage"
	"golang.org/x/time/rate"
)

const (
	// stateTTL bounds how long an issued OAuth state stays redeemable.
	stateTTL = 10 * time.Minute
	// DefaultFetchRate is the sustained rate of manual fetches per second.
	DefaultFetchRate = 0.2
	// DefaultFetchBurst is the number of manual fetches allowed at once.
	DefaultFetchBurst = 4
)

// Authenticator is the token manager surface the server drives.
type Authenticator interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) error
	Refresh(ctx context.Context) error
	RefreshWith(ctx context.Context, tok string) error
	State() auth.State
}

// Fetcher retrieves the latest record of a variant.
type Fetcher interface {
	Fetch(ctx context.Context, v models.Variant) (client.Outcome, error)
}

// Presser advances the display selection.
type Presser interface {
	Press()
}

// Config holds configuration for creating a Server.
type Config struct {
	Auth    Authenticator
	Fetcher Fetcher
	Store   storage.Repository
	Button  Presser
	// FetchRate and FetchBurst throttle /whoop/{variant}. Zero uses the defaults.
	FetchRate  float64
	FetchBurst int
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Server serves the control endpoints.
type Server struct {
	cfg     Config
	router  *mux.Router
	limiter *rate.Limiter
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	states map[string]time.Time
}

// New creates a server and registers its routes.
func New(cfg Config) *Server {
	if cfg.FetchRate <= 0 {
		cfg.FetchRate = DefaultFetchRate
	}
	if cfg.FetchBurst <= 0 {
		cfg.FetchBurst = DefaultFetchBurst
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		router:  mux.NewRouter(),
		limiter: rate.NewLimiter(rate.Limit(cfg.FetchRate), cfg.FetchBurst),
		logger:  logger,
		now:     time.Now,
		states:  make(map[string]time.Time),
	}

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/authenticate", s.handleAuthenticate).Methods("GET")
	s.router.HandleFunc("/authenticate/callback", s.handleCallback).Methods("GET")
	s.router.HandleFunc("/refresh_token", s.handleRefreshToken).Methods("GET")
	s.router.HandleFunc("/whoop/print", s.handlePrint).Methods("GET")
	s.router.HandleFunc("/whoop/{variant}", s.handleFetch).Methods("GET")
	s.router.HandleFunc("/display/next", s.handleDisplayNext).Methods("POST")

	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("control server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("control server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown control server: %w", err)
	}
	s.logger.Info("control server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"auth":   s.cfg.Auth.State().String(),
	})
}

func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()

	s.mu.Lock()
	now := s.now()
	for k, issued := range s.states {
		if now.Sub(issued) > stateTTL {
			delete(s.states, k)
		}
	}
	s.states[state] = now
	s.mu.Unlock()

	http.Redirect(w, r, s.cfg.Auth.AuthCodeURL(state), http.StatusFound)
}

// consumeState reports whether state was issued and is still fresh. A state
// can be redeemed once.
func (s *Server) consumeState(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	issued, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return s.now().Sub(issued) <= stateTTL
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errParam := q.Get("error"); errParam != "" {
		RespondErrorString(w, http.StatusBadRequest, fmt.Sprintf("authorization denied: %s", errParam))
		return
	}
	if !s.consumeState(q.Get("state")) {
		RespondErrorString(w, http.StatusBadRequest, "unknown or expired state")
		return
	}
	code := q.Get("code")
	if code == "" {
		RespondErrorString(w, http.StatusBadRequest, "missing code")
		return
	}

	if err := s.cfg.Auth.Exchange(r.Context(), code); err != nil {
		s.logger.Error("code exchange failed", "error", err)
		RespondError(w, http.StatusBadGateway, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": auth.Authenticated.String()})
}

func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	if tok == "" {
		RespondErrorString(w, http.StatusBadRequest, "missing token")
		return
	}
	if err := s.cfg.Auth.RefreshWith(r.Context(), tok); err != nil {
		s.logger.Error("refresh with supplied token failed", "error", err)
		RespondError(w, http.StatusBadGateway, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": auth.Authenticated.String()})
}

// FetchResponse reports the result of a manual fetch.
type FetchResponse struct {
	Variant string `json:"variant"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	v, err := models.ParseVariant(mux.Vars(r)["variant"])
	if err != nil {
		RespondError(w, http.StatusNotFound, err)
		return
	}
	if !s.limiter.Allow() {
		RespondErrorString(w, http.StatusTooManyRequests, "fetch rate exceeded")
		return
	}

	outcome, err := s.cfg.Fetcher.Fetch(r.Context(), v)
	resp := FetchResponse{Variant: v.String(), Outcome: outcome.String()}
	if err != nil {
		resp.Error = err.Error()
	}

	status := http.StatusOK
	switch outcome {
	case client.Deferred:
		status = http.StatusAccepted
	case client.Failed:
		status = http.StatusBadGateway
	}
	RespondJSON(w, status, resp)
}

func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]*storage.ExportRecord, len(models.AllVariants))
	for _, v := range models.AllVariants {
		rec, err := storage.Lookup(s.cfg.Store, v, 0)
		if err != nil {
			out[v.String()] = nil
			continue
		}
		exported := rec.Export()
		out[v.String()] = &exported
	}
	RespondJSON(w, http.StatusOK, out)
}

func (s *Server) handleDisplayNext(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Button == nil {
		RespondErrorString(w, http.StatusNotImplemented, "no display attached")
		return
	}
	s.cfg.Button.Press()
	RespondJSON(w, http.StatusAccepted, map[string]string{"status": "pressed"})
}
