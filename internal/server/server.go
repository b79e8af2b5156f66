package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/vincentbai/browsetrace-dashboard/internal/auth"
	"github.com/vincentbai/browsetrace-dashboard/internal/database"
	"github.com/vincentbai/browsetrace-dashboard/internal/ingest"
)

type Options struct {
	Address        string
	PasswordDigest string // SHA-256 hex of the login password
	Sessions       *auth.SessionManager
	Recorder       *ingest.Recorder
	RatePerSecond  float64 // ingest, per client
	Burst          int
	LoginRate      float64 // login attempts, per client
	LoginBurst     int
	TrustProxy     bool // honor X-Forwarded-Proto
	ChartWidth     int
	ChartHeight    int
	TLSCert        string // serve plain HTTP when empty
	TLSKey         string
	Logger         *slog.Logger
}

type Server struct {
	db            *database.Database
	address       string
	digest        string
	sessions      *auth.SessionManager
	recorder      *ingest.Recorder
	ingestLimiter *RateLimiter
	loginLimiter  *RateLimiter
	trustProxy    bool
	templates     *template.Template
	chartW        int
	chartH        int
	tlsCert       string
	tlsKey        string
	logger        *slog.Logger
	server        *http.Server
}

func NewServer(db *database.Database, opts Options) (*Server, error) {
	if opts.PasswordDigest == "" {
		return nil, errors.New("password digest is required")
	}
	if opts.Sessions == nil || opts.Recorder == nil || opts.Logger == nil {
		return nil, errors.New("sessions, recorder and logger are required")
	}
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &Server{
		db:            db,
		address:       opts.Address,
		digest:        opts.PasswordDigest,
		sessions:      opts.Sessions,
		recorder:      opts.Recorder,
		ingestLimiter: NewRateLimiter(opts.RatePerSecond, opts.Burst),
		loginLimiter:  NewRateLimiter(opts.LoginRate, opts.LoginBurst),
		trustProxy:    opts.TrustProxy,
		templates:     templates,
		chartW:        opts.ChartWidth,
		chartH:        opts.ChartHeight,
		tlsCert:       opts.TLSCert,
		tlsKey:        opts.TLSKey,
		logger:        opts.Logger,
	}, nil
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /statistics", s.handleStatistics)
	mux.HandleFunc("POST /statistics", s.handleLogin)
	mux.HandleFunc("POST /clear-database", s.requireAuth(s.handleClearDatabase))
	mux.HandleFunc("POST /generate-link", s.requireAuth(s.handleGenerateLink))
	mux.HandleFunc("POST /delete-link", s.requireAuth(s.handleDeleteLink))
	mux.HandleFunc("POST /api/records", s.handleIngest)
	mux.HandleFunc("GET /api/records", s.requireAuth(s.handleListRecords))
	mux.Handle("GET /static/", staticHandler())
	mux.HandleFunc("GET /", s.handleRedirect)
	return mux
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.setupRoutes())
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.address,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.address, err)
	}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("Statistics dashboard listening", "address", listener.Addr().String(), "tls", s.tlsCert != "")
		var err error
		if s.tlsCert != "" {
			err = s.server.ServeTLS(listener, s.tlsCert, s.tlsKey)
		} else {
			err = s.server.Serve(listener)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownContext, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownContext); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.logger.Info("Server exited")
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"remote", clientIP(r),
			"duration", time.Since(start))
	})
}
