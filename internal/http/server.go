// Package http serves the rendered pages: authentication, financial
// management, advisory and fraud detection.
package http

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"sync"
	"time"

	"finsight/internal/advisor"
	"finsight/internal/identity"
	applog "finsight/internal/log"
	"finsight/internal/middleware/ratelimit"
	"finsight/internal/middleware/security"
	"finsight/internal/middleware/trace"
	"finsight/internal/services"
	"finsight/web"
)

const sessionCookieName = "finsight_session"

type contextKey string

const userIDKey contextKey = "user_id"

// Config holds the HTTP server configuration.
type Config struct {
	Port      string
	RateLimit ratelimit.Config
}

// Server wires middleware, templates and handlers around http.Server.
type Server struct {
	http.Server

	logger    *applog.Logger
	templates *template.Template

	finance   *services.FinanceService
	identity  *identity.Service
	generator advisor.Generator // nil when no API key is configured

	limiter  *ratelimit.Limiter
	detector *security.Detector
	headers  *security.HeadersMiddleware
	trace    *trace.Middleware

	shutdownOnce sync.Once
}

var templateFuncs = template.FuncMap{
	"money": func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64)
	},
}

// NewServer builds the server. The generator may be nil; the advisory
// and fraud pages then degrade to their non-AI behavior.
func NewServer(cfg Config, finance *services.FinanceService, idsvc *identity.Service, generator advisor.Generator, logger *applog.Logger) (*Server, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	templates, err := template.New("").Funcs(templateFuncs).ParseFS(web.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	detector := security.NewDetector()
	s := &Server{
		logger:    logger.WithComponent(applog.ComponentHTTP),
		templates: templates,
		finance:   finance,
		identity:  idsvc,
		generator: generator,
		limiter:   ratelimit.NewLimiter(cfg.RateLimit),
		detector:  detector,
		headers:   security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		trace:     trace.NewMiddleware(detector.ExtractClientIP, logger),
	}

	s.Server = http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.buildHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) buildHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /static/", security.StaticAssetMiddleware(86400)(http.FileServerFS(web.StaticFS)))

	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /register", s.handleRegisterPage)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.Handle("GET /financial", s.requireUser(s.handleFinancialPage))
	mux.Handle("POST /financial/profile", s.requireUser(s.handleUpdateProfile))
	mux.Handle("POST /financial/expenses", s.requireUser(s.handleAddExpense))
	mux.Handle("POST /financial/expenses/delete", s.requireUser(s.handleDeleteExpense))
	mux.Handle("POST /financial/bills", s.requireUser(s.handleAddBill))
	mux.Handle("POST /financial/bills/delete", s.requireUser(s.handleDeleteBill))
	mux.Handle("POST /financial/goals", s.requireUser(s.handleAddGoal))
	mux.Handle("POST /financial/goals/delete", s.requireUser(s.handleDeleteGoal))

	mux.Handle("GET /advisory", s.requireUser(s.handleAdvisoryPage))
	mux.Handle("POST /advisory", s.requireUser(s.handleAdvisory))

	mux.Handle("GET /fraud-detection", s.requireUser(s.handleFraudPage))
	mux.Handle("POST /fraud-detection", s.requireUser(s.handleFraud))

	// Unknown paths land on the login page, or straight on the
	// financial page for an authenticated session.
	mux.HandleFunc("/", s.handleIndex)

	return s.headers.Middleware(s.trace.Middleware(s.limitWrites(mux)))
}

// limitWrites rate-limits mutating requests per client IP. Reads stay
// unthrottled.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ip := s.detector.ExtractClientIP(r)
			if !s.limiter.Allow(ip) {
				s.logger.WarnContext(r.Context(), "rate limit exceeded",
					applog.FieldClientIP, ip, applog.FieldPath, r.URL.Path)
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessionUser(r); ok {
		http.Redirect(w, r, "/financial", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ready"}`)
}

// sessionUser resolves the session cookie to a user ID.
func (s *Server) sessionUser(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	userID, err := s.identity.Verify(cookie.Value)
	if err != nil {
		return "", false
	}
	return strconv.FormatInt(userID, 10), true
}

// requireUser gates a handler behind a valid session, placing the user
// ID in the request context.
func (s *Server) requireUser(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.sessionUser(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestUserID(r *http.Request) string {
	if id, ok := r.Context().Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// Shutdown stops the rate limiter and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
