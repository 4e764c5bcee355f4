// Package http is the local gateway the UI talks to. It proxies the three
// collaborator services through the authenticated client, computes summary
// views, and falls back to the SQLite mirror when an upstream is down.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"fintrack/internal/api"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/session"
)

// FinanceAPI is the slice of the upstream client the gateway uses.
type FinanceAPI interface {
	Login(ctx context.Context, emailOrUsername, password string) (api.LoginResult, error)
	Register(ctx context.Context, username, email, password string) (api.LoginResult, error)
	SearchUsers(ctx context.Context, username string) ([]core.User, error)
	Friends(ctx context.Context) ([]core.User, error)
	AddFriend(ctx context.Context, userID string) error

	ListExpenses(ctx context.Context) ([]core.Transaction, error)
	CreateExpense(ctx context.Context, in api.TransactionInput) (core.Transaction, error)
	UpdateExpense(ctx context.Context, id string, in api.TransactionInput) (core.Transaction, error)
	DeleteExpense(ctx context.Context, id string) error

	ListEntries(ctx context.Context) ([]core.LendBorrowEntry, error)
	CreateEntry(ctx context.Context, in api.EntryInput) (core.LendBorrowEntry, error)
	SettleEntry(ctx context.Context, id string) (core.LendBorrowEntry, error)
	DeleteEntry(ctx context.Context, id string) error
}

// MirrorReader serves stale-but-local data when an upstream list fails.
type MirrorReader interface {
	ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error)
	ListEntries(ctx context.Context, ownerID string) ([]core.LendBorrowEntry, error)
}

// Options tunes the gateway.
type Options struct {
	CacheSize      int
	CacheTTL       time.Duration
	SearchThrottle time.Duration

	// AllowedOrigins for CORS; empty means same-machine defaults.
	AllowedOrigins []string

	// OnMutation runs after a successful write so the mirror can be
	// refreshed without waiting for the next sync tick. May be nil.
	OnMutation func(ownerID string)
}

type Server struct {
	http.Server

	client   FinanceAPI
	sessions *session.Manager
	mirror   MirrorReader // may be nil

	txLoader    *cache.Loader[[]core.Transaction]
	entryLoader *cache.Loader[[]core.LendBorrowEntry]
	cacheMgr    *cache.Manager

	searchThrottle *ratelimit.Throttle
	limiter        *ratelimit.Limiter

	onMutation func(ownerID string)

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, client FinanceAPI, sessions *session.Manager, mirror MirrorReader, opts Options) *Server {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 100
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	txCache := cache.NewLRUCache[[]core.Transaction](opts.CacheSize, opts.CacheTTL)
	entryCache := cache.NewLRUCache[[]core.LendBorrowEntry](opts.CacheSize, opts.CacheTTL)

	mgr := cache.NewManager()
	mgr.Register(txCache)
	mgr.Register(entryCache)
	mgr.StartCleanup(10 * time.Minute)

	s := &Server{
		client:         client,
		sessions:       sessions,
		mirror:         mirror,
		txLoader:       cache.NewLoader[[]core.Transaction](txCache),
		entryLoader:    cache.NewLoader[[]core.LendBorrowEntry](entryCache),
		cacheMgr:       mgr,
		searchThrottle: ratelimit.NewThrottle(opts.SearchThrottle),
		limiter:        ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		onMutation:     opts.OnMutation,
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}

	mux := chi.NewRouter()
	mux.Use(trace.NewMiddleware(clientIP).Middleware)
	mux.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	mux.Use(s.limiter.Middleware(clientIP, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		respondError(w, http.StatusTooManyRequests, "rate limit exceeded, retry later")
	}))

	mux.Get("/healthz", handleHealth)
	mux.Get("/readyz", handleReady)

	mux.Post("/login", s.handleLogin)
	mux.Post("/register", s.handleRegister)
	mux.Post("/logout", s.handleLogout)
	mux.Get("/session", s.handleSession)

	mux.Route("/api", func(r chi.Router) {
		r.Use(s.requireSession)

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", s.handleListExpenses)
			r.Post("/", s.handleCreateExpense)
			r.Put("/{id}", s.handleUpdateExpense)
			r.Delete("/{id}", s.handleDeleteExpense)
		})

		r.Route("/lendborrow", func(r chi.Router) {
			r.Get("/", s.handleListEntries)
			r.Post("/", s.handleCreateEntry)
			r.Put("/{id}/settle", s.handleSettleEntry)
			r.Delete("/{id}", s.handleDeleteEntry)
		})

		r.Route("/summary", func(r chi.Router) {
			r.Get("/categories", s.handleSummaryCategories)
			r.Get("/months", s.handleSummaryMonths)
			r.Get("/total", s.handleSummaryTotal)
			r.Get("/balances", s.handleSummaryBalances)
		})

		r.Get("/users/search", s.handleSearchUsers)

		r.Route("/friends", func(r chi.Router) {
			r.Get("/", s.handleListFriends)
			r.Post("/", s.handleAddFriend)
		})
	})

	s.Server.Addr = addr
	s.Server.Handler = mux
	s.Server.ReadHeaderTimeout = 5 * time.Second

	return s
}

// Shutdown stops the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheMgr.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// InvalidateCaches drops cached upstream lists for one owner. The refresh
// worker calls this after committing new data to the mirror.
func (s *Server) InvalidateCaches(ownerID string) {
	s.txLoader.Invalidate(expensesCacheKey(ownerID))
	s.entryLoader.Invalidate(entriesCacheKey(ownerID))
}

func expensesCacheKey(ownerID string) string { return "expenses:" + ownerID }
func entriesCacheKey(ownerID string) string  { return "lendborrow:" + ownerID }

// expensesMutated drops the owner's cached expense list and kicks the
// mirror refresh hook after a successful write.
func (s *Server) expensesMutated() {
	owner := s.ownerID()
	s.txLoader.Invalidate(expensesCacheKey(owner))
	if s.onMutation != nil {
		go s.onMutation(owner)
	}
}

func (s *Server) entriesMutated() {
	owner := s.ownerID()
	s.entryLoader.Invalidate(entriesCacheKey(owner))
	if s.onMutation != nil {
		go s.onMutation(owner)
	}
}

// ownerID returns the cache partition for the current session.
func (s *Server) ownerID() string {
	if sess, ok := s.sessions.Session(); ok && sess.User != nil {
		return sess.User.ID
	}
	return ""
}

// requireSession rejects API calls without a stored token. The upstream
// still does the real verification; this only avoids pointless round trips.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.sessions.IsAuthenticated() {
			respondError(w, http.StatusUnauthorized, "not logged in")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// clientIP extracts the caller's address, honoring proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
