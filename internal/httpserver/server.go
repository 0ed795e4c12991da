// internal/httpserver/server.go
//
// HTTP server wiring for the Recycle Sort backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health", "/catalog".
//   - Round endpoints: POST /round/new, POST /round/drop, GET /round/{id}
//     (see routes_round.go).
//
// Notes:
//   - The browser is the renderer; this package is the adapter between its
//     drop gestures and the game.Session for its round.
//   - CORS is origin-aware and credentials-enabled so the round cookie works.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/recycle-sort/internal/catalog"
	"github.com/robalobadob/recycle-sort/internal/round"
	"github.com/robalobadob/recycle-sort/internal/store"
)

// Options configures the round endpoints.
type Options struct {
	ClientOrigin string
	CookieSecure bool
	RoundSize    int           // default items per round
	MaxAttempts  int           // ≤0 → round size
	RoundTTL     time.Duration // token lifetime
	Secret       string        // HS256 key for round tokens
	DailySalt    string

	Sampler *round.Sampler   // nil → round.NewSampler(nil)
	Now     func() time.Time // nil → time.Now
}

// Server bundles router, catalog, sampler and round store.
type Server struct {
	r       *chi.Mux
	cat     *catalog.Catalog
	store   store.Store
	sampler *round.Sampler
	opts    Options
}

// New constructs a Server, installs middleware, and registers routes.
func New(cat *catalog.Catalog, st store.Store, opts Options) *Server {
	if opts.RoundSize <= 0 {
		opts.RoundSize = round.DefaultSize
	}
	if opts.RoundTTL <= 0 {
		opts.RoundTTL = 2 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	sampler := opts.Sampler
	if sampler == nil {
		sampler = round.NewSampler(nil)
	}
	s := &Server{r: chi.NewRouter(), cat: cat, store: st, sampler: sampler, opts: opts}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(accessLog)                       // zerolog access log
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{opts.ClientOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"service":"recycle-sort","endpoints":["/health","/catalog","POST /round/new","POST /round/drop","GET /round/{id}"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/catalog", s.handleCatalog)

	s.mountRounds(s.r)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", r.URL.Path)
	})

	return s
}

// Handler exposes the router (useful for tests).
func (s *Server) Handler() http.Handler { return s.r }

// Start serves HTTP on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// accessLog writes one debug line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("requestId", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// ------------------------------ helpers ------------------------------------

// apiError is the JSON error body.
type apiError struct {
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, apiError{Error: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ------------------------------ CATALOG ------------------------------------

type itemRes struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type binRes struct {
	Bin   catalog.CategoryID `json:"bin"`
	Items []itemRes          `json:"items"`
}

// handleCatalog lists every bin with its items.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	out := make([]binRes, 0, len(catalog.Categories))
	for _, b := range s.cat.Bins() {
		br := binRes{Bin: b.CategoryID(), Items: []itemRes{}}
		for _, it := range b.Items() {
			br.Items = append(br.Items, itemRes{Name: it.Name, Path: it.AssetPath})
		}
		out = append(out, br)
	}
	writeJSON(w, http.StatusOK, out)
}
