// Package server exposes history views over HTTP.
//
// Each view lives in a [session.Session]. A request loads the session's
// snapshot, rebuilds the view, applies at most one operation, and stores the
// new snapshot. Requests for the same session are serialized; requests for
// different sessions run concurrently.
//
// # Routes
//
//	GET    /ping
//	POST   /sessions                     create a view from a JSON or TOML view file
//	GET    /sessions/{id}                view state
//	DELETE /sessions/{id}
//	GET    /sessions/{id}/scene          positioned scene as JSON
//	GET    /sessions/{id}/config         view snapshot as TOML
//	GET    /sessions/{id}/render         artifact; ?format=&style=&diagram=&ranked=&detailed=&background=
//	POST   /sessions/{id}/commit         {"id", "parent", "tags"}
//	POST   /sessions/{id}/branch         {"name"}
//	POST   /sessions/{id}/checkout       {"ref"}
//	POST   /sessions/{id}/reset          {"ref"}
//	POST   /sessions/{id}/exec           {"command"}
//
// Failures are JSON objects {"error", "code"} with a status derived from the
// error's kind: 400 for validation, 404 for unknown sessions and refs, 409
// for operations the current HEAD state does not allow.
package server

import (
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/gitdraw/pkg/pipeline"
	"github.com/matzehuels/gitdraw/pkg/session"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Server serves history views.
type Server struct {
	sessions session.Store
	runner   *pipeline.Runner
	logger   *log.Logger
	ttl      time.Duration

	router chi.Router
	locks  lockTable
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTTL sets how long an untouched session lives.
func WithTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// New creates a server backed by store. Rendering goes through runner, so
// its cache is shared by every session.
func New(store session.Store, runner *pipeline.Runner, opts ...Option) *Server {
	s := &Server{
		sessions: store,
		runner:   runner,
		logger:   log.New(io.Discard),
		ttl:      session.DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/ping", s.handlePing)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Get("/scene", s.handleScene)
			r.Get("/config", s.handleConfig)
			r.Get("/render", s.handleRender)
			r.Post("/commit", s.handleCommit)
			r.Post("/branch", s.handleBranch)
			r.Post("/checkout", s.handleCheckout)
			r.Post("/reset", s.handleReset)
			r.Post("/exec", s.handleExec)
		})
	})
	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// lock serializes work on one session and returns the unlock function.
func (s *Server) lock(id string) func() {
	return s.locks.acquire(id)
}

// lockTable holds one mutex per session id. An entry lives only while a
// request holds or waits on it, so ids that never resolve to a session leave
// nothing behind.
type lockTable struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (t *lockTable) acquire(id string) func() {
	t.mu.Lock()
	if t.entries == nil {
		t.entries = make(map[string]*lockEntry)
	}
	e, ok := t.entries[id]
	if !ok {
		e = &lockEntry{}
		t.entries[id] = e
	}
	e.refs++
	t.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		t.mu.Lock()
		if e.refs--; e.refs == 0 {
			delete(t.entries, id)
		}
		t.mu.Unlock()
	}
}

// len returns the number of live entries.
func (t *lockTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
