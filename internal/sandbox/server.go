// Package sandbox is an in-memory implementation of the learning API. It
// backs `cognigen sandbox` for offline work and the client integration tests.
package sandbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abhisek/cognigen/internal/content"
	"github.com/abhisek/cognigen/internal/logger"
)

// APIVersion is sent in the X-API-Version header of every response.
const APIVersion = "v1.2.0"

// Server holds all sandbox state behind one mutex. Generation runs outside
// the lock and re-validates the target before applying its result.
type Server struct {
	mu       sync.Mutex
	paths    map[string]*pathRecord
	order    []string // path ids, newest first
	accounts map[string]*account
	replays  map[string]replay

	gen             *Generator
	log             *logger.Logger
	secret          []byte
	now             func() time.Time
	generateTimeout time.Duration
	jobs            sync.WaitGroup
}

type pathRecord struct {
	owner string
	path  *content.Path
}

// replay is a stored response for an idempotency key.
type replay struct {
	status int
	body   []byte
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) { s.log = logger.OrNop(l) }
}

// WithGenerator replaces the default mock-backed generator.
func WithGenerator(g *Generator) Option {
	return func(s *Server) { s.gen = g }
}

// WithSecret sets the HMAC key used to sign session tokens.
func WithSecret(secret []byte) Option {
	return func(s *Server) { s.secret = secret }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithGenerateTimeout bounds background path generation.
func WithGenerateTimeout(d time.Duration) Option {
	return func(s *Server) { s.generateTimeout = d }
}

// New creates an empty sandbox.
func New(opts ...Option) *Server {
	s := &Server{
		paths:           make(map[string]*pathRecord),
		accounts:        make(map[string]*account),
		replays:         make(map[string]replay),
		log:             logger.Nop(),
		secret:          []byte("cognigen-sandbox"),
		now:             time.Now,
		generateTimeout: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.gen == nil {
		s.gen = NewGenerator(nil, s.log)
	}
	return s
}

// Wait blocks until background path generations finish.
func (s *Server) Wait() {
	s.jobs.Wait()
}

// Router returns the HTTP handler. The API lives under /api.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(versionHeader)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.signup)
			r.Post("/login", s.login)
			r.Post("/logout", s.logout)
			r.Get("/me", s.me)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Use(s.idempotent)

			r.Route("/learning-paths", func(r chi.Router) {
				r.Get("/", s.listPaths)
				r.Post("/generate", s.generatePath)

				r.Route("/{pathID}", func(r chi.Router) {
					r.Get("/", s.getPath)
					r.Patch("/", s.updatePathTitle)
					r.Delete("/", s.deletePath)
					r.Patch("/reorder-topics", s.reorderTopics)

					r.Route("/topics", func(r chi.Router) {
						r.Post("/", s.addTopic)
						r.Route("/{topicID}", func(r chi.Router) {
							r.Patch("/", s.updateTopic)
							r.Delete("/", s.deleteTopic)
							r.Patch("/reorder-submodules", s.reorderSubmodules)
							r.Post("/generate-content", s.generateContent)

							r.Route("/submodules/{subID}", func(r chi.Router) {
								r.Post("/generate-quiz", s.generateQuiz)
								r.Patch("/complete", s.markComplete)
								r.Post("/cells", s.addCell)
								r.Patch("/cells/{index}", s.editCell)
								r.Delete("/cells/{index}", s.deleteCell)
							})
						})
					})
				})
			})
		})
	})

	return r
}

func versionHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", APIVersion)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// idempotent replays the stored 2xx response of a write that carries an
// Idempotency-Key the caller already used.
func (s *Server) idempotent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("Idempotency-Key")
		if key == "" || r.Method == http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		key = userFrom(r.Context()).ID + " " + r.Method + " " + r.URL.Path + " " + key

		s.mu.Lock()
		prev, seen := s.replays[key]
		s.mu.Unlock()
		if seen {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(prev.status)
			w.Write(prev.body)
			return
		}

		var buf bytes.Buffer
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Tee(&buf)
		next.ServeHTTP(ww, r)

		if st := ww.Status(); st >= 200 && st < 300 {
			s.mu.Lock()
			s.replays[key] = replay{status: st, body: buf.Bytes()}
			s.mu.Unlock()
		}
	})
}

// httpError is a handler failure with the status to answer.
type httpError struct {
	status int
	msg    string
}

func (e *httpError) Error() string { return e.msg }

func fail(status int, msg string) error {
	return &httpError{status: status, msg: msg}
}


func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var he *httpError
	if errors.As(err, &he) {
		writeJSON(w, he.status, map[string]string{"message": he.msg})
		return
	}
	var ve *content.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": ve.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"message": err.Error()})
}

// respond writes v, or the error when err is set.
func respond(w http.ResponseWriter, status int, v any, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, v)
}

func decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fail(http.StatusBadRequest, "Malformed JSON body")
	}
	return nil
}
