// Package server exposes the interpreter over HTTP.
//
//	POST /eval     {"code": "..."} -> {"result": "..."}
//	POST /ast      {"code": "..."} -> {"ast": {...}, "source": "..."}
//	GET  /history  recorded evaluations, when a history store is configured
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/iancoleman/orderedmap"
	"github.com/podhmo/monkey"
	"github.com/podhmo/monkey/ast"
	"github.com/podhmo/monkey/internal/history"
	"github.com/podhmo/monkey/internal/logging"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds an evaluation when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// MaxBodyBytes caps the size of a request body.
const MaxBodyBytes = 1 << 20

// Server handles the HTTP API. Every request is evaluated in a fresh environment.
type Server struct {
	logger          *slog.Logger
	stdout          io.Writer
	timeout         time.Duration
	history         *history.Store
	shutdownTimeout time.Duration
}

// Option is a functional option for configuring the Server.
type Option func(*Server)

// WithLogger sets the logger used for request and lifecycle logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStdout sets the writer that receives `puts` output of evaluated programs.
func WithStdout(w io.Writer) Option {
	return func(s *Server) {
		s.stdout = w
	}
}

// WithTimeout bounds a single evaluation.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// WithHistory records evaluations in store and enables GET /history.
func WithHistory(store *history.Store) Option {
	return func(s *Server) {
		s.history = store
	}
}

// New creates a new Server.
func New(options ...Option) *Server {
	s := &Server{
		stdout:          os.Stdout,
		timeout:         DefaultTimeout,
		shutdownTimeout: 5 * time.Second,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Default()
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	return s
}

// Handler returns the API with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /eval", s.handleEval)
	mux.HandleFunc("POST /ast", s.handleAST)
	if s.history != nil {
		mux.HandleFunc("GET /history", s.handleHistory)
	}
	mux.HandleFunc("/", s.handleNotFound)
	return s.logRequests(cors(mux))
}

// Run listens on addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.InfoContext(ctx, "listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		s.logger.InfoContext(shutdownCtx, "shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	})
	return g.Wait()
}

type codeRequest struct {
	Code string `json:"code"`
}

type resultResponse struct {
	Result string `json:"result"`
}

type astResponse struct {
	AST    *orderedmap.OrderedMap `json:"ast"`
	Source string                 `json:"source"`
}

type messageResponse struct {
	Msg string `json:"msg"`
}

func (s *Server) handleEval(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	interp := monkey.NewInterpreter(monkey.WithStdout(s.stdout), monkey.WithLogger(s.logger))
	obj, err := interp.Eval(ctx, req.Code)
	if errors.Is(err, context.DeadlineExceeded) {
		s.writeJSON(w, r, http.StatusGatewayTimeout, messageResponse{Msg: "evaluation timed out"})
		return
	}
	if errors.Is(err, context.Canceled) {
		// the client went away
		return
	}

	result := monkey.Format(obj, err)
	s.record(r.Context(), history.Entry{Source: req.Code, Result: result, IsError: err != nil})
	s.writeJSON(w, r, http.StatusOK, resultResponse{Result: result})
}

func (s *Server) handleAST(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	program, err := monkey.Parse(req.Code)
	if err != nil {
		s.writeJSON(w, r, http.StatusOK, resultResponse{Result: monkey.Format(nil, err)})
		return
	}
	s.writeJSON(w, r, http.StatusOK, astResponse{AST: ast.Dump(program), Source: program.String()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := history.DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeJSON(w, r, http.StatusBadRequest, messageResponse{Msg: fmt.Sprintf("invalid limit %q", v)})
			return
		}
		limit = n
	}

	entries, err := s.history.List(r.Context(), limit)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "listing history", "error", err)
		s.writeJSON(w, r, http.StatusInternalServerError, messageResponse{Msg: "failed to list history"})
		return
	}
	s.writeJSON(w, r, http.StatusOK, entries)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusNotFound, messageResponse{Msg: "not found"})
}

// decode reads the request body. A body over MaxBodyBytes is answered with
// 413; one that is not a JSON object with a string "code" member with 500.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (codeRequest, bool) {
	var req codeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(&req); err != nil {
		if maxErr := (*http.MaxBytesError)(nil); errors.As(err, &maxErr) {
			s.writeJSON(w, r, http.StatusRequestEntityTooLarge, messageResponse{Msg: fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)})
			return req, false
		}
		s.writeJSON(w, r, http.StatusInternalServerError, messageResponse{Msg: err.Error()})
		return req, false
	}
	return req, true
}

func (s *Server) record(ctx context.Context, e history.Entry) {
	if s.history == nil {
		return
	}
	if err := s.history.Record(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "failed to record history", "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		s.logger.WarnContext(r.Context(), "failed to write response", "error", err)
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
