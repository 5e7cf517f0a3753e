// Package api serves schema parsing and diffing over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/riftdata/schemadiff/internal/diff"
	"github.com/riftdata/schemadiff/internal/parser"
	"github.com/riftdata/schemadiff/internal/schema"
	"github.com/riftdata/schemadiff/internal/snapshot"
	"github.com/riftdata/schemadiff/pkg/logger"
)

// Server is the HTTP API server for schemadiff.
type Server struct {
	store   *snapshot.Store
	server  *http.Server
	addr    string
	maxBody int64
}

// Config holds API server configuration.
type Config struct {
	ListenAddr   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64
}

// New creates a new API server. store may be nil, in which case the
// snapshot endpoints answer 503.
func New(cfg *Config, store *snapshot.Store) *Server {
	s := &Server{
		store:   store,
		addr:    cfg.ListenAddr,
		maxBody: cfg.MaxBodyBytes,
	}
	if s.maxBody <= 0 {
		s.maxBody = 10 << 20
	}

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       orDefault(cfg.ReadTimeout, 30*time.Second),
		WriteTimeout:      orDefault(cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:       60 * time.Second,
		ErrorLog:          logger.StandardLog(),
	}

	return s
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Handler returns the routed handler, for mounting or testing.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/diff", s.handleDiff)
		api.Post("/parse", s.handleParse)

		api.Route("/snapshots", func(sr chi.Router) {
			sr.Get("/", s.handleListSnapshots)
			sr.Get("/{name}", s.handleGetSnapshot)
			sr.Post("/{name}/diff", s.handleSnapshotDiff)
		})
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.server.Addr = ln.Addr().String()

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server error", "err", err)
		}
	}()

	logger.Info("api server listening", "addr", s.server.Addr)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// --- Parse and diff ---

// sourceDocument is a schema sent inline in a request body.
type sourceDocument struct {
	Name    string `json:"name"`
	Format  string `json:"format"`
	Content string `json:"content"`
}

type diffRequest struct {
	Old          sourceDocument `json:"old"`
	New          sourceDocument `json:"new"`
	BreakingOnly bool           `json:"breakingOnly"`
}

type snapshotDiffRequest struct {
	Name         string `json:"name"`
	Format       string `json:"format"`
	Content      string `json:"content"`
	BreakingOnly bool   `json:"breakingOnly"`
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	var req diffRequest
	if !s.decode(w, r, &req) {
		return
	}

	oldSchema, ok := parseDocument(w, "old", req.Old)
	if !ok {
		return
	}
	newSchema, ok := parseDocument(w, "new", req.New)
	if !ok {
		return
	}

	writeDiff(w, nameOr(req.Old.Name, "old"), nameOr(req.New.Name, "new"), oldSchema, newSchema, req.BreakingOnly)
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req sourceDocument
	if !s.decode(w, r, &req) {
		return
	}

	sch, ok := parseDocument(w, "content", req)
	if !ok {
		return
	}

	doc, err := parser.EncodeJSON(sch)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "encode schema: %v", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", `"`+schema.Fingerprint(sch)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

// --- Snapshots ---

type snapshotResponse struct {
	*snapshot.Snapshot
	Schema json.RawMessage `json:"schema"`
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, _ *http.Request) {
	if !s.requireStore(w) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": s.store.List(),
	})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	name := chi.URLParam(r, "name")

	sch, snap, ok := s.loadSnapshot(w, name)
	if !ok {
		return
	}
	doc, err := parser.EncodeJSON(sch)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "encode snapshot: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse{Snapshot: snap, Schema: doc})
}

func (s *Server) handleSnapshotDiff(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	name := chi.URLParam(r, "name")

	var req snapshotDiffRequest
	if !s.decode(w, r, &req) {
		return
	}

	oldSchema, _, ok := s.loadSnapshot(w, name)
	if !ok {
		return
	}
	newSchema, ok := parseDocument(w, "content", sourceDocument{Format: req.Format, Content: req.Content})
	if !ok {
		return
	}

	writeDiff(w, "@"+name, nameOr(req.Name, "new"), oldSchema, newSchema, req.BreakingOnly)
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshots_unavailable", "snapshot storage is not configured")
		return false
	}
	return true
}

func (s *Server) loadSnapshot(w http.ResponseWriter, name string) (*schema.Schema, *snapshot.Snapshot, bool) {
	sch, snap, err := s.store.Load(name)
	if err != nil {
		if errors.Is(err, snapshot.ErrSnapshotNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "snapshot %q not found", name)
			return nil, nil, false
		}
		writeError(w, http.StatusInternalServerError, "internal", "load snapshot: %v", err)
		return nil, nil, false
	}
	return sch, snap, true
}

// --- Helpers ---

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body exceeds %d bytes", tooLarge.Limit)
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body: %v", err)
		return false
	}
	return true
}

// parseDocument parses an inline schema, writing the error response itself
// when it cannot.
func parseDocument(w http.ResponseWriter, field string, doc sourceDocument) (*schema.Schema, bool) {
	format, err := parser.ParseFormat(doc.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_format", "%s: %v", field, err)
		return nil, false
	}
	sch, err := parser.Parse(format, doc.Content)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_schema", "%s: %v", field, err)
		return nil, false
	}
	return sch, true
}

func writeDiff(w http.ResponseWriter, oldName, newName string, oldSchema, newSchema *schema.Schema, breakingOnly bool) {
	d := diff.Compare(oldSchema, newSchema)
	if breakingOnly {
		d = diff.FilterBreakingOnly(d)
	}
	writeJSON(w, http.StatusOK, diff.NewReport(oldName, newName, d))
}

func nameOr(name, def string) string {
	if name == "" {
		return def
	}
	return name
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, format string, args ...interface{}) {
	body := errorBody{}
	body.Error.Code = code
	body.Error.Message = fmt.Sprintf(format, args...)
	writeJSON(w, status, body)
}
