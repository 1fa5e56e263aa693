// Package server is an in-memory REST collaborator for local development.
// It speaks the same wire contract as the real back office and enforces
// nothing beyond required fields.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/smart715/jobsify/pkg/config"
	"github.com/smart715/jobsify/pkg/db"
	"github.com/smart715/jobsify/pkg/db/memory"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
)

type resource struct {
	entity config.Entity
	col    *memory.Collection
}

type Server struct {
	router    *mux.Router
	resources map[string]*resource
	order     []string
	log       *logrus.Entry
}

// New serves every entity of cfg under the path of cfg.API.BaseURL.
func New(cfg *config.Config, log *logrus.Entry) (*Server, error) {
	base := "/"
	if cfg.API.BaseURL != "" {
		u, err := url.Parse(cfg.API.BaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "parse api.baseURL")
		}
		base = u.Path
	}

	s := &Server{
		router:    mux.NewRouter(),
		resources: map[string]*resource{},
		log:       log.WithField("component", "mock-server"),
	}
	for _, e := range cfg.Entities {
		id := e.IDField
		if id == "" {
			id = v1.DefaultIDField
		}
		s.resources[e.Name] = &resource{entity: e, col: memory.New(e.Name, id, e.Required...)}
		s.order = append(s.order, e.Name)
	}

	r := s.router
	if p := strings.TrimRight(base, "/"); p != "" {
		r = s.router.PathPrefix(p).Subrouter()
	}
	r.Use(s.logRequests)
	r.HandleFunc("/{entity}", s.list).Methods(http.MethodGet)
	r.HandleFunc("/{entity}", s.create).Methods(http.MethodPost)
	r.HandleFunc("/{entity}/{id}", s.update).Methods(http.MethodPut)
	r.HandleFunc("/{entity}/{id}", s.delete).Methods(http.MethodDelete)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Collection returns the backing store of entity.
func (s *Server) Collection(entity string) (*memory.Collection, bool) {
	res, ok := s.resources[entity]
	if !ok {
		return nil, false
	}
	return res.col, true
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
	s.log.WithField("listen", addr).Info("mock server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"took":       time.Since(start),
			"request_id": r.Header.Get("X-Request-ID"),
		}).Debug("handled request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) resource(w http.ResponseWriter, r *http.Request) (*resource, bool) {
	name := mux.Vars(r)["entity"]
	res, ok := s.resources[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown entity "+name)
	}
	return res, ok
}

// list answers with a bare array, or with an object when the entity names
// an envelope explicitly.
func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	res, ok := s.resource(w, r)
	if !ok {
		return
	}
	rows, err := res.col.List(r.Context())
	if err != nil {
		writeDBError(w, err)
		return
	}
	if res.entity.Envelope != "" {
		writeJSON(w, http.StatusOK, map[string]any{res.entity.Envelope: rows})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	res, ok := s.resource(w, r)
	if !ok {
		return
	}
	payload, ok := readRecord(w, r)
	if !ok {
		return
	}
	created, err := res.col.Create(r.Context(), payload)
	if err != nil {
		writeDBError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	res, ok := s.resource(w, r)
	if !ok {
		return
	}
	payload, ok := readRecord(w, r)
	if !ok {
		return
	}
	updated, err := res.col.Update(r.Context(), v1.ID(mux.Vars(r)["id"]), payload)
	if err != nil {
		writeDBError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	res, ok := s.resource(w, r)
	if !ok {
		return
	}
	if err := res.col.Delete(r.Context(), v1.ID(mux.Vars(r)["id"])); err != nil {
		writeDBError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func readRecord(w http.ResponseWriter, r *http.Request) (v1.Record, bool) {
	var rec v1.Record
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return nil, false
	}
	return rec, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		writeError(w, http.StatusInternalServerError, "encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeDBError(w http.ResponseWriter, err error) {
	var e *db.Error
	if errors.As(err, &e) && e.Status != 0 {
		writeError(w, e.Status, db.UserMessage(err))
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}
