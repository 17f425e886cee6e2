// Package mlflowtest provides an in-memory MLflow tracking server for tests.
// It implements the REST endpoints the mlflow client uses and records every request.
package mlflowtest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
)

// Request is one recorded call.
type Request struct {
	Method    string
	Path      string // URL path without the query
	Query     string
	Body      []byte
	Header    http.Header
	RequestID string
}

// Failure makes the server answer an endpoint with an MLflow error.
type Failure struct {
	Status int
	Code   string
}

// Run is the server-side state of a run.
type Run struct {
	ID           string
	ExperimentID string
	ArtifactURI  string
	Status       string
	ModelJSON    string
}

// Version is a created model version.
type Version struct {
	Name    string
	Version string
	Source  string
	RunID   string
}

// Server is an httptest-backed fake tracking server with the mlflow-artifacts proxy enabled.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	requests     []Request
	experiments  map[string]string // name -> id
	runs         map[string]*Run
	runOrder     []string
	artifacts    map[string][]byte
	models       map[string]bool
	versions     []Version
	failures     map[string]Failure // "METHOD endpoint" -> failure
	artifactRoot string
	nextID       int
}

// Option configures a Server.
type Option func(*Server)

// WithArtifactRoot sets the artifact URI prefix handed out for new runs.
// Default is "mlflow-artifacts:". A non-proxy root (e.g. "s3://bucket") exercises unsupported stores.
func WithArtifactRoot(root string) Option {
	return func(s *Server) { s.artifactRoot = root }
}

// WithExperiment pre-creates an experiment.
func WithExperiment(name, id string) Option {
	return func(s *Server) { s.experiments[name] = id }
}

// WithRegisteredModel pre-creates a registered model.
func WithRegisteredModel(name string) Option {
	return func(s *Server) { s.models[name] = true }
}

// WithFailure answers "METHOD endpoint" (e.g. "POST model-versions/create") with an error.
func WithFailure(route string, f Failure) Option {
	return func(s *Server) { s.failures[route] = f }
}

// NewServer starts a Server. Call Close when done.
func NewServer(opts ...Option) *Server {
	s := &Server{
		experiments:  map[string]string{"Default": "0"},
		runs:         make(map[string]*Run),
		artifacts:    make(map[string][]byte),
		models:       make(map[string]bool),
		failures:     make(map[string]Failure),
		artifactRoot: "mlflow-artifacts:",
		nextID:       1,
	}
	for _, opt := range opts {
		opt(s)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/2.0/mlflow/experiments/get-by-name", s.getExperimentByName)
	mux.HandleFunc("POST /api/2.0/mlflow/experiments/create", s.createExperiment)
	mux.HandleFunc("POST /api/2.0/mlflow/runs/create", s.createRun)
	mux.HandleFunc("POST /api/2.0/mlflow/runs/update", s.updateRun)
	mux.HandleFunc("POST /api/2.0/mlflow/runs/log-model", s.logModel)
	mux.HandleFunc("POST /api/2.0/mlflow/registered-models/create", s.createRegisteredModel)
	mux.HandleFunc("POST /api/2.0/mlflow/model-versions/create", s.createModelVersion)
	mux.HandleFunc("PUT /api/2.0/mlflow-artifacts/artifacts/", s.putArtifact)
	s.Server = httptest.NewServer(s.record(mux))
	return s
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.RawQuery,
			Body:      body,
			Header:    r.Header.Clone(),
			RequestID: r.Header.Get("X-Request-ID"),
		})
		route := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api/2.0/mlflow/")
		f, fail := s.failures[route]
		s.mu.Unlock()
		if fail {
			writeError(w, f.Status, f.Code, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Requests returns the recorded calls in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Routes returns "METHOD path" for each recorded call, with the API prefix trimmed.
func (s *Server) Routes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.requests))
	for _, r := range s.requests {
		p := strings.TrimPrefix(r.Path, "/api/2.0/mlflow/")
		p = strings.TrimPrefix(p, "/api/2.0/")
		out = append(out, r.Method+" "+p)
	}
	return out
}

// Artifact returns an uploaded artifact by path below the artifact root.
func (s *Server) Artifact(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.artifacts[path]
	return b, ok
}

// Runs returns the runs in creation order.
func (s *Server) Runs() []Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Run, 0, len(s.runOrder))
	for _, id := range s.runOrder {
		out = append(out, *s.runs[id])
	}
	return out
}

// Versions returns created model versions in order.
func (s *Server) Versions() []Version {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Version(nil), s.versions...)
}

// RegisteredModel reports whether name is registered.
func (s *Server) RegisteredModel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.models[name]
}

// ExperimentID returns the id of the named experiment.
func (s *Server) ExperimentID(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.experiments[name]
	return id, ok
}

func (s *Server) newID(prefix string) string {
	id := prefix + strconv.Itoa(s.nextID)
	s.nextID++
	return id
}

func (s *Server) getExperimentByName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("experiment_name")
	s.mu.Lock()
	id, ok := s.experiments[name]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "RESOURCE_DOES_NOT_EXIST", fmt.Sprintf("Could not find experiment with name '%s'", name))
		return
	}
	writeJSON(w, map[string]any{"experiment": map[string]string{"experiment_id": id, "name": name}})
}

func (s *Server) createExperiment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	if _, ok := s.experiments[req.Name]; ok {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "RESOURCE_ALREADY_EXISTS", "experiment exists")
		return
	}
	id := strconv.Itoa(100 + len(s.experiments))
	s.experiments[req.Name] = id
	s.mu.Unlock()
	writeJSON(w, map[string]string{"experiment_id": id})
}

func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExperimentID string `json:"experiment_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	id := s.newID("run")
	run := &Run{
		ID:           id,
		ExperimentID: req.ExperimentID,
		ArtifactURI:  s.artifactRoot + "/" + req.ExperimentID + "/" + id + "/artifacts",
		Status:       "RUNNING",
	}
	s.runs[id] = run
	s.runOrder = append(s.runOrder, id)
	s.mu.Unlock()
	writeJSON(w, map[string]any{"run": map[string]any{"info": map[string]string{
		"run_id":        id,
		"experiment_id": req.ExperimentID,
		"artifact_uri":  run.ArtifactURI,
		"status":        run.Status,
	}}})
}

func (s *Server) updateRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RunID  string `json:"run_id"`
		Status string `json:"status"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	run, ok := s.runs[req.RunID]
	if ok {
		run.Status = req.Status
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "RESOURCE_DOES_NOT_EXIST", "no run "+req.RunID)
		return
	}
	writeJSON(w, map[string]any{"run_info": map[string]string{"run_id": req.RunID, "status": req.Status}})
}

func (s *Server) logModel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RunID     string `json:"run_id"`
		ModelJSON string `json:"model_json"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	run, ok := s.runs[req.RunID]
	if ok {
		run.ModelJSON = req.ModelJSON
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "RESOURCE_DOES_NOT_EXIST", "no run "+req.RunID)
		return
	}
	writeJSON(w, map[string]any{})
}

func (s *Server) createRegisteredModel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	exists := s.models[req.Name]
	s.models[req.Name] = true
	s.mu.Unlock()
	if exists {
		writeError(w, http.StatusBadRequest, "RESOURCE_ALREADY_EXISTS", fmt.Sprintf("Registered Model (name=%s) already exists.", req.Name))
		return
	}
	writeJSON(w, map[string]any{"registered_model": map[string]string{"name": req.Name}})
}

func (s *Server) createModelVersion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Source string `json:"source"`
		RunID  string `json:"run_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	if !s.models[req.Name] {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "RESOURCE_DOES_NOT_EXIST", "no registered model "+req.Name)
		return
	}
	n := 1
	for _, v := range s.versions {
		if v.Name == req.Name {
			n++
		}
	}
	v := Version{Name: req.Name, Version: strconv.Itoa(n), Source: req.Source, RunID: req.RunID}
	s.versions = append(s.versions, v)
	s.mu.Unlock()
	writeJSON(w, map[string]any{"model_version": map[string]string{
		"name":    v.Name,
		"version": v.Version,
		"source":  v.Source,
		"run_id":  v.RunID,
		"status":  "READY",
	}})
}

func (s *Server) putArtifact(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/2.0/mlflow-artifacts/artifacts/")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PARAMETER_VALUE", err.Error())
		return
	}
	s.mu.Lock()
	s.artifacts[path] = body
	s.mu.Unlock()
	writeJSON(w, map[string]any{})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(r.Body)
	if err == nil {
		err = sonic.Unmarshal(body, v)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "MALFORMED_REQUEST", err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	data, _ := sonic.Marshal(map[string]string{"error_code": code, "message": message})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
