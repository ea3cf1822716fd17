// Package httpapi exposes the collection pipeline over HTTP. The surface
// is a single trigger endpoint returning a code/msg/data envelope, so an
// upstream scheduler can drive runs and read back a count.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/defectflow/defectflow/internal/collect"
	"github.com/defectflow/defectflow/internal/pipeline"
	"github.com/defectflow/defectflow/internal/store"
)

// CollectRunner is the pipeline contract the server depends on.
// Satisfied by *pipeline.Runner; stubbed in tests.
type CollectRunner interface {
	Run(ctx context.Context, p pipeline.Params) (int, error)
}

// Server handles the collection API.
type Server struct {
	runner CollectRunner
	logger *log.Logger
	mux    *http.ServeMux
}

// NewServer builds a server around the given runner. A nil logger falls
// back to the standard logger.
func NewServer(runner CollectRunner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, logger: logger, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /api/collect/issue", s.handleCollectIssue)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// envelope is the fixed response shape: code mirrors the HTTP status,
// msg is "success" or the error text, data carries the run summary.
type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

type collectResult struct {
	Owner     string `json:"owner"`
	Repo      string `json:"repo"`
	Platform  string `json:"platform"`
	UpdateNum int    `json:"update_num"`
	Since     string `json:"since,omitempty"`
	Until     string `json:"until,omitempty"`
}

func (s *Server) handleCollectIssue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	platform, err := collect.ParsePlatform(q.Get("platform"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Code: http.StatusBadRequest, Msg: err.Error()})
		return
	}

	p := pipeline.Params{
		Platform: platform,
		Owner:    q.Get("owner"),
		Repo:     q.Get("repo"),
		RepoID:   q.Get("repo_id"),
		State:    q.Get("state"),
		Since:    q.Get("since"),
		Until:    q.Get("until"),
	}
	if p.RepoID == "" {
		writeJSON(w, http.StatusBadRequest, envelope{Code: http.StatusBadRequest, Msg: "repo_id is required"})
		return
	}

	inserted, err := s.runner.Run(r.Context(), p)
	if err != nil {
		status := statusFor(err)
		s.logger.Printf("collect %s/%s on %s: %v", p.Owner, p.Repo, p.Platform, err)
		writeJSON(w, status, envelope{Code: status, Msg: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Code: http.StatusOK,
		Msg:  "success",
		Data: collectResult{
			Owner:     p.Owner,
			Repo:      p.Repo,
			Platform:  string(p.Platform),
			UpdateNum: inserted,
			Since:     p.Since,
			Until:     p.Until,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{Code: http.StatusOK, Msg: "ok"})
}

// statusFor maps the pipeline error taxonomy onto HTTP: caller mistakes
// are 400, upstream tracker failures are 502, storage failures are 500.
func statusFor(err error) int {
	var cfg *collect.ConfigError
	var val *collect.ValidationError
	var coll *collect.CollectionError
	var sto *store.StorageError
	switch {
	case errors.As(err, &cfg), errors.As(err, &val):
		return http.StatusBadRequest
	case errors.As(err, &coll):
		return http.StatusBadGateway
	case errors.As(err, &sto):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
