package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/wsm/pkg/buildinfo"
	errs "github.com/matzehuels/wsm/pkg/errors"
	"github.com/matzehuels/wsm/pkg/graph"
	"github.com/matzehuels/wsm/pkg/pipeline"
	"github.com/matzehuels/wsm/pkg/render/nodelink"
	"github.com/matzehuels/wsm/pkg/session"
	"github.com/matzehuels/wsm/pkg/wsm"
)

// =============================================================================
// Request and Response Types
// =============================================================================

type solverOptions struct {
	TimeoutMS     int64   `json:"timeout_ms,omitempty"`
	MaxIterations uint64  `json:"max_iterations,omitempty"`
	FirstSolution bool    `json:"first_solution,omitempty"`
	WeightCap     *uint64 `json:"weight_cap,omitempty"`
	Seed          int64   `json:"seed,omitempty"`
	MaxPathLength int     `json:"max_path_length,omitempty"`
	CloseRadius   int     `json:"close_radius,omitempty"`
}

type problemRequest struct {
	Name    string        `json:"name,omitempty"`
	Pattern []graph.Edge  `json:"pattern"`
	Target  []graph.Edge  `json:"target"`
	Options solverOptions `json:"options"`
	Refresh bool          `json:"refresh,omitempty"`
}

func (req *problemRequest) problem() *graph.Problem {
	return &graph.Problem{Name: req.Name, Pattern: req.Pattern, Target: req.Target}
}

type budgetRequest struct {
	TimeoutMS     int64  `json:"timeout_ms,omitempty"`
	MaxIterations uint64 `json:"max_iterations,omitempty"`
	FirstSolution bool   `json:"first_solution,omitempty"`
}

type timings struct {
	InitMS    int64 `json:"init_ms"`
	SolveMS   int64 `json:"solve_ms"`
	PersistMS int64 `json:"persist_ms"`
}

func timingsOf(st pipeline.Stats) timings {
	return timings{
		InitMS:    st.InitTime.Milliseconds(),
		SolveMS:   st.SolveTime.Milliseconds(),
		PersistMS: st.PersistTime.Milliseconds(),
	}
}

type sessionResponse struct {
	ID             string                      `json:"id"`
	Name           string                      `json:"name,omitempty"`
	Finished       bool                        `json:"finished"`
	Optimal        bool                        `json:"optimal"`
	Result         *graph.Result               `json:"result"`
	InitialDomains map[wsm.Vertex][]wsm.Vertex `json:"initial_domains,omitempty"`
	Timings        *timings                    `json:"timings,omitempty"`
}

func sessionView(live *pipeline.Live, res *graph.Result) sessionResponse {
	return sessionResponse{
		ID:       live.ID(),
		Name:     live.Problem().Name,
		Finished: res.Stats.Finished,
		Optimal:  res.Optimal(),
		Result:   res,
	}
}

type solveResponse struct {
	Result   *graph.Result `json:"result"`
	Optimal  bool          `json:"optimal"`
	CacheHit bool          `json:"cache_hit"`
	Timings  timings       `json:"timings"`
}

// =============================================================================
// Budget Handling
// =============================================================================

// budget clamps a requested call budget. A call with neither a timeout nor
// an iteration limit gets the default timeout; no call may exceed the
// maximum timeout.
func (s *Server) budget(timeoutMS int64, maxIterations uint64) (time.Duration, error) {
	if timeoutMS < 0 {
		return 0, errs.New(errs.ErrCodeInvalidInput, "timeout_ms cannot be negative")
	}
	timeout := time.Duration(timeoutMS) * time.Millisecond
	if timeout == 0 && maxIterations == 0 {
		timeout = s.opts.DefaultTimeout
	}
	if timeout > s.opts.MaxTimeout {
		timeout = s.opts.MaxTimeout
	}
	return timeout, nil
}

func (s *Server) graphOptions(o solverOptions) (graph.Options, error) {
	timeout, err := s.budget(o.TimeoutMS, o.MaxIterations)
	if err != nil {
		return graph.Options{}, err
	}
	if o.MaxPathLength < 0 || o.CloseRadius < 0 {
		return graph.Options{}, errs.New(errs.ErrCodeInvalidInput, "max_path_length and close_radius cannot be negative")
	}
	return graph.Options{
		Timeout:       timeout,
		MaxIterations: o.MaxIterations,
		FirstSolution: o.FirstSolution,
		WeightCap:     o.WeightCap,
		Seed:          o.Seed,
		MaxPathLength: o.MaxPathLength,
		CloseRadius:   o.CloseRadius,
	}, nil
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.Sessions(),
		"build":    buildinfo.Get(),
	})
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req problemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.graphOptions(req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p := req.problem()
	if err := p.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	// Identical concurrent requests share one search. The search is bounded
	// by its own budget and must not die with the first caller.
	key := s.runner.Keyer.SolveKey(graph.Hash(p), opts.KeyOpts())
	if req.Refresh {
		key = "refresh:" + key
	}
	v, err, shared := s.flight.Do(key, func() (any, error) {
		return s.runner.Solve(context.WithoutCancel(r.Context()), p, pipeline.Options{
			Solve:   opts,
			Refresh: req.Refresh,
		})
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res := v.(*pipeline.Result)
	if shared {
		s.logger.Debug("shared in-flight solve", "key", key)
	}
	writeJSON(w, http.StatusOK, solveResponse{
		Result:   res.Result,
		Optimal:  res.Optimal(),
		CacheHit: res.CacheInfo.Hit,
		Timings:  timingsOf(res.Stats),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req problemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.graphOptions(req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	live, err := s.runner.Start(r.Context(), req.problem(), pipeline.Options{Solve: opts})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !s.addSession(live) {
		s.writeError(w, r, errs.New(errs.ErrCodeBusy, "too many live sessions"))
		return
	}
	s.logger.Info("session created", "id", live.ID(), "name", live.Problem().Name)

	resp := sessionView(live, live.Snapshot())
	resp.InitialDomains = live.InitialDomains()
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*pipeline.Live, bool) {
	id := chi.URLParam(r, "id")
	if err := errs.ValidateRunID(id); err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	live, ok := s.session(id)
	if !ok {
		s.writeError(w, r, errs.New(errs.ErrCodeRunNotFound, "session %s not found", id))
		return nil, false
	}
	return live, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	live, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionView(live, live.Snapshot()))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.dropSession(id) {
		s.writeError(w, r, errs.New(errs.ErrCodeRunNotFound, "session %s not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSolveSession(w http.ResponseWriter, r *http.Request) {
	live, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	var req budgetRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	timeout, err := s.budget(req.TimeoutMS, req.MaxIterations)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := live.Solve(r.Context(), wsm.Params{
		Timeout:       timeout,
		MaxIterations: req.MaxIterations,
		FirstSolution: req.FirstSolution,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := sessionView(live, res.Result)
	t := timingsOf(res.Stats)
	resp.Timings = &t
	writeJSON(w, http.StatusOK, resp)
}

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatJSON: "application/json",
}

func (s *Server) handleRenderSession(w http.ResponseWriter, r *http.Request) {
	live, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, errs.Wrap(errs.ErrCodeInvalidFormat, err, "%v", err))
		return
	}
	artifacts, err := pipeline.Render(live.Problem(), live.Snapshot(), pipeline.RenderOptions{
		Formats: []string{format},
		Nodelink: nodelink.Options{
			Detailed:      q.Has("detailed"),
			HideUnmatched: q.Has("hide_unmatched"),
			ShowPattern:   q.Has("show_pattern"),
		},
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runner.Store == nil {
		s.writeError(w, r, errs.New(errs.ErrCodeUnsupported, "run storage is disabled"))
		return
	}
	opts := session.ListOptions{ProblemHash: r.URL.Query().Get("problem")}
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			s.writeError(w, r, errs.New(errs.ErrCodeInvalidInput, "invalid limit %q", l))
			return
		}
		opts.Limit = n
	}
	runs, err := s.runner.Store.List(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []*session.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runner.Store == nil {
		s.writeError(w, r, errs.New(errs.ErrCodeUnsupported, "run storage is disabled"))
		return
	}
	id := chi.URLParam(r, "id")
	if err := errs.ValidateRunID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	run, err := s.runner.Store.Get(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		s.writeError(w, r, errs.New(errs.ErrCodeRunNotFound, "run %s not found", id))
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
