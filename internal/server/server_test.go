package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/wsm/pkg/cache"
	"github.com/matzehuels/wsm/pkg/graph"
	"github.com/matzehuels/wsm/pkg/observability"
	"github.com/matzehuels/wsm/pkg/pipeline"
	"github.com/matzehuels/wsm/pkg/session"
)

const squareProblem = `{
	"name": "square",
	"pattern": [{"a": 0, "b": 1, "weight": 2}, {"a": 1, "b": 2, "weight": 1}],
	"target": [
		{"a": 0, "b": 1, "weight": 1},
		{"a": 1, "b": 2, "weight": 3},
		{"a": 2, "b": 3, "weight": 1},
		{"a": 3, "b": 0, "weight": 2},
		{"a": 0, "b": 2, "weight": 5}
	]
}`

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store, err := session.NewBadgerStore("")
	if err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(fc, nil, store, nil)
	t.Cleanup(func() { runner.Close() })

	s := New(runner, Options{Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("wsm_up 1\n"))
	})})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp, body := do(t, ts, http.MethodGet, "/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decode[map[string]any](t, body)
	if got["status"] != "ok" {
		t.Errorf("status field = %v", got["status"])
	}

	resp, body = do(t, ts, http.MethodGet, "/metrics", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "wsm_up") {
		t.Errorf("metrics: %d %s", resp.StatusCode, body)
	}
}

func TestOneShotSolve(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := do(t, ts, http.MethodPost, "/v1/solve", squareProblem)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	got := decode[solveResponse](t, body)
	if !got.Optimal || got.Result.Solution.ScalarProduct != 5 {
		t.Errorf("got optimal=%v scalar product=%d", got.Optimal, got.Result.Solution.ScalarProduct)
	}
	if got.CacheHit {
		t.Error("first solve should miss the cache")
	}

	_, body = do(t, ts, http.MethodPost, "/v1/solve", squareProblem)
	if got := decode[solveResponse](t, body); !got.CacheHit {
		t.Error("second solve should hit the cache")
	}

	// The stored run is reachable by id.
	resp, body = do(t, ts, http.MethodGet, "/v1/runs/"+got.Result.RunID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get run: %d %s", resp.StatusCode, body)
	}
	run := decode[session.Run](t, body)
	if run.Status != session.StatusFinished {
		t.Errorf("run status = %q", run.Status)
	}

	resp, body = do(t, ts, http.MethodGet, "/v1/runs?limit=10", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list runs: %d", resp.StatusCode)
	}
	if runs := decode[map[string][]session.Run](t, body)["runs"]; len(runs) != 1 {
		t.Errorf("listed %d runs, want 1", len(runs))
	}
}

func TestSessionLifecycle(t *testing.T) {
	s, ts := newTestServer(t)

	resp, body := do(t, ts, http.MethodPost, "/v1/sessions", squareProblem)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d %s", resp.StatusCode, body)
	}
	created := decode[sessionResponse](t, body)
	if created.Finished || len(created.InitialDomains) != 3 {
		t.Fatalf("unexpected new session: %+v", created)
	}
	if s.Sessions() != 1 {
		t.Errorf("Sessions() = %d", s.Sessions())
	}

	var last sessionResponse
	for i := 0; i < 1000 && !last.Finished; i++ {
		resp, body = do(t, ts, http.MethodPost, "/v1/sessions/"+created.ID+"/solve", `{"max_iterations": 2}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("solve: %d %s", resp.StatusCode, body)
		}
		last = decode[sessionResponse](t, body)
	}
	if !last.Optimal || last.Result.Solution.ScalarProduct != 5 {
		t.Errorf("final session state: %+v", last.Result)
	}

	_, body = do(t, ts, http.MethodGet, "/v1/sessions/"+created.ID, "")
	if got := decode[sessionResponse](t, body); got.Result.Solution.ScalarProduct != 5 {
		t.Errorf("GET session scalar product = %d", got.Result.Solution.ScalarProduct)
	}

	resp, body = do(t, ts, http.MethodGet, "/v1/sessions/"+created.ID+"/render?format=dot", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "graph G {") {
		t.Errorf("render: %d %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("Content-Type = %q", ct)
	}

	resp, _ = do(t, ts, http.MethodDelete, "/v1/sessions/"+created.ID, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete: %d", resp.StatusCode)
	}
	resp, _ = do(t, ts, http.MethodGet, "/v1/sessions/"+created.ID, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get deleted: %d", resp.StatusCode)
	}
}

func TestErrors(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"bad json", http.MethodPost, "/v1/solve", `{`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"unknown field", http.MethodPost, "/v1/solve", `{"bogus": 1}`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"self loop", http.MethodPost, "/v1/sessions",
			`{"pattern": [{"a": 1, "b": 1, "weight": 1}], "target": [{"a": 1, "b": 2, "weight": 1}]}`,
			http.StatusBadRequest, "INVALID_GRAPH"},
		{"overflow", http.MethodPost, "/v1/sessions",
			`{"pattern": [{"a": 0, "b": 1, "weight": 1099511627776}, {"a": 1, "b": 2, "weight": 1099511627776}],
			  "target": [{"a": 0, "b": 1, "weight": 1099511627776}, {"a": 1, "b": 2, "weight": 1099511627776}]}`,
			http.StatusUnprocessableEntity, "WEIGHT_OVERFLOW"},
		{"negative timeout", http.MethodPost, "/v1/solve",
			`{"pattern": [], "target": [], "options": {"timeout_ms": -1}}`,
			http.StatusBadRequest, "INVALID_INPUT"},
		{"bad session id", http.MethodGet, "/v1/sessions/nope", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown session", http.MethodGet, "/v1/sessions/123e4567-e89b-12d3-a456-426614174000", "", http.StatusNotFound, "RUN_NOT_FOUND"},
		{"unknown run", http.MethodGet, "/v1/runs/123e4567-e89b-12d3-a456-426614174000", "", http.StatusNotFound, "RUN_NOT_FOUND"},
		{"bad limit", http.MethodGet, "/v1/runs?limit=x", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"no route", http.MethodGet, "/v2/solve", "", http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, ts, tt.method, tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
			if got := decode[errorBody](t, body); got.Error.Code != tt.code {
				t.Errorf("code = %q, want %q", got.Error.Code, tt.code)
			}
		})
	}
}

func TestSessionLimit(t *testing.T) {
	s, ts := newTestServer(t)
	live, err := s.runner.Start(context.Background(), &graph.Problem{
		Pattern: []graph.Edge{{A: 0, B: 1, Weight: 1}},
		Target:  []graph.Edge{{A: 0, B: 1, Weight: 1}},
	}, pipeline.Options{})
	if err != nil {
		t.Fatal(err)
	}
	s.opts.MaxSessions = 1
	if !s.addSession(live) {
		t.Fatal("first session rejected")
	}
	resp, body := do(t, ts, http.MethodPost, "/v1/sessions", squareProblem)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
}

func TestSweep(t *testing.T) {
	s, ts := newTestServer(t)
	resp, body := do(t, ts, http.MethodPost, "/v1/sessions", squareProblem)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d %s", resp.StatusCode, body)
	}
	if n := s.Sweep(time.Now()); n != 0 {
		t.Errorf("fresh session swept: %d", n)
	}
	if n := s.Sweep(time.Now().Add(2 * DefaultSessionIdle)); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}
	if s.Sessions() != 0 {
		t.Errorf("Sessions() = %d after sweep", s.Sessions())
	}
}

type routeRecorder struct {
	observability.NoopHTTPHooks
	routes []string
}

func (r *routeRecorder) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	r.routes = append(r.routes, method+" "+route)
}

func TestInstrumentUsesRoutePattern(t *testing.T) {
	rec := &routeRecorder{}
	observability.SetHTTPHooks(rec)
	defer observability.Reset()

	_, ts := newTestServer(t)
	do(t, ts, http.MethodGet, "/v1/sessions/123e4567-e89b-12d3-a456-426614174000", "")

	if len(rec.routes) != 1 || rec.routes[0] != "GET /v1/sessions/{id}" {
		t.Errorf("routes = %v", rec.routes)
	}
}
