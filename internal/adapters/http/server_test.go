package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paulsava/cpg"
	"github.com/paulsava/cpg/pkg/graph"
	"github.com/paulsava/cpg/pkg/orchestrator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, loaded bool) *httptest.Server {
	t.Helper()
	eng, err := cpg.New()
	require.NoError(t, err)
	if loaded {
		g := graph.New("service")
		unit := &graph.Node{ID: "main.go", Kind: graph.KindUnit, Language: "go"}
		fn := &graph.Node{ID: "main", Kind: graph.KindFunction, Name: "main", Language: "go"}
		require.NoError(t, g.Add(nil, unit))
		require.NoError(t, g.Add(unit, fn))
		require.NoError(t, eng.UseGraph(context.Background(), g))
	}
	srv := httptest.NewServer(NewHandler(eng, nil))
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func postJSON(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHandler_Health(t *testing.T) {
	srv := newTestServer(t, false)

	var body map[string]string
	code := getJSON(t, srv.URL+"/healthz", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestHandler_StatusWithoutSession(t *testing.T) {
	srv := newTestServer(t, false)

	var st cpg.Status
	code := getJSON(t, srv.URL+"/v1/status", &st)
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, st.SessionActive)
}

func TestHandler_ListPasses(t *testing.T) {
	srv := newTestServer(t, false)

	var descs []map[string]any
	code := getJSON(t, srv.URL+"/v1/passes", &descs)
	assert.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, descs)
}

func TestHandler_RunPass(t *testing.T) {
	srv := newTestServer(t, true)

	resp, body := postJSON(t, srv.URL+"/v1/passes/run", `{"pass_id":"eog","node_id":"main.go"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var res orchestrator.Result
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, orchestrator.StatusDone, res.Status)
	require.Len(t, res.Executed, 1)
	assert.Equal(t, "eog", res.Executed[0].PassID)
}

func TestHandler_RunPassFailureCarriesPartialResult(t *testing.T) {
	srv := newTestServer(t, false)

	resp, body := postJSON(t, srv.URL+"/v1/passes/run", `{"pass_id":"eog","node_id":"main.go"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var res orchestrator.Result
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, orchestrator.StatusFailed, res.Status)
	assert.Contains(t, res.Error, "session")
}

func TestHandler_RunPassValidation(t *testing.T) {
	srv := newTestServer(t, true)

	resp, err := http.Post(srv.URL+"/v1/passes/run", "application/json", strings.NewReader(`{"pass_id":"eog"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/v1/passes/run", "application/json", strings.NewReader(`{not json`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_MetricsExposedWhenConfigured(t *testing.T) {
	eng, err := cpg.New()
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	srv := httptest.NewServer(NewHandler(eng, reg))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Without a gatherer the route does not exist.
	bare := newTestServer(t, false)
	resp, err = http.Get(bare.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
