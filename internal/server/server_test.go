package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshharrison/critpath/internal/metrics"
)

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	rec, err := metrics.New()
	require.NoError(t, err)
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	ts := httptest.NewServer(New(rec, opts...).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, contentType, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/v1/schedule", contentType, strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

const diamondJSON = `{
  "name": "diamond",
  "activities": [
    {"id": "A", "duration": 3, "after": "-"},
    {"id": "B", "duration": 2, "after": "A"},
    {"id": "C", "duration": 4, "after": "A"},
    {"id": "D", "duration": 1, "after": "B,C"}
  ]
}`

func TestSchedule_JSON(t *testing.T) {
	ts := newTestServer(t)

	resp, out := post(t, ts, "application/json", diamondJSON)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "diamond", out["project"])
	assert.EqualValues(t, 8, out["project_duration"])
	assert.Equal(t, []any{"A", "C", "D"}, out["critical_path"])
}

func TestSchedule_YAML(t *testing.T) {
	ts := newTestServer(t)

	body := "activities:\n  - {id: a, duration: 2}\n  - {id: b, duration: 5, after: [a]}\n"
	resp, out := post(t, ts, "application/yaml", body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "request", out["project"])
	assert.EqualValues(t, 7, out["project_duration"])
}

func TestSchedule_Cycle(t *testing.T) {
	ts := newTestServer(t)

	resp, out := post(t, ts, "application/json",
		`{"activities": [{"id": "X", "duration": 1, "after": "Y"}, {"id": "Y", "duration": 1, "after": "X"}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, out["error"], "dependency cycle detected")
	assert.NotContains(t, out, "activities")
}

func TestSchedule_StrictRejectsDanglingReference(t *testing.T) {
	body := `{"activities": [{"id": "Z", "duration": 1, "after": "Q"}]}`

	resp, _ := post(t, newTestServer(t), "application/json", body)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "lenient by default")

	resp, out := post(t, newTestServer(t, WithStrict(true)), "application/json", body)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, out["error"], "dangling reference")
}

func TestSchedule_BadBody(t *testing.T) {
	ts := newTestServer(t)

	resp, out := post(t, ts, "application/json", `{"activities": [`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, out["error"])
}

func TestSchedule_BodyTooLarge(t *testing.T) {
	ts := newTestServer(t, WithMaxBodyBytes(16))

	resp, _ := post(t, ts, "application/json", diamondJSON)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestSchedule_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/schedule")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)
	post(t, ts, "application/json", diamondJSON)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `critpath_schedules_total{outcome="ok"} 1`)
	assert.Contains(t, string(body), "critpath_project_duration 8")
}

func TestRequestFormat(t *testing.T) {
	for ct, want := range map[string]string{
		"":                          "json",
		"application/json":          "json",
		"application/yaml":          "yaml",
		"text/yaml; charset=utf-8":  "yaml",
		"application/hcl":           "hcl",
		"multipart/form-data; x=;;": "json",
	} {
		r := httptest.NewRequest(http.MethodPost, "/v1/schedule", bytes.NewReader(nil))
		r.Header.Set("Content-Type", ct)
		assert.Equal(t, want, string(requestFormat(r)), ct)
	}
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	rec, err := metrics.New()
	require.NoError(t, err)
	srv := New(rec,
		WithListenAddr(addr),
		WithShutdownTimeout(time.Second),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
