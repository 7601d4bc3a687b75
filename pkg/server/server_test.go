package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etulastrada/ideconfy/pkg/cache"
	"github.com/etulastrada/ideconfy/pkg/canvas"
	"github.com/etulastrada/ideconfy/pkg/config"
	"github.com/etulastrada/ideconfy/pkg/errors"
	"github.com/etulastrada/ideconfy/pkg/identicon"
	"github.com/etulastrada/ideconfy/pkg/pipeline"
)

func newTestServer(t *testing.T, runner *pipeline.Runner) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	srv := httptest.NewServer(New(config.Default(), runner, logger).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := do(t, http.MethodGet, srv.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestIdenticon(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodGet, srv.URL+"/identicons/hello", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[struct {
		Content string   `json:"content"`
		Digest  string   `json:"digest"`
		Color   string   `json:"color"`
		Size    int      `json:"size"`
		Pattern [][]bool `json:"pattern"`
	}](t, resp)

	assert.Equal(t, "hello", body.Content)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", body.Digest)
	assert.Equal(t, "#2cf24d", body.Color)
	assert.Equal(t, 5, body.Size)
	require.Len(t, body.Pattern, 5)
	assert.Equal(t, []bool{true, true, false, true, true}, body.Pattern[0])
}

func TestIdenticon_EscapedContent(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodGet, srv.URL+"/identicons/a%2Fb", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "a/b", body["content"])
}

func TestIdenticon_Errors(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/identicons/hello?size=9", http.StatusBadRequest, "INVALID_CONFIG"},
		{"/identicons/hello?size=abc", http.StatusBadRequest, "INVALID_INPUT"},
		{"/identicons/%20", http.StatusBadRequest, "INVALID_INPUT"},
		{"/identicons/hello/gif", http.StatusBadRequest, "INVALID_FORMAT"},
		{"/identicons/hello/svg?scale=-2", http.StatusBadRequest, "INVALID_CONFIG"},
		{"/nowhere", http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := do(t, http.MethodGet, srv.URL+tt.path, nil)
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decode[errorBody](t, resp)
			assert.Equal(t, tt.code, string(body.Code))
		})
	}
}

func TestIdenticonSVG(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodGet, srv.URL+"/identicons/hello/svg?scale=10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	svg := string(data)
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.Contains(t, svg, `width="50"`)
	assert.Equal(t, 14, strings.Count(svg, `fill="#2cf24d"`))
}

func TestIdenticonSVG_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := cache.NewRedisCache(cache.RedisOptions{URL: fmt.Sprintf("redis://%s", mr.Addr())})
	require.NoError(t, err)
	runner := pipeline.NewRunner(rc, nil, log.New(io.Discard))
	t.Cleanup(func() { _ = runner.Close() })
	srv := newTestServer(t, runner)

	first := do(t, http.MethodGet, srv.URL+"/identicons/hello/svg", nil)
	require.Equal(t, http.StatusOK, first.StatusCode)
	assert.Equal(t, "MISS", first.Header.Get("X-Cache"))
	assert.NotEmpty(t, mr.Keys())

	second := do(t, http.MethodGet, srv.URL+"/identicons/hello/svg", nil)
	require.Equal(t, http.StatusOK, second.StatusCode)
	assert.Equal(t, "HIT", second.Header.Get("X-Cache"))
}

func TestCanvasLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodPost, srv.URL+"/canvases", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[canvasResponse](t, resp)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "/canvases/"+created.ID, resp.Header.Get("Location"))
	assert.Empty(t, created.Items)
	base := srv.URL + "/canvases/" + created.ID

	resp = do(t, http.MethodPost, base+"/items", craftRequest{Content: "  hello  "})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	item := decode[canvas.Item](t, resp)
	assert.Equal(t, "  hello  ", item.Content)
	assert.Equal(t, identicon.NewDigest("  hello  "), item.Identicon.Digest)
	assert.Equal(t, canvas.Uncommitted, item.State)

	// A short drag stays in the queue.
	resp = do(t, http.MethodPost, base+"/items/"+item.ID+"/commit", map[string]float64{"dy": 100})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[canvas.Outcome](t, resp)
	assert.False(t, out.Transitioned)
	assert.Equal(t, canvas.ReasonBelowThreshold, out.Reason)

	resp = do(t, http.MethodPost, base+"/items/"+item.ID+"/commit",
		map[string]float64{"drop_x": 0, "drop_y": 0, "dy": -150})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out = decode[canvas.Outcome](t, resp)
	assert.True(t, out.Transitioned)
	assert.Equal(t, 0.0, out.Item.Position.X)
	assert.Equal(t, 0.0, out.Item.Position.Y)

	// Committing twice is an illegal transition.
	resp = do(t, http.MethodPost, base+"/items/"+item.ID+"/commit", map[string]float64{"dy": 150})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, http.MethodPost, base+"/items/"+item.ID+"/relocate", map[string]float64{"x": 300, "y": 40})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out = decode[canvas.Outcome](t, resp)
	assert.Equal(t, 300.0, out.Item.Position.X)
	assert.Equal(t, 40.0, out.Item.Position.Y)

	resp = do(t, http.MethodGet, base+"/svg", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(data), "translate(300 40)")

	resp = do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decode[canvasResponse](t, resp)
	assert.Equal(t, 1, snap.Placed)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, canvas.Placed, snap.Items[0].State)

	resp = do(t, http.MethodDelete, base+"/items/"+item.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodDelete, base+"/items/"+item.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCanvas_BadRequests(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodGet, srv.URL+"/canvases/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	created := decode[canvasResponse](t, do(t, http.MethodPost, srv.URL+"/canvases", nil))
	base := srv.URL + "/canvases/" + created.ID

	tests := []struct {
		name string
		path string
		body any
	}{
		{"blank content", "/items", craftRequest{Content: " "}},
		{"unknown field", "/items", map[string]string{"text": "x"}},
		{"empty body", "/items", nil},
		{"half drop point", "/items/x/commit", map[string]float64{"drop_x": 1, "dy": 200}},
		{"relocate without y", "/items/x/relocate", map[string]float64{"x": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, base+tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	resp = do(t, http.MethodPost, base+"/items/missing/commit", map[string]float64{"dy": 200})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCanvas_StoreLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Server.MaxCanvases = 1
	srv := httptest.NewServer(New(cfg, nil, log.New(io.Discard)).Handler())
	t.Cleanup(srv.Close)

	resp := do(t, http.MethodPost, srv.URL+"/canvases", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/canvases", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode[errorBody](t, resp)
	assert.Equal(t, errors.ErrCodeCapacityExceeded, body.Code)
}

func TestServe_Shutdown(t *testing.T) {
	s := New(nil, nil, log.New(io.Discard))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
