package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/wafermask/pkg/cache"
	"github.com/matzehuels/wafermask/pkg/errors"
	"github.com/matzehuels/wafermask/pkg/observability"
	"github.com/matzehuels/wafermask/pkg/pipeline"
	"github.com/matzehuels/wafermask/pkg/store"
)

const testJob = `
name = "api"
size = 51
cols = 2

[[section]]
number = 1
structure = "Grid"
distance = 5000
radius = 200
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	c, err := cache.NewFileCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	st, err := store.NewFileStore(filepath.Join(dir, "runs.jsonl"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	srv := New(pipeline.NewRunner(c, nil, st, nil), Config{}, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, contentType, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, contentType, strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body healthResponse
	decodeBody(t, resp, &body)
	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		t.Errorf("health = %d %+v", resp.StatusCode, body)
	}
	if body.Build.Version == "" || body.Build.GoVersion == "" {
		t.Errorf("health build info incomplete: %+v", body.Build)
	}
}

func TestSizes(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/sizes")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var sizes []sizeInfo
	decodeBody(t, resp, &sizes)
	if len(sizes) != 4 {
		t.Fatalf("sizes = %d, want 4", len(sizes))
	}
	if !sizes[1].Supported || sizes[1].Flat == nil || sizes[1].Flat.Angle != 71.03 {
		t.Errorf("100mm = %+v", sizes[1])
	}
	if sizes[3].Supported || sizes[3].Flat != nil {
		t.Errorf("200mm should be unsupported: %+v", sizes[3])
	}
}

func TestStructures(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/structures")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var names []string
	decodeBody(t, resp, &names)
	if strings.Join(names, ",") != "Pillars,Grid,Lines V,Lines H" {
		t.Errorf("structures = %v", names)
	}
}

func TestSections(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts.URL+"/v1/sections", "application/toml", testJob)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var rows []pipeline.SectionRow
	decodeBody(t, resp, &rows)
	if len(rows) != 2 || !rows[0].Configured || rows[1].Configured {
		t.Errorf("rows = %+v", rows)
	}
}

func TestSectionsJSON(t *testing.T) {
	ts := newTestServer(t)
	body := `{"name":"api","size":51,"margin":5,"unit":"um","precision":"nm","rows":2,"cols":2,"sections":[]}`
	resp := post(t, ts.URL+"/v1/sections", "application/json; charset=utf-8", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var rows []pipeline.SectionRow
	decodeBody(t, resp, &rows)
	if len(rows) != 4 {
		t.Errorf("rows = %d, want 4", len(rows))
	}
}

func TestMasks(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts.URL+"/v1/masks", "application/toml", testJob)
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/vnd.gdsii" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "api.gds") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if resp.Header.Get("X-Cache") != "MISS" || resp.Header.Get("X-Run-ID") == "" {
		t.Errorf("headers = %v", resp.Header)
	}
	data, _ := io.ReadAll(resp.Body)
	// HEADER record: length 6, type 0x0002.
	if len(data) < 6 || data[0] != 0 || data[1] != 6 || data[2] != 0 || data[3] != 2 {
		t.Errorf("body is not a GDSII stream")
	}

	again := post(t, ts.URL+"/v1/masks?format=gds", "application/toml", testJob)
	if again.Header.Get("X-Cache") != "HIT" {
		t.Errorf("second request X-Cache = %q", again.Header.Get("X-Cache"))
	}

	svg := post(t, ts.URL+"/v1/masks?format=svg&width=300", "application/toml", testJob)
	if svg.Header.Get("Content-Type") != "image/svg+xml" {
		t.Errorf("svg Content-Type = %q", svg.Header.Get("Content-Type"))
	}
	svgData, _ := io.ReadAll(svg.Body)
	if !strings.Contains(string(svgData), `width="300"`) {
		t.Error("svg width not applied")
	}

	runsResp, err := http.Get(ts.URL + "/v1/runs?limit=2")
	if err != nil {
		t.Fatal(err)
	}
	defer runsResp.Body.Close()
	var runs []store.Record
	decodeBody(t, runsResp, &runs)
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}

	runResp, err := http.Get(ts.URL + "/v1/runs/" + runs[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	defer runResp.Body.Close()
	var rec store.Record
	decodeBody(t, runResp, &rec)
	if rec.ID != runs[0].ID || rec.Job != "api" {
		t.Errorf("run = %+v", rec)
	}
}

func TestErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   errors.Code
	}{
		{"bad toml", "/v1/masks", "name = ", http.StatusBadRequest, errors.ErrCodeInvalidJob},
		{"unsupported size", "/v1/masks", "size = 200", http.StatusBadRequest, errors.ErrCodeInvalidJob},
		{"unknown format", "/v1/masks?format=dxf", testJob, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"bad width", "/v1/masks?format=svg&width=-1", testJob, http.StatusBadRequest, errors.ErrCodeInvalidArgument},
		{"bad refresh", "/v1/masks?refresh=maybe", testJob, http.StatusBadRequest, errors.ErrCodeInvalidArgument},
		{"section out of range", "/v1/sections", testJob + "\n[[section]]\nnumber = 7\n", http.StatusBadRequest, errors.ErrCodeInvalidJob},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+tt.path, "application/toml", tt.body)
			var body errorResponse
			decodeBody(t, resp, &body)
			if resp.StatusCode != tt.status || body.Code != tt.code {
				t.Errorf("got %d %s (%s), want %d %s", resp.StatusCode, body.Code, body.Message, tt.status, tt.code)
			}
		})
	}

	resp, err := http.Get(ts.URL + "/v1/runs/missing")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing run status = %d", resp.StatusCode)
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidConfiguration, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeUnsupported, "x"), http.StatusNotImplemented},
		{fmt.Errorf("generate: %w", errors.New(errors.ErrCodeInvalidArgument, "x")), http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusCode(tt.err); got != tt.want {
			t.Errorf("StatusCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

type countingHTTPHooks struct {
	observability.NoopHTTPHooks
	responses chan int
}

func (h *countingHTTPHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.responses <- status
}

func TestObserveReportsResponses(t *testing.T) {
	observability.Reset()
	defer observability.Reset()
	hooks := &countingHTTPHooks{responses: make(chan int, 1)}
	observability.SetHTTPHooks(hooks)

	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	select {
	case status := <-hooks.responses:
		if status != http.StatusNotFound {
			t.Errorf("status = %d, want 404", status)
		}
	case <-time.After(time.Second):
		t.Fatal("no response recorded")
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	srv := New(pipeline.NewRunner(nil, nil, nil, nil), Config{Addr: "127.0.0.1:0"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
