package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gitdraw/pkg/config"
	"github.com/matzehuels/gitdraw/pkg/errors"
	"github.com/matzehuels/gitdraw/pkg/observability"
	"github.com/matzehuels/gitdraw/pkg/pipeline"
	"github.com/matzehuels/gitdraw/pkg/session"
)

const sampleView = `{
  "name": "demo",
  "commits": [
    {"id": "a1"},
    {"id": "b2", "tags": ["master"]}
  ]
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	quiet := log.New(io.Discard)
	srv := New(session.NewMemoryStore(), pipeline.NewRunner(nil, nil, quiet), WithLogger(quiet))
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, contentType, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func create(t *testing.T, ts *httptest.Server, body string) ViewResponse {
	t.Helper()
	resp, data := do(t, ts, http.MethodPost, "/sessions", "application/json", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d: %s", resp.StatusCode, data)
	}
	return decode[ViewResponse](t, data)
}

func TestPing(t *testing.T) {
	ts := newTestServer(t)
	resp, data := do(t, ts, http.MethodGet, "/ping", "", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), "pong") {
		t.Errorf("ping = %d %s", resp.StatusCode, data)
	}
}

func TestCreateAndGet(t *testing.T) {
	ts := newTestServer(t)
	view := create(t, ts, sampleView)

	if view.ID == "" {
		t.Fatal("missing session id")
	}
	if view.CurrentBranch != "master" || view.Scene.Head != "b2" {
		t.Errorf("created view on %q at %q", view.CurrentBranch, view.Scene.Head)
	}

	resp, data := do(t, ts, http.MethodGet, "/sessions/"+view.ID, "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: %d %s", resp.StatusCode, data)
	}
	got := decode[ViewResponse](t, data)
	if got.Display != "Current Branch: master" || len(got.Scene.Commits) != 2 {
		t.Errorf("get = %+v", got)
	}
}

func TestCreateEmptyBody(t *testing.T) {
	ts := newTestServer(t)
	view := create(t, ts, "")
	if len(view.Scene.Commits) != 0 || view.Scene.Name != "UnnamedHistoryView" {
		t.Errorf("empty view = %+v", view.Scene)
	}
}

func TestCreateTOML(t *testing.T) {
	ts := newTestServer(t)
	body := `
script = ["git commit", "git checkout -b dev"]

[render]
style = "dark"
`
	resp, data := do(t, ts, http.MethodPost, "/sessions", "application/toml", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d %s", resp.StatusCode, data)
	}
	view := decode[ViewResponse](t, data)
	if view.CurrentBranch != "dev" {
		t.Errorf("CurrentBranch = %q, want dev", view.CurrentBranch)
	}
	if !strings.Contains(view.Output, "Switched to a new branch 'dev'") {
		t.Errorf("Output = %q", view.Output)
	}

	// The view's render defaults survive in the session.
	_, svg := do(t, ts, http.MethodGet, "/sessions/"+view.ID+"/render", "", "")
	_, classic := do(t, ts, http.MethodGet, "/sessions/"+view.ID+"/render?style=classic", "", "")
	if bytes.Equal(svg, classic) {
		t.Error("stored style was not applied")
	}
}

func TestCreateErrors(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		name        string
		contentType string
		body        string
		code        errors.Code
	}{
		{"bad json", "application/json", "{", errors.ErrCodeInvalidConfig},
		{"unknown field", "application/json", `{"nmae": "x"}`, errors.ErrCodeInvalidConfig},
		{"bad toml", "application/toml", "name = ", errors.ErrCodeInvalidConfig},
		{"unresolved branch", "application/json", `{"current_branch": "dev", "commits": [{"id": "a"}]}`, errors.ErrCodeInvalidConfig},
		{"bad script", "application/json", `{"script": ["git checkout nowhere"]}`, errors.ErrCodeRefNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := do(t, ts, http.MethodPost, "/sessions", tt.contentType, tt.body)
			body := decode[ErrorResponse](t, data)
			if body.Code != tt.code {
				t.Errorf("code = %s (%s), want %s", body.Code, body.Error, tt.code)
			}
			want := http.StatusBadRequest
			if tt.code.Kind() == errors.KindNotFound {
				want = http.StatusNotFound
			}
			if resp.StatusCode != want {
				t.Errorf("status = %d, want %d", resp.StatusCode, want)
			}
		})
	}
}

func TestOperations(t *testing.T) {
	ts := newTestServer(t)
	id := create(t, ts, sampleView).ID
	base := "/sessions/" + id

	post := func(path, body string) ViewResponse {
		t.Helper()
		resp, data := do(t, ts, http.MethodPost, base+path, "application/json", body)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("POST %s: %d %s", path, resp.StatusCode, data)
		}
		return decode[ViewResponse](t, data)
	}

	post("/branch", `{"name": "dev"}`)
	post("/checkout", `{"ref": "dev"}`)
	v := post("/commit", `{"id": "c3"}`)
	if v.Output != "c3" || v.Scene.Head != "c3" || v.CurrentBranch != "dev" {
		t.Errorf("after commit: %+v", v)
	}

	v = post("/reset", `{"ref": "a1"}`)
	if v.Scene.Head != "a1" || v.CurrentBranch != "dev" {
		t.Errorf("after reset: head %q on %q", v.Scene.Head, v.CurrentBranch)
	}

	v = post("/exec", `{"command": "git checkout b2"}`)
	if v.CurrentBranch != "" || v.Display != "Current Branch: DETACHED HEAD" {
		t.Errorf("after detaching: %+v", v)
	}
	if v.Output != "HEAD is now at b2" {
		t.Errorf("exec output = %q", v.Output)
	}

	// State persists across requests.
	resp, data := do(t, ts, http.MethodGet, base+"/scene", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("scene: %d", resp.StatusCode)
	}
	if !strings.Contains(string(data), `"c3"`) {
		t.Errorf("scene lost commit c3: %s", data)
	}
}

func TestOperationErrors(t *testing.T) {
	ts := newTestServer(t)
	id := create(t, ts, sampleView).ID
	base := "/sessions/" + id

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   errors.Code
	}{
		{"branch with space", "/branch", `{"name": "a b"}`, http.StatusBadRequest, errors.ErrCodeInvalidRef},
		{"duplicate branch", "/branch", `{"name": "master"}`, http.StatusBadRequest, errors.ErrCodeInvalidRef},
		{"unknown ref", "/checkout", `{"ref": "zzz"}`, http.StatusNotFound, errors.ErrCodeRefNotFound},
		{"unknown command", "/exec", `{"command": "git merge"}`, http.StatusBadRequest, errors.ErrCodeInvalidCommand},
		{"unknown field", "/reset", `{"target": "a1"}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := do(t, ts, http.MethodPost, base+tt.path, "application/json", tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tt.status, data)
			}
			if body := decode[ErrorResponse](t, data); body.Code != tt.code {
				t.Errorf("code = %s, want %s", body.Code, tt.code)
			}
		})
	}

	// A failed operation leaves the view untouched.
	_, data := do(t, ts, http.MethodGet, base, "", "")
	if v := decode[ViewResponse](t, data); v.Scene.Head != "b2" || len(v.Branches) != 2 {
		t.Errorf("view changed by failed requests: head %q branches %v", v.Scene.Head, v.Branches)
	}
}

func TestDetachedCommitConflict(t *testing.T) {
	ts := newTestServer(t)
	id := create(t, ts, sampleView).ID
	base := "/sessions/" + id

	do(t, ts, http.MethodPost, base+"/checkout", "application/json", `{"ref": "a1"}`)
	resp, data := do(t, ts, http.MethodPost, base+"/commit", "application/json", `{}`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409 (%s)", resp.StatusCode, data)
	}
}

func TestUnknownSession(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/sessions/nope", "/sessions/nope/scene", "/sessions/nope/render"} {
		resp, data := do(t, ts, http.MethodGet, path, "", "")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, resp.StatusCode)
		}
		if body := decode[ErrorResponse](t, data); body.Code != errors.ErrCodeViewNotFound {
			t.Errorf("GET %s code = %s", path, body.Code)
		}
	}
}

func TestRender(t *testing.T) {
	ts := newTestServer(t)
	id := create(t, ts, sampleView).ID
	base := "/sessions/" + id + "/render"

	tests := []struct {
		query       string
		contentType string
		prefix      string
	}{
		{"", "image/svg+xml", "<svg"},
		{"?format=dot", "text/vnd.graphviz", "digraph"},
		{"?format=json", "application/json", "{"},
		{"?format=svg&style=dark&background=true", "image/svg+xml", "<svg"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, data := do(t, ts, http.MethodGet, base+tt.query, "", "")
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d: %s", resp.StatusCode, data)
			}
			if got := resp.Header.Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			if !strings.HasPrefix(string(data), tt.prefix) {
				t.Errorf("body starts %.40q, want %q", data, tt.prefix)
			}
		})
	}

	for _, q := range []string{"?format=gif", "?style=neon", "?ranked=maybe", "?scale=big"} {
		resp, _ := do(t, ts, http.MethodGet, base+q, "", "")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("GET render%s = %d, want 400", q, resp.StatusCode)
		}
	}
}

func TestConfigExport(t *testing.T) {
	ts := newTestServer(t)
	id := create(t, ts, sampleView).ID
	do(t, ts, http.MethodPost, "/sessions/"+id+"/exec", "application/json", `{"command": "git checkout -b dev"}`)

	resp, data := do(t, ts, http.MethodGet, "/sessions/"+id+"/config", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	f, err := config.Parse(data)
	if err != nil {
		t.Fatalf("exported config does not parse: %v\n%s", err, data)
	}
	if f.CurrentBranch != "dev" || f.Name != "demo" {
		t.Errorf("exported = %+v", f)
	}
}

func TestDelete(t *testing.T) {
	ts := newTestServer(t)
	id := create(t, ts, sampleView).ID

	resp, _ := do(t, ts, http.MethodDelete, "/sessions/"+id, "", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete = %d", resp.StatusCode)
	}
	resp, _ = do(t, ts, http.MethodGet, "/sessions/"+id, "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete = %d", resp.StatusCode)
	}
}

func TestConcurrentCommits(t *testing.T) {
	ts := newTestServer(t)
	id := create(t, ts, sampleView).ID

	const n = 10
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodPost, ts.URL+"/sessions/"+id+"/commit", strings.NewReader("{}"))
			resp, err := ts.Client().Do(req)
			if err == nil {
				resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	_, data := do(t, ts, http.MethodGet, "/sessions/"+id, "", "")
	if v := decode[ViewResponse](t, data); len(v.Scene.Commits) != 2+n {
		t.Errorf("commits = %d, want %d", len(v.Scene.Commits), 2+n)
	}
}

type recordingHooks struct {
	observability.NoopHTTPHooks
	mu       sync.Mutex
	statuses []int
}

func (h *recordingHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	ts := newTestServer(t)
	do(t, ts, http.MethodGet, "/ping", "", "")
	do(t, ts, http.MethodGet, "/sessions/nope", "", "")

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if len(hooks.statuses) != 2 || hooks.statuses[0] != http.StatusOK || hooks.statuses[1] != http.StatusNotFound {
		t.Errorf("statuses = %v, want [200 404]", hooks.statuses)
	}
}

func TestSessionLocksReleased(t *testing.T) {
	quiet := log.New(io.Discard)
	srv := New(session.NewMemoryStore(), pipeline.NewRunner(nil, nil, quiet), WithLogger(quiet))

	serve := func(method, path, body string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		srv.ServeHTTP(rec, req)
		return rec.Code
	}

	for _, id := range []string{"ghost-1", "ghost-2", "ghost-3"} {
		if code := serve(http.MethodGet, "/sessions/"+id, ""); code != http.StatusNotFound {
			t.Fatalf("GET %s: status %d, want 404", id, code)
		}
		serve(http.MethodPost, "/sessions/"+id+"/commit", "{}")
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(sampleView)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d: %s", rec.Code, rec.Body)
	}
	var view ViewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serve(http.MethodPost, "/sessions/"+view.ID+"/commit", "{}")
		}()
	}
	wg.Wait()
	serve(http.MethodDelete, "/sessions/"+view.ID, "")

	if n := srv.locks.len(); n != 0 {
		t.Errorf("%d session locks left after all requests finished", n)
	}
}

func TestLockTableSerializes(t *testing.T) {
	var table lockTable
	unlock := table.acquire("s")

	acquired := make(chan struct{})
	go func() {
		release := table.acquire("s")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire did not wait")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never got the lock")
	}

	deadline := time.Now().Add(time.Second)
	for table.len() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if n := table.len(); n != 0 {
		t.Errorf("entries = %d, want 0", n)
	}
}
