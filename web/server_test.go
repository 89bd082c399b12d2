package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/baalimago/go_away_boilerplate/pkg/testboil"
	"golang.org/x/crypto/bcrypt"

	"mcpgate/auth"
	"mcpgate/config"
	"mcpgate/rpc"
	"mcpgate/storage"
)

// toolEndpoint is a fake JSON-RPC service that records every request.
type toolEndpoint struct {
	mu       sync.Mutex
	requests []rpc.Request
	status   int
	body     string
}

func (te *toolEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpc.Request
	_ = json.NewDecoder(r.Body).Decode(&req)

	te.mu.Lock()
	te.requests = append(te.requests, req)
	status, body := te.status, te.body
	te.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (te *toolEndpoint) last(t *testing.T) rpc.Request {
	t.Helper()
	te.mu.Lock()
	defer te.mu.Unlock()
	if len(te.requests) == 0 {
		t.Fatal("tool endpoint received no requests")
	}
	return te.requests[len(te.requests)-1]
}

type fakeExplainer struct {
	tool  string
	reply string
	err   error
}

func (fe *fakeExplainer) Explain(ctx context.Context, tool, arguments, reply string) (string, error) {
	fe.tool = tool
	fe.reply = reply
	if fe.err != nil {
		return "", fe.err
	}
	return "The pod list is empty.", nil
}

type fixture struct {
	app      *httptest.Server
	endpoint *toolEndpoint
	client   *http.Client
}

func newFixture(t *testing.T, explainer Explainer) *fixture {
	t.Helper()

	endpoint := &toolEndpoint{status: http.StatusOK, body: `{"result":{"ok":true}}`}
	rpcServer := httptest.NewServer(endpoint)
	t.Cleanup(rpcServer.Close)

	store, err := storage.NewUserStore(filepath.Join(t.TempDir(), "users.db"), "users")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		ListenAddr:        ":0",
		ToolEndpoint:      rpcServer.URL,
		PermissionServers: []string{"http://k8s-mcp.local:8080", "http://jenkins-mcp.local:8080"},
		Collection:        "users",
	}

	deps := Deps{
		Tools:   rpc.NewClient(rpcServer.URL),
		Gate:    auth.NewGate(store, auth.WithCost(bcrypt.MinCost)),
		Version: "test",
	}
	if explainer != nil {
		deps.Explainer = explainer
	}

	srv, err := New(cfg, deps)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	app := httptest.NewServer(srv.Router())
	t.Cleanup(app.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}

	return &fixture{app: app, endpoint: endpoint, client: &http.Client{Jar: jar}}
}

func (f *fixture) get(t *testing.T, path string) string {
	t.Helper()
	resp, err := f.client.Get(f.app.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d: %s", path, resp.StatusCode, body)
	}
	return string(body)
}

func (f *fixture) post(t *testing.T, path string, form url.Values) string {
	t.Helper()
	resp, err := f.client.PostForm(f.app.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST %s: status %d: %s", path, resp.StatusCode, body)
	}
	return string(body)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	testboil.FailTestIfDiff(t, f.get(t, "/health"), "ok\n")
}

func TestRootRedirectsToTools(t *testing.T) {
	f := newFixture(t, nil)
	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Get(f.app.URL + "/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	testboil.FailTestIfDiff(t, resp.StatusCode, http.StatusSeeOther)
	testboil.FailTestIfDiff(t, resp.Header.Get("Location"), "/tools")
}

func TestRunToolAppendsExchange(t *testing.T) {
	f := newFixture(t, nil)

	page := f.post(t, "/tools/run", url.Values{
		"tool":      {"kubectl_get"},
		"arguments": {`{"resourceType": "pods"}`},
	})

	req := f.endpoint.last(t)
	testboil.FailTestIfDiff(t, req.Method, "call_tool")
	testboil.FailTestIfDiff(t, req.Params.Name, "kubectl_get")
	testboil.FailTestIfDiff(t, req.Params.Arguments["resourceType"], any("pods"))

	testboil.AssertStringContains(t, page, "kubectl_get")
	testboil.AssertStringContains(t, page, rpc.SuccessIndicator)
	testboil.FailTestIfDiff(t, strings.Count(page, `class="msg user"`), 1)
	testboil.FailTestIfDiff(t, strings.Count(page, `class="msg assistant"`), 1)

	page = f.post(t, "/tools/run", url.Values{"tool": {"kubectl_get"}, "arguments": {"{}"}})
	testboil.FailTestIfDiff(t, strings.Count(page, `class="msg user"`), 2)
	testboil.FailTestIfDiff(t, strings.Count(page, `class="msg assistant"`), 2)
}

func TestRunToolInvalidArgumentsSendsEmptyObject(t *testing.T) {
	f := newFixture(t, nil)

	page := f.post(t, "/tools/run", url.Values{
		"tool":      {"kubectl_get"},
		"arguments": {`{"resourceType": `},
	})

	req := f.endpoint.last(t)
	testboil.FailTestIfDiff(t, len(req.Params.Arguments), 0)
	testboil.AssertStringContains(t, page, "Invalid JSON arguments")
	testboil.FailTestIfDiff(t, strings.Count(page, `class="msg assistant"`), 1)
}

func TestRunToolErrorStillRecorded(t *testing.T) {
	f := newFixture(t, nil)
	f.endpoint.status = http.StatusNotFound
	f.endpoint.body = "not found"

	page := f.post(t, "/tools/run", url.Values{"tool": {"missing_tool"}})

	testboil.AssertStringContains(t, page, rpc.ErrorIndicator)
	testboil.AssertStringContains(t, page, "HTTP 404: not found")
	testboil.FailTestIfDiff(t, strings.Count(page, `class="msg assistant"`), 1)
}

func TestRunToolRequiresName(t *testing.T) {
	f := newFixture(t, nil)

	page := f.post(t, "/tools/run", url.Values{"tool": {"  "}})

	testboil.AssertStringContains(t, page, "Enter a tool name")
	f.endpoint.mu.Lock()
	testboil.FailTestIfDiff(t, len(f.endpoint.requests), 0)
	f.endpoint.mu.Unlock()
}

func TestClearHistory(t *testing.T) {
	f := newFixture(t, nil)
	f.post(t, "/tools/run", url.Values{"tool": {"kubectl_get"}})

	page := f.post(t, "/tools/clear", nil)

	testboil.AssertStringContains(t, page, "Chat history cleared")
	testboil.AssertStringContains(t, page, "No calls yet.")
}

func TestSessionsAreIsolated(t *testing.T) {
	f := newFixture(t, nil)
	f.post(t, "/tools/run", url.Values{"tool": {"kubectl_get"}})

	jar, _ := cookiejar.New(nil)
	other := &fixture{app: f.app, endpoint: f.endpoint, client: &http.Client{Jar: jar}}

	testboil.AssertStringContains(t, other.get(t, "/tools"), "No calls yet.")
}

func TestExplain(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		f := newFixture(t, nil)
		page := f.post(t, "/tools/explain", nil)
		testboil.AssertStringContains(t, page, "The assistant is disabled")
	})

	t.Run("needs a call first", func(t *testing.T) {
		f := newFixture(t, &fakeExplainer{})
		page := f.post(t, "/tools/explain", nil)
		testboil.AssertStringContains(t, page, "Run a tool first")
	})

	t.Run("appends its own exchange", func(t *testing.T) {
		explainer := &fakeExplainer{}
		f := newFixture(t, explainer)
		f.post(t, "/tools/run", url.Values{"tool": {"kubectl_get"}})

		page := f.post(t, "/tools/explain", nil)

		testboil.FailTestIfDiff(t, explainer.tool, "kubectl_get")
		testboil.AssertStringContains(t, explainer.reply, rpc.SuccessIndicator)
		testboil.AssertStringContains(t, page, "The pod list is empty.")
		testboil.FailTestIfDiff(t, strings.Count(page, `class="msg assistant"`), 2)
	})

	t.Run("failure becomes a notice", func(t *testing.T) {
		f := newFixture(t, &fakeExplainer{err: errors.New("model not loaded")})
		f.post(t, "/tools/run", url.Values{"tool": {"kubectl_get"}})

		page := f.post(t, "/tools/explain", nil)

		testboil.AssertStringContains(t, page, "Explanation failed: model not loaded")
		testboil.FailTestIfDiff(t, strings.Count(page, `class="msg assistant"`), 1)
	})
}

func TestSuggestWithoutCatalog(t *testing.T) {
	f := newFixture(t, nil)
	testboil.FailTestIfDiff(t, f.get(t, "/tools/suggest?q=kube"), "[]\n")
}

func TestDiscoverWithoutServers(t *testing.T) {
	f := newFixture(t, nil)
	page := f.post(t, "/servers/discover", nil)
	testboil.AssertStringContains(t, page, "No servers configured")
}

func TestLoginFlow(t *testing.T) {
	f := newFixture(t, nil)

	page := f.get(t, "/login")
	testboil.AssertStringContains(t, page, `<option value="http://k8s-mcp.local:8080" selected>`)

	page = f.post(t, "/register", url.Values{
		"username":    {"alice"},
		"password":    {"pw1"},
		"permissions": {"http://k8s-mcp.local:8080"},
	})
	testboil.AssertStringContains(t, page, "User created")

	page = f.post(t, "/register", url.Values{"username": {"alice"}, "password": {"other"}})
	testboil.AssertStringContains(t, page, "User already exists")

	page = f.post(t, "/register", url.Values{"username": {"carol"}})
	testboil.AssertStringContains(t, page, "Fill all fields")

	page = f.post(t, "/login", url.Values{"username": {"alice"}, "password": {"wrong"}})
	testboil.AssertStringContains(t, page, "Invalid credentials")

	page = f.post(t, "/login", url.Values{"username": {"bob"}, "password": {"pw1"}})
	testboil.AssertStringContains(t, page, "Invalid credentials")

	page = f.post(t, "/login", url.Values{"username": {"alice"}, "password": {"pw1"}})
	testboil.AssertStringContains(t, page, "Welcome alice!")
	testboil.AssertStringContains(t, page, "<code>http://k8s-mcp.local:8080</code>")
	testboil.AssertStringContains(t, page, `href="/tools">Go to dashboard`)

	page = f.post(t, "/logout", nil)
	testboil.AssertStringContains(t, page, "Logged out")
	if strings.Contains(page, "Welcome alice!") {
		t.Error("expected login form after logout")
	}
}

func TestAuthMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{auth.ErrDenied, "Invalid credentials"},
		{auth.ErrAlreadyExists, "User already exists"},
		{auth.ErrMissingFields, "Fill all fields"},
		{errors.New("disk full"), "Something went wrong, try again"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			testboil.FailTestIfDiff(t, authMessage(tt.err), tt.want)
		})
	}
}

func TestPreviewTruncates(t *testing.T) {
	long := strings.Repeat("word ", 40)
	got := preview(long)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("expected ellipsis, got %q", got)
	}
	testboil.FailTestIfDiff(t, preview("  get\n pods "), "get pods")
}
