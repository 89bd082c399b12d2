// Package web serves the browser front end: the tool-call screen, the
// discovery page and the login gate.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"mcpgate/config"
	"mcpgate/mcp"
	"mcpgate/model"
	"mcpgate/rpc"
)

const sessionCookie = "mcpgate_session"

//go:embed templates/*.html
var templateFS embed.FS

// ToolCaller sends one tool call. *rpc.Client satisfies it.
type ToolCaller interface {
	CallTool(ctx context.Context, toolName string, arguments map[string]any) rpc.Response
	Endpoint() string
}

// Authenticator is the login gate. *auth.Gate satisfies it.
type Authenticator interface {
	CreateUser(ctx context.Context, username, password string, permissions []string) error
	Authenticate(ctx context.Context, username, password string) ([]string, error)
}

// Explainer summarises a tool reply. *ollama.Client satisfies it.
type Explainer interface {
	Explain(ctx context.Context, tool, arguments, reply string) (string, error)
}

type Deps struct {
	Tools     ToolCaller
	Gate      Authenticator
	Discovery *mcp.Discovery
	Explainer Explainer // nil disables /tools/explain
	Sessions  *model.Registry
	Version   string
}

type Server struct {
	cfg       *config.Config
	tools     ToolCaller
	gate      Authenticator
	discovery *mcp.Discovery
	explainer Explainer
	sessions  *model.Registry
	version   string
	templates *template.Template
	mux       *http.ServeMux
}

func New(cfg *config.Config, deps Deps) (*Server, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"markdown": renderMarkdown,
		"clock":    func(t time.Time) string { return t.Format("15:04") },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	sessions := deps.Sessions
	if sessions == nil {
		sessions = model.NewRegistry(model.DefaultMaxIdle)
	}
	discovery := deps.Discovery
	if discovery == nil {
		discovery = mcp.NewDiscovery(cfg.Servers, deps.Version)
	}

	s := &Server{
		cfg:       cfg,
		tools:     deps.Tools,
		gate:      deps.Gate,
		discovery: discovery,
		explainer: deps.Explainer,
		sessions:  sessions,
		version:   deps.Version,
		templates: tmpl,
		mux:       http.NewServeMux(),
	}
	s.routes()

	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/tools", http.StatusSeeOther)
	})

	s.mux.HandleFunc("GET /tools", s.handleTools)
	s.mux.HandleFunc("POST /tools/run", s.handleRun)
	s.mux.HandleFunc("POST /tools/clear", s.handleClear)
	s.mux.HandleFunc("POST /tools/explain", s.handleExplain)
	s.mux.HandleFunc("GET /tools/suggest", s.handleSuggest)

	s.mux.HandleFunc("GET /servers", s.handleServers)
	s.mux.HandleFunc("POST /servers/discover", s.handleDiscover)

	s.mux.HandleFunc("GET /login", s.handleLoginPage)
	s.mux.HandleFunc("POST /login", s.handleLogin)
	s.mux.HandleFunc("POST /register", s.handleRegister)
	s.mux.HandleFunc("POST /logout", s.handleLogout)
}

func (s *Server) Router() http.Handler {
	return s.mux
}

// session resolves the caller's Session from its cookie, issuing a new
// cookie when the id is missing or unknown.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *model.Session {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}

	sess, created := s.sessions.Get(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

// Page carries what the shared layout needs.
type Page struct {
	Title   string
	Active  string
	Version string
	Notice  *model.Notice
	Session model.SessionView
}

func (s *Server) newPage(sess *model.Session, title, active string) Page {
	return Page{
		Title:   title,
		Active:  active,
		Version: s.version,
		Notice:  sess.TakeNotice(),
		Session: sess.View(),
	}
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[web] template %s failed: %v", name, err)
		}
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}
