package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mattn/go-runewidth"

	"mcpgate/config"
	"mcpgate/mcp"
	"mcpgate/model"
	"mcpgate/rpc"
)

const (
	suggestLimit    = 10
	previewMaxWidth = 60
)

type toolsPage struct {
	Page
	Endpoint         string
	Catalog          []mcp.CatalogEntry
	ExplainEnabled   bool
	DefaultArguments string
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	s.render(w, "tools.html", toolsPage{
		Page:             s.newPage(sess, "Tool call", "tools"),
		Endpoint:         s.tools.Endpoint(),
		Catalog:          s.discovery.Catalog(),
		ExplainEnabled:   s.explainer != nil,
		DefaultArguments: "{}",
	})
}

// handleRun issues one call_tool request. Malformed arguments are reported
// as a notice and the call goes ahead with an empty object, so the
// transcript always gains exactly two messages.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	toolName := strings.TrimSpace(r.PostForm.Get("tool"))
	if toolName == "" {
		sess.SetNotice(model.NoticeWarning, "Enter a tool name")
		http.Redirect(w, r, "/tools", http.StatusSeeOther)
		return
	}

	args, err := rpc.ParseArguments(r.PostForm.Get("arguments"))
	if err != nil {
		sess.SetNotice(model.NoticeWarning, fmt.Sprintf("Invalid JSON arguments (%v); sent {} instead", err))
		args = map[string]any{}
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[web] session %s calling %s", sess.ID, toolName)
	}

	resp := s.tools.CallTool(r.Context(), toolName, args)
	sess.RecordToolCall(toolName, rpc.Pretty(args), rpc.Render(resp))

	http.Redirect(w, r, "/tools", http.StatusSeeOther)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.ClearHistory()
	sess.SetNotice(model.NoticeSuccess, "Chat history cleared")
	http.Redirect(w, r, "/tools", http.StatusSeeOther)
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	if s.explainer == nil {
		sess.SetNotice(model.NoticeWarning, "The assistant is disabled")
		http.Redirect(w, r, "/tools", http.StatusSeeOther)
		return
	}

	last := sess.LastCall()
	if last == nil {
		sess.SetNotice(model.NoticeWarning, "Run a tool first")
		http.Redirect(w, r, "/tools", http.StatusSeeOther)
		return
	}

	answer, err := s.explainer.Explain(r.Context(), last.Tool, last.Arguments, last.Reply)
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[web] explain failed: %v", err)
		}
		sess.SetNotice(model.NoticeError, "Explanation failed: "+err.Error())
		http.Redirect(w, r, "/tools", http.StatusSeeOther)
		return
	}

	sess.RecordExchange(fmt.Sprintf("Explain the last `%s` reply", last.Tool), answer)
	http.Redirect(w, r, "/tools", http.StatusSeeOther)
}

type suggestion struct {
	Name        string         `json:"name"`
	Server      string         `json:"server"`
	Description string         `json:"description,omitempty"`
	Arguments   map[string]any `json:"arguments"`
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	matches := mcp.Suggest(query, s.discovery.Catalog(), suggestLimit)

	out := make([]suggestion, 0, len(matches))
	for _, entry := range matches {
		out = append(out, suggestion{
			Name:        entry.Tool.Name,
			Server:      entry.Server,
			Description: preview(entry.Tool.Description),
			Arguments:   mcp.ArgumentSkeleton(entry.Tool),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[web] failed to encode suggestions: %v", err)
	}
}

type serverRow struct {
	Name      string
	URL       string
	Transport string
	Tools     []toolRow
	Err       string
}

type toolRow struct {
	Name        string
	Description string
	Skeleton    string
}

type serversPage struct {
	Page
	Configured int
	Rows       []serverRow
}

func (s *Server) handleServers(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	results := s.discovery.LastResults()
	rows := make([]serverRow, 0, len(results))
	for _, res := range results {
		row := serverRow{
			Name:      res.Server.Name,
			URL:       res.Server.URL,
			Transport: res.Server.Transport,
		}
		if row.Transport == "" {
			row.Transport = "sse"
		}
		if res.Err != nil {
			row.Err = res.Err.Error()
		}
		for _, tool := range res.Tools {
			row.Tools = append(row.Tools, toolRow{
				Name:        tool.Name,
				Description: tool.Description,
				Skeleton:    mcp.SkeletonJSON(tool),
			})
		}
		rows = append(rows, row)
	}

	s.render(w, "servers.html", serversPage{
		Page:       s.newPage(sess, "Servers", "servers"),
		Configured: len(s.discovery.Servers()),
		Rows:       rows,
	})
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	if len(s.discovery.Servers()) == 0 {
		sess.SetNotice(model.NoticeWarning, "No servers configured")
		http.Redirect(w, r, "/servers", http.StatusSeeOther)
		return
	}

	results := s.discovery.DiscoverAll(r.Context())
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}

	if failed > 0 {
		sess.SetNotice(model.NoticeWarning, fmt.Sprintf("%d of %d servers could not be reached", failed, len(results)))
	} else {
		sess.SetNotice(model.NoticeSuccess, fmt.Sprintf("Discovered %d tools", len(s.discovery.Catalog())))
	}
	http.Redirect(w, r, "/servers", http.StatusSeeOther)
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	return runewidth.Truncate(text, previewMaxWidth, "…")
}
