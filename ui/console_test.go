package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/baalimago/go_away_boilerplate/pkg/testboil"

	"mcpgate/config"
	"mcpgate/mcp"
	"mcpgate/model"
	"mcpgate/rpc"
)

type fakeTools struct {
	mu    sync.Mutex
	calls []map[string]any
	names []string
	resp  rpc.Response
}

func (ft *fakeTools) CallTool(ctx context.Context, toolName string, arguments map[string]any) rpc.Response {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.names = append(ft.names, toolName)
	ft.calls = append(ft.calls, arguments)
	return ft.resp
}

func (ft *fakeTools) Endpoint() string { return "http://tools.test/rpc" }

type fakeExplainer struct {
	err error
}

func (fe fakeExplainer) Explain(ctx context.Context, tool, arguments, reply string) (string, error) {
	if fe.err != nil {
		return "", fe.err
	}
	return "All pods are running.", nil
}

func newTestConsole(t *testing.T, explainer Explainer) (Console, *fakeTools, *model.Session) {
	t.Helper()
	tools := &fakeTools{resp: rpc.ResultResponse(map[string]any{"ok": true})}
	sess := model.NewSession("console")
	c := NewConsole(sess, tools, nil, explainer, nil)

	next, _ := c.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Console), tools, sess
}

// drain runs cmd and any batched commands, feeding every resulting
// message except ticks back into the console.
func drain(t *testing.T, c Console, cmd tea.Cmd) Console {
	t.Helper()
	if cmd == nil {
		return c
	}
	msg := cmd()
	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, sub := range msg {
			c = drain(t, c, sub)
		}
		return c
	case toolResultMsg, explainDoneMsg, discoveryDoneMsg:
		next, _ := c.Update(msg)
		return next.(Console)
	}
	return c
}

func press(t *testing.T, c Console, key tea.KeyMsg) Console {
	t.Helper()
	next, cmd := c.Update(key)
	return drain(t, next.(Console), cmd)
}

func typeText(c Console, text string) Console {
	next, _ := c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Console)
}

func TestConsoleViewBeforeResize(t *testing.T) {
	c := NewConsole(model.NewSession("x"), &fakeTools{}, nil, nil, nil)
	testboil.FailTestIfDiff(t, c.View(), "Loading mcpgate...")
}

func TestConsoleRunAppendsTwoMessages(t *testing.T) {
	c, tools, sess := newTestConsole(t, nil)

	c = typeText(c, "kubectl_get")
	c = press(t, c, tea.KeyMsg{Type: tea.KeyEnter})

	testboil.FailTestIfDiff(t, len(tools.names), 1)
	testboil.FailTestIfDiff(t, tools.names[0], "kubectl_get")
	testboil.FailTestIfDiff(t, len(sess.View().Messages), 2)
	testboil.FailTestIfDiff(t, c.busy, false)
	testboil.AssertStringContains(t, sess.LastCall().Reply, rpc.SuccessIndicator)
	testboil.AssertStringContains(t, c.View(), "kubectl_get")
}

func TestConsoleRunRequiresToolName(t *testing.T) {
	c, tools, _ := newTestConsole(t, nil)

	c = press(t, c, tea.KeyMsg{Type: tea.KeyEnter})

	testboil.FailTestIfDiff(t, len(tools.names), 0)
	testboil.AssertStringContains(t, c.status, "Enter a tool name")
}

func TestConsoleInvalidArgumentsSendEmptyObject(t *testing.T) {
	c, tools, sess := newTestConsole(t, nil)

	c = typeText(c, "kubectl_get")
	c.argsInput.SetValue(`{"resourceType": `)
	c = press(t, c, tea.KeyMsg{Type: tea.KeyCtrlS})

	testboil.FailTestIfDiff(t, len(tools.calls), 1)
	testboil.FailTestIfDiff(t, len(tools.calls[0]), 0)
	testboil.AssertStringContains(t, c.status, "Invalid JSON arguments")
	testboil.FailTestIfDiff(t, len(sess.View().Messages), 2)
}

func TestConsoleErrorReplyStillRecorded(t *testing.T) {
	c, tools, sess := newTestConsole(t, nil)
	tools.resp = rpc.ErrorResponse("HTTP 500: boom")

	c = typeText(c, "kubectl_get")
	press(t, c, tea.KeyMsg{Type: tea.KeyEnter})

	testboil.FailTestIfDiff(t, len(sess.View().Messages), 2)
	testboil.AssertStringContains(t, sess.LastCall().Reply, "HTTP 500: boom")
}

func TestConsoleClear(t *testing.T) {
	c, _, sess := newTestConsole(t, nil)
	c = typeText(c, "kubectl_get")
	c = press(t, c, tea.KeyMsg{Type: tea.KeyEnter})

	c = press(t, c, tea.KeyMsg{Type: tea.KeyCtrlL})

	testboil.FailTestIfDiff(t, len(sess.View().Messages), 0)
	testboil.AssertStringContains(t, c.View(), "No calls yet.")
}

func TestConsoleCopyLastReply(t *testing.T) {
	var copied string
	orig := copyToClipboard
	t.Cleanup(func() { copyToClipboard = orig })

	c, _, sess := newTestConsole(t, nil)

	copyToClipboard = func(text string) error {
		copied = text
		return nil
	}

	c = press(t, c, tea.KeyMsg{Type: tea.KeyCtrlY})
	testboil.AssertStringContains(t, c.status, "Nothing to copy yet")

	c = typeText(c, "kubectl_get")
	c = press(t, c, tea.KeyMsg{Type: tea.KeyEnter})
	c = press(t, c, tea.KeyMsg{Type: tea.KeyCtrlY})

	testboil.FailTestIfDiff(t, copied, sess.LastCall().Reply)
	testboil.AssertStringContains(t, c.status, "Copied")

	copyToClipboard = func(string) error { return errors.New("no display") }
	c = press(t, c, tea.KeyMsg{Type: tea.KeyCtrlY})
	testboil.AssertStringContains(t, c.status, "Copy failed: no display")
}

func TestConsoleExplain(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		c, _, _ := newTestConsole(t, nil)
		c = press(t, c, tea.KeyMsg{Type: tea.KeyCtrlE})
		testboil.AssertStringContains(t, c.status, "The assistant is disabled")
	})

	t.Run("appends its own exchange", func(t *testing.T) {
		c, _, sess := newTestConsole(t, fakeExplainer{})
		c = typeText(c, "kubectl_get")
		c = press(t, c, tea.KeyMsg{Type: tea.KeyEnter})

		press(t, c, tea.KeyMsg{Type: tea.KeyCtrlE})

		messages := sess.View().Messages
		testboil.FailTestIfDiff(t, len(messages), 4)
		testboil.FailTestIfDiff(t, messages[3].Content, "All pods are running.")
	})

	t.Run("failure shows status", func(t *testing.T) {
		c, _, sess := newTestConsole(t, fakeExplainer{err: errors.New("model not loaded")})
		c = typeText(c, "kubectl_get")
		c = press(t, c, tea.KeyMsg{Type: tea.KeyEnter})

		c = press(t, c, tea.KeyMsg{Type: tea.KeyCtrlE})

		testboil.AssertStringContains(t, c.status, "model not loaded")
		testboil.FailTestIfDiff(t, len(sess.View().Messages), 2)
	})
}

func TestConsoleTabCompletesDiscoveredTool(t *testing.T) {
	mcpServer := server.NewMCPServer("test-tools", "1.0.0", server.WithToolCapabilities(false))
	mcpServer.AddTool(mcptypes.NewTool("kubectl_get",
		mcptypes.WithDescription("Get Kubernetes resources"),
		mcptypes.WithString("resourceType", mcptypes.Required()),
	), func(ctx context.Context, req mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error) {
		return mcptypes.NewToolResultText("ok"), nil
	})
	ts := server.NewTestServer(mcpServer)
	defer ts.Close()

	discovery := mcp.NewDiscovery([]config.ServerConfig{{Name: "kubernetes", URL: ts.URL + "/sse"}}, "test")
	c := NewConsole(model.NewSession("x"), &fakeTools{}, discovery, nil, nil)
	next, _ := c.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	c = next.(Console)

	c = drain(t, c, c.discover())
	testboil.AssertStringContains(t, c.status, "Discovered 1 tools")

	c = typeText(c, "kget")
	c = press(t, c, tea.KeyMsg{Type: tea.KeyTab})

	testboil.FailTestIfDiff(t, c.toolInput.Value(), "kubectl_get")
	testboil.AssertStringContains(t, c.argsInput.Value(), `"resourceType"`)
	testboil.FailTestIfDiff(t, c.focus, focusTool)

	c = press(t, c, tea.KeyMsg{Type: tea.KeyTab})
	testboil.FailTestIfDiff(t, c.focus, focusArgs)
}

func TestFrameCodeBlocks(t *testing.T) {
	in := "text\n┃ {\n┃   \"a\": 1\n┃ }\nafter"
	out := frameCodeBlocks(in, 30)

	lines := strings.Split(out, "\n")
	testboil.FailTestIfDiff(t, len(lines), 7)
	testboil.AssertStringContains(t, lines[1], "[code]")
	testboil.FailTestIfDiff(t, lines[2], "{")
	testboil.FailTestIfDiff(t, lines[3], `  "a": 1`)
	testboil.FailTestIfDiff(t, lines[6], "after")
}

func TestConsoleCustomKeybindings(t *testing.T) {
	kb := config.DefaultKeybindings()
	kb.Actions = map[string]string{"clear_history": "ctrl+k"}

	tools := &fakeTools{resp: rpc.ResultResponse(1)}
	sess := model.NewSession("x")
	c := NewConsole(sess, tools, nil, nil, kb)
	next, _ := c.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	c = next.(Console)

	c = typeText(c, "kubectl_get")
	c = press(t, c, tea.KeyMsg{Type: tea.KeyEnter})
	testboil.FailTestIfDiff(t, len(sess.View().Messages), 2)

	c = press(t, c, tea.KeyMsg{Type: tea.KeyCtrlL})
	testboil.FailTestIfDiff(t, len(sess.View().Messages), 2)

	c = press(t, c, tea.KeyMsg{Type: tea.KeyCtrlK})
	testboil.FailTestIfDiff(t, len(sess.View().Messages), 0)
	testboil.AssertStringContains(t, c.statusLine(), "Chat history cleared")
}
