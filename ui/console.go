// Package ui is the terminal console for issuing tool calls.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"mcpgate/config"
	"mcpgate/mcp"
	"mcpgate/model"
	"mcpgate/rpc"
)

// ToolCaller sends one tool call. *rpc.Client satisfies it.
type ToolCaller interface {
	CallTool(ctx context.Context, toolName string, arguments map[string]any) rpc.Response
	Endpoint() string
}

// Explainer summarises a tool reply. *ollama.Client satisfies it.
type Explainer interface {
	Explain(ctx context.Context, tool, arguments, reply string) (string, error)
}

type focusField int

const (
	focusTool focusField = iota
	focusArgs
)

// copyToClipboard is swapped out in tests.
var copyToClipboard = clipboard.WriteAll

type Console struct {
	session   *model.Session
	tools     ToolCaller
	discovery *mcp.Discovery
	explainer Explainer
	keys      keyMap

	toolInput textinput.Model
	argsInput textarea.Model
	viewport  viewport.Model
	spinner   spinner.Model
	focus     focusField

	// rendered caches terminal markdown per message at renderWidth
	rendered    []string
	renderWidth int

	width  int
	height int
	ready  bool

	busy        bool
	status      string
	statusLevel statusLevel
}

// NewConsole builds the console. discovery, explainer and keys may be nil.
func NewConsole(session *model.Session, tools ToolCaller, discovery *mcp.Discovery, explainer Explainer, keys *config.KeyBindingsConfig) Console {
	ti := textinput.New()
	ti.Prompt = "tool> "
	ti.Placeholder = "tool name (Tab completes)"
	ti.CharLimit = 128
	ti.Focus()

	ta := textarea.New()
	ta.Placeholder = "{}"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(4)
	ta.SetWidth(80)
	ta.SetValue("{}")
	ta.Blur()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Console{
		session:   session,
		tools:     tools,
		discovery: discovery,
		explainer: explainer,
		keys:      newKeyMap(keys),
		toolInput: ti,
		argsInput: ta,
		viewport:  viewport.New(0, 0),
		spinner:   sp,
		focus:     focusTool,
	}
}

func (c Console) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if c.discovery != nil && len(c.discovery.Servers()) > 0 {
		cmds = append(cmds, c.discover())
	}
	return tea.Batch(cmds...)
}

func (c Console) View() string {
	if !c.ready {
		return "Loading mcpgate..."
	}

	var b strings.Builder

	endpoint := runewidth.Truncate(c.tools.Endpoint(), max(c.width-len("mcpgate "), 10), "…")
	b.WriteString(TitleStyle.Render("mcpgate") + " " + DimStyle.Render(endpoint))
	b.WriteString("\n")
	b.WriteString(c.viewport.View())
	b.WriteString("\n")
	b.WriteString(BorderStyle.Render(strings.Repeat("─", max(c.width, 1))))
	b.WriteString("\n")
	b.WriteString(c.toolInput.View())
	b.WriteString("\n")
	b.WriteString(c.argsInput.View())
	b.WriteString("\n")
	b.WriteString(c.statusLine())

	return b.String()
}

func (c Console) statusLine() string {
	if c.busy {
		return c.spinner.View() + " " + StatusStyle.Render("Waiting for response...")
	}

	if c.status != "" {
		text := runewidth.Truncate(c.status, max(c.width, 10), "…")
		switch c.statusLevel {
		case statusWarning:
			return WarningStyle.Render(text)
		case statusError:
			return ErrorStyle.Render(text)
		default:
			return StatusStyle.Render(text)
		}
	}

	return FormatFooter(c.keys.footer(c.explainer != nil)...)
}

func (c *Console) setStatus(level statusLevel, format string, args ...any) {
	c.statusLevel = level
	c.status = fmt.Sprintf(format, args...)
}
