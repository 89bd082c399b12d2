package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"mcpgate/config"
	"mcpgate/mcp"
	"mcpgate/rpc"
)

// Rows used by everything except the viewport: title, separator, tool
// input, four textarea lines and the status line.
const chromeHeight = 8

func (c Console) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	if c.busy {
		c.spinner, cmd = c.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.width = msg.Width
		c.height = msg.Height

		c.viewport.Width = c.width
		c.viewport.Height = max(c.height-chromeHeight, 1)
		c.toolInput.Width = max(c.width-len(c.toolInput.Prompt)-1, 10)
		c.argsInput.SetWidth(c.width)

		c.ready = true
		c.updateViewportContent(true)
		return c, tea.Batch(cmds...)

	case toolResultMsg:
		c.busy = false
		c.session.RecordToolCall(msg.tool, msg.arguments, msg.reply)
		c.updateViewportContent(true)
		return c, tea.Batch(cmds...)

	case explainDoneMsg:
		c.busy = false
		if msg.err != nil {
			c.setStatus(statusError, "Explanation failed: %v", msg.err)
			return c, tea.Batch(cmds...)
		}
		c.session.RecordExchange(fmt.Sprintf("Explain the last `%s` reply", msg.tool), msg.answer)
		c.updateViewportContent(true)
		return c, tea.Batch(cmds...)

	case discoveryDoneMsg:
		failed := 0
		for _, res := range msg.results {
			if res.Err != nil {
				failed++
			}
		}
		if failed > 0 {
			c.setStatus(statusWarning, "%d of %d servers could not be reached", failed, len(msg.results))
		} else {
			c.setStatus(statusInfo, "Discovered %d tools", len(c.discovery.Catalog()))
		}
		return c, tea.Batch(cmds...)

	case tea.KeyMsg:
		next, cmd, handled := c.handleKey(msg)
		if handled {
			return next, tea.Batch(append(cmds, cmd)...)
		}
		c = next
	}

	switch c.focus {
	case focusTool:
		c.toolInput, cmd = c.toolInput.Update(msg)
	case focusArgs:
		c.argsInput, cmd = c.argsInput.Update(msg)
	}
	cmds = append(cmds, cmd)

	c.viewport, cmd = c.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return c, tea.Batch(cmds...)
}

// handleKey processes console shortcuts. When handled is false the key is
// passed on to the focused input.
func (c Console) handleKey(msg tea.KeyMsg) (Console, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, c.keys.Quit):
		return c, tea.Quit, true

	case key.Matches(msg, c.keys.Clear):
		c.session.ClearHistory()
		c.setStatus(statusInfo, "Chat history cleared")
		c.updateViewportContent(true)
		return c, nil, true

	case key.Matches(msg, c.keys.Copy):
		last := c.session.LastCall()
		if last == nil {
			c.setStatus(statusWarning, "Nothing to copy yet")
			return c, nil, true
		}
		if err := copyToClipboard(last.Reply); err != nil {
			c.setStatus(statusError, "Copy failed: %v", err)
			return c, nil, true
		}
		c.setStatus(statusInfo, "Copied last reply to clipboard")
		return c, nil, true

	case key.Matches(msg, c.keys.Explain):
		return c.explainLast()

	case key.Matches(msg, c.keys.Run):
		return c.run()

	case msg.Type == tea.KeyEnter:
		if c.focus == focusTool {
			return c.run()
		}
		return c, nil, false

	case key.Matches(msg, c.keys.Complete):
		if c.focus == focusTool && c.complete() {
			return c, nil, true
		}
		return c.toggleFocus(), textarea.Blink, true

	case key.Matches(msg, c.keys.Switch):
		return c.toggleFocus(), textinput.Blink, true
	}

	return c, nil, false
}

func (c Console) toggleFocus() Console {
	if c.focus == focusTool {
		c.focus = focusArgs
		c.toolInput.Blur()
		c.argsInput.Focus()
	} else {
		c.focus = focusTool
		c.argsInput.Blur()
		c.toolInput.Focus()
	}
	return c
}

// complete fills in the best matching discovered tool and, when the
// arguments are still untouched, its argument skeleton. It reports whether
// anything changed.
func (c *Console) complete() bool {
	if c.discovery == nil {
		return false
	}

	current := strings.TrimSpace(c.toolInput.Value())
	name := mcp.Complete(current, c.discovery.Catalog())
	if name == "" || name == current {
		return false
	}

	c.toolInput.SetValue(name)
	c.toolInput.CursorEnd()

	if args := strings.TrimSpace(c.argsInput.Value()); args == "" || args == "{}" {
		if entry, ok := c.discovery.Lookup(name); ok {
			c.argsInput.SetValue(mcp.SkeletonJSON(entry.Tool))
		}
	}
	return true
}

func (c Console) run() (Console, tea.Cmd, bool) {
	if c.busy {
		return c, nil, true
	}

	toolName := strings.TrimSpace(c.toolInput.Value())
	if toolName == "" {
		c.setStatus(statusWarning, "Enter a tool name")
		return c, nil, true
	}

	args, err := rpc.ParseArguments(c.argsInput.Value())
	if err != nil {
		c.setStatus(statusWarning, "Invalid JSON arguments (%v); sent {} instead", err)
		args = map[string]any{}
	} else {
		c.status = ""
	}

	c.busy = true
	return c, tea.Batch(c.spinner.Tick, c.callTool(toolName, args)), true
}

func (c Console) explainLast() (Console, tea.Cmd, bool) {
	if c.explainer == nil {
		c.setStatus(statusWarning, "The assistant is disabled")
		return c, nil, true
	}
	if c.busy {
		return c, nil, true
	}

	last := c.session.LastCall()
	if last == nil {
		c.setStatus(statusWarning, "Run a tool first")
		return c, nil, true
	}

	c.busy = true
	c.status = ""
	explainer := c.explainer
	return c, tea.Batch(c.spinner.Tick, func() tea.Msg {
		answer, err := explainer.Explain(context.Background(), last.Tool, last.Arguments, last.Reply)
		return explainDoneMsg{tool: last.Tool, answer: answer, err: err}
	}), true
}

func (c Console) callTool(toolName string, args map[string]any) tea.Cmd {
	tools := c.tools
	return func() tea.Msg {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[ui] calling %s", toolName)
		}
		resp := tools.CallTool(context.Background(), toolName, args)
		return toolResultMsg{
			tool:      toolName,
			arguments: rpc.Pretty(args),
			reply:     rpc.Render(resp),
		}
	}
}

func (c Console) discover() tea.Cmd {
	discovery := c.discovery
	return func() tea.Msg {
		return discoveryDoneMsg{results: discovery.DiscoverAll(context.Background())}
	}
}
