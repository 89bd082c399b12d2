package ui

import (
	"fmt"
	"regexp"
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"

	"mcpgate/model"
)

var inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)

const codeBar = "┃"

func (c *Console) updateViewportContent(gotoBottom bool) {
	messages := c.session.View().Messages
	if len(messages) == 0 {
		c.rendered = nil
		c.viewport.SetContent(DimStyle.Render("No calls yet. Type a tool name and press Enter."))
		return
	}

	if c.renderWidth != c.width || len(c.rendered) > len(messages) {
		c.rendered = nil
		c.renderWidth = c.width
	}
	for i := len(c.rendered); i < len(messages); i++ {
		c.rendered = append(c.rendered, renderTerminalMarkdown(messages[i].Content, c.width))
	}

	var content strings.Builder
	for i, msg := range messages {
		timestamp := DimStyle.Render(msg.Timestamp.Format("[15:04]"))

		if msg.Role == model.RoleUser {
			content.WriteString(formatUserMessage(timestamp, UserStyle.Render("You"), c.rendered[i]))
			continue
		}

		content.WriteString(fmt.Sprintf("%s %s\n%s\n\n", timestamp, AssistantStyle.Render("Server"), c.rendered[i]))
	}

	c.viewport.SetContent(content.String())
	if gotoBottom {
		c.viewport.GotoBottom()
	}
}

func renderTerminalMarkdown(content string, width int) string {
	if width < 20 {
		width = 20
	}

	// Autolink off keeps URLs plain so the terminal can detect them.
	p := parser.NewWithExtensions(markdown.Extensions() &^ parser.Autolink)
	r := markdown.NewRenderer(width-4, 0)
	rendered := gomarkdown.Render(p.Parse([]byte(content)), r)

	out := fixInlineCode(string(rendered))
	out = frameCodeBlocks(out, width)
	return strings.TrimRight(out, "\n")
}

func formatUserMessage(timestamp, role, content string) string {
	bar := UserStyle.Render("┃")

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s %s %s\n", bar, timestamp, role))
	for _, line := range strings.Split(content, "\n") {
		result.WriteString(fmt.Sprintf("%s %s\n", bar, line))
	}
	result.WriteString("\n")

	return result.String()
}

// fixInlineCode swaps the renderer's blue-background inline code for red text.
func fixInlineCode(s string) string {
	return inlineCodeRegex.ReplaceAllString(s, "\x1b[31m$1\x1b[0m")
}

// frameCodeBlocks replaces the renderer's left bar on code lines with a
// horizontal frame above and below the block.
func frameCodeBlocks(s string, width int) string {
	const darkGray = "\x1b[90m"
	const reset = "\x1b[0m"

	ruleLen := max(width-4, 8)
	label := "[code]"
	left := (ruleLen - len(label)) / 2
	right := ruleLen - len(label) - left
	top := darkGray + strings.Repeat("━", left) + reset + label + darkGray + strings.Repeat("━", right) + reset
	bottom := darkGray + strings.Repeat("━", ruleLen) + reset

	var result []string
	inCode := false
	for _, line := range strings.Split(s, "\n") {
		if strings.Contains(line, codeBar) {
			if !inCode {
				inCode = true
				result = append(result, top)
			}
			result = append(result, stripCodeBlockPrefix(line))
			continue
		}
		if inCode {
			inCode = false
			result = append(result, bottom)
		}
		result = append(result, line)
	}
	if inCode {
		result = append(result, bottom)
	}

	return strings.Join(result, "\n")
}

func stripCodeBlockPrefix(line string) string {
	idx := strings.Index(line, codeBar)
	if idx < 0 {
		return line
	}
	after := idx + len(codeBar)
	if after < len(line) && line[after] == ' ' {
		after++
	}
	return line[after:]
}
