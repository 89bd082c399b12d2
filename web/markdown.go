package web

import (
	"html/template"

	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// renderMarkdown converts a chat message to HTML. Raw HTML in the source is
// dropped and only safe link schemes survive, since replies come from
// remote servers.
func renderMarkdown(content string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.SkipHTML | html.Safelink,
	})
	return template.HTML(gomarkdown.ToHTML([]byte(content), p, r))
}
