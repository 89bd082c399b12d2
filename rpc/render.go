package rpc

import "strings"

const (
	SuccessIndicator = "✅"
	ErrorIndicator   = "❌"
	RawIndicator     = "📄"
)

// Render formats a Response as the assistant's markdown reply.
func Render(r Response) string {
	switch r.Kind {
	case KindError:
		return ErrorIndicator + " **Error:** " + r.Message
	case KindResult:
		return SuccessIndicator + " **Result:**\n\n" + CodeBlock("json", Pretty(r.Result))
	case KindRaw:
		return RawIndicator + " **Raw response:**\n\n" + CodeBlock("", r.Text)
	default:
		return CodeBlock("json", Pretty(r.Body))
	}
}

// CodeBlock fences text with a backtick run longer than any inside it.
func CodeBlock(lang, text string) string {
	longest, run := 0, 0
	for _, r := range text {
		if r == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	fence := strings.Repeat("`", max(3, longest+1))
	return fence + lang + "\n" + text + "\n" + fence
}
