package model

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents one chat turn shown on the tool-call screen
type Message struct {
	Role      string
	Content   string // Markdown as produced by rpc.Render or typed by the user
	Timestamp time.Time
}

// ToolCall remembers the most recent invocation so it can be explained later
type ToolCall struct {
	Tool      string
	Arguments string
	Reply     string
}

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a form-level message shown once above the page content
type Notice struct {
	Level NoticeLevel
	Text  string
}
