package model

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"mcpgate/rpc"
)

// Session is the per-browser (or per-console) state: login flag, granted
// permissions and the chat transcript. Nothing here is persisted.
type Session struct {
	ID string

	mu            sync.Mutex
	authenticated bool
	username      string
	permissions   []string
	messages      []Message
	lastCall      *ToolCall
	notice        *Notice
	lastSeen      time.Time
}

// SessionView is an immutable copy of a Session for rendering.
type SessionView struct {
	ID            string
	Authenticated bool
	Username      string
	Permissions   []string
	Messages      []Message
	LastCall      *ToolCall
}

func NewSession(id string) *Session {
	return &Session{ID: id, lastSeen: time.Now()}
}

// Login moves the session to LoggedIn with the granted permissions.
func (s *Session) Login(username string, permissions []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authenticated = true
	s.username = username
	s.permissions = slices.Clone(permissions)
}

// Logout resets the auth state. The chat transcript is left alone since the
// tool-call screen does not depend on login.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authenticated = false
	s.username = ""
	s.permissions = nil
}

func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// RecordToolCall appends the invocation echo and the rendered reply. It is
// called for every call, successful or not, so each call adds exactly two
// messages.
func (s *Session) RecordToolCall(tool, arguments, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.messages = append(s.messages,
		Message{Role: RoleUser, Content: FormatInvocation(tool, arguments), Timestamp: now},
		Message{Role: RoleAssistant, Content: reply, Timestamp: now},
	)
	s.lastCall = &ToolCall{Tool: tool, Arguments: arguments, Reply: reply}
}

// RecordExchange appends a free-form user/assistant pair (used by Explain).
func (s *Session) RecordExchange(prompt, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.messages = append(s.messages,
		Message{Role: RoleUser, Content: prompt, Timestamp: now},
		Message{Role: RoleAssistant, Content: reply, Timestamp: now},
	)
}

func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = nil
	s.lastCall = nil
}

func (s *Session) LastCall() *ToolCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastCall == nil {
		return nil
	}
	call := *s.lastCall
	return &call
}

func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := SessionView{
		ID:            s.ID,
		Authenticated: s.authenticated,
		Username:      s.username,
		Permissions:   slices.Clone(s.permissions),
		Messages:      slices.Clone(s.messages),
	}
	if s.lastCall != nil {
		call := *s.lastCall
		view.LastCall = &call
	}
	return view
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SetNotice stores a one-shot message for the next rendered page.
func (s *Session) SetNotice(level NoticeLevel, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = &Notice{Level: level, Text: text}
}

// TakeNotice returns and clears the pending notice.
func (s *Session) TakeNotice() *Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.notice
	s.notice = nil
	return n
}

// FormatInvocation renders the user's side of a tool call.
func FormatInvocation(tool, arguments string) string {
	return fmt.Sprintf("🔧 `%s`\n\n%s", tool, rpc.CodeBlock("json", arguments))
}
