package ui

import (
	"mcpgate/mcp"
)

// toolResultMsg carries a finished call back into the update loop.
type toolResultMsg struct {
	tool      string
	arguments string
	reply     string
}

type explainDoneMsg struct {
	tool   string
	answer string
	err    error
}

type discoveryDoneMsg struct {
	results []mcp.ServerTools
}

type statusLevel int

const (
	statusInfo statusLevel = iota
	statusWarning
	statusError
)
