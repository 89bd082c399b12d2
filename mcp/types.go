package mcp

import (
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"mcpgate/config"
)

// ServerTools is the discovery outcome for one server.
type ServerTools struct {
	Server config.ServerConfig
	Tools  []mcptypes.Tool
	Err    error
}

// CatalogEntry is one discovered tool together with the server offering it.
type CatalogEntry struct {
	Server string
	Tool   mcptypes.Tool
}
