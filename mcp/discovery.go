package mcp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"mcpgate/config"
)

const DefaultDiscoveryTimeout = 15 * time.Second

// Discovery lists the tools offered by the configured MCP servers and keeps
// the last result as a catalog for name suggestions.
type Discovery struct {
	servers    []config.ServerConfig
	clientInfo mcptypes.Implementation
	timeout    time.Duration

	mu      sync.RWMutex
	catalog []CatalogEntry
	results []ServerTools
}

func NewDiscovery(servers []config.ServerConfig, version string) *Discovery {
	return &Discovery{
		servers: servers,
		clientInfo: mcptypes.Implementation{
			Name:    "mcpgate",
			Version: version,
		},
		timeout: DefaultDiscoveryTimeout,
	}
}

func (d *Discovery) Servers() []config.ServerConfig {
	return d.servers
}

// ListTools connects to one server, performs the initialize handshake and
// returns its tools. The connection is closed before returning.
func (d *Discovery) ListTools(ctx context.Context, server config.ServerConfig) ([]mcptypes.Tool, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	mcpClient, err := d.connect(ctx, server)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", server.Name, err)
	}
	defer mcpClient.Close()

	initReq := mcptypes.InitializeRequest{
		Params: mcptypes.InitializeParams{
			ProtocolVersion: "2025-06-18",
			Capabilities:    mcptypes.ClientCapabilities{},
			ClientInfo:      d.clientInfo,
		},
	}

	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		return nil, fmt.Errorf("failed to initialize %s: %w", server.Name, err)
	}

	toolsResult, err := mcpClient.ListTools(ctx, mcptypes.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools for %s: %w", server.Name, err)
	}

	return toolsResult.Tools, nil
}

// DiscoverAll queries every server in order. A failing server is reported
// in its ServerTools entry and does not stop the others.
func (d *Discovery) DiscoverAll(ctx context.Context) []ServerTools {
	results := make([]ServerTools, 0, len(d.servers))
	var catalog []CatalogEntry

	for _, server := range d.servers {
		tools, err := d.ListTools(ctx, server)
		results = append(results, ServerTools{Server: server, Tools: tools, Err: err})

		switch {
		case err != nil && config.DebugLog != nil:
			config.DebugLog.Printf("[MCP] discovery failed for %s (%s): %v", server.Name, server.URL, err)
		case err == nil && config.DebugLog != nil:
			config.DebugLog.Printf("[MCP] %s offers %d tools", server.Name, len(tools))
		}

		for _, tool := range tools {
			catalog = append(catalog, CatalogEntry{Server: server.Name, Tool: tool})
		}
	}

	d.mu.Lock()
	d.results = results
	d.catalog = catalog
	d.mu.Unlock()

	return results
}

// LastResults returns the outcome of the most recent DiscoverAll.
func (d *Discovery) LastResults() []ServerTools {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.results
}

func (d *Discovery) Catalog() []CatalogEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.catalog
}

// Lookup finds a catalog entry by exact tool name.
func (d *Discovery) Lookup(name string) (CatalogEntry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, entry := range d.catalog {
		if entry.Tool.Name == name {
			return entry, true
		}
	}
	return CatalogEntry{}, false
}

func (d *Discovery) connect(ctx context.Context, server config.ServerConfig) (*client.Client, error) {
	transport := server.Transport
	if transport == "" {
		transport = "sse"
	}

	var mcpClient *client.Client
	var err error

	switch transport {
	case "streamable-http":
		mcpClient, err = client.NewStreamableHttpClient(server.URL)
	case "sse":
		mcpClient, err = client.NewSSEMCPClient(server.URL)
	default:
		return nil, fmt.Errorf("unknown transport type: %s", transport)
	}
	if err != nil {
		return nil, err
	}

	// Transport must be started before Initialize/ListTools
	if err := mcpClient.GetTransport().Start(ctx); err != nil {
		mcpClient.Close()
		return nil, fmt.Errorf("failed to start %s transport: %w", transport, err)
	}

	return mcpClient, nil
}
