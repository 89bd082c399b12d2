package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"

	"github.com/baalimago/go_away_boilerplate/pkg/misc"
)

// ServerConfig describes one MCP server offered for discovery.
type ServerConfig struct {
	Name      string `toml:"name"`
	URL       string `toml:"url"`
	Transport string `toml:"transport,omitempty"` // "sse" (default) or "streamable-http"
}

type StoreConfig struct {
	DSN        string `toml:"dsn"`
	Collection string `toml:"collection"`
}

type AssistantConfig struct {
	Enabled    bool   `toml:"enabled"`
	OllamaHost string `toml:"ollama_host"`
	Model      string `toml:"model"`
}

// Settings mirrors settings.toml.
type Settings struct {
	DataDirectory     string          `toml:"data_directory"`
	ListenAddr        string          `toml:"listen_addr"`
	ToolEndpoint      string          `toml:"tool_endpoint"`
	PermissionServers []string        `toml:"permission_servers"`
	Store             StoreConfig     `toml:"store"`
	Servers           []ServerConfig  `toml:"servers"`
	Assistant         AssistantConfig `toml:"assistant"`
}

type Config struct {
	DataDirectory     string
	ListenAddr        string
	ToolEndpoint      string
	PermissionServers []string
	StoreDSN          string
	Collection        string
	Servers           []ServerConfig
	Assistant         AssistantConfig
}

var DebugLog *log.Logger

var collectionPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// StorePath returns the sqlite DSN for the user store. An empty DSN
// places users.db inside the data directory.
func (c *Config) StorePath() string {
	if c.StoreDSN != "" {
		return c.StoreDSN
	}
	return filepath.Join(c.DataDir(), "users.db")
}

func (c *Config) applyEnvOverrides() {
	if dataDir := os.Getenv("MCPGATE_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if addr := os.Getenv("MCPGATE_LISTEN_ADDR"); addr != "" {
		c.ListenAddr = addr
	}
	if endpoint := os.Getenv("MCPGATE_TOOL_ENDPOINT"); endpoint != "" {
		c.ToolEndpoint = endpoint
	}
	if dsn := os.Getenv("MCPGATE_STORE_DSN"); dsn != "" {
		c.StoreDSN = dsn
	}
	if collection := os.Getenv("MCPGATE_COLLECTION"); collection != "" {
		c.Collection = collection
	}
	if host := os.Getenv("MCPGATE_OLLAMA_HOST"); host != "" {
		c.Assistant.OllamaHost = host
	}
	if model := os.Getenv("MCPGATE_OLLAMA_MODEL"); model != "" {
		c.Assistant.Model = model
	}
}

func (c *Config) validate() error {
	if c.ToolEndpoint == "" {
		return fmt.Errorf("tool_endpoint is not set")
	}
	if !collectionPattern.MatchString(c.Collection) {
		return fmt.Errorf("invalid collection name %q", c.Collection)
	}
	for i, srv := range c.Servers {
		if srv.URL == "" {
			return fmt.Errorf("server %d (%s) has no url", i, srv.Name)
		}
		switch srv.Transport {
		case "", "sse", "streamable-http":
		default:
			return fmt.Errorf("server %s: unknown transport %q", srv.Name, srv.Transport)
		}
	}
	return nil
}

func CheckDebug() bool {
	return misc.Truthy(os.Getenv("MCPGATE_DEBUG"))
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	logPath := filepath.Join(dataDir, "debug.log")

	// 0600: the log may contain tool arguments
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (MCPGATE_DEBUG=%s) ===", os.Getenv("MCPGATE_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

// Load reads settings.toml (creating it from the template on first run),
// applies environment overrides and prepares the data directory.
func Load() (*Config, error) {
	return LoadFrom(GetSettingsFilePath())
}

func LoadFrom(settingsPath string) (*Config, error) {
	if err := CreateDefaultSettings(settingsPath); err != nil {
		return nil, err
	}

	settings, err := LoadSettings(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	cfg := fromSettings(settings)
	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

func fromSettings(s *Settings) *Config {
	defaults := DefaultSettings()

	cfg := &Config{
		DataDirectory:     s.DataDirectory,
		ListenAddr:        s.ListenAddr,
		ToolEndpoint:      s.ToolEndpoint,
		PermissionServers: s.PermissionServers,
		StoreDSN:          s.Store.DSN,
		Collection:        s.Store.Collection,
		Servers:           s.Servers,
		Assistant:         s.Assistant,
	}

	if cfg.DataDirectory == "" {
		cfg.DataDirectory = defaults.DataDirectory
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaults.ListenAddr
	}
	if cfg.ToolEndpoint == "" {
		cfg.ToolEndpoint = defaults.ToolEndpoint
	}
	if cfg.PermissionServers == nil {
		cfg.PermissionServers = defaults.PermissionServers
	}
	if cfg.Collection == "" {
		cfg.Collection = defaults.Store.Collection
	}
	if cfg.Assistant.OllamaHost == "" {
		cfg.Assistant.OllamaHost = defaults.Assistant.OllamaHost
	}
	if cfg.Assistant.Model == "" {
		cfg.Assistant.Model = defaults.Assistant.Model
	}

	return cfg
}
