package config

func DefaultSettings() *Settings {
	return &Settings{
		DataDirectory: "~/.local/share/mcpgate",
		ListenAddr:    ":8501",
		ToolEndpoint:  "http://localhost:3000/mcp",
		PermissionServers: []string{
			"http://k8s-mcp.local:8080",
			"http://jenkins-mcp.local:8080",
			"http://argocd-mcp.local:8080",
		},
		Store: StoreConfig{
			Collection: "users",
		},
		Assistant: AssistantConfig{
			Enabled:    false,
			OllamaHost: "http://localhost:11434",
			Model:      "llama3.1:latest",
		},
	}
}

func GenerateSettingsTemplate() string {
	return `# mcpgate configuration
# Location: ~/.config/mcpgate/settings.toml
# This file uses TOML format: https://toml.io

# Directory for users.db and debug.log
data_directory = "~/.local/share/mcpgate"

# Address the web front end listens on
listen_addr = ":8501"

# JSON-RPC endpoint that receives call_tool requests
tool_endpoint = "http://localhost:3000/mcp"

# Server URLs offered on the registration form
permission_servers = [
  "http://k8s-mcp.local:8080",
  "http://jenkins-mcp.local:8080",
  "http://argocd-mcp.local:8080",
]

[store]
# sqlite DSN; leave empty to use <data_directory>/users.db
dsn = ""
# Table holding user accounts
collection = "users"

# MCP servers listed on the discovery page
# [[servers]]
# name = "kubernetes"
# url = "http://k8s-mcp.local:8080/sse"
# transport = "sse"   # or "streamable-http"

[assistant]
# Explain tool replies with a local Ollama model
enabled = false
ollama_host = "http://localhost:11434"
model = "llama3.1:latest"
`
}
