package config

import "time"

const DefaultEndpoint = "http://localhost:11434"

func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		DataDirectory: "~/.local/share/ollama-nodes",
		Ollama: OllamaConfig{
			Endpoint:  DefaultEndpoint,
			KeepAlive: "-1",
		},
		Timeouts: Timeouts{
			List:   20 * time.Second,
			Load:   60 * time.Second,
			Unload: 30 * time.Second,
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:8189",
		},
	}
}

func GenerateConfigTemplate() string {
	return `# ollama-nodes configuration
# Location: ~/.config/ollama-nodes/config.toml
# This file uses TOML format: https://toml.io

# Directory where saved histories and the run journal are stored
data_directory = "~/.local/share/ollama-nodes"

[ollama]
# Default daemon endpoint used when a node does not receive one
endpoint = "http://localhost:11434"

# Keep-alive forwarded verbatim to the daemon on load ("-1" keeps the model resident)
keep_alive = "-1"

# Extra endpoints whose model lists are fetched when the server starts
warm_endpoints = []

[timeouts]
# Per-call deadlines; "0s" disables the deadline
list = "20s"
load = "60s"
unload = "30s"
chat = "0s"

[server]
listen = "127.0.0.1:8189"
`
}
