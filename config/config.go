package config

import (
	"fmt"
	"os"
	"time"
)

type OllamaConfig struct {
	Endpoint      string   `toml:"endpoint"`
	KeepAlive     string   `toml:"keep_alive"`
	WarmEndpoints []string `toml:"warm_endpoints,omitempty"`
}

// Timeouts bound each daemon call. A zero value disables the deadline.
type Timeouts struct {
	List   time.Duration `toml:"list"`
	Load   time.Duration `toml:"load"`
	Unload time.Duration `toml:"unload"`
	Chat   time.Duration `toml:"chat"`
}

type ServerConfig struct {
	Listen string `toml:"listen"`
}

type FileConfig struct {
	DataDirectory string       `toml:"data_directory"`
	Ollama        OllamaConfig `toml:"ollama"`
	Timeouts      Timeouts     `toml:"timeouts"`
	Server        ServerConfig `toml:"server"`
}

type Config struct {
	DataDirectory    string
	Endpoint         string
	DefaultKeepAlive string
	WarmEndpoints    []string
	Timeouts         Timeouts
	ListenAddr       string
}

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// Endpoints returns the default endpoint followed by every warm endpoint,
// without duplicates.
func (c *Config) Endpoints() []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range append([]string{c.Endpoint}, c.WarmEndpoints...) {
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

func (c *Config) applyFile(f *FileConfig) {
	if f.DataDirectory != "" {
		c.DataDirectory = f.DataDirectory
	}
	if f.Ollama.Endpoint != "" {
		c.Endpoint = f.Ollama.Endpoint
	}
	if f.Ollama.KeepAlive != "" {
		c.DefaultKeepAlive = f.Ollama.KeepAlive
	}
	c.WarmEndpoints = f.Ollama.WarmEndpoints
	c.Timeouts = f.Timeouts
	if f.Server.Listen != "" {
		c.ListenAddr = f.Server.Listen
	}
}

func (c *Config) applyEnvOverrides() {
	if endpoint := os.Getenv("OLLAMA_NODES_ENDPOINT"); endpoint != "" {
		c.Endpoint = endpoint
	}
	if dataDir := os.Getenv("OLLAMA_NODES_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
}

func defaultConfig() *Config {
	f := DefaultFileConfig()
	return &Config{
		DataDirectory:    f.DataDirectory,
		Endpoint:         f.Ollama.Endpoint,
		DefaultKeepAlive: f.Ollama.KeepAlive,
		Timeouts:         f.Timeouts,
		ListenAddr:       f.Server.Listen,
	}
}

// Load reads the settings file (creating it from the template when missing),
// then applies environment overrides and prepares the data directory.
func Load() (*Config, error) {
	return LoadFrom(GetSettingsFilePath())
}

func LoadFrom(settingsPath string) (*Config, error) {
	cfg := defaultConfig()

	fileCfg, err := LoadFileConfig(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.applyFile(fileCfg)
	cfg.applyEnvOverrides()

	if err := EnsureDir(cfg.DataDir()); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}
