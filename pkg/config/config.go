// Package config holds the settings snapshot MagicPrompt runs against: the
// endpoint map per backend and the backend/model/instructions per action.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/magicprompt/pkg/llm"
)

// Config is an immutable snapshot; reloads produce a new value.
type Config struct {
	// Address the HTTP API listens on (e.g., ":8080")
	ListenAddr string `toml:"listen"`

	Debug bool `toml:"debug"`

	// DBPath is the path to the SQLite transcript database.
	// Empty keeps transcripts in memory.
	DBPath string `toml:"db_path"`

	Backends map[string]Backend `toml:"backends"`
	Actions  map[string]Action  `toml:"actions"`
}

// Backend is the connection info for one backend.
type Backend struct {
	// Disabled removes the backend from the endpoint map.
	Disabled bool `toml:"disabled"`

	BaseURL    string            `toml:"base_url"`
	APIKey     string            `toml:"api_key"`
	APIKeyEnv  string            `toml:"api_key_env"`
	ChatPath   string            `toml:"chat_path"`
	ModelsPath string            `toml:"models_path"`
	Headers    map[string]string `toml:"headers"`
}

// Action maps an action tag to the backend and model that serve it.
type Action struct {
	Backend      string `toml:"backend"`
	Model        string `toml:"model"`
	Instructions string `toml:"instructions"`
	KeepAlive    *int   `toml:"keep_alive"`
	Seed         *int   `toml:"seed"`
}

// Load reads a TOML file and fills in defaults. An empty path returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	return cfg.finish()
}

// Parse decodes TOML from a string; it is Load without the file.
func Parse(data string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	return cfg.finish()
}

func (c *Config) finish() (*Config, error) {
	c.normalizeKeys()
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Action returns the settings for an action tag.
func (c *Config) Action(tag string) (Action, bool) {
	a, ok := c.Actions[strings.ToLower(tag)]
	return a, ok
}

// Resolve returns the URL and headers for one endpoint of a backend. A missing
// backend entry or an empty base URL is a configuration error.
func (c *Config) Resolve(backend llm.Backend, kind llm.EndpointKind) (llm.Endpoint, error) {
	b, ok := c.Backends[string(backend)]
	if !ok || b.Disabled {
		return llm.Endpoint{}, fmt.Errorf("%w: no endpoint configured for backend %q", llm.ErrConfiguration, backend)
	}

	var path string
	switch kind {
	case llm.EndpointChat:
		path = b.ChatPath
	case llm.EndpointModels:
		path = b.ModelsPath
	}

	base := strings.TrimRight(b.BaseURL, "/")
	if base == "" || path == "" {
		return llm.Endpoint{}, fmt.Errorf("%w: no %s endpoint configured for backend %q", llm.ErrConfiguration, kind, backend)
	}

	return llm.Endpoint{
		URL:     base + "/" + strings.TrimLeft(path, "/"),
		Headers: b.headers(backend),
	}, nil
}

func (b Backend) apiKey() string {
	if b.APIKey != "" {
		return b.APIKey
	}
	if b.APIKeyEnv != "" {
		return os.Getenv(b.APIKeyEnv)
	}
	return ""
}

func (b Backend) headers(backend llm.Backend) map[string]string {
	headers := make(map[string]string, len(b.Headers)+2)
	key := b.apiKey()

	switch backend.Family() {
	case llm.FamilyOpenAI:
		if key != "" {
			headers["Authorization"] = "Bearer " + key
		}
	case llm.FamilyAnthropic:
		if key != "" {
			headers["x-api-key"] = key
		}
		headers["anthropic-version"] = anthropicVersion
	}

	for k, v := range b.Headers {
		headers[k] = v
	}
	return headers
}

func (c *Config) normalizeKeys() {
	backends := make(map[string]Backend, len(c.Backends))
	for k, v := range c.Backends {
		backends[strings.ToLower(k)] = v
	}
	c.Backends = backends

	actions := make(map[string]Action, len(c.Actions))
	for k, v := range c.Actions {
		v.Backend = strings.ToLower(v.Backend)
		actions[strings.ToLower(k)] = v
	}
	c.Actions = actions
}

func (c *Config) validate() error {
	for id := range c.Backends {
		if _, err := llm.ParseBackend(id); err != nil {
			return fmt.Errorf("%w: [backends.%s]: %v", llm.ErrConfiguration, id, err)
		}
	}
	for tag, action := range c.Actions {
		if action.Backend == "" {
			continue
		}
		if _, err := llm.ParseBackend(action.Backend); err != nil {
			return fmt.Errorf("%w: [actions.%s]: %v", llm.ErrConfiguration, tag, err)
		}
	}
	return nil
}
