package config

import "github.com/papercomputeco/magicprompt/pkg/llm"

const (
	defaultListenAddr = ":8080"
	anthropicVersion  = "2023-06-01"
)

var defaultBackends = map[llm.Backend]Backend{
	llm.BackendOllama: {
		BaseURL:    "http://localhost:11434",
		ChatPath:   "/api/chat",
		ModelsPath: "/api/tags",
	},
	llm.BackendOpenAI: {
		BaseURL:    "http://localhost:1234",
		ChatPath:   "/v1/chat/completions",
		ModelsPath: "/v1/models",
	},
	llm.BackendOpenAIAPI: {
		BaseURL:    "https://api.openai.com",
		APIKeyEnv:  "OPENAI_API_KEY",
		ChatPath:   "/v1/chat/completions",
		ModelsPath: "/v1/models",
	},
	llm.BackendOpenRouter: {
		BaseURL:    "https://openrouter.ai/api",
		APIKeyEnv:  "OPENROUTER_API_KEY",
		ChatPath:   "/v1/chat/completions",
		ModelsPath: "/v1/models",
	},
	llm.BackendGrok: {
		BaseURL:    "https://api.x.ai",
		APIKeyEnv:  "XAI_API_KEY",
		ChatPath:   "/v1/chat/completions",
		ModelsPath: "/v1/models",
	},
	llm.BackendAnthropic: {
		BaseURL:    "https://api.anthropic.com",
		APIKeyEnv:  "ANTHROPIC_API_KEY",
		ChatPath:   "/v1/messages",
		ModelsPath: "/v1/models",
	},
}

// Default returns a snapshot with every backend at its stock endpoint and
// every action on a local Ollama.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}

	if c.Backends == nil {
		c.Backends = make(map[string]Backend, len(defaultBackends))
	}
	for id, def := range defaultBackends {
		b := c.Backends[string(id)]
		if b.BaseURL == "" {
			b.BaseURL = def.BaseURL
		}
		if b.APIKeyEnv == "" {
			b.APIKeyEnv = def.APIKeyEnv
		}
		if b.ChatPath == "" {
			b.ChatPath = def.ChatPath
		}
		if b.ModelsPath == "" {
			b.ModelsPath = def.ModelsPath
		}
		c.Backends[string(id)] = b
	}

	if c.Actions == nil {
		c.Actions = make(map[string]Action)
	}
	for tag, def := range defaultActions {
		a, ok := c.Actions[tag]
		if !ok {
			c.Actions[tag] = def
			continue
		}
		if a.Backend == "" {
			a.Backend = def.Backend
		}
		if a.Model == "" && a.Backend == def.Backend {
			a.Model = def.Model
		}
		c.Actions[tag] = a
	}
}

var defaultActions = map[string]Action{
	"chat":                 {Backend: string(llm.BackendOllama), Model: "llama3.2"},
	"prompt":               {Backend: string(llm.BackendOllama), Model: "llama3.2"},
	"generate-instruction": {Backend: string(llm.BackendOllama), Model: "llama3.2"},
	"vision":               {Backend: string(llm.BackendOllama), Model: "llava"},
	"caption":              {Backend: string(llm.BackendOllama), Model: "llava"},
}
