package config_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/magicprompt/pkg/config"
	"github.com/papercomputeco/magicprompt/pkg/llm"
)

const sample = `
listen = ":9090"
db_path = "/tmp/transcripts.db"

[backends.ollama]
base_url = "http://gpu-box:11434/"

[backends.Anthropic]
api_key = "sk-ant-test"

[backends.openrouter]
api_key = "or-key"
headers = { "X-Title" = "MagicPrompt" }

[backends.grok]
disabled = true

[actions.caption]
backend = "Anthropic"
model = "claude-3-5-sonnet"
instructions = "Caption the image."

[actions.prompt]
keep_alive = 0
seed = 42
`

var _ = Describe("Config", func() {
	Describe("Default", func() {
		It("knows every backend", func() {
			cfg := config.Default()

			for _, b := range llm.Backends() {
				_, err := cfg.Resolve(b, llm.EndpointChat)
				Expect(err).NotTo(HaveOccurred(), string(b))
			}
			Expect(cfg.ListenAddr).To(Equal(":8080"))
		})

		It("routes every action to a local Ollama", func() {
			a, ok := config.Default().Action("vision")

			Expect(ok).To(BeTrue())
			Expect(a.Backend).To(Equal("ollama"))
			Expect(a.Model).To(Equal("llava"))
		})
	})

	Describe("Parse", func() {
		var cfg *config.Config

		BeforeEach(func() {
			var err error
			cfg, err = config.Parse(sample)
			Expect(err).NotTo(HaveOccurred())
		})

		It("reads top-level settings", func() {
			Expect(cfg.ListenAddr).To(Equal(":9090"))
			Expect(cfg.DBPath).To(Equal("/tmp/transcripts.db"))
		})

		It("joins base URL and endpoint suffix", func() {
			ep, err := cfg.Resolve(llm.BackendOllama, llm.EndpointChat)
			Expect(err).NotTo(HaveOccurred())
			Expect(ep.URL).To(Equal("http://gpu-box:11434/api/chat"))

			ep, err = cfg.Resolve(llm.BackendOllama, llm.EndpointModels)
			Expect(err).NotTo(HaveOccurred())
			Expect(ep.URL).To(Equal("http://gpu-box:11434/api/tags"))
		})

		It("derives Anthropic auth headers", func() {
			ep, err := cfg.Resolve(llm.BackendAnthropic, llm.EndpointChat)

			Expect(err).NotTo(HaveOccurred())
			Expect(ep.URL).To(Equal("https://api.anthropic.com/v1/messages"))
			Expect(ep.Headers).To(HaveKeyWithValue("x-api-key", "sk-ant-test"))
			Expect(ep.Headers).To(HaveKeyWithValue("anthropic-version", "2023-06-01"))
		})

		It("derives bearer auth and keeps custom headers", func() {
			ep, err := cfg.Resolve(llm.BackendOpenRouter, llm.EndpointChat)

			Expect(err).NotTo(HaveOccurred())
			Expect(ep.URL).To(Equal("https://openrouter.ai/api/v1/chat/completions"))
			Expect(ep.Headers).To(HaveKeyWithValue("Authorization", "Bearer or-key"))
			Expect(ep.Headers).To(HaveKeyWithValue("X-Title", "MagicPrompt"))
		})

		It("treats a disabled backend as missing", func() {
			_, err := cfg.Resolve(llm.BackendGrok, llm.EndpointChat)

			Expect(err).To(MatchError(llm.ErrConfiguration))
		})

		It("merges action overrides with defaults", func() {
			caption, ok := cfg.Action("CAPTION")
			Expect(ok).To(BeTrue())
			Expect(caption.Backend).To(Equal("anthropic"))
			Expect(caption.Model).To(Equal("claude-3-5-sonnet"))

			prompt, ok := cfg.Action("prompt")
			Expect(ok).To(BeTrue())
			Expect(prompt.Backend).To(Equal("ollama"))
			Expect(prompt.Model).To(Equal("llama3.2"))
			Expect(*prompt.KeepAlive).To(Equal(0))
			Expect(*prompt.Seed).To(Equal(42))
		})

		It("reads API keys from the environment", func() {
			GinkgoT().Setenv("XAI_TEST_KEY", "from-env")
			cfg, err := config.Parse(`
[backends.grok]
api_key_env = "XAI_TEST_KEY"
`)
			Expect(err).NotTo(HaveOccurred())

			ep, err := cfg.Resolve(llm.BackendGrok, llm.EndpointChat)
			Expect(err).NotTo(HaveOccurred())
			Expect(ep.Headers).To(HaveKeyWithValue("Authorization", "Bearer from-env"))
		})
	})

	Describe("validation", func() {
		It("rejects unknown backends", func() {
			_, err := config.Parse(`[backends.skynet]
base_url = "http://x"`)

			Expect(err).To(MatchError(llm.ErrConfiguration))
		})

		It("rejects actions on unknown backends", func() {
			_, err := config.Parse(`[actions.chat]
backend = "skynet"`)

			Expect(err).To(MatchError(llm.ErrConfiguration))
		})

		It("reports TOML syntax errors", func() {
			_, err := config.Parse(`listen = `)

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Resolve on a hand-built snapshot", func() {
		It("fails for a backend with no entry", func() {
			cfg := &config.Config{}

			_, err := cfg.Resolve(llm.BackendOllama, llm.EndpointChat)
			Expect(err).To(MatchError(llm.ErrConfiguration))
		})
	})

	Describe("Load and Watch", func() {
		var path string

		BeforeEach(func() {
			path = filepath.Join(GinkgoT().TempDir(), "magicprompt.toml")
			Expect(os.WriteFile(path, []byte(`listen = ":7000"`), 0o644)).To(Succeed())
		})

		It("loads a file", func() {
			cfg, err := config.Load(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.ListenAddr).To(Equal(":7000"))
		})

		It("fails for a missing file", func() {
			_, err := config.Load(filepath.Join(filepath.Dir(path), "nope.toml"))

			Expect(err).To(HaveOccurred())
		})

		It("hands reloaded snapshots to the callback", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var current atomic.Pointer[config.Config]
			Expect(config.Watch(ctx, path, zap.NewNop(), func(cfg *config.Config) {
				current.Store(cfg)
			})).To(Succeed())

			Expect(os.WriteFile(path, []byte(`listen = ":7001"`), 0o644)).To(Succeed())

			Eventually(func() string {
				if cfg := current.Load(); cfg != nil {
					return cfg.ListenAddr
				}
				return ""
			}).Should(Equal(":7001"))
		})
	})
})
