package modelscmder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Models Command", func() {
	var configPath string

	BeforeEach(func() {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/tags":
				fmt.Fprint(w, `{"models":[{"name":"llava"},{"name":"llama3.2"}]}`)
			case "/v1/models":
				fmt.Fprint(w, `{"data":[]}`)
			default:
				http.NotFound(w, r)
			}
		}))
		DeferCleanup(upstream.Close)

		configPath = filepath.Join(GinkgoT().TempDir(), "magicprompt.toml")
		Expect(os.WriteFile(configPath, []byte(fmt.Sprintf(`
[backends.ollama]
base_url = %q

[backends.openai]
base_url = %q
`, upstream.URL, upstream.URL)), 0o600)).To(Succeed())
	})

	execute := func(args ...string) (string, error) {
		cmd := NewModelsCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(io.Discard)
		cmd.SetArgs(append(args, "--config", configPath))
		err := cmd.ExecuteContext(context.Background())
		return out.String(), err
	}

	It("prints one model per line, sorted", func() {
		out, err := execute("ollama")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("llama3.2\nllava\n"))
	})

	It("says so when a backend has no models", func() {
		out, err := execute("openai")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("No models found for openai"))
	})

	It("rejects unknown backends", func() {
		_, err := execute("bard")

		Expect(err).To(MatchError(ContainSubstring("unsupported backend")))
	})
})
