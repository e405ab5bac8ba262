package transport_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/magicprompt/pkg/llm"
	"github.com/papercomputeco/magicprompt/pkg/transport"
)

var _ = Describe("HTTP transport", func() {
	var (
		server   *httptest.Server
		handler  http.HandlerFunc
		tr       *transport.HTTP
		ctx      context.Context
		received *http.Request
		body     string
	)

	BeforeEach(func() {
		ctx = context.Background()
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"ok":true}`))
		}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received = r
			data, _ := io.ReadAll(r.Body)
			body = string(data)
			handler(w, r)
		}))
		tr = transport.New(nil, zap.NewNop())
	})

	AfterEach(func() {
		server.Close()
	})

	It("posts JSON with endpoint headers", func() {
		endpoint := llm.Endpoint{
			URL:     server.URL + "/api/chat",
			Headers: map[string]string{"Authorization": "Bearer k"},
		}

		resp, err := tr.Post(ctx, endpoint, map[string]any{"model": "llama3"})

		Expect(err).NotTo(HaveOccurred())
		Expect(string(resp)).To(Equal(`{"ok":true}`))
		Expect(received.Method).To(Equal(http.MethodPost))
		Expect(received.URL.Path).To(Equal("/api/chat"))
		Expect(received.Header.Get("Content-Type")).To(Equal("application/json"))
		Expect(received.Header.Get("Authorization")).To(Equal("Bearer k"))
		Expect(body).To(MatchJSON(`{"model":"llama3"}`))
	})

	It("gets without a body", func() {
		resp, err := tr.Get(ctx, llm.Endpoint{URL: server.URL + "/api/tags"})

		Expect(err).NotTo(HaveOccurred())
		Expect(string(resp)).To(Equal(`{"ok":true}`))
		Expect(received.Method).To(Equal(http.MethodGet))
		Expect(body).To(BeEmpty())
	})

	It("wraps non-2xx statuses as transport errors", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("{\"error\":\n\"bad key\"}"))
		}

		_, err := tr.Post(ctx, llm.Endpoint{URL: server.URL}, map[string]any{})

		Expect(err).To(MatchError(llm.ErrTransport))
		Expect(err.Error()).To(ContainSubstring("upstream returned 401"))
		Expect(err.Error()).NotTo(ContainSubstring("\n"))
	})

	It("wraps connection failures as transport errors", func() {
		url := server.URL
		server.Close()

		_, err := tr.Post(ctx, llm.Endpoint{URL: url}, map[string]any{})

		Expect(err).To(MatchError(llm.ErrTransport))
	})

	It("truncates long error bodies", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(strings.Repeat("x", 2048)))
		}

		_, err := tr.Get(ctx, llm.Endpoint{URL: server.URL})

		Expect(err).To(HaveOccurred())
		Expect(len(err.Error())).To(BeNumerically("<", 700))
	})

	It("cuts long error bodies on a rune boundary", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("x" + strings.Repeat("é", 1000)))
		}

		_, err := tr.Get(ctx, llm.Endpoint{URL: server.URL})

		Expect(err).To(HaveOccurred())
		Expect(utf8.ValidString(err.Error())).To(BeTrue())
		Expect(err.Error()).To(HaveSuffix("é..."))
	})

	It("honors context cancellation", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}
		cctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		_, err := tr.Post(cctx, llm.Endpoint{URL: server.URL}, map[string]any{})

		Expect(err).To(MatchError(llm.ErrTransport))
	})
})
