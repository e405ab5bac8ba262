package mcptools_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/papercomputeco/magicprompt/pkg/config"
	"github.com/papercomputeco/magicprompt/pkg/dispatch"
	"github.com/papercomputeco/magicprompt/pkg/imaging"
	"github.com/papercomputeco/magicprompt/pkg/magicprompt"
	"github.com/papercomputeco/magicprompt/pkg/mcptools"
	"github.com/papercomputeco/magicprompt/pkg/models"
	"github.com/papercomputeco/magicprompt/pkg/translate"
	"github.com/papercomputeco/magicprompt/pkg/transport"
)

func textOf(res *mcp.CallToolResult) string {
	ExpectWithOffset(1, res.Content).To(HaveLen(1))
	text, ok := res.Content[0].(*mcp.TextContent)
	ExpectWithOffset(1, ok).To(BeTrue())
	return text.Text
}

var _ = Describe("Tools", func() {
	var (
		ctx      context.Context
		lastBody []byte
		session  *mcp.ClientSession
	)

	BeforeEach(func() {
		ctx = context.Background()
		lastBody = nil

		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			switch r.URL.Path {
			case "/api/tags":
				fmt.Fprint(w, `{"models":[{"name":"llava"},{"name":"llama3.2"}]}`)
			default:
				body, err := io.ReadAll(r.Body)
				Expect(err).NotTo(HaveOccurred())
				lastBody = body
				fmt.Fprint(w, `{"message":{"role":"assistant","content":"a fox at dawn"}}`)
			}
		}))
		DeferCleanup(upstream.Close)

		cfg, err := config.Parse(fmt.Sprintf("[backends.ollama]\nbase_url = %q\n", upstream.URL))
		Expect(err).NotTo(HaveOccurred())
		settings := func() *config.Config { return cfg }

		log := zap.NewNop()
		httpTransport := transport.New(nil, log)
		dispatcher := dispatch.New(translate.New(imaging.NewCompressor(log)), httpTransport, log)
		service := magicprompt.NewService(dispatcher, settings, log)
		lister := models.NewLister(httpTransport, log)

		server := mcptools.NewServer(service, lister, settings, log)
		serverTransport, clientTransport := mcp.NewInMemoryTransports()
		serverSession, err := server.Connect(ctx, serverTransport, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = serverSession.Close() })

		client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
		session, err = client.Connect(ctx, clientTransport, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = session.Close() })
	})

	It("advertises both tools", func() {
		res, err := session.ListTools(ctx, &mcp.ListToolsParams{})
		Expect(err).NotTo(HaveOccurred())

		names := make([]string, 0, len(res.Tools))
		for _, tool := range res.Tools {
			names = append(names, tool.Name)
		}
		Expect(names).To(ConsistOf(mcptools.RunActionTool, mcptools.ListModelsTool))
	})

	It("runs an action through the service", func() {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      mcptools.RunActionTool,
			Arguments: map[string]any{"action": "prompt", "input": "a fox", "seed": 7},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.IsError).To(BeFalse())
		Expect(textOf(res)).To(Equal("a fox at dawn"))
		Expect(gjson.GetBytes(lastBody, "messages.1.content").String()).To(Equal("a fox"))
		Expect(gjson.GetBytes(lastBody, "options.seed").Int()).To(BeEquivalentTo(7))
	})

	It("reports a failed action as a tool error", func() {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      mcptools.RunActionTool,
			Arguments: map[string]any{"action": "summarize", "input": "x"},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.IsError).To(BeTrue())
		Expect(textOf(res)).To(ContainSubstring("unknown action"))
		Expect(lastBody).To(BeNil())
	})

	It("lists models one per line", func() {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      mcptools.ListModelsTool,
			Arguments: map[string]any{"backend": "ollama"},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.IsError).To(BeFalse())
		Expect(textOf(res)).To(Equal("llama3.2\nllava"))
	})

	It("reports an unknown backend as a tool error", func() {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      mcptools.ListModelsTool,
			Arguments: map[string]any{"backend": "bard"},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.IsError).To(BeTrue())
	})
})
