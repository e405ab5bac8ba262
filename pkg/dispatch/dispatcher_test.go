package dispatch_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/magicprompt/pkg/dispatch"
	"github.com/papercomputeco/magicprompt/pkg/imaging"
	"github.com/papercomputeco/magicprompt/pkg/llm"
	"github.com/papercomputeco/magicprompt/pkg/translate"
)

type fakeTransport struct {
	calls    int
	endpoint llm.Endpoint
	body     []byte
	response string
	err      error
}

func (f *fakeTransport) Post(_ context.Context, endpoint llm.Endpoint, body any) ([]byte, error) {
	f.calls++
	f.endpoint = endpoint
	data, err := json.Marshal(body)
	Expect(err).NotTo(HaveOccurred())
	f.body = data
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.response), nil
}

type endpointMap map[llm.Backend]string

func (m endpointMap) Resolve(backend llm.Backend, kind llm.EndpointKind) (llm.Endpoint, error) {
	url, ok := m[backend]
	if !ok {
		return llm.Endpoint{}, fmt.Errorf("%w: no endpoint for %s", llm.ErrConfiguration, backend)
	}
	return llm.Endpoint{URL: url}, nil
}

var _ = Describe("Dispatcher", func() {
	var (
		ctx        context.Context
		transport  *fakeTransport
		dispatcher *dispatch.Dispatcher
		endpoints  endpointMap
	)

	BeforeEach(func() {
		ctx = context.Background()
		transport = &fakeTransport{}
		dispatcher = dispatch.New(translate.New(imaging.NewCompressor(nil)), transport, zap.NewNop())
		endpoints = endpointMap{
			llm.BackendOllama:    "http://ollama/api/chat",
			llm.BackendAnthropic: "https://anthropic/v1/messages",
		}
	})

	It("sends the translated body and normalizes the reply", func() {
		transport.response = `{"message":{"role":"assistant","content":"Hi there"}}`

		res := dispatcher.Send(ctx, endpoints, "Ollama", &llm.MessageContent{Text: "Hello"}, "llama3", llm.KindText, translate.NoSeed)

		Expect(res.Success).To(BeTrue())
		Expect(res.Text()).To(Equal("Hi there"))
		Expect(transport.calls).To(Equal(1))
		Expect(transport.endpoint.URL).To(Equal("http://ollama/api/chat"))
		Expect(string(transport.body)).To(ContainSubstring(`"model":"llama3"`))
	})

	It("fails on unknown backends without calling out", func() {
		res := dispatcher.Send(ctx, endpoints, "unknown", &llm.MessageContent{Text: "Hello"}, "m", llm.KindText, translate.NoSeed)

		Expect(res.Success).To(BeFalse())
		Expect(res.Message()).To(ContainSubstring("unsupported backend"))
		Expect(transport.calls).To(Equal(0))
	})

	It("fails on a missing endpoint", func() {
		res := dispatcher.Send(ctx, endpoints, "openrouter", &llm.MessageContent{Text: "Hello"}, "m", llm.KindText, translate.NoSeed)

		Expect(res.Success).To(BeFalse())
		Expect(res.Message()).To(ContainSubstring("configuration error"))
		Expect(transport.calls).To(Equal(0))
	})

	It("fails without an endpoint map", func() {
		res := dispatcher.Send(ctx, nil, "ollama", &llm.MessageContent{Text: "Hello"}, "m", llm.KindText, translate.NoSeed)

		Expect(res.Success).To(BeFalse())
		Expect(transport.calls).To(Equal(0))
	})

	It("fails on invalid arguments without calling out", func() {
		res := dispatcher.Send(ctx, endpoints, "ollama", nil, "llama3", llm.KindText, translate.NoSeed)

		Expect(res.Success).To(BeFalse())
		Expect(res.Message()).To(ContainSubstring("invalid argument"))
		Expect(transport.calls).To(Equal(0))
	})

	It("converts transport errors to a failed result", func() {
		transport.err = fmt.Errorf("%w: upstream returned 502:\nbad gateway", llm.ErrTransport)

		res := dispatcher.Send(ctx, endpoints, "anthropic", &llm.MessageContent{Text: "Hello"}, "claude", llm.KindText, translate.NoSeed)

		Expect(res.Success).To(BeFalse())
		Expect(res.Response).To(BeNil())
		Expect(res.Message()).To(Equal("transport error: upstream returned 502: bad gateway"))
	})

	It("reports malformed responses", func() {
		transport.response = `{"unexpected":true}`

		res := dispatcher.Send(ctx, endpoints, "anthropic", &llm.MessageContent{Text: "Hello"}, "claude", llm.KindText, translate.NoSeed)

		Expect(res.Success).To(BeFalse())
		Expect(res.Message()).To(Equal("malformed response"))
	})

	It("uses the translator it was given", func() {
		failing := translatorFunc(func(string, *llm.MessageContent, string, llm.MessageKind, int) (translate.RequestBody, error) {
			return nil, errors.New("boom")
		})
		d := dispatch.New(failing, transport, nil)

		res := d.Send(ctx, endpoints, "ollama", &llm.MessageContent{Text: "x"}, "m", llm.KindText, translate.NoSeed)

		Expect(res.Message()).To(Equal("boom"))
		Expect(transport.calls).To(Equal(0))
	})
})

type translatorFunc func(string, *llm.MessageContent, string, llm.MessageKind, int) (translate.RequestBody, error)

func (f translatorFunc) Translate(backend string, content *llm.MessageContent, model string, kind llm.MessageKind, seed int) (translate.RequestBody, error) {
	return f(backend, content, model, kind, seed)
}
