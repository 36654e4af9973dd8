package completion

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

type statusKey struct{}

func withStatusHolder(ctx context.Context) context.Context {
	if _, ok := ctx.Value(statusKey{}).(*int); ok {
		return ctx
	}
	var status int
	return context.WithValue(ctx, statusKey{}, &status)
}

// statusDoer records the HTTP status of the last response made under a
// context carrying a status holder.
type statusDoer struct {
	client *http.Client
}

func (d statusDoer) Do(req *http.Request) (*http.Response, error) {
	res, err := d.client.Do(req)
	if err == nil {
		if holder, ok := req.Context().Value(statusKey{}).(*int); ok {
			*holder = res.StatusCode
		}
	}
	return res, err
}

// OpenAIProvider talks to an OpenAI-compatible chat endpoint (Azure OpenAI v1
// included) through langchaingo. The client is built on first use.
type OpenAIProvider struct {
	settings   Settings
	httpClient *http.Client

	once   sync.Once
	llm    llms.Model
	llmErr error
}

type OpenAIOption func(*OpenAIProvider)

func WithHTTPClient(c *http.Client) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.httpClient = c
	}
}

func NewOpenAIProvider(settings Settings, opts ...OpenAIOption) *OpenAIProvider {
	p := &OpenAIProvider{
		settings:   settings,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OpenAIProvider) client() (llms.Model, error) {
	p.once.Do(func() {
		p.llm, p.llmErr = openai.New(
			openai.WithBaseURL(strings.TrimRight(strings.TrimSpace(p.settings.Endpoint), "/")),
			openai.WithToken(strings.TrimSpace(p.settings.APIKey)),
			openai.WithModel(strings.TrimSpace(p.settings.Model)),
			openai.WithHTTPClient(statusDoer{client: p.httpClient}),
		)
	})
	return p.llm, p.llmErr
}

func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	llm, err := p.client()
	if err != nil {
		return "", fmt.Errorf("create openai client: %w", err)
	}
	return llms.GenerateFromSinglePrompt(ctx, llm, prompt)
}

// LastStatus returns the HTTP status seen under ctx, or 0 when the call never
// got a response or the status was a success.
func (p *OpenAIProvider) LastStatus(ctx context.Context) int {
	holder, ok := ctx.Value(statusKey{}).(*int)
	if !ok || *holder < 300 {
		return 0
	}
	return *holder
}
