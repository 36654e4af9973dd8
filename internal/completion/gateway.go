package completion

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/noventrax/tutor/internal/reliability"
	"github.com/noventrax/tutor/internal/transcript"
)

const (
	MsgNotConfigured = "Completion provider is not configured. Set ENDPOINT and API_KEY."
	MsgMissingModel  = "Missing MODEL (set this to your deployment name)."

	defaultTimeout = 60 * time.Second
)

// Settings identify the remote provider. They come from the environment.
type Settings struct {
	Endpoint string
	APIKey   string
	Model    string
}

// Provider turns one prompt into generated text.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// statusReporter is implemented by providers that can tell which HTTP status
// the failed call ended with.
type statusReporter interface {
	LastStatus(ctx context.Context) int
}

// Gateway validates provider settings, formats the transcript and calls the provider.
type Gateway struct {
	settings         Settings
	provider         Provider
	timeout          time.Duration
	checkCredentials bool
}

func NewGateway(settings Settings, provider Provider, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Gateway{
		settings: Settings{
			Endpoint: strings.TrimSpace(settings.Endpoint),
			APIKey:   strings.TrimSpace(settings.APIKey),
			Model:    strings.TrimSpace(settings.Model),
		},
		provider:         provider,
		timeout:          timeout,
		checkCredentials: true,
	}
}

// FormatPrompt renders turns as newline-separated "role: content" lines.
func FormatPrompt(turns []transcript.Turn) string {
	lines := lo.Map(turns, func(t transcript.Turn, _ int) string {
		return string(t.Role) + ": " + t.Content
	})
	return strings.Join(lines, "\n")
}

// Validate reports the configuration error Complete would return, if any.
func (g *Gateway) Validate() error {
	if !g.checkCredentials {
		return nil
	}
	if g.settings.Endpoint == "" || g.settings.APIKey == "" {
		return newConfigError(MsgNotConfigured)
	}
	if g.settings.Model == "" {
		return newConfigError(MsgMissingModel)
	}
	return nil
}

// Complete sends the transcript to the provider under the gateway timeout and
// returns the generated text verbatim. It never retries.
func (g *Gateway) Complete(ctx context.Context, turns []transcript.Turn) (string, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}
	if g.provider == nil {
		return "", newConfigError(MsgNotConfigured)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	ctx = withStatusHolder(ctx)

	text, err := g.provider.Complete(ctx, FormatPrompt(turns))
	if err != nil {
		status := 0
		if sr, ok := g.provider.(statusReporter); ok {
			status = sr.LastStatus(ctx)
		}
		var perr *Error
		if errors.As(err, &perr) {
			return "", perr
		}
		return "", newProviderError(err, status, reliability.Classify(status, err))
	}
	return text, nil
}

func (g *Gateway) Settings() Settings { return g.settings }
