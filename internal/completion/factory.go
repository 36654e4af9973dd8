package completion

import (
	"fmt"
	"strings"
	"time"
)

// Config controls gateway construction.
type Config struct {
	Mode     string
	Settings Settings
	Timeout  time.Duration
}

// New builds a gateway for the configured provider mode. The mock mode skips
// credential checks; every other mode reports missing settings per request.
func New(cfg Config) (*Gateway, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "openai"
	}

	switch mode {
	case "openai":
		return NewGateway(cfg.Settings, NewOpenAIProvider(cfg.Settings), cfg.Timeout), nil
	case "mock":
		g := NewGateway(cfg.Settings, NewMockProvider(), cfg.Timeout)
		g.checkCredentials = false
		return g, nil
	default:
		return nil, fmt.Errorf("unsupported provider mode %q", cfg.Mode)
	}
}
