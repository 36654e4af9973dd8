package completion

import (
	"context"
	"fmt"
	"strings"
)

// MockProvider returns deterministic replies for local development.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (p *MockProvider) Complete(ctx context.Context, prompt string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	lines := strings.Split(prompt, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if rest, ok := strings.CutPrefix(lines[i], "user: "); ok {
			return fmt.Sprintf("I heard you: %s", strings.TrimSpace(rest)), nil
		}
	}
	return "I am listening.", nil
}
