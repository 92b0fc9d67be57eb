package corrector

import (
	"context"
	"fmt"
	"sync"
)

// Mock is a deterministic in-memory corrector for tests and local runs.
type Mock struct {
	// Replies maps input sentence to corrected output. Unmapped input is
	// returned unchanged.
	Replies map[string]string
	// FailOn lists inputs for which Correct returns an error.
	FailOn map[string]bool

	mu    sync.Mutex
	calls []string
}

func (m *Mock) Correct(_ context.Context, text string, _ int) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()
	if m.FailOn[text] {
		return "", fmt.Errorf("corrector failure on %q", text)
	}
	if r, ok := m.Replies[text]; ok {
		return r, nil
	}
	return text, nil
}

// Calls returns inputs received so far, in order.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make([]string, len(m.calls))
	copy(res, m.calls)
	return res
}
