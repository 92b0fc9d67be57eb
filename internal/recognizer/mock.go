package recognizer

import (
	"context"
	"sync"
)

// MockStep scripts one Feed response.
type MockStep struct {
	Res Result
	Err error
}

// Mock replays a scripted sequence of recognizer responses, one per fed frame.
// After the script is exhausted it keeps returning empty partials.
type Mock struct {
	Script []MockStep

	mu     sync.Mutex
	pos    int
	closed bool
}

func (m *Mock) Feed(_ context.Context, _ []byte) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pos >= len(m.Script) {
		return Result{}, nil
	}
	step := m.Script[m.pos]
	m.pos++
	return step.Res, step.Err
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
