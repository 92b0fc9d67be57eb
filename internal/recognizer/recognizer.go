package recognizer

import "context"

// Result is one recognizer response for a fed audio frame.
type Result struct {
	// Final marks an utterance boundary. Text after it is immutable and the
	// recognizer's accumulation window resets.
	Final bool
	Text  string
}

// Recognizer accumulates acoustic evidence frame by frame. One instance per
// session, never shared.
type Recognizer interface {
	Feed(ctx context.Context, frame []byte) (Result, error)
	Close() error
}

// Factory creates a fresh recognizer for a new session.
type Factory func(ctx context.Context) (Recognizer, error)
