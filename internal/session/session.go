//go:generate stringer -type=State
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/oklog/ulid/v2"
	"github.com/speaksmart/rt-grammar-wrapper/internal/api"
	"github.com/speaksmart/rt-grammar-wrapper/internal/gate"
	"github.com/speaksmart/rt-grammar-wrapper/internal/recognizer"
)

type State int

const (
	Listening State = iota
	Finalizing
	Closed
)

// ErrClosed is returned when feeding a closed session.
var ErrClosed = errors.New("session closed")

type AudioSaver interface {
	SaveAudio(ctx context.Context, id string, data [][]byte) error
}

// Session owns one live connection's recognizer state. Frames are processed
// strictly in arrival order, frame N+1 is not handled until the emission or
// correction triggered by frame N completed.
type Session struct {
	ID string

	state State
	rec   recognizer.Recognizer
	gate  *gate.Gate
	lock  sync.Mutex

	audioKeeper [][]byte
	audioSaver  AudioSaver

	writeFunc func(msg *api.Event) error
}

func New(rec recognizer.Recognizer, g *gate.Gate, audioSaver AudioSaver, writeFunc func(msg *api.Event) error) *Session {
	return &Session{ID: ulid.Make().String(), state: Listening, rec: rec, gate: g,
		audioSaver: audioSaver, writeFunc: writeFunc}
}

func (s *Session) State() State {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}

// Feed passes one audio frame to the recognizer and emits the resulting
// partial or final event. A recognizer error is fatal to the session.
func (s *Session) Feed(ctx context.Context, frame []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.state == Closed {
		return ErrClosed
	}
	s.keepAudio(frame)

	res, err := s.rec.Feed(ctx, frame)
	if err != nil {
		goapp.Log.Error().Err(err).Str("id", s.ID).Msg("recognizer failed")
		_ = s.writeFunc(&api.Event{Type: api.TypeError, Message: "recognition failed"})
		s.closeLocked(ctx)
		return fmt.Errorf("recognizer: %w", err)
	}
	if !res.Final {
		return s.emit(ctx, &api.Event{Type: api.TypePartial, Text: res.Text})
	}

	s.state = Finalizing
	raw := strings.TrimSpace(res.Text)
	corrected := ""
	if raw != "" {
		corrected = s.gate.CorrectRaw(ctx, raw)
	}
	s.state = Listening
	return s.emit(ctx, &api.Event{Type: api.TypeFinal, Text: raw, Corrected: corrected})
}

// emit drops the event when the connection is gone, a write failure closes the
// session.
func (s *Session) emit(ctx context.Context, msg *api.Event) error {
	if ctx.Err() != nil {
		goapp.Log.Debug().Str("id", s.ID).Msg("discarding event, connection canceled")
		s.closeLocked(ctx)
		return nil
	}
	if err := s.writeFunc(msg); err != nil {
		goapp.Log.Error().Err(err).Str("id", s.ID).Msg("can't send event")
		s.closeLocked(ctx)
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// Close releases recognizer state and stores kept audio. Idempotent.
func (s *Session) Close(ctx context.Context) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.closeLocked(ctx)
}

func (s *Session) closeLocked(ctx context.Context) {
	if s.state == Closed {
		return
	}
	s.state = Closed
	if err := s.rec.Close(); err != nil {
		goapp.Log.Error().Err(err).Str("id", s.ID).Msg("can't close recognizer")
	}
	// the connection context may already be canceled at close time
	s.saveAudio(context.WithoutCancel(ctx))
}

func (s *Session) keepAudio(msg []byte) {
	if s.audioSaver == nil {
		return
	}
	cp := make([]byte, len(msg))
	copy(cp, msg)
	s.audioKeeper = append(s.audioKeeper, cp)
}

func (s *Session) saveAudio(ctx context.Context) {
	if s.audioSaver == nil || len(s.audioKeeper) == 0 {
		return
	}
	if err := s.audioSaver.SaveAudio(ctx, fmt.Sprintf("audio-%s", s.ID), s.audioKeeper); err != nil {
		goapp.Log.Error().Err(err).Str("id", s.ID).Msg("can't save audio")
	}
	s.audioKeeper = nil
}
