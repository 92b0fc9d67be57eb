package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/speaksmart/rt-grammar-wrapper/internal/api"
	"github.com/speaksmart/rt-grammar-wrapper/internal/corrector"
	"github.com/speaksmart/rt-grammar-wrapper/internal/gate"
	"github.com/speaksmart/rt-grammar-wrapper/internal/recognizer"
)

type eventSink struct {
	mu     sync.Mutex
	events []*api.Event
}

func (s *eventSink) write(msg *api.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, msg)
	return nil
}

func (s *eventSink) all() []*api.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*api.Event{}, s.events...)
}

type audioRecorder struct {
	mu     sync.Mutex
	id     string
	chunks [][]byte
	calls  int
}

func (a *audioRecorder) SaveAudio(_ context.Context, id string, data [][]byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.id = id
	a.chunks = data
	a.calls++
	return nil
}

func newTestGate() *gate.Gate {
	return gate.New(&corrector.Mock{}, 0)
}

func TestSession_PartialThenFinalOrder(t *testing.T) {
	rec := &recognizer.Mock{Script: []recognizer.MockStep{
		{Res: recognizer.Result{Text: "hel"}},
		{Res: recognizer.Result{Text: "hello wor"}},
		{Res: recognizer.Result{Final: true, Text: "hello world"}},
	}}
	sink := &eventSink{}
	s := New(rec, newTestGate(), nil, sink.write)

	for i := 0; i < 3; i++ {
		if err := s.Feed(context.Background(), []byte{0, 0}); err != nil {
			t.Fatalf("Feed() failed: %v", err)
		}
	}

	events := sink.all()
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	wantTypes := []string{api.TypePartial, api.TypePartial, api.TypeFinal}
	for i, e := range events {
		if e.Type != wantTypes[i] {
			t.Errorf("event %d type = %s, want %s", i, e.Type, wantTypes[i])
		}
	}
	if events[0].Text != "hel" || events[1].Text != "hello wor" {
		t.Errorf("partial texts = %q, %q", events[0].Text, events[1].Text)
	}
	if events[2].Text != "hello world" {
		t.Errorf("final raw = %q, want %q", events[2].Text, "hello world")
	}
	if events[2].Corrected != "Hello world." {
		t.Errorf("final corrected = %q, want %q", events[2].Corrected, "Hello world.")
	}
	if s.State() != Listening {
		t.Errorf("state = %s, want Listening", s.State())
	}
}

func TestSession_Isolation(t *testing.T) {
	mkSession := func(text string) (*Session, *eventSink) {
		rec := &recognizer.Mock{Script: []recognizer.MockStep{
			{Res: recognizer.Result{Text: "..."}},
			{Res: recognizer.Result{Final: true, Text: text}},
		}}
		sink := &eventSink{}
		return New(rec, newTestGate(), nil, sink.write), sink
	}
	sa, sinkA := mkSession("session a text")
	sb, sinkB := mkSession("session b text")

	wg := &sync.WaitGroup{}
	wg.Add(2)
	feed := func(s *Session) {
		defer wg.Done()
		for i := 0; i < 2; i++ {
			if err := s.Feed(context.Background(), []byte{1}); err != nil {
				t.Errorf("Feed() failed: %v", err)
			}
		}
	}
	go feed(sa)
	go feed(sb)
	wg.Wait()

	finalOf := func(sink *eventSink) string {
		for _, e := range sink.all() {
			if e.Type == api.TypeFinal {
				return e.Text
			}
		}
		return ""
	}
	if got := finalOf(sinkA); got != "session a text" {
		t.Errorf("session A final = %q", got)
	}
	if got := finalOf(sinkB); got != "session b text" {
		t.Errorf("session B final = %q", got)
	}
}

func TestSession_RecognizerErrorIsFatal(t *testing.T) {
	rec := &recognizer.Mock{Script: []recognizer.MockStep{
		{Err: errors.New("decoder crashed")},
	}}
	sink := &eventSink{}
	s := New(rec, newTestGate(), nil, sink.write)

	err := s.Feed(context.Background(), []byte{0})
	if err == nil {
		t.Fatal("Feed() succeeded unexpectedly")
	}
	if s.State() != Closed {
		t.Errorf("state = %s, want Closed", s.State())
	}
	if !rec.Closed() {
		t.Error("recognizer not released")
	}
	events := sink.all()
	if len(events) != 1 || events[0].Type != api.TypeError {
		t.Errorf("events = %v, want single error event", events)
	}
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	rec := &recognizer.Mock{}
	s := New(rec, newTestGate(), nil, func(msg *api.Event) error { return nil })

	s.Close(context.Background())
	s.Close(context.Background())
	if s.State() != Closed {
		t.Errorf("state = %s, want Closed", s.State())
	}
	if err := s.Feed(context.Background(), []byte{0}); !errors.Is(err, ErrClosed) {
		t.Errorf("Feed() after close = %v, want ErrClosed", err)
	}
}

func TestSession_DiscardsEventsAfterCancel(t *testing.T) {
	rec := &recognizer.Mock{Script: []recognizer.MockStep{
		{Res: recognizer.Result{Final: true, Text: "late result"}},
	}}
	sink := &eventSink{}
	s := New(rec, newTestGate(), nil, sink.write)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Feed(ctx, []byte{0}); err != nil {
		t.Fatalf("Feed() failed: %v", err)
	}
	if len(sink.all()) != 0 {
		t.Errorf("events = %v, want none after cancel", sink.all())
	}
	if s.State() != Closed {
		t.Errorf("state = %s, want Closed", s.State())
	}
}

func TestSession_SavesAudioOnClose(t *testing.T) {
	rec := &recognizer.Mock{Script: []recognizer.MockStep{
		{Res: recognizer.Result{Text: "a"}},
		{Res: recognizer.Result{Text: "ab"}},
	}}
	saver := &audioRecorder{}
	s := New(rec, newTestGate(), saver, func(msg *api.Event) error { return nil })

	_ = s.Feed(context.Background(), []byte{1, 2})
	_ = s.Feed(context.Background(), []byte{3, 4})
	s.Close(context.Background())
	s.Close(context.Background())

	if saver.calls != 1 {
		t.Fatalf("SaveAudio calls = %d, want 1", saver.calls)
	}
	if len(saver.chunks) != 2 {
		t.Errorf("chunks = %d, want 2", len(saver.chunks))
	}
	if !strings.HasPrefix(saver.id, "audio-") {
		t.Errorf("id = %q, want audio- prefix", saver.id)
	}
}
