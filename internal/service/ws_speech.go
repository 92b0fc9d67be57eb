package service

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/gorilla/websocket"

	"github.com/speaksmart/rt-grammar-wrapper/internal/api"
	"github.com/speaksmart/rt-grammar-wrapper/internal/gate"
	"github.com/speaksmart/rt-grammar-wrapper/internal/recognizer"
	"github.com/speaksmart/rt-grammar-wrapper/internal/session"
)

// WSSpeechHandler implements streaming connection management
type WSSpeechHandler struct {
	recFactory recognizer.Factory
	gate       *gate.Gate
	audioSaver session.AudioSaver
}

// NewWSSpeechHandler creates handler
func NewWSSpeechHandler(recFactory recognizer.Factory, g *gate.Gate, audioSaver session.AudioSaver) *WSSpeechHandler {
	return &WSSpeechHandler{recFactory: recFactory, gate: g, audioSaver: audioSaver}
}

// HandleConnection runs one transcription session over the connection.
// Binary frames are audio, everything else is transport-level control and does
// not touch recognizer state.
func (kp *WSSpeechHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()

	rec, err := kp.recFactory(ctx)
	if err != nil {
		goapp.Log.Error().Err(err).Msg("can't create recognizer")
		_ = conn.WriteJSON(&api.Event{Type: api.TypeError, Message: "can't start recognizer"})
		return err
	}

	closeCtx, cf := context.WithCancel(ctx)
	defer cf()

	wLock := &sync.Mutex{}
	writeFunc := func(msg *api.Event) error {
		wLock.Lock()
		defer wLock.Unlock()
		return conn.WriteJSON(msg)
	}

	sess := session.New(rec, kp.gate, kp.audioSaver, writeFunc)
	defer sess.Close(closeCtx)
	goapp.Log.Info().Str("id", sess.ID).Msg("session started")

	readCh := readWebSocket(closeCtx, conn)
loop:
	for {
		var d wsData
		var ok bool
		select {
		case <-closeCtx.Done():
			goapp.Log.Info().Msg("context canceled")
			break loop
		case d, ok = <-readCh:
			if !ok {
				goapp.Log.Info().Msg("channel closed")
				break loop
			}
			if d.t != websocket.BinaryMessage {
				goapp.Log.Debug().Int("type", d.t).Msg("skip control frame")
				continue
			}
			if err := sess.Feed(closeCtx, d.msg); err != nil {
				goapp.Log.Error().Err(err).Str("id", sess.ID).Msg("session ended")
				break loop
			}
		}
	}
	goapp.Log.Info().Str("id", sess.ID).Msg("handleConnection finish")
	return nil
}

type wsData struct {
	t   int
	msg []byte
}

func readWebSocket(ctx context.Context, in *websocket.Conn) <-chan wsData {
	resCh := make(chan wsData)
	go func() {
		defer close(resCh)
		defer goapp.Log.Debug().Msg("read routine ended")
		for {
			mType, message, err := in.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) ||
					errors.Is(err, net.ErrClosed) {
					goapp.Log.Info().Msg("connection closed")
					return
				}
				goapp.Log.Error().Err(err).Send()
				return
			}
			msg := wsData{t: mType, msg: message}

			select {
			case resCh <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return resCh
}
