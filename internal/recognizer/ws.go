package recognizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/gorilla/websocket"
)

// WSRecognizer feeds PCM frames to a backend ASR service over a WebSocket.
// The backend answers every binary frame with one JSON message: a partial
// hypothesis or a finalized utterance.
type WSRecognizer struct {
	conn *websocket.Conn
}

// NewWSFactory returns a factory dialing the backend ASR URL per session.
func NewWSFactory(url string) (Factory, error) {
	if url == "" {
		return nil, fmt.Errorf("no url")
	}
	goapp.Log.Info().Str("be url", url).Send()
	return func(ctx context.Context) (Recognizer, error) {
		c, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			return nil, fmt.Errorf("can't dial to URL: %w", err)
		}
		return &WSRecognizer{conn: c}, nil
	}, nil
}

type wsResult struct {
	Partial *string `json:"partial,omitempty"`
	Text    *string `json:"text,omitempty"`
}

func (r *WSRecognizer) Feed(ctx context.Context, frame []byte) (Result, error) {
	if err := r.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return Result{}, fmt.Errorf("write frame: %w", err)
	}
	_, msg, err := r.conn.ReadMessage()
	if err != nil {
		return Result{}, fmt.Errorf("read result: %w", err)
	}
	var res wsResult
	if err := json.Unmarshal(msg, &res); err != nil {
		return Result{}, fmt.Errorf("decode result: %w", err)
	}
	if res.Text != nil {
		return Result{Final: true, Text: strings.TrimSpace(*res.Text)}, nil
	}
	if res.Partial != nil {
		return Result{Text: *res.Partial}, nil
	}
	return Result{}, nil
}

func (r *WSRecognizer) Close() error {
	return r.conn.Close()
}
