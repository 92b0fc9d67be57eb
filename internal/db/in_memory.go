package db

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/speaksmart/rt-grammar-wrapper/internal/api"
)

type MemBuffer struct {
	buf []byte
	pos int64
}

func (m *MemBuffer) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		newBuf := make([]byte, end)
		copy(newBuf, m.buf)
		m.buf = newBuf
	}
	copy(m.buf[m.pos:], p)
	m.pos = end
	return len(p), nil
}

func (m *MemBuffer) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = m.pos + offset
	case io.SeekEnd:
		newPos = int64(len(m.buf)) + offset
	}
	if newPos < 0 {
		return 0, fmt.Errorf("negative position")
	}
	m.pos = newPos
	return newPos, nil
}

func (m *MemBuffer) Bytes() []byte {
	return m.buf
}

// MemoryDataManager keeps session audio and corrected transcripts in memory.
type MemoryDataManager struct {
	audio       map[string][]byte
	transcripts map[string]*api.CorrectedTranscript

	lock sync.RWMutex
}

func NewMemoryDataManager() *MemoryDataManager {
	return &MemoryDataManager{
		audio:       make(map[string][]byte),
		transcripts: make(map[string]*api.CorrectedTranscript),
	}
}

func (am *MemoryDataManager) SaveAudio(ctx context.Context, id string, chunks [][]byte) error {
	goapp.Log.Debug().Str("id", id).Msg("Save audio")
	am.lock.Lock()
	defer am.lock.Unlock()

	res, err := to_wav(chunks)
	if err != nil {
		return fmt.Errorf("to wav: %w", err)
	}
	am.audio[id] = res
	return nil
}

func (am *MemoryDataManager) GetAudio(ctx context.Context, id string) ([]byte, error) {
	goapp.Log.Debug().Str("id", id).Msg("Getting audio")
	am.lock.RLock()
	defer am.lock.RUnlock()
	data, ok := am.audio[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// SaveTranscript implements service.TranscriptStore.
func (am *MemoryDataManager) SaveTranscript(ctx context.Context, data *api.CorrectedTranscript) error {
	am.lock.Lock()
	defer am.lock.Unlock()
	am.transcripts[data.ID] = data
	return nil
}

// GetTranscript implements service.TranscriptStore.
func (am *MemoryDataManager) GetTranscript(ctx context.Context, id string) (*api.CorrectedTranscript, error) {
	am.lock.RLock()
	defer am.lock.RUnlock()
	data, ok := am.transcripts[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	cp := *data
	return &cp, nil
}

func to_wav(chunks [][]byte) ([]byte, error) {
	var pcmData bytes.Buffer
	for _, chunk := range chunks {
		pcmData.Write(chunk)
	}

	raw := pcmData.Bytes()
	samples := make([]int, len(raw)/2)
	for i := 0; i < len(samples); i++ {
		samples[i] = int(int16(raw[2*i]) | int16(raw[2*i+1])<<8)
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  16000,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}

	wavBuf := &MemBuffer{buf: make([]byte, 0)}
	enc := wav.NewEncoder(wavBuf, 16000, 16, 1, 1)
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close wav: %w", err)
	}

	return wavBuf.Bytes(), nil
}
