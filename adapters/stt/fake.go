package stt

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/meomirror/server/domain/repositories"
)

// FakeSpeechToText returns scripted transcripts in order, then empty strings.
// Used in tests and when running without recognition credentials.
type FakeSpeechToText struct {
	mu      sync.Mutex
	script  []string
	err     error
	logger  *zap.Logger
}

// NewFakeSpeechToText creates a fake that replays script one call at a time.
func NewFakeSpeechToText(script []string, err error, logger *zap.Logger) *FakeSpeechToText {
	return &FakeSpeechToText{script: script, err: err, logger: logger}
}

// TranscribeAudio implements repositories.SpeechToText
func (f *FakeSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return "", f.err
	}

	f.logger.Debug("Fake transcription",
		zap.Int("audioSize", len(audioData)),
		zap.Int("remaining", len(f.script)))

	if len(f.script) == 0 {
		return "", nil
	}
	text := f.script[0]
	f.script = f.script[1:]
	return text, nil
}
