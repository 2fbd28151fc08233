package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/meomirror/server/domain/entities"
	"github.com/meomirror/server/domain/repositories"
	"github.com/meomirror/server/internal/capture"
)

const (
	transcribeTimeout = 15 * time.Second
	dropReportPeriod  = 30 * time.Second
)

// ListenerConfig describes the capture format feeding the listener.
type ListenerConfig struct {
	SampleRate   int
	Channels     int
	ChunkSeconds int
	Language     string
	Encoding     string
}

// ListenerService runs the recognition path: it drains the capture hand-off
// queue, assembles fixed-duration chunks, transcribes them one at a time and
// feeds the wake machine. Only one transcription is ever in flight.
type ListenerService struct {
	queue    *capture.FrameQueue
	acc      *capture.Accumulator
	stt      repositories.SpeechToText
	machine  *WakeMachine
	commands *CommandService
	config   ListenerConfig
	logger   *zap.Logger
}

// NewListenerService creates the listener.
func NewListenerService(
	queue *capture.FrameQueue,
	stt repositories.SpeechToText,
	machine *WakeMachine,
	commands *CommandService,
	config ListenerConfig,
	logger *zap.Logger,
) *ListenerService {
	return &ListenerService{
		queue:    queue,
		acc:      capture.NewAccumulator(config.SampleRate, config.Channels, config.ChunkSeconds),
		stt:      stt,
		machine:  machine,
		commands: commands,
		config:   config,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled. Frames lost to a full queue are only a
// log line; they are never an error.
func (s *ListenerService) Run(ctx context.Context) error {
	ticker := time.NewTicker(dropReportPeriod)
	defer ticker.Stop()

	var reportedDrops uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			if dropped := s.queue.Dropped(); dropped > reportedDrops {
				s.logger.Warn("Capture frames dropped",
					zap.Uint64("dropped", dropped-reportedDrops),
					zap.Uint64("total", dropped))
				reportedDrops = dropped
			}

		case frame := <-s.queue.Frames():
			chunk, complete := s.acc.Add(frame)
			if !complete {
				continue
			}
			s.processChunk(ctx, chunk)
		}
	}
}

// processChunk makes exactly one transcription attempt for the chunk and
// dispatches whatever the wake machine decides.
func (s *ListenerService) processChunk(ctx context.Context, chunk []byte) {
	tctx, cancel := context.WithTimeout(ctx, transcribeTimeout)
	defer cancel()

	text, err := s.stt.TranscribeAudio(tctx, chunk, repositories.AudioConfig{
		SampleRate: s.config.SampleRate,
		Encoding:   s.config.Encoding,
		Language:   s.config.Language,
	})

	transcript := entities.TranscriptResult{
		Text: text,
		OK:   err == nil && strings.TrimSpace(text) != "",
	}
	if err != nil {
		// Unintelligible audio and provider failures look the same from
		// here: no input.
		s.logger.Debug("Transcription failed", zap.Error(err))
	} else if transcript.OK {
		s.logger.Info("Heard", zap.String("text", text))
	}

	for _, command := range s.machine.Observe(transcript) {
		result := s.commands.Dispatch(ctx, command)
		if !result.OK {
			s.logger.Warn("Command dispatch failed",
				zap.String("command", string(command.Kind)),
				zap.String("error", result.Err))
		}
	}
}
