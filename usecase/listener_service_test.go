package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/meomirror/server/adapters/stt"
	"github.com/meomirror/server/domain/entities"
	"github.com/meomirror/server/internal/bus"
	"github.com/meomirror/server/internal/capture"
	"github.com/meomirror/server/internal/state"
)

// Tiny capture format keeps chunks at 8 bytes.
var testListenerConfig = ListenerConfig{
	SampleRate:   4,
	Channels:     1,
	ChunkSeconds: 1,
	Language:     "vi-VN",
	Encoding:     "LINEAR16",
}

func newTestListener(t *testing.T, script []string, sttErr error) (*ListenerService, *state.Store, *bus.Bus) {
	t.Helper()
	b := bus.NewBus(64, zap.NewNop())
	store := state.NewStore(entities.DeviceState{Device: "mirror-1"}, b, zap.NewNop())
	commands := NewCommandService(store, &fakeWeather{}, &fakeImages{url: "https://picsum.photos/512?random=7"}, zap.NewNop())
	machine := NewWakeMachine("mèo ơi", testWakeTimeout, zap.NewNop())
	queue := capture.NewFrameQueue(8)
	listener := NewListenerService(queue, stt.NewFakeSpeechToText(script, sttErr, zap.NewNop()), machine, commands, testListenerConfig, zap.NewNop())
	return listener, store, b
}

func TestListener_WakeScenario(t *testing.T) {
	listener, store, b := newTestListener(t, []string{"mèo ơi"}, nil)
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)
	drain(sub)

	listener.processChunk(context.Background(), make([]byte, 8))

	if snap := store.Snapshot(); !snap.VoiceMode {
		t.Error("wake phrase must set voice_mode true")
	}
	if got := drain(sub); got != 1 {
		t.Errorf("wake phrase must publish exactly one snapshot, got %d", got)
	}
}

func TestListener_CommandScenario(t *testing.T) {
	listener, store, b := newTestListener(t, []string{"mèo ơi", "tạo tranh"}, nil)
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)
	drain(sub)

	listener.processChunk(context.Background(), make([]byte, 8)) // arms
	drain(sub)
	listener.processChunk(context.Background(), make([]byte, 8)) // generates, deactivates

	snap := store.Snapshot()
	if snap.GeneratedImage == "" {
		t.Error("expected a non-empty artifact reference after the command")
	}
	if snap.VoiceMode {
		t.Error("expected voice_mode false after the command closed the window")
	}
	if got := drain(sub); got > 2 {
		t.Errorf("generate then deactivate must publish at most two snapshots, got %d", got)
	}
}

func TestListener_RecognitionFailureIgnored(t *testing.T) {
	listener, store, b := newTestListener(t, nil, errors.New("provider unavailable"))
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)
	drain(sub)

	listener.processChunk(context.Background(), make([]byte, 8))

	if got := drain(sub); got != 0 {
		t.Errorf("a failed transcription must not publish, got %d snapshots", got)
	}
	if store.Snapshot().VoiceMode {
		t.Error("a failed transcription must not change state")
	}
}

func TestListener_RunAssemblesChunksFromQueue(t *testing.T) {
	listener, store, b := newTestListener(t, []string{"mèo ơi"}, nil)
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)
	drain(sub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- listener.Run(ctx) }()

	// Two 4-byte frames complete one 8-byte chunk.
	listener.queue.TryPush(make([]byte, 4))
	listener.queue.TryPush(make([]byte, 4))

	select {
	case <-sub.Events():
	case <-time.After(2 * time.Second):
		t.Fatal("expected a snapshot after the chunk was transcribed")
	}
	if !store.Snapshot().VoiceMode {
		t.Error("expected voice_mode set by the queued chunk")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled from Run, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancellation")
	}
}
