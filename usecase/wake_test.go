package usecase

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/meomirror/server/domain/entities"
)

const testWakeTimeout = 10 * time.Second

func newTestMachine(t *testing.T) (*WakeMachine, *time.Time) {
	t.Helper()
	clock := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	m := NewWakeMachine("mèo ơi", testWakeTimeout, zap.NewNop())
	m.now = func() time.Time { return clock }
	return m, &clock
}

func heard(text string) entities.TranscriptResult {
	return entities.TranscriptResult{Text: text, OK: true}
}

func TestWakeMachine_WakePhraseArms(t *testing.T) {
	m, clock := newTestMachine(t)

	commands := m.Observe(heard("mèo ơi"))

	if len(commands) != 1 || commands[0].Kind != entities.CommandActivateVoice {
		t.Fatalf("expected single activate_voice dispatch, got %v", commands)
	}
	if m.State() != Armed {
		t.Error("expected Armed state after wake phrase")
	}
	if want := clock.Add(testWakeTimeout); !m.ExpiresAt().Equal(want) {
		t.Errorf("expected deadline %v, got %v", want, m.ExpiresAt())
	}
}

func TestWakeMachine_RearmResetsDeadline(t *testing.T) {
	m, clock := newTestMachine(t)

	m.Observe(heard("mèo ơi"))
	firstDeadline := m.ExpiresAt()

	*clock = clock.Add(7 * time.Second)
	commands := m.Observe(heard("mèo ơi nghe không"))

	if len(commands) != 1 || commands[0].Kind != entities.CommandActivateVoice {
		t.Fatalf("expected re-arm to dispatch activate_voice again, got %v", commands)
	}
	if !m.ExpiresAt().After(firstDeadline) {
		t.Error("expected the deadline to restart on re-detection")
	}
}

func TestWakeMachine_CommandWhileArmed(t *testing.T) {
	m, _ := newTestMachine(t)
	m.Observe(heard("mèo ơi"))

	commands := m.Observe(heard("tạo tranh"))

	if len(commands) != 2 {
		t.Fatalf("expected command plus deactivate, got %v", commands)
	}
	if commands[0].Kind != entities.CommandGenerateImage {
		t.Errorf("expected generate_image first, got %s", commands[0].Kind)
	}
	if commands[1].Kind != entities.CommandDeactivateVoice {
		t.Errorf("expected deactivate_voice second, got %s", commands[1].Kind)
	}
	if m.State() != Disarmed {
		t.Error("expected Disarmed after a command closed the window")
	}
}

func TestWakeMachine_CommandHonoredPastDeadline(t *testing.T) {
	m, clock := newTestMachine(t)
	m.Observe(heard("mèo ơi"))

	*clock = clock.Add(testWakeTimeout + time.Minute)
	commands := m.Observe(heard("thời tiết"))

	if len(commands) != 2 || commands[0].Kind != entities.CommandWeather {
		t.Fatalf("a known command arriving after the deadline must still dispatch, got %v", commands)
	}
}

func TestWakeMachine_NonMatchInsideWindow(t *testing.T) {
	m, clock := newTestMachine(t)
	m.Observe(heard("mèo ơi"))

	*clock = clock.Add(3 * time.Second)
	commands := m.Observe(heard("hôm nay vui quá"))

	if commands != nil {
		t.Errorf("expected no dispatch for non-matching speech inside the window, got %v", commands)
	}
	if m.State() != Armed {
		t.Error("window must stay open on non-matching speech before the deadline")
	}
}

func TestWakeMachine_PassiveExpiry(t *testing.T) {
	m, clock := newTestMachine(t)
	m.Observe(heard("mèo ơi"))

	*clock = clock.Add(testWakeTimeout + time.Second)
	commands := m.Observe(heard("hôm nay vui quá"))

	if commands != nil {
		t.Errorf("passive expiry must not dispatch anything, got %v", commands)
	}
	if m.State() != Disarmed {
		t.Error("expected Disarmed after the window lapsed")
	}
}

func TestWakeMachine_FailedTranscriptIgnored(t *testing.T) {
	m, _ := newTestMachine(t)
	m.Observe(heard("mèo ơi"))
	deadline := m.ExpiresAt()

	commands := m.Observe(entities.TranscriptResult{Text: "", OK: false})

	if commands != nil {
		t.Errorf("failed transcripts must be ignored, got %v", commands)
	}
	if m.State() != Armed || !m.ExpiresAt().Equal(deadline) {
		t.Error("failed transcript must not touch the window")
	}
}

func TestWakeMachine_DisarmedIgnoresCommands(t *testing.T) {
	m, _ := newTestMachine(t)

	commands := m.Observe(heard("tạo tranh"))

	if commands != nil {
		t.Errorf("commands without a wake phrase must be ignored, got %v", commands)
	}
	if m.State() != Disarmed {
		t.Error("expected machine to stay Disarmed")
	}
}
