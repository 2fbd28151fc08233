package usecase

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/meomirror/server/domain/entities"
)

// WakeState is the wake window's current phase.
type WakeState int

const (
	// Disarmed means transcripts are only scanned for the wake phrase.
	Disarmed WakeState = iota
	// Armed means a command window is open until the expiry deadline.
	Armed
)

// WakeMachine decides what, if anything, a transcript triggers. It is driven
// from the single listener goroutine, one transcript per completed audio
// chunk, so it carries no lock.
//
// Expiry is evaluated only when a transcript arrives. An idle window with no
// further speech therefore stays Armed past its nominal deadline until the
// next utterance comes in; that utterance is still honored as a command if
// it matches one. Both behaviors are deliberate.
type WakeMachine struct {
	phrase  string
	timeout time.Duration

	state     WakeState
	expiresAt time.Time

	now    func() time.Time
	logger *zap.Logger
}

// NewWakeMachine creates a machine in the Disarmed state. phrase is matched
// as a normalized substring.
func NewWakeMachine(phrase string, timeout time.Duration, logger *zap.Logger) *WakeMachine {
	return &WakeMachine{
		phrase:  NormalizeUtterance(phrase),
		timeout: timeout,
		state:   Disarmed,
		now:     time.Now,
		logger:  logger,
	}
}

// State returns the current phase.
func (m *WakeMachine) State() WakeState {
	return m.state
}

// ExpiresAt returns the deadline of the open window; zero while Disarmed.
func (m *WakeMachine) ExpiresAt() time.Time {
	return m.expiresAt
}

// Observe consumes one transcript and returns the commands to dispatch, in
// order. A nil slice means no side effect.
func (m *WakeMachine) Observe(transcript entities.TranscriptResult) []entities.Command {
	if !transcript.OK {
		return nil
	}

	normalized := NormalizeUtterance(transcript.Text)

	// Wake phrase first, in any state: detection (re-)opens the window with a
	// fresh deadline. The deadline is fixed at this instant and never
	// extended afterwards.
	if strings.Contains(normalized, m.phrase) {
		m.state = Armed
		m.expiresAt = m.now().Add(m.timeout)
		m.logger.Info("Wake phrase detected",
			zap.Time("expiresAt", m.expiresAt))
		return []entities.Command{{Kind: entities.CommandActivateVoice}}
	}

	if m.state != Armed {
		return nil
	}

	command := ParseCommand(normalized)
	if command.Kind != entities.CommandUnknown {
		// A known command closes the window even when it arrives after the
		// deadline.
		m.state = Disarmed
		m.expiresAt = time.Time{}
		m.logger.Info("Command matched during wake window",
			zap.String("command", string(command.Kind)))
		return []entities.Command{command, {Kind: entities.CommandDeactivateVoice}}
	}

	if m.now().After(m.expiresAt) {
		// Passive expiry: the window lapses with no deactivate dispatch.
		m.state = Disarmed
		m.expiresAt = time.Time{}
		m.logger.Info("Wake window expired")
		return nil
	}

	m.logger.Debug("Transcript ignored inside wake window",
		zap.String("text", transcript.Text))
	return nil
}
