package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/meomirror/server/domain/entities"
	"github.com/meomirror/server/domain/repositories"
	"github.com/meomirror/server/internal/state"
)

const (
	voiceActivatedResponse   = "Voice mode activated"
	voiceDeactivatedResponse = "Voice mode deactivated"
	imageGeneratedResponse   = "Đã tạo tranh."
)

// AudioSink receives synthesized speech chunks for playback on the display.
type AudioSink func(chunk []byte)

// CommandService executes typed commands against the state store and the
// remote collaborators. It never panics and never returns a Go error:
// callers observe a CommandResult with OK true or false.
type CommandService struct {
	store   *state.Store
	weather repositories.WeatherProvider
	images  repositories.ImageGenerator
	tts     repositories.TextToSpeech
	sink    AudioSink
	logger  *zap.Logger
}

// NewCommandService creates the dispatcher.
func NewCommandService(
	store *state.Store,
	weather repositories.WeatherProvider,
	images repositories.ImageGenerator,
	logger *zap.Logger,
) *CommandService {
	return &CommandService{
		store:   store,
		weather: weather,
		images:  images,
		logger:  logger,
	}
}

// EnableSpeech makes the dispatcher speak voice responses through tts,
// delivering the audio to sink. Optional; without it responses are
// text-only.
func (s *CommandService) EnableSpeech(tts repositories.TextToSpeech, sink AudioSink) {
	s.tts = tts
	s.sink = sink
}

// Dispatch executes one command. Unknown commands and upstream failures leave
// DeviceState untouched.
func (s *CommandService) Dispatch(ctx context.Context, command entities.Command) entities.CommandResult {
	switch command.Kind {
	case entities.CommandActivateVoice:
		s.store.SetVoiceMode(true, voiceActivatedResponse)
		s.speak(voiceActivatedResponse)
		return entities.CommandResult{OK: true, Msg: "voice activated"}

	case entities.CommandDeactivateVoice:
		s.store.SetVoiceMode(false, voiceDeactivatedResponse)
		return entities.CommandResult{OK: true, Msg: "voice deactivated"}

	case entities.CommandGenerateImage:
		return s.generateImage(ctx, command.Text)

	case entities.CommandWeather:
		return s.lookupWeather(ctx, command.Lat, command.Lon)

	default:
		return entities.CommandResult{OK: false, Err: "unknown command", Cmd: command.Text}
	}
}

func (s *CommandService) generateImage(ctx context.Context, prompt string) entities.CommandResult {
	url, err := s.images.Generate(ctx, prompt)
	if err != nil {
		s.logger.Error("Image generation failed", zap.Error(err))
		return entities.CommandResult{
			OK:             false,
			Err:            "image generation failed",
			UpstreamStatus: upstreamStatus(err),
		}
	}

	s.store.SetGeneratedImage(url, imageGeneratedResponse)
	s.speak(imageGeneratedResponse)
	return entities.CommandResult{OK: true, URL: url}
}

func (s *CommandService) lookupWeather(ctx context.Context, lat, lon float64) entities.CommandResult {
	current, err := s.weather.Current(ctx, lat, lon)
	if err != nil {
		s.logger.Error("Weather lookup failed", zap.Error(err))
		return entities.CommandResult{
			OK:             false,
			Err:            "weather api failed",
			UpstreamStatus: upstreamStatus(err),
		}
	}

	// Weathercode 0..3 covers the fair-weather classes; anything above that
	// gets the caution wording.
	suitable := current.Weathercode <= 3
	msg := fmt.Sprintf("Nhiệt: %v°C, gió: %v m/s. ", current.Temperature, current.Windspeed)
	if suitable {
		msg += "Thời tiết thích hợp để ra ngoài."
	} else {
		msg += "Thời tiết có thể không thích hợp (mưa/bão)."
	}

	s.store.SetVoiceResponse(msg)
	s.speak(msg)

	return entities.CommandResult{
		OK:  true,
		Msg: msg,
		Weather: &entities.WeatherReport{
			Temp:        current.Temperature,
			Windspeed:   current.Windspeed,
			Weathercode: current.Weathercode,
			Suitable:    suitable,
		},
	}
}

// speak synthesizes text in the background; playback never delays a
// dispatch.
func (s *CommandService) speak(text string) {
	if s.tts == nil || s.sink == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		chunks, err := s.tts.ConvertTextToSpeech(ctx, text)
		if err != nil {
			s.logger.Warn("Text to speech failed", zap.Error(err))
			return
		}
		for chunk := range chunks {
			s.sink(chunk)
		}
	}()
}

func upstreamStatus(err error) int {
	var upstream *repositories.UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Status
	}
	return 0
}
