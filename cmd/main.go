package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/meomirror/server/adapters/audio"
	"github.com/meomirror/server/adapters/image"
	"github.com/meomirror/server/adapters/stt"
	"github.com/meomirror/server/adapters/tts"
	"github.com/meomirror/server/adapters/weather"
	"github.com/meomirror/server/domain/entities"
	"github.com/meomirror/server/domain/repositories"
	"github.com/meomirror/server/internal/api"
	"github.com/meomirror/server/internal/bus"
	"github.com/meomirror/server/internal/capture"
	"github.com/meomirror/server/internal/state"
	"github.com/meomirror/server/internal/websocket"
	"github.com/meomirror/server/usecase"
)

type config struct {
	Port             string
	DeviceID         string
	MicEnabled       bool
	MicSampleRate    int
	ChunkSeconds     int
	WakePhrase       string
	WakeTimeout      time.Duration
	STTLanguage      string
	GeminiAPIKey     string
	ElevenLabsAPIKey string
	ImageProvider    string
}

func loadConfig() config {
	return config{
		Port:             getEnv("PORT", "5000"),
		DeviceID:         getEnv("DEVICE_ID", "unknown"),
		MicEnabled:       getEnv("MIC_ENABLED", "true") == "true",
		MicSampleRate:    getEnvInt("MIC_SAMPLE_RATE", 16000),
		ChunkSeconds:     getEnvInt("CHUNK_SECONDS", 2),
		WakePhrase:       getEnv("WAKE_PHRASE", "mèo ơi"),
		WakeTimeout:      time.Duration(getEnvInt("WAKE_TIMEOUT_SECONDS", 10)) * time.Second,
		STTLanguage:      getEnv("STT_LANGUAGE", "vi-VN"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		ElevenLabsAPIKey: os.Getenv("ELEVENLABS_API_KEY"),
		ImageProvider:    getEnv("IMAGE_PROVIDER", "picsum"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func main() {
	godotenv.Load()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := loadConfig()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Shared state and its broadcast bus
	b := bus.NewBus(bus.DefaultQueueSize, logger)
	store := state.NewStore(entities.DeviceState{
		Device: cfg.DeviceID,
		Wifi:   "disconnected",
	}, b, logger)

	// Remote collaborators
	weatherProvider := weather.NewOpenMeteo("", logger)

	var images repositories.ImageGenerator
	if cfg.ImageProvider == "gemini" {
		gemini, err := image.NewGeminiImageGenerator(ctx, cfg.GeminiAPIKey, logger)
		if err != nil {
			logger.Warn("Gemini image generation unavailable, falling back to picsum", zap.Error(err))
		} else {
			images = gemini
		}
	}
	if images == nil {
		images = image.NewPicsum("")
	}

	commands := usecase.NewCommandService(store, weatherProvider, images, logger)

	// Display clients
	hub := websocket.NewHub(b, logger)
	go hub.Run()

	if cfg.ElevenLabsAPIKey != "" {
		speech, err := tts.NewElevenLabsTTS(tts.ElevenLabsConfig{APIKey: cfg.ElevenLabsAPIKey}, logger)
		if err != nil {
			logger.Warn("Text to speech unavailable", zap.Error(err))
		} else {
			commands.EnableSpeech(speech, hub.BroadcastAudio)
		}
	}

	// API routes
	api.InitRoutes(e, store, b, commands, hub, logger)

	// Voice pipeline: microphone -> frame queue -> listener
	if cfg.MicEnabled {
		if err := startVoicePipeline(ctx, cfg, commands, logger); err != nil {
			logger.Warn("Voice pipeline disabled", zap.Error(err))
		}
	}

	// Start server
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Port),
		zap.Bool("micEnabled", cfg.MicEnabled))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// startVoicePipeline opens the microphone and runs the recognition loop
// until ctx is cancelled. The capture callback only ever pushes into the
// bounded frame queue; a full queue costs frames, never latency.
func startVoicePipeline(ctx context.Context, cfg config, commands *usecase.CommandService, logger *zap.Logger) error {
	var transcriber repositories.SpeechToText
	google, err := stt.NewGoogleSpeechToText(ctx)
	if err != nil {
		logger.Warn("Google speech unavailable, using fake transcriber", zap.Error(err))
		transcriber = stt.NewFakeSpeechToText(nil, nil, logger)
	} else {
		transcriber = google
	}

	queue := capture.NewFrameQueue(64)
	machine := usecase.NewWakeMachine(cfg.WakePhrase, cfg.WakeTimeout, logger)
	listener := usecase.NewListenerService(queue, transcriber, machine, commands, usecase.ListenerConfig{
		SampleRate:   cfg.MicSampleRate,
		Channels:     1,
		ChunkSeconds: cfg.ChunkSeconds,
		Language:     cfg.STTLanguage,
		Encoding:     "LINEAR16",
	}, logger)

	audioCtx, err := audio.NewContext()
	if err != nil {
		return err
	}

	device, err := audioCtx.NewCapture(audio.CaptureConfig{
		SampleRate: uint32(cfg.MicSampleRate),
		Channels:   1,
	}, func(data []byte, frameCount uint32) {
		queue.TryPush(data)
	})
	if err != nil {
		audioCtx.Close()
		return err
	}

	if err := device.Start(); err != nil {
		device.Close()
		audioCtx.Close()
		return err
	}

	go func() {
		defer func() {
			device.Stop()
			device.Close()
			audioCtx.Close()
		}()
		if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Listener stopped", zap.Error(err))
		}
	}()

	logger.Info("Listening for wake phrase",
		zap.String("wakePhrase", cfg.WakePhrase),
		zap.Int("sampleRate", cfg.MicSampleRate))
	return nil
}
