package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/meomirror/server/domain/entities"
	"github.com/meomirror/server/internal/bus"
	"github.com/meomirror/server/internal/state"
	"github.com/meomirror/server/internal/websocket"
	"github.com/meomirror/server/usecase"
)

// InitRoutes initializes all API routes
func InitRoutes(
	e *echo.Echo,
	store *state.Store,
	b *bus.Bus,
	commands *usecase.CommandService,
	hub *websocket.Hub,
	logger *zap.Logger,
) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "meomirror-server",
		})
	})

	// Sensor ingestion from the device firmware
	e.POST("/update", func(c echo.Context) error {
		return sensorUpdate(c, store, logger)
	})

	// Display-facing state APIs
	e.GET("/api/state", func(c echo.Context) error {
		return c.JSON(http.StatusOK, store.Snapshot())
	})
	e.POST("/api/command", func(c echo.Context) error {
		return runCommand(c, commands, logger)
	})
	e.POST("/api/generate", func(c echo.Context) error {
		return generate(c, commands)
	})

	// Live snapshot streams
	e.GET("/events", func(c echo.Context) error {
		return streamEvents(c, b)
	})
	e.GET("/ws", func(c echo.Context) error {
		return websocket.HandleWebSocket(hub, c, logger)
	})
}

func sensorUpdate(c echo.Context, store *state.Store, logger *zap.Logger) error {
	var update entities.SensorUpdate
	if err := json.NewDecoder(c.Request().Body).Decode(&update); err != nil {
		logger.Warn("Rejected malformed sensor update", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": "invalid json"})
	}

	store.ApplySensor(update)
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

func runCommand(c echo.Context, commands *usecase.CommandService, logger *zap.Logger) error {
	var req CommandRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": "invalid json"})
	}

	command := toCommand(req)
	result := commands.Dispatch(c.Request().Context(), command)

	if !result.OK {
		resp := echo.Map{"ok": false, "error": result.Err}
		if result.Cmd != "" {
			resp["cmd"] = result.Cmd
		}
		if result.UpstreamStatus != 0 {
			resp["status"] = result.UpstreamStatus
		}
		return c.JSON(http.StatusOK, resp)
	}

	resp := echo.Map{"ok": true}
	if result.Msg != "" {
		resp["msg"] = result.Msg
	}
	if result.URL != "" {
		resp["url"] = result.URL
	}
	if result.Weather != nil {
		resp["weather"] = result.Weather
	}
	return c.JSON(http.StatusOK, resp)
}

// toCommand maps the wire payload onto a typed command, filling in the
// default location for weather lookups.
func toCommand(req CommandRequest) entities.Command {
	switch req.Cmd {
	case "activate_voice":
		return entities.Command{Kind: entities.CommandActivateVoice}
	case "deactivate_voice":
		return entities.Command{Kind: entities.CommandDeactivateVoice}
	case "generate_image":
		return entities.Command{Kind: entities.CommandGenerateImage, Text: req.Prompt}
	case "weather":
		command := entities.Command{Kind: entities.CommandWeather, Lat: usecase.DefaultLat, Lon: usecase.DefaultLon}
		if req.Lat != nil {
			command.Lat = *req.Lat
		}
		if req.Lon != nil {
			command.Lon = *req.Lon
		}
		return command
	default:
		return entities.Command{Kind: entities.CommandUnknown, Text: req.Cmd}
	}
}

func generate(c echo.Context, commands *usecase.CommandService) error {
	result := commands.Dispatch(c.Request().Context(), entities.Command{Kind: entities.CommandGenerateImage})
	if !result.OK {
		return c.JSON(http.StatusBadGateway, echo.Map{"ok": false, "error": result.Err})
	}
	return c.JSON(http.StatusOK, echo.Map{"url": result.URL})
}

// streamEvents serves one SSE event per state change; the first event is the
// current full state delivered by the bus subscription.
func streamEvents(c echo.Context, b *bus.Bus) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case snapshot, ok := <-sub.Events():
			if !ok {
				return nil
			}
			payload, err := json.Marshal(snapshot)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", payload); err != nil {
				return nil
			}
			c.Response().Flush()
		}
	}
}
