package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/meomirror/server/domain/repositories"
)

const defaultAPIBaseURL = "https://api.open-meteo.com"

// OpenMeteo implements WeatherProvider against the Open-Meteo forecast API.
// No API key required.
type OpenMeteo struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

var _ repositories.WeatherProvider = (*OpenMeteo)(nil)

// NewOpenMeteo creates the adapter. baseURL, when empty, selects the public
// endpoint.
func NewOpenMeteo(baseURL string, logger *zap.Logger) *OpenMeteo {
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	return &OpenMeteo{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		logger:  logger,
	}
}

type forecastResponse struct {
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
		Windspeed   float64 `json:"windspeed"`
		Weathercode int     `json:"weathercode"`
	} `json:"current_weather"`
}

// Current returns the current weather at the given coordinates.
func (o *OpenMeteo) Current(ctx context.Context, lat, lon float64) (repositories.CurrentWeather, error) {
	url := fmt.Sprintf("%s/v1/forecast?latitude=%v&longitude=%v&current_weather=true", o.baseURL, lat, lon)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return repositories.CurrentWeather{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return repositories.CurrentWeather{}, &repositories.UpstreamError{Service: "weather", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		o.logger.Warn("Open-Meteo returned non-200", zap.Int("status", resp.StatusCode))
		return repositories.CurrentWeather{}, &repositories.UpstreamError{Service: "weather", Status: resp.StatusCode}
	}

	var forecast forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return repositories.CurrentWeather{}, &repositories.UpstreamError{Service: "weather", Err: err}
	}

	return repositories.CurrentWeather{
		Temperature: forecast.CurrentWeather.Temperature,
		Windspeed:   forecast.CurrentWeather.Windspeed,
		Weathercode: forecast.CurrentWeather.Weathercode,
	}, nil
}
