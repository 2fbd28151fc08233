package repositories

import (
	"context"
	"fmt"
)

// WeatherProvider abstracts the remote current-weather lookup
type WeatherProvider interface {
	// Current returns the current weather at the given coordinates
	Current(ctx context.Context, lat, lon float64) (CurrentWeather, error)
}

// CurrentWeather is the subset of a forecast response the device cares about
type CurrentWeather struct {
	Temperature float64 `json:"temperature"`
	Windspeed   float64 `json:"windspeed"`
	Weathercode int     `json:"weathercode"`
}

// UpstreamError reports a remote collaborator failure together with the
// upstream HTTP status, when one was observed.
type UpstreamError struct {
	Service string
	Status  int
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s upstream failed with status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s upstream failed: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
