package entities

import "time"

// LastUpdateLayout is the timestamp format the display clients render verbatim.
const LastUpdateLayout = "2006-01-02 15:04:05"

// DeviceState is the single shared aggregate for one ambient display device.
// The raw fields are never touched directly outside internal/state; everything
// else works with value copies (snapshots).
type DeviceState struct {
	Device            string   `json:"device"`
	Wifi              string   `json:"wifi"`
	IP                string   `json:"ip"`
	LastEvent         string   `json:"last_event"`
	Temperature       *float64 `json:"temperature"`
	Humidity          *float64 `json:"humidity"`
	Light             *float64 `json:"light"`
	PM25              *float64 `json:"pm25"`
	PM10              *float64 `json:"pm10"`
	VoiceMode         bool     `json:"voice_mode"`
	LastVoiceResponse string   `json:"last_voice_response"`
	GeneratedImage    string   `json:"generated_image"`
	LastUpdate        string   `json:"last_update"`
}

// Stamp sets last_update to now in the display format.
func (s *DeviceState) Stamp(now time.Time) {
	s.LastUpdate = now.Format(LastUpdateLayout)
}

// SensorUpdate is a partial update posted by the device firmware. Nil fields
// were absent from the payload and must leave the current value untouched.
type SensorUpdate struct {
	Device      *string  `json:"device"`
	Wifi        *string  `json:"wifi"`
	IP          *string  `json:"ip"`
	LastEvent   *string  `json:"last_event"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Light       *float64 `json:"light"`
	PM25        *float64 `json:"pm25"`
	PM10        *float64 `json:"pm10"`
}

// ApplyTo merges the present fields into state.
func (u SensorUpdate) ApplyTo(state *DeviceState) {
	if u.Device != nil {
		state.Device = *u.Device
	}
	if u.Wifi != nil {
		state.Wifi = *u.Wifi
	}
	if u.IP != nil {
		state.IP = *u.IP
	}
	if u.LastEvent != nil {
		state.LastEvent = *u.LastEvent
	}
	if u.Temperature != nil {
		state.Temperature = u.Temperature
	}
	if u.Humidity != nil {
		state.Humidity = u.Humidity
	}
	if u.Light != nil {
		state.Light = u.Light
	}
	if u.PM25 != nil {
		state.PM25 = u.PM25
	}
	if u.PM10 != nil {
		state.PM10 = u.PM10
	}
}
