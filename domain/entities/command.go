package entities

// CommandKind identifies one of the fixed remote commands.
type CommandKind string

const (
	CommandActivateVoice   CommandKind = "activate_voice"
	CommandDeactivateVoice CommandKind = "deactivate_voice"
	CommandGenerateImage   CommandKind = "generate_image"
	CommandWeather         CommandKind = "weather"
	CommandUnknown         CommandKind = "unknown"
)

// Command is one typed remote command. Lat/Lon are meaningful only for
// CommandWeather; Text carries the original utterance for CommandUnknown.
type Command struct {
	Kind CommandKind
	Lat  float64
	Lon  float64
	Text string
}

// WeatherReport mirrors the wire shape of the weather field in a command
// response.
type WeatherReport struct {
	Temp        float64 `json:"temp"`
	Windspeed   float64 `json:"windspeed"`
	Weathercode int     `json:"weathercode"`
	Suitable    bool    `json:"suitable"`
}

// CommandResult is what a dispatch produces. OK=false carries a structured
// error; the dispatcher never panics or returns a Go error to its callers.
type CommandResult struct {
	OK             bool
	Msg            string
	URL            string
	Weather        *WeatherReport
	Err            string
	Cmd            string
	UpstreamStatus int
}

// TranscriptResult is the outcome of one transcription attempt. OK=false
// covers both "no intelligible speech" and provider failure; the wake machine
// treats them identically.
type TranscriptResult struct {
	Text string
	OK   bool
}
