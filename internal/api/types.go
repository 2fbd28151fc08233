package api

// CommandRequest represents the request payload for POST /api/command
type CommandRequest struct {
	Cmd    string   `json:"cmd"`
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	Prompt string   `json:"prompt"`
}
