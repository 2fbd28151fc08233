package audio

// DataCallback receives raw 16-bit PCM from the capture backend. It runs on
// the backend's capture path and must return within one frame period.
type DataCallback func(data []byte, frameCount uint32)

// CaptureConfig describes the capture format.
type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

// Context owns a capture backend instance.
type Context interface {
	NewCapture(config CaptureConfig, callback DataCallback) (CaptureDevice, error)
	Close()
}

// CaptureDevice is one open microphone stream.
type CaptureDevice interface {
	Start() error
	Stop()
	Close()
}
