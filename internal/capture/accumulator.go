package capture

// BytesPerSample is fixed by the capture format (16-bit PCM).
const BytesPerSample = 2

// Accumulator concatenates raw frames until a full recognition chunk is
// assembled. Chunks are handed out once and the buffer resets; a chunk is
// never re-used for a second transcription attempt.
type Accumulator struct {
	target int
	buf    []byte
}

// NewAccumulator sizes chunks to chunkSeconds of audio at the given capture
// settings.
func NewAccumulator(sampleRate, channels, chunkSeconds int) *Accumulator {
	target := sampleRate * channels * BytesPerSample * chunkSeconds
	return &Accumulator{
		target: target,
		buf:    make([]byte, 0, target),
	}
}

// Add appends one frame. When the accumulated audio reaches the chunk
// duration it returns the completed chunk and resets; bytes beyond the chunk
// boundary stay buffered for the next one.
func (a *Accumulator) Add(frame []byte) ([]byte, bool) {
	a.buf = append(a.buf, frame...)
	if len(a.buf) < a.target {
		return nil, false
	}

	chunk := make([]byte, a.target)
	copy(chunk, a.buf[:a.target])
	rest := len(a.buf) - a.target
	copy(a.buf, a.buf[a.target:])
	a.buf = a.buf[:rest]
	return chunk, true
}

// Pending reports how many bytes are buffered toward the next chunk.
func (a *Accumulator) Pending() int {
	return len(a.buf)
}
