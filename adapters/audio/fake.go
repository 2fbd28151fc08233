package audio

import (
	"sync"
	"time"
)

const fakeFrameBytes = 1024 * 2 // 16-bit mono frames

// FakeContext feeds pre-recorded PCM through the normal capture path. Used in
// tests and when running without a microphone.
type FakeContext struct {
	pcm      []byte
	interval time.Duration
}

// NewFakeContext creates a backend that replays pcm one frame per interval.
// interval 0 replays as fast as the consumer can take it.
func NewFakeContext(pcm []byte, interval time.Duration) *FakeContext {
	return &FakeContext{pcm: pcm, interval: interval}
}

func (f *FakeContext) NewCapture(_ CaptureConfig, callback DataCallback) (CaptureDevice, error) {
	return &fakeCapture{
		pcm:      f.pcm,
		interval: f.interval,
		callback: callback,
	}, nil
}

func (f *FakeContext) Close() {}

type fakeCapture struct {
	pcm      []byte
	interval time.Duration
	callback DataCallback

	mu     sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
}

func (c *fakeCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopCh = make(chan struct{})
	c.done = make(chan struct{})

	go func() {
		defer close(c.done)
		for pos := 0; pos < len(c.pcm); {
			select {
			case <-c.stopCh:
				return
			default:
			}

			end := pos + fakeFrameBytes
			if end > len(c.pcm) {
				end = len(c.pcm)
			}
			frame := make([]byte, end-pos)
			copy(frame, c.pcm[pos:end])
			c.callback(frame, uint32(len(frame)/2))
			pos = end

			if c.interval > 0 {
				select {
				case <-c.stopCh:
					return
				case <-time.After(c.interval):
				}
			}
		}
	}()

	return nil
}

func (c *fakeCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopCh == nil {
		return
	}
	select {
	case <-c.stopCh:
	default:
		close(c.stopCh)
	}
	<-c.done
}

func (c *fakeCapture) Close() {
	c.Stop()
}
