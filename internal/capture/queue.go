package capture

import "sync/atomic"

// FrameQueue is the bounded hand-off between the audio capture callback and
// the chunk accumulator. The capture side runs on a time-critical path: its
// only permitted side effect is TryPush, which copies the frame and never
// blocks. When the queue is full the frame is dropped and counted; there is
// no retry for lost frames.
type FrameQueue struct {
	frames  chan []byte
	dropped atomic.Uint64
}

// NewFrameQueue creates a queue holding up to size frames.
func NewFrameQueue(size int) *FrameQueue {
	return &FrameQueue{
		frames: make(chan []byte, size),
	}
}

// TryPush copies data into the queue. Returns false when the queue was full
// and the frame was dropped. The copy is required because capture backends
// reuse the callback buffer.
func (q *FrameQueue) TryPush(data []byte) bool {
	frame := make([]byte, len(data))
	copy(frame, data)

	select {
	case q.frames <- frame:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Frames returns the consumer side of the queue. Each frame is consumed
// exactly once.
func (q *FrameQueue) Frames() <-chan []byte {
	return q.frames
}

// Dropped reports how many frames were lost to a full queue.
func (q *FrameQueue) Dropped() uint64 {
	return q.dropped.Load()
}
