package capture

import (
	"bytes"
	"testing"
)

func TestFrameQueue_TryPush(t *testing.T) {
	t.Run("frames are copied and consumed exactly once", func(t *testing.T) {
		q := NewFrameQueue(2)

		src := []byte{1, 2, 3, 4}
		if !q.TryPush(src) {
			t.Fatal("push into empty queue should succeed")
		}
		// Mutating the callback buffer after push must not corrupt the frame.
		src[0] = 99

		got := <-q.Frames()
		if !bytes.Equal(got, []byte{1, 2, 3, 4}) {
			t.Errorf("expected copied frame [1 2 3 4], got %v", got)
		}
	})

	t.Run("overflow drops silently and counts", func(t *testing.T) {
		q := NewFrameQueue(2)

		for i := 0; i < 5; i++ {
			q.TryPush([]byte{byte(i)})
		}

		if q.Dropped() != 3 {
			t.Errorf("expected 3 dropped frames, got %d", q.Dropped())
		}

		// The two queued frames are the oldest ones; drops never block or
		// reorder the capture path.
		first := <-q.Frames()
		second := <-q.Frames()
		if first[0] != 0 || second[0] != 1 {
			t.Errorf("expected frames 0 and 1 retained, got %d and %d", first[0], second[0])
		}
	})
}

func TestAccumulator_Add(t *testing.T) {
	// 4 samples/sec mono 16-bit, 1 second chunks: 8-byte chunks.
	acc := NewAccumulator(4, 1, 1)

	if _, ok := acc.Add(make([]byte, 6)); ok {
		t.Fatal("6 of 8 bytes should not complete a chunk")
	}

	chunk, ok := acc.Add([]byte{1, 2, 3, 4})
	if !ok {
		t.Fatal("10 accumulated bytes should complete an 8-byte chunk")
	}
	if len(chunk) != 8 {
		t.Errorf("expected 8-byte chunk, got %d", len(chunk))
	}
	if acc.Pending() != 2 {
		t.Errorf("expected 2 leftover bytes buffered, got %d", acc.Pending())
	}

	// Leftover bytes belong to the front of the next chunk.
	chunk, ok = acc.Add(make([]byte, 6))
	if !ok {
		t.Fatal("leftover plus 6 bytes should complete the next chunk")
	}
	if !bytes.Equal(chunk[:2], []byte{3, 4}) {
		t.Errorf("expected next chunk to start with leftover bytes [3 4], got %v", chunk[:2])
	}
	if acc.Pending() != 0 {
		t.Errorf("expected empty buffer, got %d pending", acc.Pending())
	}
}
