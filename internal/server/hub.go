package server

import (
	"context"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// FrameHub holds the most recent annotated frame as JPEG and wakes stream
// clients when a new one is published.
type FrameHub struct {
	mu      sync.RWMutex
	jpeg    []byte
	seq     uint64
	updated chan struct{}
}

// NewFrameHub creates an empty FrameHub.
func NewFrameHub() *FrameHub {
	return &FrameHub{updated: make(chan struct{})}
}

// Publish JPEG-encodes img and makes it the latest frame.
func (h *FrameHub) Publish(img gocv.Mat) error {
	if img.Empty() {
		return fmt.Errorf("publish: empty frame")
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	defer buf.Close()

	// Copy out of the native buffer before Close releases it.
	h.PublishJPEG(append([]byte(nil), buf.GetBytes()...))
	return nil
}

// PublishJPEG makes data the latest frame.
func (h *FrameHub) PublishJPEG(data []byte) {
	h.mu.Lock()
	h.jpeg = data
	h.seq++
	close(h.updated)
	h.updated = make(chan struct{})
	h.mu.Unlock()
}

// Latest returns the latest frame and its sequence number. seq is 0 until the
// first Publish.
func (h *FrameHub) Latest() ([]byte, uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.jpeg, h.seq
}

// Next blocks until a frame newer than after is available or ctx ends.
func (h *FrameHub) Next(ctx context.Context, after uint64) ([]byte, uint64, error) {
	for {
		h.mu.RLock()
		data, seq, wait := h.jpeg, h.seq, h.updated
		h.mu.RUnlock()

		if seq > after {
			return data, seq, nil
		}

		select {
		case <-ctx.Done():
			return nil, seq, ctx.Err()
		case <-wait:
		}
	}
}
