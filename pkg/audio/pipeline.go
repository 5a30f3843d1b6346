// Package audio defines the device-audio capability boundary (capture and
// playback of raw 16-bit mono PCM) and the feedback-suppression gate that
// decides which microphone chunks are forwarded upstream.
//
// Actual device I/O is a platform concern injected at construction; this
// package ships a Null pipeline for headless and test use.
package audio

import (
	"sync"
	"time"
)

const (
	// PlaybackRate is the nominal playback sample rate in Hz.
	PlaybackRate = 24000
	// PreferredCaptureRate is requested from the input device; the device
	// may negotiate down to its native rate.
	PreferredCaptureRate = 24000
	// ChunkFrames is the fixed number of frames per microphone read.
	ChunkFrames = 1024
)

// Pipeline is the capability contract for device audio. Implementations own
// the input and output streams; Start and Stop are scoped to one check-in
// cycle so devices are never held open between cycles.
type Pipeline interface {
	// Start opens the input and output streams. Fails if the device cannot
	// be acquired.
	Start() error

	// Read blocks until one fixed-size chunk of 16-bit mono PCM is captured.
	Read() ([]byte, error)

	// Play writes one chunk of 16-bit mono PCM to the output stream.
	Play(pcm []byte)

	// InputRate returns the negotiated capture sample rate in Hz.
	InputRate() int

	// Stop closes both streams. Safe to call when already stopped.
	Stop() error
}

// NullPipeline emits silence at the capture cadence and discards playback.
// It stands in when no device backend is configured.
type NullPipeline struct {
	rate int

	mu     sync.Mutex
	opened bool
}

// NewNullPipeline returns a silent pipeline at the preferred capture rate.
func NewNullPipeline() *NullPipeline {
	return &NullPipeline{rate: PreferredCaptureRate}
}

// Start marks the pipeline open.
func (p *NullPipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opened = true
	return nil
}

// Read returns one chunk of silence, paced at the real chunk duration so
// callers behave as they would against a device.
func (p *NullPipeline) Read() ([]byte, error) {
	time.Sleep(time.Duration(ChunkFrames) * time.Second / time.Duration(p.rate))
	return make([]byte, ChunkFrames*2), nil
}

// Play discards the chunk.
func (p *NullPipeline) Play(pcm []byte) {}

// InputRate returns the capture rate.
func (p *NullPipeline) InputRate() int { return p.rate }

// Stop marks the pipeline closed.
func (p *NullPipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opened = false
	return nil
}
