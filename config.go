package vk2d

import (
	"time"
)

// PresentMode selects how finished frames are queued for display.
type PresentMode int

const (
	// PresentFIFO waits for vertical blank and is always supported.
	PresentFIFO PresentMode = iota
	// PresentMailbox replaces the queued image instead of blocking. Backends
	// fall back to PresentFIFO when the surface does not support it.
	PresentMailbox
)

func (m PresentMode) String() string {
	switch m {
	case PresentFIFO:
		return "fifo"
	case PresentMailbox:
		return "mailbox"
	}
	return "unknown"
}

const (
	DefaultFenceTimeout = 5 * time.Second
	DefaultArenaSize    = 4 << 20
)

// Config holds the renderer settings. The zero value is not usable, start
// from DefaultConfig.
type Config struct {
	// ClearColor is the RGBA clear value in [0,1] used by BeginFrame.
	ClearColor [4]float32

	// FramesInFlight bounds how many frames the CPU may record ahead of the
	// GPU. Zero means one less than the swap image count, with a minimum of 1.
	FramesInFlight int

	PresentMode PresentMode

	// FenceTimeout bounds the wait before a frame slot is reused.
	FenceTimeout time.Duration

	// ArenaSize is the size in bytes of each frame slot's transient memory.
	ArenaSize uint64

	// Debug turns misuse, such as drawing outside a frame, into a panic.
	Debug bool

	// Shaders holds the compiled stages for the built-in primitives, keyed
	// by KeyRectangle and KeyTexture. A primitive without stages cannot be
	// drawn.
	Shaders map[PipelineKey][]ShaderModule
}

func DefaultConfig() Config {
	return Config{
		ClearColor:   [4]float32{0.1, 0.1, 0.1, 1.0},
		PresentMode:  PresentFIFO,
		FenceTimeout: DefaultFenceTimeout,
		ArenaSize:    DefaultArenaSize,
		Shaders:      map[PipelineKey][]ShaderModule{},
	}
}

// framesInFlight resolves FramesInFlight against the swap image count.
func (c Config) framesInFlight(images int) int {
	n := c.FramesInFlight
	if n <= 0 {
		n = images - 1
	}
	if n < 1 {
		n = 1
	}
	return n
}
