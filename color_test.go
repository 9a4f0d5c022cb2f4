package vk2d

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorNormalize(t *testing.T) {
	assert.Equal(t, [4]float32{1, 0, 0, 1}, NewColor(255, 0, 0).Normalize())
	assert.Equal(t, [4]float32{0, 0, 0, 0}, NewColorAlpha(0, 0, 0, 0).Normalize())

	got := NewColorAlpha(51, 102, 153, 204).Normalize()
	assert.InDeltaSlice(t, []float32{0.2, 0.4, 0.6, 0.8}, got[:], 1e-6)
}

func TestNewColorIsOpaque(t *testing.T) {
	assert.Equal(t, uint8(255), NewColor(1, 2, 3).A)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, [4]float32{0.1, 0.1, 0.1, 1.0}, cfg.ClearColor)
	assert.Equal(t, PresentFIFO, cfg.PresentMode)
	assert.Equal(t, "fifo", cfg.PresentMode.String())
	assert.NotNil(t, cfg.Shaders)
}

func TestFramesInFlight(t *testing.T) {
	tests := []struct {
		configured, images, want int
	}{
		{0, 3, 2},
		{0, 2, 1},
		{0, 1, 1},
		{3, 2, 3},
		{-1, 4, 3},
	}
	for _, tt := range tests {
		cfg := Config{FramesInFlight: tt.configured}
		assert.Equal(t, tt.want, cfg.framesInFlight(tt.images), "%+v", tt)
	}
}
