package vk2d

// Color is an 8 bit per channel RGBA color.
type Color struct {
	R, G, B, A uint8
}

// NewColor returns an opaque color.
func NewColor(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

func NewColorAlpha(r, g, b, a uint8) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// Normalize maps every channel into [0,1].
func (c Color) Normalize() [4]float32 {
	return [4]float32{
		float32(c.R) / 255,
		float32(c.G) / 255,
		float32(c.B) / 255,
		float32(c.A) / 255,
	}
}
