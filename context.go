package vk2d

import (
	"fmt"
)

// Context is the root owner of the backend device. There is one per process
// and it outlives every Renderer built on it.
type Context struct {
	dev Device
}

func NewContext(dev Device) *Context {
	return &Context{dev: dev}
}

func (c *Context) Device() Device { return c.dev }

// NewTexture uploads a decoded RGBA8 image. rgba must hold width*height*4
// bytes.
func (c *Context) NewTexture(width, height int, rgba []byte) (*Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("vk2d: texture size %dx%d", width, height)
	}
	if len(rgba) != width*height*4 {
		return nil, fmt.Errorf("vk2d: texture %dx%d needs %d bytes, got %d", width, height, width*height*4, len(rgba))
	}
	img, err := c.dev.NewImage(width, height, rgba)
	if err != nil {
		return nil, fmt.Errorf("upload texture: %w", err)
	}
	return &Texture{img: img}, nil
}

// WaitIdle blocks until the device has no work queued.
func (c *Context) WaitIdle() error {
	return c.dev.WaitIdle()
}

// Destroy waits for the device and releases it.
func (c *Context) Destroy() {
	if c.dev == nil {
		return
	}
	_ = c.dev.WaitIdle()
	c.dev.Destroy()
	c.dev = nil
}

// Texture is a sampled RGBA8 image.
type Texture struct {
	img Image
}

func (t *Texture) Width() int   { return t.img.Width() }
func (t *Texture) Height() int  { return t.img.Height() }
func (t *Texture) Image() Image { return t.img }

// Destroy releases the image. Frames still using it must have completed.
func (t *Texture) Destroy() {
	if t.img != nil {
		t.img.Destroy()
		t.img = nil
	}
}
