package vk2d

import (
	"context"
	"errors"
	"fmt"

	"github.com/celer/vk2d/camera"
	"github.com/go-gl/mathgl/mgl32"
)

// Window is the part of the OS window the frame loop needs. Resize
// notifications reach the renderer through Renderer.Resize.
type Window interface {
	PollEvents()
	ShouldClose() bool
}

// EventWaiter is implemented by windows that can block until the next event.
// Run waits instead of polling while the surface has a zero dimension.
type EventWaiter interface {
	WaitEvents()
}

// Rectangle is an axis aligned rectangle in pixels, positioned by its top
// left corner.
type Rectangle struct {
	Position      mgl32.Vec2
	Width, Height int
}

type phase int

const (
	phaseIdle phase = iota
	phaseRecording
	phaseSubmitted
)

// Renderer drives the frame lifecycle. It is not safe for concurrent use;
// one goroutine runs the frame loop.
type Renderer struct {
	cfg     Config
	ctx     *Context
	surface *SurfaceManager
	cache   *PipelineCache
	sync    *SyncTracker
	frame   *FrameAssembler

	clear [4]float32
	phase phase
	// minimized is set while frames are skipped for a zero sized surface.
	minimized bool
}

// NewRenderer builds the swap images for extent and the frame slots.
func NewRenderer(ctx *Context, extent Extent, cfg Config) (*Renderer, error) {
	if extent.Empty() {
		return nil, ErrZeroExtent
	}
	if cfg.FenceTimeout <= 0 {
		cfg.FenceTimeout = DefaultFenceTimeout
	}
	if cfg.ArenaSize == 0 {
		cfg.ArenaSize = DefaultArenaSize
	}

	dev := ctx.Device()
	r := &Renderer{
		cfg:     cfg,
		ctx:     ctx,
		surface: NewSurfaceManager(dev, cfg.PresentMode),
		cache:   NewPipelineCache(dev),
		clear:   cfg.ClearColor,
	}
	r.frame = NewFrameAssembler(r.cache)

	if err := r.surface.Recreate(extent); err != nil {
		return nil, err
	}
	frames := cfg.framesInFlight(r.surface.ImageCount())
	sync, err := NewSyncTracker(dev, frames, cfg.ArenaSize, cfg.FenceTimeout)
	if err != nil {
		r.surface.Destroy()
		return nil, err
	}
	r.sync = sync
	r.sync.ResetImages(r.surface.ImageCount())

	if stages, ok := cfg.Shaders[KeyRectangle]; ok {
		r.cache.Register(KeyRectangle, RectangleDesc(stages))
	}
	if stages, ok := cfg.Shaders[KeyTexture]; ok {
		r.cache.Register(KeyTexture, TextureDesc(stages))
	}
	return r, nil
}

// RectangleDesc describes the flat colored quad primitive.
func RectangleDesc(stages []ShaderModule) PipelineDesc {
	return PipelineDesc{
		Layout:   ColorVertexLayout,
		Stages:   stages,
		Topology: TopologyTriangleStrip,
		Blend:    true,
	}
}

// TextureDesc describes the textured quad primitive.
func TextureDesc(stages []ShaderModule) PipelineDesc {
	return PipelineDesc{
		Layout:   PositionVertexLayout,
		Stages:   stages,
		Topology: TopologyTriangleStrip,
		Blend:    true,
		Sampled:  true,
	}
}

// RegisterPipeline makes key drawable through SubmitDraw. It is built the
// first time it is drawn.
func (r *Renderer) RegisterPipeline(key PipelineKey, desc PipelineDesc) {
	r.cache.Register(key, desc)
}

func (r *Renderer) Surface() *SurfaceManager { return r.surface }

func (r *Renderer) Pipelines() *PipelineCache { return r.cache }

func (r *Renderer) Sync() *SyncTracker { return r.sync }

// SetClearColor sets the clear color used by the next BeginFrame.
func (r *Renderer) SetClearColor(c Color) {
	r.clear = c.Normalize()
}

// Resize forwards a window resize. Zero sized extents are kept pending and
// frames are skipped until a usable size arrives.
func (r *Renderer) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	r.surface.Resize(Extent{Width: uint32(width), Height: uint32(height)})
}

// Extent returns the current swap image size.
func (r *Renderer) Extent() Extent { return r.surface.Extent() }

// recreate rebuilds the surface, drains the frames still using the old image
// set and drops pipelines compiled against a replaced render pass.
func (r *Renderer) recreate(extent Extent) error {
	oldPass := r.surface.RenderPass()
	if err := r.surface.Recreate(extent); err != nil {
		return err
	}
	if err := r.sync.Drain(); err != nil {
		return err
	}
	r.sync.ResetImages(r.surface.ImageCount())
	if pass := r.surface.RenderPass(); pass != oldPass {
		n := r.cache.Invalidate(oldPass)
		Logger().Debug("vk2d: render pass replaced", "invalidated", n)
	}
	r.cache.Collect()
	return nil
}

// collect destroys pipelines replaced since the last frame once every frame
// that may have drawn with them has completed.
func (r *Renderer) collect() error {
	if r.cache.Retired() == 0 {
		return nil
	}
	if err := r.sync.Drain(); err != nil {
		return err
	}
	n := r.cache.Collect()
	Logger().Debug("vk2d: retired pipelines destroyed", "count", n)
	return nil
}

// BeginFrame prepares the next frame. It returns false, with a nil error,
// when the frame has to be skipped: the surface is zero sized or went out of
// date. At most one recreate happens per call.
func (r *Renderer) BeginFrame() (bool, error) {
	if r.phase != phaseIdle {
		return false, fmt.Errorf("%w: BeginFrame called twice", ErrInvalidFrameState)
	}
	r.minimized = false

	if err := r.collect(); err != nil {
		return false, err
	}

	if r.surface.Stale() {
		extent := r.surface.Pending()
		if extent.Empty() {
			r.minimized = true
			Logger().Debug("vk2d: frame skipped", "reason", "zero extent")
			return false, nil
		}
		if err := r.recreate(extent); err != nil {
			// The window can shrink to nothing before its resize event
			// arrives; the surface stays stale until a usable size.
			if errors.Is(err, ErrZeroExtent) {
				r.minimized = true
				Logger().Debug("vk2d: frame skipped", "reason", "zero surface extent")
				return false, nil
			}
			return false, err
		}
	}

	if err := r.sync.Begin(); err != nil {
		return false, err
	}
	slot := r.sync.slot()

	image, _, err := r.surface.Acquire(slot.acquired)
	if err != nil {
		r.sync.Abandon()
		if errors.Is(err, ErrSurfaceOutOfDate) {
			Logger().Debug("vk2d: frame skipped", "reason", "out of date")
			return false, nil
		}
		return false, err
	}

	if err := r.sync.Acquired(image); err != nil {
		r.sync.Abandon()
		return false, err
	}
	fb, err := r.surface.Framebuffer(image)
	if err != nil {
		r.sync.Abandon()
		return false, err
	}
	target := FrameTarget{
		Pass:        r.surface.RenderPass(),
		Framebuffer: fb,
		Extent:      r.surface.Extent(),
		Clear:       r.clear,
	}
	if err := r.frame.BeginFrame(slot.cmd, slot.arena, target); err != nil {
		r.sync.Abandon()
		return false, err
	}
	r.phase = phaseRecording
	return true, nil
}

// SubmitDraw records a draw into the current frame. Outside BeginFrame and
// EndFrame it returns ErrNoFrame, or panics when Config.Debug is set.
func (r *Renderer) SubmitDraw(key PipelineKey, vertices VertexData, uniforms *Uniforms) error {
	if r.phase != phaseRecording {
		if r.cfg.Debug {
			panic(fmt.Sprintf("vk2d: SubmitDraw(%q) outside of a frame", string(key)))
		}
		return ErrNoFrame
	}
	return r.frame.RecordDraw(DrawRequest{Key: key, Vertices: vertices, Uniforms: uniforms})
}

func (r *Renderer) viewport() [2]float32 {
	e := r.surface.Extent()
	return [2]float32{float32(e.Width), float32(e.Height)}
}

// DrawRectangle draws a filled rectangle.
func (r *Renderer) DrawRectangle(rect Rectangle, c Color) error {
	color := c.Normalize()
	vertices := make(ColorVertices, len(UnitQuad))
	for i, corner := range UnitQuad {
		vertices[i] = ColorVertex{Position: corner, Color: color}
	}
	size := mgl32.Vec2{float32(rect.Width), float32(rect.Height)}
	u := &Uniforms{MVP: camera.Projection(size, rect.Position, r.viewport())}
	return r.SubmitDraw(KeyRectangle, vertices, u)
}

// LoadTexture uploads an RGBA8 image. len(rgba) must be width*height*4.
func (r *Renderer) LoadTexture(width, height int, rgba []byte) (*Texture, error) {
	return r.ctx.NewTexture(width, height, rgba)
}

// DrawTexture draws tex at its natural size with its top left corner at
// position.
func (r *Renderer) DrawTexture(tex *Texture, position mgl32.Vec2) error {
	return r.DrawTextureScaled(tex, position, 1)
}

// DrawTextureScaled draws tex scaled uniformly by scale.
func (r *Renderer) DrawTextureScaled(tex *Texture, position mgl32.Vec2, scale float32) error {
	if tex == nil || tex.img == nil {
		return errors.New("vk2d: draw of a destroyed texture")
	}
	vertices := make(PositionVertices, len(UnitQuad))
	for i, corner := range UnitQuad {
		vertices[i] = PositionVertex{Position: corner}
	}
	size := mgl32.Vec2{float32(tex.Width()) * scale, float32(tex.Height()) * scale}
	u := &Uniforms{
		MVP:     camera.Projection(size, position, r.viewport()),
		Texture: tex.img,
	}
	return r.SubmitDraw(KeyTexture, vertices, u)
}

// EndFrame closes and submits the frame. It does nothing when BeginFrame
// skipped the frame.
func (r *Renderer) EndFrame() error {
	if r.phase == phaseIdle {
		return nil
	}
	if r.phase != phaseRecording {
		return fmt.Errorf("%w: EndFrame called twice", ErrInvalidFrameState)
	}
	cmd, err := r.frame.EndFrame()
	if err != nil {
		return err
	}
	release := r.surface.Claim()
	if err := r.sync.Submit(cmd, release); err != nil {
		release()
		r.sync.Abandon()
		r.phase = phaseIdle
		return err
	}
	r.phase = phaseSubmitted
	return nil
}

// Present queues the submitted frame for display. An out of date or
// suboptimal surface is recreated on the next BeginFrame.
func (r *Renderer) Present() error {
	switch r.phase {
	case phaseIdle:
		return nil
	case phaseRecording:
		return fmt.Errorf("%w: Present before EndFrame", ErrInvalidFrameState)
	}
	r.phase = phaseIdle

	suboptimal, err := r.sync.Present(r.surface.Swapchain())
	switch {
	case errors.Is(err, ErrSurfaceOutOfDate):
		r.surface.MarkStale()
		return nil
	case err != nil:
		return err
	case suboptimal:
		r.surface.MarkStale()
	}
	return nil
}

// Run drives the frame loop until the window closes or ctx is done. ctx is
// only checked between frames. update draws the frame; an error from it ends
// the loop once the frame has been submitted.
func (r *Renderer) Run(ctx context.Context, window Window, update func(*Renderer) error) error {
	for !window.ShouldClose() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if w, ok := window.(EventWaiter); ok && r.minimized {
			w.WaitEvents()
		} else {
			window.PollEvents()
		}

		ok, err := r.BeginFrame()
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		uerr := update(r)
		if err := r.EndFrame(); err != nil {
			return errors.Join(uerr, err)
		}
		if err := r.Present(); err != nil {
			return errors.Join(uerr, err)
		}
		if uerr != nil {
			return uerr
		}
	}
	return nil
}

// Wait blocks until every submitted frame has completed.
func (r *Renderer) Wait() error {
	return r.sync.Drain()
}

// Destroy drains the GPU and releases the renderer's resources. The Context
// is left alone.
func (r *Renderer) Destroy() {
	if r.sync == nil {
		return
	}
	_ = r.sync.Drain()
	r.cache.Destroy()
	r.sync.Destroy()
	r.surface.Destroy()
	r.sync = nil
}
