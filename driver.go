package vk2d

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Extent is a size in pixels.
type Extent struct {
	Width, Height uint32
}

// Empty reports whether either dimension is zero.
func (e Extent) Empty() bool {
	return e.Width == 0 || e.Height == 0
}

// Format is a swap image color format.
type Format int

const (
	FormatUndefined Format = iota
	FormatB8G8R8A8UNorm
	FormatB8G8R8A8SRGB
	FormatR8G8B8A8UNorm
	FormatR8G8B8A8SRGB
)

type ShaderStage int

const (
	StageVertex ShaderStage = iota
	StageFragment
)

func (s ShaderStage) String() string {
	if s == StageVertex {
		return "vertex"
	}
	return "fragment"
}

// ShaderModule is a compiled SPIR-V program for one stage.
type ShaderModule struct {
	Stage ShaderStage
	Code  []byte
	Entry string
}

type VertexFormat int

const (
	VertexFloat2 VertexFormat = iota
	VertexFloat4
)

// Size returns the byte size of one attribute of this format.
func (f VertexFormat) Size() uint32 {
	switch f {
	case VertexFloat2:
		return 8
	case VertexFloat4:
		return 16
	}
	return 0
}

type VertexAttribute struct {
	Location uint32
	Format   VertexFormat
	Offset   uint32
}

// VertexLayout describes one interleaved vertex buffer binding.
type VertexLayout struct {
	Stride     uint32
	Attributes []VertexAttribute
}

type Topology int

const (
	TopologyTriangleStrip Topology = iota
	TopologyTriangleList
)

// PipelineDesc is everything a backend needs to compile a graphics pipeline
// for one primitive type. Every pipeline takes the MVP uniform at binding 0;
// Sampled adds a combined image sampler at binding 1.
type PipelineDesc struct {
	Layout   VertexLayout
	Stages   []ShaderModule
	Topology Topology
	Blend    bool
	Sampled  bool
}

// Uniforms is the per-draw uniform payload.
type Uniforms struct {
	MVP     mgl32.Mat4
	Texture Image
}

// Device is implemented by a rendering backend. It owns the logical GPU, its
// submission queue and the presentable surface.
type Device interface {
	// NewSwapchain creates the swap image set for the surface. old, when not
	// nil, is the set being replaced; it stays valid until destroyed.
	NewSwapchain(extent Extent, mode PresentMode, old Swapchain) (Swapchain, error)
	NewRenderPass(format Format) (RenderPass, error)
	NewFramebuffer(pass RenderPass, sc Swapchain, image int) (Framebuffer, error)
	NewPipeline(pass RenderPass, desc PipelineDesc) (Pipeline, error)
	NewCommandList() (CommandList, error)
	NewFence(signaled bool) (Fence, error)
	NewSemaphore() (Semaphore, error)
	// NewArena allocates size bytes of host visible memory for per-frame
	// vertex and uniform data.
	NewArena(size uint64) (Arena, error)
	// NewImage uploads tightly packed RGBA8 pixels as a sampled image.
	NewImage(width, height int, rgba []byte) (Image, error)

	// Submit queues cmd. It waits on wait, then signals signal and fence.
	Submit(cmd CommandList, wait, signal Semaphore, fence Fence) error
	// Present queues image for display once wait is signaled.
	Present(sc Swapchain, image int, wait Semaphore) (suboptimal bool, err error)
	WaitIdle() error
	Destroy()
}

// Swapchain is the rotating set of presentable images.
type Swapchain interface {
	// Acquire returns the next image index, signaling signal once the image
	// can be rendered to. It fails with ErrSurfaceOutOfDate or ErrSurfaceLost.
	Acquire(signal Semaphore) (image int, suboptimal bool, err error)
	ImageCount() int
	Format() Format
	Extent() Extent
	Destroy()
}

type RenderPass interface {
	Format() Format
	Destroy()
}

type Framebuffer interface {
	Destroy()
}

type Pipeline interface {
	Destroy()
}

type Fence interface {
	// Wait blocks until the fence is signaled, failing with ErrFenceTimeout.
	Wait(timeout time.Duration) error
	Reset() error
	Destroy()
}

type Semaphore interface {
	Destroy()
}

// Buffer is a region of an Arena holding vertex data.
type Buffer interface {
	Size() uint64
}

// UniformSet is a descriptor set written from a Uniforms payload.
type UniformSet interface{}

// Arena is a frame slot's transient memory. Everything it hands out stays
// valid until Reset, which is only called once the slot's fence signaled.
// Allocation failures wrap ErrResourceExhausted.
type Arena interface {
	Vertices(data []byte) (Buffer, error)
	Uniforms(p Pipeline, u Uniforms) (UniformSet, error)
	Reset()
	Destroy()
}

// CommandList records GPU commands for one frame.
type CommandList interface {
	Begin() error
	BeginRenderPass(pass RenderPass, fb Framebuffer, extent Extent, clear [4]float32)
	// SetViewport sets the dynamic viewport and scissor to cover extent.
	SetViewport(extent Extent)
	BindPipeline(p Pipeline)
	BindVertexBuffer(b Buffer)
	BindUniforms(p Pipeline, u UniformSet)
	Draw(vertexCount int)
	EndRenderPass()
	End() error
	Destroy()
}

// Image is a sampled RGBA8 image on the device.
type Image interface {
	Width() int
	Height() int
	Destroy()
}
