package vk2d

import (
	"fmt"
)

// DrawRequest is one draw call: a primitive key, its vertices and an
// optional uniform payload.
type DrawRequest struct {
	Key      PipelineKey
	Vertices VertexData
	Uniforms *Uniforms
}

// FrameTarget is what a frame renders into.
type FrameTarget struct {
	Pass        RenderPass
	Framebuffer Framebuffer
	Extent      Extent
	Clear       [4]float32
}

// FrameAssembler records one frame's command list. Draws are recorded in
// the order they are received, one draw call each.
type FrameAssembler struct {
	cache  *PipelineCache
	cmd    CommandList
	arena  Arena
	target FrameTarget
	open   bool
	draws  int
}

func NewFrameAssembler(cache *PipelineCache) *FrameAssembler {
	return &FrameAssembler{cache: cache}
}

// BeginFrame opens cmd and begins the render pass on target, cleared to
// target.Clear. Vertex and uniform data for the frame is written to arena.
func (a *FrameAssembler) BeginFrame(cmd CommandList, arena Arena, target FrameTarget) error {
	if a.open {
		return fmt.Errorf("%w: frame already open", ErrInvalidFrameState)
	}
	if err := cmd.Begin(); err != nil {
		return fmt.Errorf("begin command list: %w", err)
	}
	cmd.BeginRenderPass(target.Pass, target.Framebuffer, target.Extent, target.Clear)
	cmd.SetViewport(target.Extent)

	a.cmd, a.arena, a.target = cmd, arena, target
	a.open = true
	a.draws = 0
	return nil
}

// Open reports whether a frame is being recorded.
func (a *FrameAssembler) Open() bool { return a.open }

// Draws returns the number of draws recorded in the current frame.
func (a *FrameAssembler) Draws() int { return a.draws }

// RecordDraw resolves the pipeline for req, copies its data into the arena
// and records the draw. A failure leaves the frame open with nothing recorded
// for req; ErrResourceExhausted failures can be skipped.
func (a *FrameAssembler) RecordDraw(req DrawRequest) error {
	if !a.open {
		return ErrNoFrame
	}
	if req.Vertices == nil || req.Vertices.Len() == 0 {
		return fmt.Errorf("draw %q: no vertices", string(req.Key))
	}

	p, err := a.cache.Resolve(req.Key, a.target.Pass)
	if err != nil {
		return err
	}
	vb, err := a.arena.Vertices(req.Vertices.Bytes())
	if err != nil {
		return fmt.Errorf("draw %q: vertices: %w", string(req.Key), err)
	}
	var us UniformSet
	if req.Uniforms != nil {
		if us, err = a.arena.Uniforms(p, *req.Uniforms); err != nil {
			return fmt.Errorf("draw %q: uniforms: %w", string(req.Key), err)
		}
	}

	a.cmd.BindPipeline(p)
	a.cmd.BindVertexBuffer(vb)
	if us != nil {
		a.cmd.BindUniforms(p, us)
	}
	a.cmd.Draw(req.Vertices.Len())
	a.draws++
	return nil
}

// EndFrame ends the render pass and the command list and returns it for
// submission.
func (a *FrameAssembler) EndFrame() (CommandList, error) {
	if !a.open {
		return nil, ErrNoFrame
	}
	cmd := a.cmd
	a.open = false
	a.cmd, a.arena = nil, nil

	cmd.EndRenderPass()
	if err := cmd.End(); err != nil {
		return nil, fmt.Errorf("end command list: %w", err)
	}
	return cmd, nil
}
