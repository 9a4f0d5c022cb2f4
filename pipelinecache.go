package vk2d

import (
	"errors"
	"fmt"
)

// PipelineKey names a primitive type.
type PipelineKey string

const (
	KeyRectangle PipelineKey = "rectangle"
	KeyTexture   PipelineKey = "texture"
)

type pipelineEntry struct {
	pipeline Pipeline
	pass     RenderPass
}

// PipelineCache builds each pipeline once per render pass and hands out the
// same Pipeline afterwards. Entries are never mutated; a render pass change
// invalidates them and they are rebuilt on next use.
//
// Replaced pipelines may still be referenced by submitted frames, so they are
// retired rather than destroyed. Collect destroys them once the caller has
// drained the GPU.
type PipelineCache struct {
	dev     Device
	descs   map[PipelineKey]PipelineDesc
	entries map[PipelineKey]*pipelineEntry
	retired []Pipeline
	builds  int
}

func NewPipelineCache(dev Device) *PipelineCache {
	return &PipelineCache{
		dev:     dev,
		descs:   make(map[PipelineKey]PipelineDesc),
		entries: make(map[PipelineKey]*pipelineEntry),
	}
}

// Register sets the description used by Resolve for key. Registering a key
// again replaces the description and retires any pipeline built from the
// old one.
func (c *PipelineCache) Register(key PipelineKey, desc PipelineDesc) {
	c.descs[key] = desc
	c.retire(key)
}

func (c *PipelineCache) retire(key PipelineKey) {
	if e, ok := c.entries[key]; ok {
		c.retired = append(c.retired, e.pipeline)
		delete(c.entries, key)
	}
}

// Retired returns how many replaced pipelines wait for Collect.
func (c *PipelineCache) Retired() int { return len(c.retired) }

// Collect destroys the retired pipelines. No submitted frame may still use
// them.
func (c *PipelineCache) Collect() int {
	n := len(c.retired)
	for _, p := range c.retired {
		p.Destroy()
	}
	c.retired = nil
	return n
}

func (c *PipelineCache) Registered(key PipelineKey) bool {
	_, ok := c.descs[key]
	return ok
}

// Resolve returns the pipeline for a registered key.
func (c *PipelineCache) Resolve(key PipelineKey, pass RenderPass) (Pipeline, error) {
	desc, ok := c.descs[key]
	if !ok {
		return nil, &PipelineBuildError{Key: key, Err: errors.New("no pipeline registered for key")}
	}
	return c.GetOrBuild(key, desc, pass)
}

// GetOrBuild returns the cached pipeline for key if it was built against
// pass, and builds it otherwise.
func (c *PipelineCache) GetOrBuild(key PipelineKey, desc PipelineDesc, pass RenderPass) (Pipeline, error) {
	if e, ok := c.entries[key]; ok {
		if e.pass == pass {
			return e.pipeline, nil
		}
		c.retire(key)
	}

	if err := validateDesc(desc); err != nil {
		return nil, &PipelineBuildError{Key: key, Err: err}
	}
	p, err := c.dev.NewPipeline(pass, desc)
	if err != nil {
		return nil, &PipelineBuildError{Key: key, Err: err}
	}
	c.entries[key] = &pipelineEntry{pipeline: p, pass: pass}
	c.builds++

	Logger().Debug("vk2d: pipeline built", "key", string(key), "builds", c.builds)
	return p, nil
}

func validateDesc(desc PipelineDesc) error {
	var vert, frag bool
	for _, s := range desc.Stages {
		if len(s.Code) == 0 {
			return fmt.Errorf("empty %s shader", s.Stage)
		}
		switch s.Stage {
		case StageVertex:
			vert = true
		case StageFragment:
			frag = true
		}
	}
	if !vert || !frag {
		return errors.New("a vertex and a fragment stage are required")
	}
	if desc.Layout.Stride == 0 || len(desc.Layout.Attributes) == 0 {
		return errors.New("empty vertex layout")
	}
	for _, a := range desc.Layout.Attributes {
		if a.Offset+a.Format.Size() > desc.Layout.Stride {
			return fmt.Errorf("attribute %d overruns the vertex stride", a.Location)
		}
	}
	return nil
}

// Invalidate retires every entry built against pass and returns how many
// were dropped.
func (c *PipelineCache) Invalidate(pass RenderPass) int {
	n := 0
	for key, e := range c.entries {
		if e.pass == pass {
			c.retire(key)
			n++
		}
	}
	return n
}

// Builds returns how many pipelines have been compiled so far.
func (c *PipelineCache) Builds() int { return c.builds }

func (c *PipelineCache) Len() int { return len(c.entries) }

// Destroy releases every pipeline, retired ones included. Callers drain
// first.
func (c *PipelineCache) Destroy() {
	for key, e := range c.entries {
		e.pipeline.Destroy()
		delete(c.entries, key)
	}
	c.Collect()
}
