package vkg

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vk2d"
)

const (
	vertexAlign = 4
	mvpSize     = uint64(unsafe.Sizeof(mgl32.Mat4{}))
)

// Arena is one frame slot's transient memory: a mapped buffer pool for
// vertices and uniform blocks, and a descriptor pool sized for maxDraws sets.
// It implements vk2d.Arena.
type Arena struct {
	Pool         *BufferResourcePool
	Descriptors  *DescriptorPool
	UniformAlign uint64
}

func (p *GraphicsApp) createArena(name string, size uint64) (*Arena, error) {
	pool, err := p.ResourceManager.AllocateHostVertexAndUniformPool(name, size)
	if err != nil {
		return nil, err
	}

	dp := &DescriptorPool{}
	dp.AddPoolSize(vk.DescriptorTypeUniformBuffer, p.maxDraws)
	dp.AddPoolSize(vk.DescriptorTypeCombinedImageSampler, p.maxDraws)
	dp, err = p.Device.CreateDescriptorPool(dp, p.maxDraws)
	if err != nil {
		pool.Destroy()
		return nil, err
	}

	return &Arena{
		Pool:         pool,
		Descriptors:  dp,
		UniformAlign: p.PhysicalDevice.MinUniformBufferOffsetAlignment(),
	}, nil
}

// Vertices copies data into the arena.
func (a *Arena) Vertices(data []byte) (vk2d.Buffer, error) {
	if len(data) == 0 {
		return nil, errors.New("arena: no vertex data")
	}
	r, err := a.Pool.AllocateBuffer(uint64(len(data)), vertexAlign)
	if err != nil {
		return nil, err
	}
	copy(r.Bytes(), data)
	return r, nil
}

// Uniforms writes the MVP block and allocates a descriptor set pointing at
// it, plus the texture for sampled pipelines.
func (a *Arena) Uniforms(p vk2d.Pipeline, u vk2d.Uniforms) (vk2d.UniformSet, error) {
	pipeline, ok := p.(*Pipeline)
	if !ok {
		return nil, fmt.Errorf("arena: pipeline %T was not created by this device", p)
	}

	var tex *Texture
	if pipeline.Sampled {
		tex, ok = u.Texture.(*Texture)
		if !ok || tex == nil {
			return nil, fmt.Errorf("arena: sampled pipeline needs a texture, got %T", u.Texture)
		}
	}

	ubo, err := a.Pool.AllocateBuffer(mvpSize, a.UniformAlign)
	if err != nil {
		return nil, err
	}
	copy(ubo.Bytes(), mat4Bytes(&u.MVP))

	set, err := a.Descriptors.Allocate(pipeline.SetLayout)
	if err != nil {
		return nil, fmt.Errorf("arena: descriptor set: %w", err)
	}
	set.AddBuffer(uniformBinding, vk.DescriptorTypeUniformBuffer, ubo)
	if tex != nil {
		set.AddCombinedImageSampler(samplerBinding, vk.ImageLayoutShaderReadOnlyOptimal,
			tex.View.VKImageView, tex.Sampler.VKSampler)
	}
	set.Write()

	return set, nil
}

// Reset drops everything handed out since the last reset. The slot's fence
// must have signaled.
func (a *Arena) Reset() {
	a.Pool.Reset()
	if err := a.Descriptors.Reset(); err != nil {
		vk2d.Logger().Warn("arena: descriptor pool reset failed", "pool", a.Pool.Name, "error", err)
	}
}

func (a *Arena) Destroy() {
	a.Descriptors.Destroy()
	a.Pool.Destroy()
}

// mat4Bytes views a column major matrix as the std140 mat4 the vertex shader
// reads.
func mat4Bytes(m *mgl32.Mat4) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&m[0])), mvpSize)
}
