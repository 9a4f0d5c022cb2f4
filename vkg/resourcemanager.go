package vkg

import (
	"fmt"

	"github.com/celer/vk2d"
	"github.com/docker/go-units"
	vk "github.com/vulkan-go/vulkan"
)

const StagingPoolName = "staging"

var errInsufficientPoolSpace = fmt.Errorf("insufficient storage space in resource pool: %w", vk2d.ErrResourceExhausted)

// BufferResourcePool is one host visible block of memory with a single
// buffer spanning it. Resources are ranges of that buffer.
type BufferResourcePool struct {
	Device           *Device
	Name             string
	Usage            vk.BufferUsageFlagBits
	MemoryProperties vk.MemoryPropertyFlagBits
	Size             uint64
	Allocator        IAllocator
	Buffer           *Buffer
	Memory           *DeviceMemory
	ResourceManager  *ResourceManager
}

// AllocateBuffer hands out size bytes aligned to align. Running out of space
// fails with an error wrapping vk2d.ErrResourceExhausted.
func (p *BufferResourcePool) AllocateBuffer(size uint64, align uint64) (*BufferResource, error) {
	allocation := p.Allocator.Allocate(size, align)
	if allocation == nil {
		return nil, fmt.Errorf("pool %q: %s requested: %w", p.Name, units.BytesSize(float64(size)), errInsufficientPoolSpace)
	}
	return &BufferResource{ResourcePool: p, Allocation: allocation}, nil
}

// Reset returns every allocation to the pool.
func (p *BufferResourcePool) Reset() {
	p.Allocator.Reset()
}

func (p *BufferResourcePool) LogDetails() {
	vk2d.Logger().Debug("buffer pool",
		"name", p.Name,
		"size", units.BytesSize(float64(p.Size)),
		"usage", usageToString(p.Usage))
	p.Allocator.LogDetails(vk2d.Logger())
}

func (p *BufferResourcePool) Destroy() {
	if p.Buffer != nil {
		p.Buffer.Destroy()
		p.Buffer = nil
	}
	if p.Memory != nil {
		p.Memory.Destroy()
		p.Memory = nil
	}
	if p.ResourceManager != nil {
		delete(p.ResourceManager.bufferPools, p.Name)
	}
}

// ResourceManager owns named buffer pools. Vulkan limits the number of
// memory allocations, so per-frame data and uploads are sub-allocated from
// a few large blocks.
type ResourceManager struct {
	Device      *Device
	bufferPools map[string]*BufferResourcePool
}

func (d *Device) CreateResourceManager() *ResourceManager {
	return &ResourceManager{Device: d, bufferPools: make(map[string]*BufferResourcePool)}
}

func (r *ResourceManager) GetStagingPool() *BufferResourcePool {
	return r.bufferPools[StagingPoolName]
}

func (r *ResourceManager) AllocateStagingPool(size uint64) (*BufferResourcePool, error) {
	return r.AllocateBufferPoolWithOptions(StagingPoolName, size,
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit,
		vk.BufferUsageTransferSrcBit)
}

// AllocateHostVertexAndUniformPool creates a mapped pool usable for vertex
// buffers and uniform buffers.
func (r *ResourceManager) AllocateHostVertexAndUniformPool(name string, size uint64) (*BufferResourcePool, error) {
	return r.AllocateBufferPoolWithOptions(name, size,
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit,
		vk.BufferUsageVertexBufferBit|vk.BufferUsageUniformBufferBit)
}

func (r *ResourceManager) AllocateBufferPoolWithOptions(name string, size uint64, mprops vk.MemoryPropertyFlagBits, usage vk.BufferUsageFlagBits) (*BufferResourcePool, error) {
	if _, ok := r.bufferPools[name]; ok {
		return nil, fmt.Errorf("buffer pool %q already exists", name)
	}

	buffer, err := r.Device.CreateBufferWithOptions(size, vk.BufferUsageFlags(usage), vk.SharingModeExclusive)
	if err != nil {
		return nil, err
	}

	mr := buffer.VKMemoryRequirements()
	memory, err := r.Device.Allocate(uint64(mr.Size), mr.MemoryTypeBits, mprops)
	if err != nil {
		buffer.Destroy()
		return nil, err
	}

	if err := buffer.Bind(memory, 0); err != nil {
		buffer.Destroy()
		memory.Destroy()
		return nil, err
	}

	if _, err := memory.Map(); err != nil {
		buffer.Destroy()
		memory.Destroy()
		return nil, err
	}

	p := &BufferResourcePool{
		Device:           r.Device,
		Name:             name,
		Usage:            usage,
		MemoryProperties: mprops,
		Size:             size,
		Allocator:        &LinearAllocator{Size: size},
		Buffer:           buffer,
		Memory:           memory,
		ResourceManager:  r,
	}
	r.bufferPools[name] = p
	p.LogDetails()

	return p, nil
}

func (r *ResourceManager) LogDetails() {
	for _, pool := range r.bufferPools {
		pool.LogDetails()
	}
}

func (r *ResourceManager) Destroy() {
	for _, p := range r.bufferPools {
		p.Destroy()
	}
}

func usageToString(u vk.BufferUsageFlagBits) string {
	names := []struct {
		bit  vk.BufferUsageFlagBits
		name string
	}{
		{vk.BufferUsageTransferSrcBit, "transfer-src"},
		{vk.BufferUsageTransferDstBit, "transfer-dst"},
		{vk.BufferUsageUniformBufferBit, "uniform"},
		{vk.BufferUsageStorageBufferBit, "storage"},
		{vk.BufferUsageIndexBufferBit, "index"},
		{vk.BufferUsageVertexBufferBit, "vertex"},
	}
	s := ""
	for _, n := range names {
		if u&n.bit == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += n.name
	}
	return s
}
