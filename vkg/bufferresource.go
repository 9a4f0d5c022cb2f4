package vkg

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// BufferResource is a range of a BufferResourcePool's buffer, for example
// a vertex run or a uniform block. It implements vk2d.Buffer.
type BufferResource struct {
	ResourcePool *BufferResourcePool
	Allocation   *Allocation
}

func (r *BufferResource) Size() uint64 {
	return r.Allocation.Size
}

func (r *BufferResource) Offset() uint64 {
	return r.Allocation.Offset
}

// VKBuffer is the pool buffer the range lives in.
func (r *BufferResource) VKBuffer() vk.Buffer {
	return r.ResourcePool.Buffer.VKBuffer
}

// Bytes returns a byte slice representing the mapped memory, which can be
// read from or copied to
func (r *BufferResource) Bytes() []byte {
	return r.ResourcePool.Memory.Bytes(r.Allocation.Offset, r.Allocation.Size)
}

// DSInfo describes the range for a uniform buffer descriptor.
func (r *BufferResource) DSInfo() vk.DescriptorBufferInfo {
	return vk.DescriptorBufferInfo{
		Buffer: r.VKBuffer(),
		Offset: vk.DeviceSize(r.Allocation.Offset),
		Range:  vk.DeviceSize(r.Allocation.Size),
	}
}

func (r *BufferResource) String() string {
	return fmt.Sprintf("%s%s", r.ResourcePool.Name, r.Allocation)
}

// Free this resource and it's associated resources
func (r *BufferResource) Free() {
	if r.Allocation != nil {
		r.ResourcePool.Allocator.Free(r.Allocation)
		r.Allocation = nil
	}
}
