package vkg

import (
	"time"

	vk "github.com/vulkan-go/vulkan"
)

// Fence implements vk2d.Fence.
type Fence struct {
	Device  *Device
	VKFence vk.Fence
}

func (d *Device) CreateFence(signaled bool) (*Fence, error) {
	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var fence vk.Fence
	err := NewError(vk.CreateFence(d.VKDevice, &fenceCreateInfo, nil, &fence))
	if err != nil {
		return nil, err
	}
	return &Fence{Device: d, VKFence: fence}, nil
}

// Signaled reports the fence status without blocking.
func (f *Fence) Signaled() bool {
	return vk.GetFenceStatus(f.Device.VKDevice, f.VKFence) == vk.Success
}

// Wait blocks until the fence is signaled. vk.Timeout becomes
// vk2d.ErrFenceTimeout.
func (f *Fence) Wait(timeout time.Duration) error {
	return NewError(vk.WaitForFences(f.Device.VKDevice, 1, []vk.Fence{f.VKFence}, vk.True, uint64(timeout.Nanoseconds())))
}

func (f *Fence) Reset() error {
	return NewError(vk.ResetFences(f.Device.VKDevice, 1, []vk.Fence{f.VKFence}))
}

func (f *Fence) Destroy() {
	vk.DestroyFence(f.Device.VKDevice, f.VKFence, nil)
}
