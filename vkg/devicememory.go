package vkg

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// DeviceMemory maps to Vulkan DeviceMemory and can either be memory on the host or on the device
type DeviceMemory struct {
	Device         *Device
	VKDeviceMemory vk.DeviceMemory
	Size           uint64
	Ptr            unsafe.Pointer
}

// IsMapped returns true if the device memory is currently mapped
func (d *DeviceMemory) IsMapped() bool {
	return d.Ptr != nil
}

// Map maps the whole block and keeps it mapped until Unmap. Mapping an
// already mapped block returns the existing pointer.
func (d *DeviceMemory) Map() (unsafe.Pointer, error) {
	if d.Ptr != nil {
		return d.Ptr, nil
	}
	var res unsafe.Pointer
	err := NewError(vk.MapMemory(d.Device.VKDevice, d.VKDeviceMemory, 0, vk.DeviceSize(d.Size), 0, &res))
	if err != nil {
		return nil, err
	}
	d.Ptr = res
	return res, nil
}

// Bytes returns the mapped range [offset, offset+size). The memory must be
// mapped.
func (d *DeviceMemory) Bytes(offset, size uint64) []byte {
	if d.Ptr == nil {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Add(d.Ptr, offset)), size)
}

// MapCopyUnmap will map this memory, copy the specified data to it and unmap
func (d *DeviceMemory) MapCopyUnmap(data []byte) error {
	wasMapped := d.IsMapped()
	if _, err := d.Map(); err != nil {
		return err
	}
	copy(d.Bytes(0, uint64(len(data))), data)
	if !wasMapped {
		d.Unmap()
	}
	return nil
}

func (d *DeviceMemory) Unmap() {
	if d.Ptr == nil {
		return
	}
	d.Ptr = nil
	vk.UnmapMemory(d.Device.VKDevice, d.VKDeviceMemory)
}

func (d *DeviceMemory) Destroy() {
	d.Unmap()
	vk.FreeMemory(d.Device.VKDevice, d.VKDeviceMemory, nil)
}
