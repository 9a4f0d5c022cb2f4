/*
Package vkg is the Vulkan backend of vk2d. It wraps the parts of the Vulkan API a
2D renderer needs and exposes them through GraphicsApp, which implements
vk2d.Device.

Native Vulkan structures are exposed on every object under fields prefixed with
'VK', so callers are not limited by what the wrappers provide.

Native Vulkan terms
	Instance 	the vulkan runtime instance
	PhysicalDevice	the physical hardware device
	LogicalDevice	a representation of the device which is the target of most of the vulkan apis.
	Pipeline	a description of how to process data on the GPU
	Queue 		a queue which work (comand buffers) may be submitted to
	DeviceMemory	a allocation of memory on the host or device for use by buffers and images
	Buffer		a description of some bit of data (vertex, index, or other)
	Image		a description of some image
	DescriptorSet 	a mapping of data for use by shaders
	Swapchain	a grouping of images which are used to display graphical data

Memory

Vulkan caps the number of device allocations, so the ResourceManager allocates
a few large host visible pools and sub-allocates from them with a
LinearAllocator. Each frame slot gets its own pool, an Arena, which is reset
once the slot's fence has signaled. Textures are uploaded through a single
staging pool; WithStagingSize bounds the largest texture that can be loaded.

Setup

The window library must hand its instance proc address to the loader before
New is called:

	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	dev, err := vkg.New(window, vkg.WithValidation(true))
*/
package vkg
