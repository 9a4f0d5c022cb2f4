package vkg

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// Framebuffer binds one swap image view to a render pass.
type Framebuffer struct {
	Device        *Device
	VKFramebuffer vk.Framebuffer
}

func (d *Device) CreateFramebuffer(pass *RenderPass, sc *Swapchain, image int) (*Framebuffer, error) {
	if image < 0 || image >= len(sc.ImageViews) {
		return nil, fmt.Errorf("framebuffer: swap image %d out of range [0,%d)", image, len(sc.ImageViews))
	}

	attachments := []vk.ImageView{sc.ImageViews[image].VKImageView}
	fbCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      pass.VKRenderPass,
		Layers:          1,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           sc.VKExtent.Width,
		Height:          sc.VKExtent.Height,
	}

	var fb vk.Framebuffer
	err := NewError(vk.CreateFramebuffer(d.VKDevice, &fbCreateInfo, nil, &fb))
	if err != nil {
		return nil, err
	}
	return &Framebuffer{Device: d, VKFramebuffer: fb}, nil
}

func (f *Framebuffer) Destroy() {
	vk.DestroyFramebuffer(f.Device.VKDevice, f.VKFramebuffer, nil)
}
