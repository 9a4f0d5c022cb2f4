package vkg

import (
	"fmt"

	"github.com/celer/vk2d"
	vk "github.com/vulkan-go/vulkan"
)

// RenderPass is a single subpass pass that clears one color attachment and
// leaves it ready to present. It implements vk2d.RenderPass.
type RenderPass struct {
	Device       *Device
	VKRenderPass vk.RenderPass
	format       vk2d.Format
}

// VKRenderPassCreateInfo describes the pass for a color attachment of format.
func VKRenderPassCreateInfo(format vk.Format) vk.RenderPassCreateInfo {
	attachmentDescriptions := []vk.AttachmentDescription{{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	colorAttachments := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpassDescriptions := []vk.SubpassDescription{{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorAttachments,
	}}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}

	return vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachmentDescriptions)),
		PAttachments:    attachmentDescriptions,
		SubpassCount:    1,
		PSubpasses:      subpassDescriptions,
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}
}

func (d *Device) CreateRenderPass(format vk2d.Format) (*RenderPass, error) {
	vkFormat := fromFormat(format)
	if vkFormat == vk.FormatUndefined {
		return nil, fmt.Errorf("render pass: unsupported format %d", format)
	}

	createInfo := VKRenderPassCreateInfo(vkFormat)
	var renderPass vk.RenderPass
	err := NewError(vk.CreateRenderPass(d.VKDevice, &createInfo, nil, &renderPass))
	if err != nil {
		return nil, err
	}
	return &RenderPass{Device: d, VKRenderPass: renderPass, format: format}, nil
}

func (r *RenderPass) Format() vk2d.Format {
	return r.format
}

func (r *RenderPass) Destroy() {
	vk.DestroyRenderPass(r.Device.VKDevice, r.VKRenderPass, nil)
}
