package vkg

import (
	"github.com/celer/vk2d"
	vk "github.com/vulkan-go/vulkan"
)

// CommandBuffer describes a sequence of commands that will be executed upon
// being sent to a device queue. It implements vk2d.CommandList; the vk2d
// objects handed to it must come from the same GraphicsApp.
type CommandBuffer struct {
	VKCommandBuffer vk.CommandBuffer
	pool            *CommandPool
}

// VK is a utility function for accessing the native vulkan command buffer
func (c *CommandBuffer) VK() vk.CommandBuffer {
	return c.VKCommandBuffer
}

// Reset this command buffer
func (c *CommandBuffer) Reset() error {
	return NewError(vk.ResetCommandBuffer(c.VKCommandBuffer, 0))
}

// Begin starts recording. The pool allows per-buffer reset, so beginning
// implicitly discards the previous recording.
func (c *CommandBuffer) Begin() error {
	return c.BeginOneTime()
}

// BeginOneTime begins capturing work for this command buffer, with the
// stipulation that it will only be submitted once per recording.
func (c *CommandBuffer) BeginOneTime() error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	return NewError(vk.BeginCommandBuffer(c.VKCommandBuffer, &beginInfo))
}

func (c *CommandBuffer) BeginRenderPass(pass vk2d.RenderPass, fb vk2d.Framebuffer, extent vk2d.Extent, clear [4]float32) {
	rp := pass.(*RenderPass)
	framebuffer := fb.(*Framebuffer)

	vk.CmdBeginRenderPass(c.VKCommandBuffer, &vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp.VKRenderPass,
		Framebuffer: framebuffer.VKFramebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vkExtent(extent),
		},
		ClearValueCount: 1,
		PClearValues:    []vk.ClearValue{vk.NewClearValue(clear[:])},
	}, vk.SubpassContentsInline)
}

func (c *CommandBuffer) SetViewport(extent vk2d.Extent) {
	vk.CmdSetViewport(c.VKCommandBuffer, 0, 1, []vk.Viewport{{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}})
	vk.CmdSetScissor(c.VKCommandBuffer, 0, 1, []vk.Rect2D{{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: vkExtent(extent),
	}})
}

func (c *CommandBuffer) BindPipeline(p vk2d.Pipeline) {
	vk.CmdBindPipeline(c.VKCommandBuffer, vk.PipelineBindPointGraphics, p.(*Pipeline).VKPipeline)
}

func (c *CommandBuffer) BindVertexBuffer(b vk2d.Buffer) {
	r := b.(*BufferResource)
	vk.CmdBindVertexBuffers(c.VKCommandBuffer, 0, 1,
		[]vk.Buffer{r.VKBuffer()},
		[]vk.DeviceSize{vk.DeviceSize(r.Offset())})
}

func (c *CommandBuffer) BindUniforms(p vk2d.Pipeline, u vk2d.UniformSet) {
	c.CmdBindDescriptorSets(vk.PipelineBindPointGraphics, p.(*Pipeline).Layout, 0, u.(*DescriptorSet))
}

func (c *CommandBuffer) CmdBindDescriptorSets(bindPoint vk.PipelineBindPoint, layout *PipelineLayout, firstSet int, descriptorSets ...*DescriptorSet) {
	sets := make([]vk.DescriptorSet, len(descriptorSets))
	for i := range descriptorSets {
		sets[i] = descriptorSets[i].VKDescriptorSet
	}
	vk.CmdBindDescriptorSets(c.VKCommandBuffer, bindPoint,
		layout.VKPipelineLayout, uint32(firstSet), uint32(len(sets)), sets, 0, nil)
}

func (c *CommandBuffer) Draw(vertexCount int) {
	vk.CmdDraw(c.VKCommandBuffer, uint32(vertexCount), 1, 0, 0)
}

func (c *CommandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(c.VKCommandBuffer)
}

// End describing work for this command buffer
func (c *CommandBuffer) End() error {
	return NewError(vk.EndCommandBuffer(c.VKCommandBuffer))
}

// Destroy returns the buffer to its pool.
func (c *CommandBuffer) Destroy() {
	if c.pool != nil {
		c.pool.FreeBuffer(c)
		c.pool = nil
	}
}

func vkExtent(e vk2d.Extent) vk.Extent2D {
	return vk.Extent2D{Width: e.Width, Height: e.Height}
}
