package vkg

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// Sampler wraps a vk.Sampler.
type Sampler struct {
	Device    *Device
	VKSampler vk.Sampler
}

// VKSamplerCreateInfo is nearest filtering with repeating addressing, the
// look pixel art textures expect.
func VKSamplerCreateInfo() vk.SamplerCreateInfo {
	return vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterNearest,
		MinFilter:               vk.FilterNearest,
		MipmapMode:              vk.SamplerMipmapModeNearest,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		MipLodBias:              0,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MinLod:                  0,
		MaxLod:                  0,
		BorderColor:             vk.BorderColorFloatOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
	}
}

func (d *Device) CreateSampler() (*Sampler, error) {
	createInfo := VKSamplerCreateInfo()
	var sampler vk.Sampler
	err := NewError(vk.CreateSampler(d.VKDevice, &createInfo, nil, &sampler))
	if err != nil {
		return nil, err
	}
	return &Sampler{Device: d, VKSampler: sampler}, nil
}

func (s *Sampler) Destroy() {
	vk.DestroySampler(s.Device.VKDevice, s.VKSampler, nil)
}

// Texture is a sampled RGBA8 image. It implements vk2d.Image.
type Texture struct {
	Image   *BoundImage
	View    *ImageView
	Sampler *Sampler
}

func (t *Texture) Width() int  { return int(t.Image.Extent.Width) }
func (t *Texture) Height() int { return int(t.Image.Extent.Height) }

// Destroy releases the view and image. The sampler is shared and owned by the
// GraphicsApp.
func (t *Texture) Destroy() {
	t.View.Destroy()
	t.Image.Destroy()
}

// StageTexture uploads tightly packed RGBA8 pixels through the staging pool
// and returns the image in the shader read layout. It blocks until the copy
// has completed on queue.
func StageTexture(rm *ResourceManager, pool *CommandPool, queue *Queue, sampler *Sampler, width, height int, rgba []byte) (*Texture, error) {
	if width <= 0 || height <= 0 || len(rgba) != width*height*4 {
		return nil, fmt.Errorf("texture: %d bytes do not hold %dx%d RGBA8 pixels", len(rgba), width, height)
	}
	staging := rm.GetStagingPool()
	if staging == nil {
		return nil, fmt.Errorf("texture: no '%s' pool has been created", StagingPoolName)
	}

	src, err := staging.AllocateBuffer(uint64(len(rgba)), 4)
	if err != nil {
		return nil, err
	}
	defer src.Free()
	copy(src.Bytes(), rgba)

	extent := vk.Extent2D{Width: uint32(width), Height: uint32(height)}
	img, err := rm.Device.CreateBoundImage(extent, vk.FormatR8g8b8a8Unorm, vk.ImageTilingOptimal,
		vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit,
		vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		return nil, err
	}

	cmd, err := pool.AllocateBuffer()
	if err != nil {
		img.Destroy()
		return nil, err
	}
	defer cmd.Destroy()

	if err := cmd.BeginOneTime(); err != nil {
		img.Destroy()
		return nil, err
	}
	cmd.TransitionImageLayout(&img.Image, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
	cmd.CopyBufferToImage(src, img)
	cmd.TransitionImageLayout(&img.Image, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	if err := cmd.End(); err != nil {
		img.Destroy()
		return nil, err
	}
	if err := queue.SubmitWaitIdle(cmd); err != nil {
		img.Destroy()
		return nil, err
	}

	view, err := img.CreateImageView()
	if err != nil {
		img.Destroy()
		return nil, err
	}
	return &Texture{Image: img, View: view, Sampler: sampler}, nil
}

// TransitionImageLayout records a barrier for the two upload transitions.
func (c *CommandBuffer) TransitionImageLayout(img *Image, oldLayout, newLayout vk.ImageLayout) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img.VKImage,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}

	var sourceStage, destStage vk.PipelineStageFlags
	switch {
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal:
		barrier.SrcAccessMask = 0
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		sourceStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
		destStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		sourceStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		destStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	default:
		sourceStage = vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit)
		destStage = vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit)
	}

	vk.CmdPipelineBarrier(c.VKCommandBuffer, sourceStage, destStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

func (c *CommandBuffer) CopyBufferToImage(src *BufferResource, dst *BoundImage) {
	vk.CmdCopyBufferToImage(c.VKCommandBuffer, src.VKBuffer(), dst.VKImage, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{{
		BufferOffset: vk.DeviceSize(src.Offset()),
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageOffset: vk.Offset3D{},
		ImageExtent: vk.Extent3D{Width: dst.Extent.Width, Height: dst.Extent.Height, Depth: 1},
	}})
}
