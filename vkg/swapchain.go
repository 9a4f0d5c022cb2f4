package vkg

import (
	"fmt"

	"github.com/celer/vk2d"
	vk "github.com/vulkan-go/vulkan"
)

// Swapchain implements vk2d.Swapchain. It owns a view for every image.
type Swapchain struct {
	Device      *Device
	VKSwapchain vk.Swapchain
	VKExtent    vk.Extent2D
	VKFormat    vk.Format
	PresentMode vk.PresentMode
	Images      []*Image
	ImageViews  []*ImageView
}

type CreateSwapchainOptions struct {
	OldSwapchain              *Swapchain
	ActualSize                vk.Extent2D
	PresentMode               vk2d.PresentMode
	DesiredNumSwapchainImages int
}

func (d *Device) CreateSwapchain(surface vk.Surface, graphicsQueue, presentQueue *Queue, options CreateSwapchainOptions) (*Swapchain, error) {
	pd := d.PhysicalDevice

	modes, err := pd.GetSurfacePresentModes(surface)
	if err != nil {
		return nil, err
	}
	formats, err := pd.GetSurfaceFormats(surface)
	if err != nil {
		return nil, err
	}
	caps, err := pd.GetSurfaceCapabilities(surface)
	if err != nil {
		return nil, err
	}

	format := chooseSurfaceFormat(formats)
	presentMode := choosePresentMode(modes, options.PresentMode)
	extent := swapExtent(caps, options.ActualSize)
	if extent.Width == 0 || extent.Height == 0 {
		return nil, vk2d.ErrZeroExtent
	}

	createInfo := &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    swapImageCount(caps, options.DesiredNumSwapchainImages),
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      extent,
		PresentMode:      presentMode,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageArrayLayers: 1,
		Clipped:          vk.True,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		OldSwapchain:     vk.NullSwapchain,
	}
	if options.OldSwapchain != nil {
		createInfo.OldSwapchain = options.OldSwapchain.VKSwapchain
	}

	if graphicsQueue.QueueFamily.Index != presentQueue.QueueFamily.Index {
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{uint32(graphicsQueue.QueueFamily.Index), uint32(presentQueue.QueueFamily.Index)}
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
	} else {
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var swapchain vk.Swapchain
	err = NewError(vk.CreateSwapchain(d.VKDevice, createInfo, nil, &swapchain))
	if err != nil {
		return nil, err
	}

	ret := &Swapchain{
		Device:      d,
		VKSwapchain: swapchain,
		VKExtent:    extent,
		VKFormat:    format.Format,
		PresentMode: presentMode,
	}
	if err := ret.createImageViews(); err != nil {
		ret.Destroy()
		return nil, err
	}
	return ret, nil
}

func (s *Swapchain) createImageViews() error {
	var imageCount uint32
	err := NewError(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, nil))
	if err != nil {
		return err
	}
	swapchainImages := make([]vk.Image, imageCount)
	err = NewError(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, swapchainImages))
	if err != nil {
		return err
	}

	for _, img := range swapchainImages {
		// swap images belong to the swapchain and are never destroyed directly
		image := &Image{Device: s.Device, VKImage: img, VKFormat: s.VKFormat}
		view, err := image.CreateImageView()
		if err != nil {
			return err
		}
		s.Images = append(s.Images, image)
		s.ImageViews = append(s.ImageViews, view)
	}
	return nil
}

// Acquire returns the next image to render to. vk.Suboptimal still yields an
// image; out of date and lost surfaces wrap the vk2d sentinels.
func (s *Swapchain) Acquire(signal vk2d.Semaphore) (int, bool, error) {
	var sem vk.Semaphore
	if signal != nil {
		sem = signal.(*Semaphore).VKSemaphore
	}
	var idx uint32
	res := vk.AcquireNextImage(s.Device.VKDevice, s.VKSwapchain, vk.MaxUint64, sem, vk.NullFence, &idx)
	switch res {
	case vk.Success:
		return int(idx), false, nil
	case vk.Suboptimal:
		return int(idx), true, nil
	}
	return 0, false, NewError(res)
}

func (s *Swapchain) ImageCount() int {
	return len(s.Images)
}

func (s *Swapchain) Format() vk2d.Format {
	return toFormat(s.VKFormat)
}

func (s *Swapchain) Extent() vk2d.Extent {
	return vk2d.Extent{Width: s.VKExtent.Width, Height: s.VKExtent.Height}
}

func (s *Swapchain) String() string {
	return fmt.Sprintf("{ Images: %d Extent: %dx%d Format: %d }", len(s.Images), s.VKExtent.Width, s.VKExtent.Height, s.VKFormat)
}

func (s *Swapchain) Destroy() {
	for _, view := range s.ImageViews {
		view.Destroy()
	}
	s.ImageViews = nil
	s.Images = nil
	vk.DestroySwapchain(s.Device.VKDevice, s.VKSwapchain, nil)
}

var preferredFormats = []vk.Format{
	vk.FormatB8g8r8a8Unorm,
	vk.FormatR8g8b8a8Unorm,
	vk.FormatB8g8r8a8Srgb,
	vk.FormatR8g8b8a8Srgb,
}

// chooseSurfaceFormat picks the first preferred format the surface offers,
// favouring the sRGB non-linear color space. A lone undefined entry means
// any format is allowed.
func chooseSurfaceFormat(formats VKSurfaceFormats) vk.SurfaceFormat {
	if len(formats) == 0 || (len(formats) == 1 && formats[0].Format == vk.FormatUndefined) {
		return vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	}
	for _, want := range preferredFormats {
		m := formats.Filter(func(f vk.SurfaceFormat) bool {
			return f.Format == want && f.ColorSpace == vk.ColorSpaceSrgbNonlinear
		})
		if len(m) > 0 {
			return m[0]
		}
	}
	for _, want := range preferredFormats {
		m := formats.Filter(func(f vk.SurfaceFormat) bool {
			return f.Format == want
		})
		if len(m) > 0 {
			return m[0]
		}
	}
	return formats[0]
}

// choosePresentMode uses mailbox when asked for and supported. FIFO is
// always available.
func choosePresentMode(modes VKPresentModes, want vk2d.PresentMode) vk.PresentMode {
	if want == vk2d.PresentMailbox && modes.Has(vk.PresentModeMailbox) {
		return vk.PresentModeMailbox
	}
	return vk.PresentModeFifo
}

// swapExtent uses the surface's current extent unless the surface lets the
// swapchain decide, in which case want is clamped to the allowed range.
func swapExtent(caps *vk.SurfaceCapabilities, want vk.Extent2D) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clamp(want.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(want.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// swapImageCount defaults to one more than the minimum. A zero maximum means
// there is no limit.
func swapImageCount(caps *vk.SurfaceCapabilities, desired int) uint32 {
	n := uint32(desired)
	if desired <= 0 {
		n = caps.MinImageCount + 1
	}
	if n < caps.MinImageCount {
		n = caps.MinImageCount
	}
	if caps.MaxImageCount > 0 && n > caps.MaxImageCount {
		n = caps.MaxImageCount
	}
	return n
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func toFormat(f vk.Format) vk2d.Format {
	switch f {
	case vk.FormatB8g8r8a8Unorm:
		return vk2d.FormatB8G8R8A8UNorm
	case vk.FormatB8g8r8a8Srgb:
		return vk2d.FormatB8G8R8A8SRGB
	case vk.FormatR8g8b8a8Unorm:
		return vk2d.FormatR8G8B8A8UNorm
	case vk.FormatR8g8b8a8Srgb:
		return vk2d.FormatR8G8B8A8SRGB
	}
	return vk2d.FormatUndefined
}

func fromFormat(f vk2d.Format) vk.Format {
	switch f {
	case vk2d.FormatB8G8R8A8UNorm:
		return vk.FormatB8g8r8a8Unorm
	case vk2d.FormatB8G8R8A8SRGB:
		return vk.FormatB8g8r8a8Srgb
	case vk2d.FormatR8G8B8A8UNorm:
		return vk.FormatR8g8b8a8Unorm
	case vk2d.FormatR8G8B8A8SRGB:
		return vk.FormatR8g8b8a8Srgb
	}
	return vk.FormatUndefined
}
