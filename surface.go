package vk2d

import (
	"errors"
	"fmt"
)

// imageSet is one generation of swap images plus everything derived from
// them. Frames in flight hold a claim on the set they render into; a retired
// set is destroyed when the last claim is released.
type imageSet struct {
	swapchain    Swapchain
	framebuffers []Framebuffer
	// pass is destroyed with the set when a format change replaced it.
	pass    RenderPass
	refs    int
	retired bool
}

func (s *imageSet) destroy() {
	for _, fb := range s.framebuffers {
		fb.Destroy()
	}
	s.framebuffers = nil
	if s.swapchain != nil {
		s.swapchain.Destroy()
		s.swapchain = nil
	}
	if s.pass != nil {
		s.pass.Destroy()
		s.pass = nil
	}
}

// SurfaceManager owns the swap image set, the render pass matching its
// format and one framebuffer per image.
type SurfaceManager struct {
	dev  Device
	mode PresentMode

	current *imageSet
	pass    RenderPass
	extent  Extent

	stale   bool
	pending Extent

	recreates int
}

func NewSurfaceManager(dev Device, mode PresentMode) *SurfaceManager {
	return &SurfaceManager{dev: dev, mode: mode}
}

// Acquire asks the swapchain for the next image, signaling signal once it
// is ready. ErrSurfaceOutOfDate marks the surface stale before it is returned.
func (s *SurfaceManager) Acquire(signal Semaphore) (int, bool, error) {
	if s.current == nil {
		return 0, false, ErrSurfaceOutOfDate
	}
	idx, suboptimal, err := s.current.swapchain.Acquire(signal)
	if err != nil {
		if errors.Is(err, ErrSurfaceOutOfDate) {
			s.MarkStale()
		}
		return 0, false, err
	}
	if suboptimal {
		s.MarkStale()
	}
	return idx, suboptimal, nil
}

// Resize records the window's new size. The swap images are rebuilt on the
// next frame, or later if a dimension is zero.
func (s *SurfaceManager) Resize(extent Extent) {
	s.pending = extent
	s.stale = true
}

// MarkStale schedules a recreate at the current size, unless a resize is
// already pending.
func (s *SurfaceManager) MarkStale() {
	if !s.stale {
		s.pending = s.extent
	}
	s.stale = true
}

func (s *SurfaceManager) Stale() bool { return s.stale }

// Pending returns the extent the next recreate will use.
func (s *SurfaceManager) Pending() Extent { return s.pending }

func (s *SurfaceManager) Extent() Extent { return s.extent }

func (s *SurfaceManager) RenderPass() RenderPass { return s.pass }

func (s *SurfaceManager) Swapchain() Swapchain {
	if s.current == nil {
		return nil
	}
	return s.current.swapchain
}

func (s *SurfaceManager) ImageCount() int {
	if s.current == nil {
		return 0
	}
	return s.current.swapchain.ImageCount()
}

func (s *SurfaceManager) Format() Format {
	if s.current == nil {
		return FormatUndefined
	}
	return s.current.swapchain.Format()
}

// Recreates counts successful swapchain builds, the first one included.
func (s *SurfaceManager) Recreates() int { return s.recreates }

// Framebuffer returns the framebuffer wrapping swap image i.
func (s *SurfaceManager) Framebuffer(i int) (Framebuffer, error) {
	if s.current == nil || i < 0 || i >= len(s.current.framebuffers) {
		return nil, fmt.Errorf("vk2d: no framebuffer for swap image %d", i)
	}
	return s.current.framebuffers[i], nil
}

// Claim pins the current image set until the returned release func runs.
// Frames claim the set at submission and release it once their fence has
// signaled.
func (s *SurfaceManager) Claim() func() {
	set := s.current
	if set == nil {
		return func() {}
	}
	set.refs++
	released := false
	return func() {
		if released {
			return
		}
		released = true
		set.refs--
		if set.retired && set.refs == 0 {
			set.destroy()
		}
	}
}

// Recreate rebuilds the swap images and framebuffers for extent. When the
// new images use a different format the render pass is rebuilt too and
// RenderPass returns the new one. The previous set is destroyed as soon as
// no frame claims it.
func (s *SurfaceManager) Recreate(extent Extent) error {
	if extent.Empty() {
		return ErrZeroExtent
	}

	var old Swapchain
	if s.current != nil {
		old = s.current.swapchain
	}
	sc, err := s.dev.NewSwapchain(extent, s.mode, old)
	if err != nil {
		return fmt.Errorf("create swapchain: %w", err)
	}

	pass := s.pass
	var replaced RenderPass
	if pass == nil || pass.Format() != sc.Format() {
		pass, err = s.dev.NewRenderPass(sc.Format())
		if err != nil {
			sc.Destroy()
			return fmt.Errorf("create render pass: %w", err)
		}
		replaced = s.pass
	}

	set := &imageSet{swapchain: sc}
	for i := 0; i < sc.ImageCount(); i++ {
		fb, err := s.dev.NewFramebuffer(pass, sc, i)
		if err != nil {
			set.destroy()
			if pass != s.pass {
				pass.Destroy()
			}
			return fmt.Errorf("create framebuffer %d: %w", i, err)
		}
		set.framebuffers = append(set.framebuffers, fb)
	}

	if prev := s.current; prev != nil {
		prev.retired = true
		prev.pass = replaced
		if prev.refs == 0 {
			prev.destroy()
		}
	} else if replaced != nil {
		replaced.Destroy()
	}

	s.current = set
	s.pass = pass
	s.extent = sc.Extent()
	s.stale = false
	s.pending = Extent{}
	s.recreates++

	Logger().Debug("vk2d: swapchain recreated",
		"width", s.extent.Width, "height", s.extent.Height,
		"images", sc.ImageCount(), "format", sc.Format())
	return nil
}

// Destroy releases the image set and render pass. Callers drain in-flight
// frames first.
func (s *SurfaceManager) Destroy() {
	if s.current != nil {
		s.current.destroy()
		s.current = nil
	}
	if s.pass != nil {
		s.pass.Destroy()
		s.pass = nil
	}
}
