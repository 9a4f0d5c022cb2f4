package vk2d

import (
	"errors"
	"fmt"
)

var (
	// ErrSurfaceLost means the presentable surface is gone. It is fatal.
	ErrSurfaceLost = errors.New("vk2d: surface lost")

	// ErrSurfaceOutOfDate means the swap images no longer match the window.
	// The renderer recreates the swapchain and skips the frame; it never
	// reaches the caller from BeginFrame or Present.
	ErrSurfaceOutOfDate = errors.New("vk2d: surface out of date")

	// ErrPipelineBuild is matched by every *PipelineBuildError.
	ErrPipelineBuild = errors.New("vk2d: pipeline build failed")

	// ErrResourceExhausted is returned when device or pool memory runs out.
	// Callers may skip the draw and carry on.
	ErrResourceExhausted = errors.New("vk2d: resource exhausted")

	ErrNoFrame           = errors.New("vk2d: no frame is being recorded")
	ErrInvalidFrameState = errors.New("vk2d: invalid frame state transition")
	ErrFenceTimeout      = errors.New("vk2d: timed out waiting for fence")
	ErrZeroExtent        = errors.New("vk2d: surface extent has a zero dimension")
)

// PipelineBuildError reports a pipeline which could not be compiled for a key.
type PipelineBuildError struct {
	Key PipelineKey
	Err error
}

func (e *PipelineBuildError) Error() string {
	return fmt.Sprintf("vk2d: build pipeline %q: %v", string(e.Key), e.Err)
}

func (e *PipelineBuildError) Unwrap() error { return e.Err }

func (e *PipelineBuildError) Is(target error) bool { return target == ErrPipelineBuild }
