/*
Package vk2d manages the per-frame rendering lifecycle of a 2D GPU drawing surface.

A Renderer owns the swap surface and its backing images (SurfaceManager), a cache of
graphics pipelines keyed by primitive type (PipelineCache), the per-frame command
recording (FrameAssembler) and the fences and semaphores which keep the CPU from
writing memory the GPU is still reading (SyncTracker).

The package is backend neutral. A backend implements Device and the handle
interfaces declared in driver.go; the vkg package provides one on top of Vulkan.

A frame looks like this:

	for !window.ShouldClose() {
		window.PollEvents()
		ok, err := r.BeginFrame()
		if err != nil {
			return err
		}
		if !ok {
			continue // surface stale or zero sized, try again next tick
		}
		r.DrawRectangle(vk2d.Rectangle{Position: mgl32.Vec2{100, 100}, Width: 50, Height: 50}, vk2d.NewColor(255, 0, 0))
		if err := r.EndFrame(); err != nil {
			return err
		}
		if err := r.Present(); err != nil {
			return err
		}
	}

Renderer.Run wraps the same loop.

Clip space follows the Vulkan convention: X grows to the right, Y grows downwards and
depth is in [0,1]. The camera package builds matrices for that convention only.
*/
package vk2d
