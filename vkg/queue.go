package vkg

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

type Queue struct {
	Device      *Device
	QueueFamily *QueueFamily
	VKQueue     vk.Queue
}

func (q *Queue) WaitIdle() error {
	return NewError(vk.QueueWaitIdle(q.VKQueue))
}

// SubmitWaitIdle submits the buffers and blocks until the queue drains. It is
// only used for one-off uploads.
func (q *Queue) SubmitWaitIdle(buffers ...*CommandBuffer) error {
	b := make([]vk.CommandBuffer, len(buffers))
	for i := range buffers {
		b[i] = buffers[i].VKCommandBuffer
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: uint32(len(b)),
		PCommandBuffers:    b,
	}

	err := NewError(vk.QueueSubmit(q.VKQueue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence))
	if err != nil {
		return err
	}
	return q.WaitIdle()
}

// Submit queues cmd once wait is signaled and signals signal and fence when
// it completes. Any of the sync objects may be nil.
func (q *Queue) Submit(cmd *CommandBuffer, wait, signal *Semaphore, fence *Fence) error {
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cmd.VKCommandBuffer},
	}
	if wait != nil {
		submitInfo.WaitSemaphoreCount = 1
		submitInfo.PWaitSemaphores = []vk.Semaphore{wait.VKSemaphore}
		submitInfo.PWaitDstStageMask = []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		}
	}
	if signal != nil {
		submitInfo.SignalSemaphoreCount = 1
		submitInfo.PSignalSemaphores = []vk.Semaphore{signal.VKSemaphore}
	}
	vkFence := vk.NullFence
	if fence != nil {
		vkFence = fence.VKFence
	}
	return NewError(vk.QueueSubmit(q.VKQueue, 1, []vk.SubmitInfo{submitInfo}, vkFence))
}

// Present queues image of swapchain for display once wait is signaled.
// vk.Suboptimal is reported through the bool rather than as an error.
func (q *Queue) Present(swapchain *Swapchain, image int, wait *Semaphore) (bool, error) {
	presentInfo := vk.PresentInfo{
		SType:          vk.StructureTypePresentInfo,
		SwapchainCount: 1,
		PSwapchains:    []vk.Swapchain{swapchain.VKSwapchain},
		PImageIndices:  []uint32{uint32(image)},
	}
	if wait != nil {
		presentInfo.WaitSemaphoreCount = 1
		presentInfo.PWaitSemaphores = []vk.Semaphore{wait.VKSemaphore}
	}

	res := vk.QueuePresent(q.VKQueue, &presentInfo)
	if res == vk.Suboptimal {
		return true, nil
	}
	return false, NewError(res)
}

func (q *Queue) String() string {
	return fmt.Sprintf("{Device: %s QueueFamily: %s}", q.Device.String(), q.QueueFamily.String())
}
