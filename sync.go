package vk2d

import (
	"fmt"
	"time"
)

// FrameState is the position of a frame slot in its lifecycle.
type FrameState int

const (
	FrameIdle FrameState = iota
	FrameAcquiring
	FrameRecording
	FrameSubmitted
	FramePresenting
)

func (s FrameState) String() string {
	switch s {
	case FrameIdle:
		return "idle"
	case FrameAcquiring:
		return "acquiring"
	case FrameRecording:
		return "recording"
	case FrameSubmitted:
		return "submitted"
	case FramePresenting:
		return "presenting"
	}
	return fmt.Sprintf("FrameState(%d)", int(s))
}

// frameSlot is the state of one frame which may be in flight.
type frameSlot struct {
	index int
	state FrameState
	image int

	cmd      CommandList
	acquired Semaphore
	rendered Semaphore
	fence    Fence
	arena    Arena

	// inFlight is set from submission until the fence wait returns.
	inFlight bool
	release  func()
}

func (f *frameSlot) destroy() {
	for _, d := range []interface{ Destroy() }{f.cmd, f.acquired, f.rendered, f.fence, f.arena} {
		if d != nil {
			d.Destroy()
		}
	}
}

// SyncTracker rotates through the frame slots and chains the image-acquired
// semaphore, the render-complete semaphore and the per-slot fence so the CPU
// never touches memory a submitted frame may still read.
type SyncTracker struct {
	dev     Device
	slots   []*frameSlot
	current int
	timeout time.Duration

	// owner maps a swap image to the slot which last rendered it, -1 if none.
	owner []int
}

// NewSyncTracker creates frames slots, each with its own command list,
// semaphores, fence and an arena of arenaSize bytes.
func NewSyncTracker(dev Device, frames int, arenaSize uint64, timeout time.Duration) (*SyncTracker, error) {
	if frames < 1 {
		frames = 1
	}
	t := &SyncTracker{dev: dev, timeout: timeout}
	for i := 0; i < frames; i++ {
		slot, err := t.newSlot(i, arenaSize)
		if err != nil {
			t.Destroy()
			return nil, err
		}
		t.slots = append(t.slots, slot)
	}
	return t, nil
}

func (t *SyncTracker) newSlot(i int, arenaSize uint64) (*frameSlot, error) {
	var err error
	slot := &frameSlot{index: i, image: -1}
	defer func() {
		if err != nil {
			slot.destroy()
		}
	}()

	if slot.cmd, err = t.dev.NewCommandList(); err != nil {
		return nil, fmt.Errorf("frame %d: command list: %w", i, err)
	}
	if slot.acquired, err = t.dev.NewSemaphore(); err != nil {
		return nil, fmt.Errorf("frame %d: semaphore: %w", i, err)
	}
	if slot.rendered, err = t.dev.NewSemaphore(); err != nil {
		return nil, fmt.Errorf("frame %d: semaphore: %w", i, err)
	}
	// Created signaled so the first wait returns at once.
	if slot.fence, err = t.dev.NewFence(true); err != nil {
		return nil, fmt.Errorf("frame %d: fence: %w", i, err)
	}
	if slot.arena, err = t.dev.NewArena(arenaSize); err != nil {
		return nil, fmt.Errorf("frame %d: arena: %w", i, err)
	}
	return slot, nil
}

func (t *SyncTracker) Frames() int { return len(t.slots) }

func (t *SyncTracker) slot() *frameSlot { return t.slots[t.current] }

// State returns the state of the current slot.
func (t *SyncTracker) State() FrameState { return t.slot().state }

func (t *SyncTracker) transition(from, to FrameState) (*frameSlot, error) {
	slot := t.slot()
	if slot.state != from {
		return nil, fmt.Errorf("%w: frame %d is %s, want %s", ErrInvalidFrameState, slot.index, slot.state, from)
	}
	slot.state = to
	return slot, nil
}

// wait blocks until slot's last submission completed, then releases its
// claims and recycles its arena.
func (t *SyncTracker) wait(slot *frameSlot) error {
	if !slot.inFlight {
		return nil
	}
	if err := slot.fence.Wait(t.timeout); err != nil {
		return fmt.Errorf("frame %d: %w", slot.index, err)
	}
	slot.inFlight = false
	if slot.release != nil {
		slot.release()
		slot.release = nil
	}
	slot.arena.Reset()
	return nil
}

// Begin moves the current slot from Idle to Acquiring, waiting for the GPU
// to finish the frame the slot last carried.
func (t *SyncTracker) Begin() error {
	slot, err := t.transition(FrameIdle, FrameAcquiring)
	if err != nil {
		return err
	}
	if err := t.wait(slot); err != nil {
		slot.state = FrameIdle
		return err
	}
	return nil
}

// Acquired records the acquired image and moves to Recording. If another
// slot still renders into that image its fence is waited for as well.
func (t *SyncTracker) Acquired(image int) error {
	slot, err := t.transition(FrameAcquiring, FrameRecording)
	if err != nil {
		return err
	}
	if image < len(t.owner) {
		if prev := t.owner[image]; prev >= 0 && prev != slot.index {
			if err := t.wait(t.slots[prev]); err != nil {
				slot.state = FrameAcquiring
				return err
			}
		}
	}
	slot.image = image
	return nil
}

// Abandon returns an Acquiring or Recording slot to Idle without submitting
// anything. Used when the frame is skipped or failed before submission. The
// fence is only reset right before a submit, so the next wait on this slot
// does not block.
func (t *SyncTracker) Abandon() {
	switch slot := t.slot(); slot.state {
	case FrameAcquiring, FrameRecording:
		slot.state = FrameIdle
		slot.image = -1
	}
}

// Submit resets the slot fence and queues cmd. The submission waits on the
// image-acquired semaphore and signals render-complete and the fence.
// release, if not nil, runs once the fence has been observed signaled.
func (t *SyncTracker) Submit(cmd CommandList, release func()) error {
	slot, err := t.transition(FrameRecording, FrameSubmitted)
	if err != nil {
		return err
	}
	if err := slot.fence.Reset(); err != nil {
		slot.state = FrameRecording
		return fmt.Errorf("frame %d: reset fence: %w", slot.index, err)
	}
	if err := t.dev.Submit(cmd, slot.acquired, slot.rendered, slot.fence); err != nil {
		slot.state = FrameRecording
		return fmt.Errorf("frame %d: submit: %w", slot.index, err)
	}
	slot.inFlight = true
	slot.release = release
	if slot.image >= 0 && slot.image < len(t.owner) {
		t.owner[slot.image] = slot.index
	}
	return nil
}

// Present queues the slot's image on sc behind the render-complete
// semaphore and advances to the next slot. The slot returns to Idle whatever
// the outcome; its fence still guards reuse.
func (t *SyncTracker) Present(sc Swapchain) (bool, error) {
	slot, err := t.transition(FrameSubmitted, FramePresenting)
	if err != nil {
		return false, err
	}
	suboptimal, err := t.dev.Present(sc, slot.image, slot.rendered)
	slot.state = FrameIdle
	t.current = (t.current + 1) % len(t.slots)
	return suboptimal, err
}

// Drain waits for every in-flight slot.
func (t *SyncTracker) Drain() error {
	for _, slot := range t.slots {
		if err := t.wait(slot); err != nil {
			return err
		}
	}
	return nil
}

// ResetImages forgets image ownership after the swap image set changed.
func (t *SyncTracker) ResetImages(count int) {
	t.owner = make([]int, count)
	for i := range t.owner {
		t.owner[i] = -1
	}
}

// Destroy releases every slot. Callers drain first.
func (t *SyncTracker) Destroy() {
	for _, slot := range t.slots {
		if slot.release != nil {
			slot.release()
			slot.release = nil
		}
		slot.destroy()
	}
	t.slots = nil
}
