package vk2d

import (
	"context"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T, dev *fakeDevice, cfg Config) *Renderer {
	t.Helper()
	r, err := NewRenderer(NewContext(dev), Extent{Width: 800, Height: 600}, cfg)
	require.NoError(t, err)
	t.Cleanup(r.Destroy)
	return r
}

// frame runs one full frame and reports whether it was rendered.
func frame(t *testing.T, r *Renderer, draw func()) bool {
	t.Helper()
	ok, err := r.BeginFrame()
	require.NoError(t, err)
	if !ok {
		return false
	}
	if draw != nil {
		draw()
	}
	require.NoError(t, r.EndFrame())
	require.NoError(t, r.Present())
	return true
}

func TestRectangleEndToEnd(t *testing.T) {
	dev := newFakeDevice()
	r := newTestRenderer(t, dev, testConfig())

	ok, err := r.BeginFrame()
	require.NoError(t, err)
	require.True(t, ok)

	red := NewColorAlpha(255, 0, 0, 255)
	require.NoError(t, r.DrawRectangle(Rectangle{Position: mgl32.Vec2{100, 100}, Width: 50, Height: 50}, red))
	require.NoError(t, r.EndFrame())

	require.Len(t, dev.submits, 1)
	cmd := dev.submits[0].cmd

	begin := cmd.cmds[0]
	require.Equal(t, "begin-pass", begin.op)
	assert.InDeltaSlice(t, []float32{0.1, 0.1, 0.1, 1.0}, begin.clear[:], 1e-6)
	assert.Equal(t, Extent{Width: 800, Height: 600}, begin.extent)

	draws := cmd.draws()
	require.Len(t, draws, 1)
	assert.Equal(t, 4, draws[0].count)

	var bound *fakePipeline
	var vb *fakeBuffer
	var us *fakeUniformSet
	for _, c := range cmd.cmds {
		switch c.op {
		case "bind-pipeline":
			bound = c.pipeline
		case "bind-vertices":
			vb = c.buffer
		case "bind-uniforms":
			us = c.uniforms
		}
	}
	require.NotNil(t, bound)
	rect, err := r.Pipelines().Resolve(KeyRectangle, r.Surface().RenderPass())
	require.NoError(t, err)
	assert.Same(t, rect, Pipeline(bound))
	assert.Equal(t, ColorVertexLayout, bound.desc.Layout)

	require.NotNil(t, vb)
	assert.EqualValues(t, 4*ColorVertexLayout.Stride, vb.Size())

	require.NotNil(t, us)
	p := us.u.MVP.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 100, (p.X()+1)/2*800, 1e-3)
	assert.InDelta(t, 100, (p.Y()+1)/2*600, 1e-3)

	require.NoError(t, r.Present())
	assert.Equal(t, []int{0}, dev.presents)
}

func TestDrawOrderIsPreserved(t *testing.T) {
	dev := newFakeDevice()
	r := newTestRenderer(t, dev, testConfig())

	frame(t, r, func() {
		for _, x := range []float32{10, 20, 30} {
			require.NoError(t, r.DrawRectangle(Rectangle{Position: mgl32.Vec2{x, 0}, Width: 1, Height: 1}, NewColor(0, 0, 0)))
		}
	})

	cmd := dev.submits[0].cmd
	var xs []float32
	for _, c := range cmd.cmds {
		if c.op == "bind-uniforms" {
			origin := c.uniforms.u.MVP.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
			xs = append(xs, (origin.X()+1)/2*800)
		}
	}
	require.Len(t, xs, 3)
	assert.InDelta(t, 10, xs[0], 1e-3)
	assert.InDelta(t, 20, xs[1], 1e-3)
	assert.InDelta(t, 30, xs[2], 1e-3)

	assert.Equal(t, []string{
		"begin-pass", "viewport",
		"bind-pipeline", "bind-vertices", "bind-uniforms", "draw",
		"bind-pipeline", "bind-vertices", "bind-uniforms", "draw",
		"bind-pipeline", "bind-vertices", "bind-uniforms", "draw",
		"end-pass",
	}, cmd.ops())
}

func TestResizeToZeroSkipsFrames(t *testing.T) {
	dev := newFakeDevice()
	r := newTestRenderer(t, dev, testConfig())
	require.True(t, frame(t, r, nil))
	swapchains := len(dev.swapchains)

	r.Resize(0, 600)
	for i := 0; i < 3; i++ {
		assert.False(t, frame(t, r, func() { t.Fatal("draw called on a skipped frame") }))
	}
	assert.Len(t, dev.swapchains, swapchains, "no recreate while a dimension is zero")
	assert.Len(t, dev.submits, 1, "no submission while a dimension is zero")
	assert.Equal(t, Extent{Width: 800, Height: 600}, r.Extent())

	r.Resize(1024, 768)
	require.True(t, frame(t, r, nil))
	assert.Len(t, dev.swapchains, swapchains+1)
	assert.Len(t, dev.submits, 2)
	assert.Equal(t, Extent{Width: 1024, Height: 768}, r.Extent())
}

func TestZeroSurfaceDuringRecreateSkipsFrames(t *testing.T) {
	dev := newFakeDevice()
	r := newTestRenderer(t, dev, testConfig())
	swapchains := len(dev.swapchains)

	dev.presentErrs = []error{ErrSurfaceOutOfDate}
	require.True(t, frame(t, r, nil))
	require.True(t, r.Surface().Stale())

	// The window was minimized before its resize event: the pending extent
	// is the old size but the surface itself has none.
	dev.swapchainErrs = []error{ErrZeroExtent, ErrZeroExtent}
	for i := 0; i < 2; i++ {
		assert.False(t, frame(t, r, func() { t.Fatal("draw called on a skipped frame") }))
		assert.True(t, r.Surface().Stale())
	}
	assert.Len(t, dev.swapchains, swapchains)
	assert.Len(t, dev.submits, 1)

	require.True(t, frame(t, r, nil))
	assert.Len(t, dev.swapchains, swapchains+1)
	assert.Len(t, dev.submits, 2)
}

func TestReregisteredPipelineOutlivesSubmittedFrame(t *testing.T) {
	dev := newFakeDevice()
	r := newTestRenderer(t, dev, testConfig())
	draw := func() {
		require.NoError(t, r.DrawRectangle(Rectangle{Width: 5, Height: 5}, NewColor(1, 2, 3)))
	}

	require.True(t, frame(t, r, draw))
	require.Len(t, dev.pipelines, 1)
	old := dev.pipelines[0]
	fence := dev.submits[0].fence

	r.RegisterPipeline(KeyRectangle, RectangleDesc(testShaders()))
	assert.True(t, fence.pending)
	assert.False(t, old.destroyed, "the submitted frame still draws with it")

	require.True(t, frame(t, r, draw))
	assert.False(t, fence.pending)
	assert.True(t, old.destroyed)
	require.Len(t, dev.pipelines, 2)
	assert.False(t, dev.pipelines[1].destroyed)
	assert.Equal(t, 0, r.Pipelines().Retired())
}

func TestFailedSubmitReleasesImageClaim(t *testing.T) {
	dev := newFakeDevice()
	r := newTestRenderer(t, dev, testConfig())
	lost := errors.New("queue lost")
	dev.submitErr = lost

	ok, err := r.BeginFrame()
	require.NoError(t, err)
	require.True(t, ok)
	assert.ErrorIs(t, r.EndFrame(), lost)
	assert.Equal(t, 0, r.surface.current.refs)
	assert.Equal(t, FrameIdle, r.Sync().State())
	require.NoError(t, r.Present())

	first := dev.swapchains[0]
	dev.submitErr = nil
	r.Resize(640, 480)
	require.True(t, frame(t, r, nil))
	assert.True(t, first.destroyed, "an unclaimed image set is freed on recreate")
	assert.Len(t, dev.submits, 1)
}

func TestBeginFrameFailureLeavesSlotReusable(t *testing.T) {
	dev := newFakeDevice()
	r := newTestRenderer(t, dev, testConfig())
	cmd := r.Sync().slot().cmd.(*fakeCommandList)
	cmd.beginErr = errors.New("device busy")

	_, err := r.BeginFrame()
	assert.ErrorContains(t, err, "device busy")
	assert.Equal(t, FrameIdle, r.Sync().State())

	cmd.beginErr = nil
	require.True(t, frame(t, r, nil))
	assert.Len(t, dev.submits, 1)
}

func TestSubmitDrawOutsideFrame(t *testing.T) {
	dev := newFakeDevice()
	r := newTestRenderer(t, dev, testConfig())

	err := r.DrawRectangle(Rectangle{Width: 1, Height: 1}, NewColor(1, 2, 3))
	assert.ErrorIs(t, err, ErrNoFrame)

	cfg := testConfig()
	cfg.Debug = true
	dbg := newTestRenderer(t, newFakeDevice(), cfg)
	assert.Panics(t, func() {
		_ = dbg.DrawRectangle(Rectangle{Width: 1, Height: 1}, NewColor(1, 2, 3))
	})
}

func TestAcquireOutOfDateSkipsAndRecreatesOnce(t *testing.T) {
	dev := newFakeDevice()
	r := newTestRenderer(t, dev, testConfig())
	swapchains := len(dev.swapchains)

	dev.acquireErrs = []error{ErrSurfaceOutOfDate, ErrSurfaceOutOfDate}

	assert.False(t, frame(t, r, nil))
	assert.True(t, r.Surface().Stale())
	assert.Len(t, dev.swapchains, swapchains)

	// One recreate per tick: the second acquire fails again and the frame is
	// skipped without another rebuild.
	assert.False(t, frame(t, r, nil))
	assert.Len(t, dev.swapchains, swapchains+1)

	assert.True(t, frame(t, r, nil))
	assert.Len(t, dev.swapchains, swapchains+2)
	assert.Len(t, dev.submits, 1)
}

func TestSuboptimalContinuesThenRecreates(t *testing.T) {
	dev := newFakeDevice()
	r := newTestRenderer(t, dev, testConfig())
	swapchains := len(dev.swapchains)

	dev.acquireSub = []bool{true}
	assert.True(t, frame(t, r, nil), "suboptimal frames still render")
	assert.Len(t, dev.submits, 1)
	assert.True(t, r.Surface().Stale())

	assert.True(t, frame(t, r, nil))
	assert.Len(t, dev.swapchains, swapchains+1)
}

func TestPresentOutOfDateIsNotFatal(t *testing.T) {
	dev := newFakeDevice()
	r := newTestRenderer(t, dev, testConfig())

	dev.presentErrs = []error{ErrSurfaceOutOfDate}
	assert.True(t, frame(t, r, nil))
	assert.True(t, r.Surface().Stale())
}

func TestPresentOtherFailureIsFatal(t *testing.T) {
	dev := newFakeDevice()
	r := newTestRenderer(t, dev, testConfig())

	dev.presentErrs = []error{ErrSurfaceLost}
	ok, err := r.BeginFrame()
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, r.EndFrame())
	assert.ErrorIs(t, r.Present(), ErrSurfaceLost)
}

func TestAcquireSurfaceLostIsFatal(t *testing.T) {
	dev := newFakeDevice()
	r := newTestRenderer(t, dev, testConfig())

	dev.acquireErrs = []error{ErrSurfaceLost}
	ok, err := r.BeginFrame()
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrSurfaceLost)
	assert.Equal(t, FrameIdle, r.Sync().State())
}

func TestSlotFenceIsWaitedBeforeReuse(t *testing.T) {
	dev := newFakeDevice()
	r := newTestRenderer(t, dev, testConfig())
	require.Equal(t, 2, r.Sync().Frames(), "three swap images give two frames in flight")

	for i := 0; i < 4; i++ {
		require.True(t, frame(t, r, nil))
	}

	require.Len(t, dev.submits, 4)
	first := dev.submits[0].fence
	assert.Same(t, first, dev.submits[2].fence, "slots rotate")
	assert.NotSame(t, first, dev.submits[1].fence)
	assert.GreaterOrEqual(t, first.waits, 1)
	assert.GreaterOrEqual(t, dev.arenas[0].resets, 1)
}

func TestFenceTimeoutPropagates(t *testing.T) {
	dev := newFakeDevice()
	r := newTestRenderer(t, dev, testConfig())

	require.True(t, frame(t, r, nil))
	require.True(t, frame(t, r, nil))
	dev.submits[0].fence.stuck = true

	_, err := r.BeginFrame()
	assert.ErrorIs(t, err, ErrFenceTimeout)
}

func TestTextureDraw(t *testing.T) {
	dev := newFakeDevice()
	r := newTestRenderer(t, dev, testConfig())

	_, err := r.LoadTexture(2, 2, make([]byte, 15))
	require.Error(t, err)

	tex, err := r.LoadTexture(2, 2, make([]byte, 16))
	require.NoError(t, err)
	assert.Equal(t, 2, tex.Width())

	frame(t, r, func() {
		require.NoError(t, r.DrawTextureScaled(tex, mgl32.Vec2{10, 20}, 4))
	})

	var us *fakeUniformSet
	var bound *fakePipeline
	for _, c := range dev.submits[0].cmd.cmds {
		if c.op == "bind-uniforms" {
			us = c.uniforms
		}
		if c.op == "bind-pipeline" {
			bound = c.pipeline
		}
	}
	require.NotNil(t, us)
	assert.Same(t, tex.Image(), us.u.Texture)
	assert.True(t, bound.desc.Sampled)

	corner := us.u.MVP.Mul4x1(mgl32.Vec4{1, 1, 0, 1})
	assert.InDelta(t, 18, (corner.X()+1)/2*800, 1e-3)
	assert.InDelta(t, 28, (corner.Y()+1)/2*600, 1e-3)
}

func TestUnregisteredPipeline(t *testing.T) {
	dev := newFakeDevice()
	r := newTestRenderer(t, dev, DefaultConfig())

	frame(t, r, func() {
		err := r.DrawRectangle(Rectangle{Width: 1, Height: 1}, NewColor(1, 1, 1))
		var pbe *PipelineBuildError
		require.ErrorAs(t, err, &pbe)
		assert.Equal(t, KeyRectangle, pbe.Key)
		assert.ErrorIs(t, err, ErrPipelineBuild)
	})
}

func TestResourceExhaustedSkipsDraw(t *testing.T) {
	dev := newFakeDevice()
	dev.arenaLimit = 3
	r := newTestRenderer(t, dev, testConfig())

	frame(t, r, func() {
		require.NoError(t, r.DrawRectangle(Rectangle{Width: 1, Height: 1}, NewColor(1, 1, 1)))
		err := r.DrawRectangle(Rectangle{Width: 1, Height: 1}, NewColor(1, 1, 1))
		assert.ErrorIs(t, err, ErrResourceExhausted)
	})
	assert.Len(t, dev.submits[0].cmd.draws(), 1)
}

type fakeWindow struct {
	frames int
	polls  int
}

func (w *fakeWindow) PollEvents()       { w.polls++ }
func (w *fakeWindow) ShouldClose() bool { return w.polls >= w.frames }

func TestRun(t *testing.T) {
	dev := newFakeDevice()
	r := newTestRenderer(t, dev, testConfig())
	win := &fakeWindow{frames: 5}

	calls := 0
	err := r.Run(context.Background(), win, func(r *Renderer) error {
		calls++
		return r.DrawRectangle(Rectangle{Width: 10, Height: 10}, NewColor(9, 9, 9))
	})
	require.NoError(t, err)
	assert.Equal(t, 5, calls)
	assert.Len(t, dev.submits, 5)
	assert.Len(t, dev.presents, 5)
}

// waitingWindow resizes back to a usable size after a few waits.
type waitingWindow struct {
	fakeWindow
	r     *Renderer
	waits int
}

func (w *waitingWindow) WaitEvents() {
	w.waits++
	if w.waits == 3 {
		w.r.Resize(800, 600)
	}
}

func TestRunWaitsForEventsWhileMinimized(t *testing.T) {
	dev := newFakeDevice()
	r := newTestRenderer(t, dev, testConfig())
	win := &waitingWindow{fakeWindow: fakeWindow{frames: 4}, r: r}
	r.Resize(0, 0)

	calls := 0
	err := r.Run(context.Background(), win, func(*Renderer) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, win.waits)
	assert.Equal(t, 4, win.polls)
	assert.Equal(t, 4, calls)
	assert.Len(t, dev.submits, 4)
}

func TestRunStopsOnUpdateError(t *testing.T) {
	dev := newFakeDevice()
	r := newTestRenderer(t, dev, testConfig())
	boom := errors.New("boom")

	err := r.Run(context.Background(), &fakeWindow{frames: 10}, func(*Renderer) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Len(t, dev.submits, 1, "the frame is still submitted")
}

func TestRunStopsOnCancel(t *testing.T) {
	dev := newFakeDevice()
	r := newTestRenderer(t, dev, testConfig())
	ctx, cancel := context.WithCancel(context.Background())

	err := r.Run(ctx, &fakeWindow{frames: 100}, func(*Renderer) error {
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, dev.submits, 1)
}

func TestFrameStateMisuse(t *testing.T) {
	dev := newFakeDevice()
	r := newTestRenderer(t, dev, testConfig())

	ok, err := r.BeginFrame()
	require.NoError(t, err)
	require.True(t, ok)

	_, err = r.BeginFrame()
	assert.ErrorIs(t, err, ErrInvalidFrameState)
	assert.ErrorIs(t, r.Present(), ErrInvalidFrameState)

	require.NoError(t, r.EndFrame())
	assert.ErrorIs(t, r.EndFrame(), ErrInvalidFrameState)
	require.NoError(t, r.Present())
}

func TestNewRendererZeroExtent(t *testing.T) {
	_, err := NewRenderer(NewContext(newFakeDevice()), Extent{Width: 0, Height: 600}, testConfig())
	assert.ErrorIs(t, err, ErrZeroExtent)
}
