package vk2d

import (
	"fmt"
	"time"
)

// fakeDevice is an in-memory Device which records what the core asks of it.
type fakeDevice struct {
	imageCount int
	format     Format

	// acquireErrs and presentErrs are consumed one per call.
	acquireErrs []error
	acquireSub  []bool
	presentErrs []error
	presentSub  []bool
	pipelineErr error
	arenaLimit  int
	// swapchainErrs is consumed one per NewSwapchain call.
	swapchainErrs []error
	submitErr     error

	swapchains   []*fakeSwapchain
	passes       []*fakeRenderPass
	framebuffers []*fakeFramebuffer
	pipelines    []*fakePipeline
	cmds         []*fakeCommandList
	fences       []*fakeFence
	arenas       []*fakeArena
	semaphores   int

	submits  []fakeSubmit
	presents []int
	log      []string
	nextImg  int
}

type fakeSubmit struct {
	cmd    *fakeCommandList
	wait   Semaphore
	signal Semaphore
	fence  *fakeFence
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{imageCount: 3, format: FormatB8G8R8A8UNorm}
}

func (d *fakeDevice) record(format string, args ...any) {
	d.log = append(d.log, fmt.Sprintf(format, args...))
}

func (d *fakeDevice) NewSwapchain(extent Extent, mode PresentMode, old Swapchain) (Swapchain, error) {
	if len(d.swapchainErrs) > 0 {
		err := d.swapchainErrs[0]
		d.swapchainErrs = d.swapchainErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	sc := &fakeSwapchain{dev: d, extent: extent, images: d.imageCount, format: d.format, old: old}
	d.swapchains = append(d.swapchains, sc)
	d.record("swapchain %dx%d", extent.Width, extent.Height)
	return sc, nil
}

func (d *fakeDevice) NewRenderPass(format Format) (RenderPass, error) {
	p := &fakeRenderPass{format: format}
	d.passes = append(d.passes, p)
	return p, nil
}

func (d *fakeDevice) NewFramebuffer(pass RenderPass, sc Swapchain, image int) (Framebuffer, error) {
	fb := &fakeFramebuffer{pass: pass, sc: sc.(*fakeSwapchain), image: image}
	d.framebuffers = append(d.framebuffers, fb)
	return fb, nil
}

func (d *fakeDevice) NewPipeline(pass RenderPass, desc PipelineDesc) (Pipeline, error) {
	if d.pipelineErr != nil {
		return nil, d.pipelineErr
	}
	p := &fakePipeline{id: len(d.pipelines), pass: pass, desc: desc}
	d.pipelines = append(d.pipelines, p)
	return p, nil
}

func (d *fakeDevice) NewCommandList() (CommandList, error) {
	c := &fakeCommandList{}
	d.cmds = append(d.cmds, c)
	return c, nil
}

func (d *fakeDevice) NewFence(signaled bool) (Fence, error) {
	f := &fakeFence{dev: d, signaled: signaled}
	d.fences = append(d.fences, f)
	return f, nil
}

func (d *fakeDevice) NewSemaphore() (Semaphore, error) {
	d.semaphores++
	return &fakeSemaphore{id: d.semaphores}, nil
}

func (d *fakeDevice) NewArena(size uint64) (Arena, error) {
	a := &fakeArena{size: size, limit: d.arenaLimit}
	d.arenas = append(d.arenas, a)
	return a, nil
}

func (d *fakeDevice) NewImage(width, height int, rgba []byte) (Image, error) {
	return &fakeImage{w: width, h: height}, nil
}

func (d *fakeDevice) Submit(cmd CommandList, wait, signal Semaphore, fence Fence) error {
	f := fence.(*fakeFence)
	if f.signaled {
		return fmt.Errorf("submit with a signaled fence")
	}
	if d.submitErr != nil {
		return d.submitErr
	}
	d.submits = append(d.submits, fakeSubmit{cmd: cmd.(*fakeCommandList), wait: wait, signal: signal, fence: f})
	f.pending = true
	d.record("submit")
	return nil
}

func (d *fakeDevice) Present(sc Swapchain, image int, wait Semaphore) (bool, error) {
	d.presents = append(d.presents, image)
	d.record("present %d", image)
	var err error
	if len(d.presentErrs) > 0 {
		err, d.presentErrs = d.presentErrs[0], d.presentErrs[1:]
	}
	var sub bool
	if len(d.presentSub) > 0 {
		sub, d.presentSub = d.presentSub[0], d.presentSub[1:]
	}
	return sub, err
}

func (d *fakeDevice) WaitIdle() error { return nil }
func (d *fakeDevice) Destroy()        {}

type fakeSwapchain struct {
	dev       *fakeDevice
	extent    Extent
	images    int
	format    Format
	old       Swapchain
	destroyed bool
}

func (s *fakeSwapchain) Acquire(signal Semaphore) (int, bool, error) {
	d := s.dev
	if len(d.acquireErrs) > 0 {
		err := d.acquireErrs[0]
		d.acquireErrs = d.acquireErrs[1:]
		if err != nil {
			return 0, false, err
		}
	}
	var sub bool
	if len(d.acquireSub) > 0 {
		sub, d.acquireSub = d.acquireSub[0], d.acquireSub[1:]
	}
	img := d.nextImg % s.images
	d.nextImg++
	d.record("acquire %d", img)
	return img, sub, nil
}

func (s *fakeSwapchain) ImageCount() int { return s.images }
func (s *fakeSwapchain) Format() Format  { return s.format }
func (s *fakeSwapchain) Extent() Extent  { return s.extent }
func (s *fakeSwapchain) Destroy()        { s.destroyed = true }

type fakeRenderPass struct {
	format    Format
	destroyed bool
}

func (p *fakeRenderPass) Format() Format { return p.format }
func (p *fakeRenderPass) Destroy()       { p.destroyed = true }

type fakeFramebuffer struct {
	pass      RenderPass
	sc        *fakeSwapchain
	image     int
	destroyed bool
}

func (f *fakeFramebuffer) Destroy() { f.destroyed = true }

type fakePipeline struct {
	id        int
	pass      RenderPass
	desc      PipelineDesc
	destroyed bool
}

func (p *fakePipeline) Destroy() { p.destroyed = true }

type fakeFence struct {
	dev       *fakeDevice
	signaled  bool
	pending   bool
	waits     int
	stuck     bool
	destroyed bool
}

// Wait completes the pending submission, unless the fence is stuck.
func (f *fakeFence) Wait(timeout time.Duration) error {
	f.waits++
	if f.stuck {
		return ErrFenceTimeout
	}
	if f.pending {
		f.pending = false
		f.signaled = true
	}
	if !f.signaled {
		return ErrFenceTimeout
	}
	return nil
}

func (f *fakeFence) Reset() error {
	f.signaled = false
	return nil
}

func (f *fakeFence) Destroy() { f.destroyed = true }

type fakeSemaphore struct{ id int }

func (*fakeSemaphore) Destroy() {}

type fakeBuffer struct {
	data []byte
}

func (b *fakeBuffer) Size() uint64 { return uint64(len(b.data)) }

type fakeUniformSet struct {
	u Uniforms
}

type fakeArena struct {
	size   uint64
	limit  int
	used   int
	resets int
}

func (a *fakeArena) take() error {
	if a.limit > 0 && a.used >= a.limit {
		return fmt.Errorf("arena full: %w", ErrResourceExhausted)
	}
	a.used++
	return nil
}

func (a *fakeArena) Vertices(data []byte) (Buffer, error) {
	if err := a.take(); err != nil {
		return nil, err
	}
	return &fakeBuffer{data: append([]byte(nil), data...)}, nil
}

func (a *fakeArena) Uniforms(p Pipeline, u Uniforms) (UniformSet, error) {
	if err := a.take(); err != nil {
		return nil, err
	}
	return &fakeUniformSet{u: u}, nil
}

func (a *fakeArena) Reset() {
	a.used = 0
	a.resets++
}

func (a *fakeArena) Destroy() {}

type fakeImage struct {
	w, h      int
	destroyed bool
}

func (i *fakeImage) Width() int  { return i.w }
func (i *fakeImage) Height() int { return i.h }
func (i *fakeImage) Destroy()    { i.destroyed = true }

// fakeCmd is one recorded command.
type fakeCmd struct {
	op       string
	pipeline *fakePipeline
	buffer   *fakeBuffer
	uniforms *fakeUniformSet
	count    int
	clear    [4]float32
	fb       *fakeFramebuffer
	extent   Extent
}

type fakeCommandList struct {
	cmds      []fakeCmd
	recording bool
	beginErr  error
}

func (c *fakeCommandList) Begin() error {
	if c.beginErr != nil {
		return c.beginErr
	}
	if c.recording {
		return fmt.Errorf("command list already recording")
	}
	c.cmds = nil
	c.recording = true
	return nil
}

func (c *fakeCommandList) BeginRenderPass(pass RenderPass, fb Framebuffer, extent Extent, clear [4]float32) {
	c.cmds = append(c.cmds, fakeCmd{op: "begin-pass", fb: fb.(*fakeFramebuffer), extent: extent, clear: clear})
}

func (c *fakeCommandList) SetViewport(extent Extent) {
	c.cmds = append(c.cmds, fakeCmd{op: "viewport", extent: extent})
}

func (c *fakeCommandList) BindPipeline(p Pipeline) {
	c.cmds = append(c.cmds, fakeCmd{op: "bind-pipeline", pipeline: p.(*fakePipeline)})
}

func (c *fakeCommandList) BindVertexBuffer(b Buffer) {
	c.cmds = append(c.cmds, fakeCmd{op: "bind-vertices", buffer: b.(*fakeBuffer)})
}

func (c *fakeCommandList) BindUniforms(p Pipeline, u UniformSet) {
	c.cmds = append(c.cmds, fakeCmd{op: "bind-uniforms", uniforms: u.(*fakeUniformSet)})
}

func (c *fakeCommandList) Draw(n int) {
	c.cmds = append(c.cmds, fakeCmd{op: "draw", count: n})
}

func (c *fakeCommandList) EndRenderPass() {
	c.cmds = append(c.cmds, fakeCmd{op: "end-pass"})
}

func (c *fakeCommandList) End() error {
	if !c.recording {
		return fmt.Errorf("command list not recording")
	}
	c.recording = false
	return nil
}

func (c *fakeCommandList) Destroy() {}

func (c *fakeCommandList) ops() []string {
	ops := make([]string, len(c.cmds))
	for i, cmd := range c.cmds {
		ops[i] = cmd.op
	}
	return ops
}

func (c *fakeCommandList) draws() []fakeCmd {
	var out []fakeCmd
	for _, cmd := range c.cmds {
		if cmd.op == "draw" {
			out = append(out, cmd)
		}
	}
	return out
}

func testShaders() []ShaderModule {
	return []ShaderModule{
		{Stage: StageVertex, Code: []byte{0x03, 0x02, 0x23, 0x07}, Entry: "main"},
		{Stage: StageFragment, Code: []byte{0x03, 0x02, 0x23, 0x07}, Entry: "main"},
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Shaders[KeyRectangle] = testShaders()
	cfg.Shaders[KeyTexture] = testShaders()
	return cfg
}
