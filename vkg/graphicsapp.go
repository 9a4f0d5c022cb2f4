package vkg

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/docker/go-units"
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vk2d"
)

const swapchainExtension = "VK_KHR_swapchain"

// Window is the part of a GLFW window the backend needs. *glfw.Window from
// github.com/go-gl/glfw/v3.3/glfw satisfies it.
type Window interface {
	GetRequiredInstanceExtensions() []string
	CreateWindowSurface(instance interface{}, allocCallbacks unsafe.Pointer) (uintptr, error)
}

// GraphicsApp owns the Vulkan instance, the window surface, the logical
// device and its queues. It implements vk2d.Device.
//
// See https://vulkan-tutorial.com/ for a good walkthrough of what this code does.
type GraphicsApp struct {
	Instance *Instance
	App      *App

	Window    Window
	VKSurface vk.Surface

	Device         *Device
	PhysicalDevice *PhysicalDevice

	GraphicsQueue *Queue
	PresentQueue  *Queue

	GraphicsCommandPool *CommandPool
	PipelineCache       *PipelineCache
	ResourceManager     *ResourceManager
	Sampler             *Sampler

	validation  bool
	deviceIndex int
	maxDraws    int
	stagingSize uint64
	arenas      int
}

var _ vk2d.Device = (*GraphicsApp)(nil)

// New initializes Vulkan for window. vk.SetGetInstanceProcAddr must have been
// called first, glfw.GetVulkanGetInstanceProcAddress provides the pointer.
func New(window Window, opts ...Option) (*GraphicsApp, error) {
	p := &GraphicsApp{
		App:         &App{Name: "vk2d", EngineName: "vk2d"},
		Window:      window,
		deviceIndex: -1,
		maxDraws:    DefaultMaxDraws,
		stagingSize: DefaultStagingSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.Init(); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

// Init creates everything up to and including the logical device.
func (p *GraphicsApp) Init() error {
	if p.Instance != nil {
		return errors.New("graphics app already initialized")
	}
	if err := vk.Init(); err != nil {
		return fmt.Errorf("vulkan loader: %w", err)
	}

	if err := p.enableWindowExtensions(); err != nil {
		return err
	}
	if p.validation {
		if err := p.App.EnableDebugging(); err != nil {
			vk2d.Logger().Warn("vkg: validation unavailable", "error", err)
			p.validation = false
		}
	}

	var err error
	p.Instance, err = p.App.CreateInstance()
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	if p.validation {
		if err := p.Instance.UseDefaultDebugCallback(); err != nil {
			vk2d.Logger().Warn("vkg: debug callback unavailable", "error", err)
		}
	}

	surface, err := p.Window.CreateWindowSurface(p.Instance.VKInstance, nil)
	if err != nil {
		return fmt.Errorf("create window surface: %w", err)
	}
	p.VKSurface = vk.SurfaceFromPointer(surface)

	physicalDevices, err := p.Instance.PhysicalDevices()
	if err != nil {
		return fmt.Errorf("error getting devices: %w", err)
	}
	pdevice, err := pickPhysicalDevice(physicalDevices, p.deviceIndex)
	if err != nil {
		return err
	}
	if ok, err := pdevice.SupportsExtension(swapchainExtension); err != nil || !ok {
		return fmt.Errorf("device %s does not support %s", pdevice, swapchainExtension)
	}

	queues, err := pdevice.QueueFamilies()
	if err != nil {
		return fmt.Errorf("unable to load device queue families: %w", err)
	}
	gq, pq, err := pickQueues(queues, p.VKSurface)
	if err != nil {
		return fmt.Errorf("%w: device %s", err, pdevice)
	}

	ldevice, err := pdevice.CreateLogicalDeviceWithOptions(QueueFamilySlice{gq, pq}, &CreateDeviceOptions{
		EnabledExtensions: []string{swapchainExtension},
	})
	if err != nil {
		return fmt.Errorf("unable to create device: %w", err)
	}
	p.Device = ldevice
	p.PhysicalDevice = pdevice
	p.GraphicsQueue = ldevice.GetQueue(gq)
	p.PresentQueue = ldevice.GetQueue(pq)

	p.GraphicsCommandPool, err = ldevice.CreateCommandPool(gq)
	if err != nil {
		return err
	}
	p.PipelineCache, err = ldevice.CreatePipelineCache()
	if err != nil {
		return err
	}
	p.ResourceManager = ldevice.CreateResourceManager()
	if _, err := p.ResourceManager.AllocateStagingPool(p.stagingSize); err != nil {
		return fmt.Errorf("staging pool: %w", err)
	}
	p.Sampler, err = ldevice.CreateSampler()
	if err != nil {
		return err
	}

	vk2d.Logger().Info("vkg: device ready",
		"device", pdevice.DeviceName,
		"discrete", pdevice.IsDiscrete(),
		"graphics_queue", gq.Index,
		"present_queue", pq.Index,
		"staging", units.BytesSize(float64(p.stagingSize)),
		"validation", p.validation)
	return nil
}

func (p *GraphicsApp) enableWindowExtensions() error {
	supported, err := SupportedExtensions()
	if err != nil {
		return err
	}
	for _, ext := range p.Window.GetRequiredInstanceExtensions() {
		if !contains(supported, ext) {
			return fmt.Errorf("extension '%s' required by the window is not supported by vulkan", ext)
		}
		p.App.EnableExtension(ext)
	}
	return nil
}

// pickPhysicalDevice honors index when it is not negative, otherwise prefers
// the first discrete GPU.
func pickPhysicalDevice(devices []*PhysicalDevice, index int) (*PhysicalDevice, error) {
	if len(devices) == 0 {
		return nil, errors.New("no devices found")
	}
	if index >= 0 {
		if index >= len(devices) {
			return nil, fmt.Errorf("device index %d out of range, %d devices found", index, len(devices))
		}
		return devices[index], nil
	}
	for _, d := range devices {
		if d.IsDiscrete() {
			return d, nil
		}
	}
	return devices[0], nil
}

// pickQueues prefers one family that can both draw and present.
func pickQueues(families QueueFamilySlice, surface vk.Surface) (graphics, present *QueueFamily, err error) {
	if both := families.FilterGraphicsAndPresent(surface); len(both) > 0 {
		return both[0], both[0], nil
	}
	gq := families.FilterGraphics()
	pq := families.FilterPresent(surface)
	if len(gq) == 0 || len(pq) == 0 {
		return nil, nil, errors.New("no graphics and present capable queues")
	}
	return gq[0], pq[0], nil
}

func (p *GraphicsApp) NewSwapchain(extent vk2d.Extent, mode vk2d.PresentMode, old vk2d.Swapchain) (vk2d.Swapchain, error) {
	options := CreateSwapchainOptions{
		ActualSize:  vkExtent(extent),
		PresentMode: mode,
	}
	if old != nil {
		options.OldSwapchain = old.(*Swapchain)
	}
	sc, err := p.Device.CreateSwapchain(p.VKSurface, p.GraphicsQueue, p.PresentQueue, options)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func (p *GraphicsApp) NewRenderPass(format vk2d.Format) (vk2d.RenderPass, error) {
	rp, err := p.Device.CreateRenderPass(format)
	if err != nil {
		return nil, err
	}
	return rp, nil
}

func (p *GraphicsApp) NewFramebuffer(pass vk2d.RenderPass, sc vk2d.Swapchain, image int) (vk2d.Framebuffer, error) {
	fb, err := p.Device.CreateFramebuffer(pass.(*RenderPass), sc.(*Swapchain), image)
	if err != nil {
		return nil, err
	}
	return fb, nil
}

func (p *GraphicsApp) NewPipeline(pass vk2d.RenderPass, desc vk2d.PipelineDesc) (vk2d.Pipeline, error) {
	pl, err := p.Device.CreateGraphicsPipeline(p.PipelineCache, pass.(*RenderPass), desc)
	if err != nil {
		return nil, err
	}
	return pl, nil
}

func (p *GraphicsApp) NewCommandList() (vk2d.CommandList, error) {
	cmd, err := p.GraphicsCommandPool.AllocateBuffer()
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

func (p *GraphicsApp) NewFence(signaled bool) (vk2d.Fence, error) {
	f, err := p.Device.CreateFence(signaled)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (p *GraphicsApp) NewSemaphore() (vk2d.Semaphore, error) {
	s, err := p.Device.CreateSemaphore()
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (p *GraphicsApp) NewArena(size uint64) (vk2d.Arena, error) {
	name := fmt.Sprintf("arena-%d", p.arenas)
	p.arenas++
	a, err := p.createArena(name, size)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (p *GraphicsApp) NewImage(width, height int, rgba []byte) (vk2d.Image, error) {
	t, err := StageTexture(p.ResourceManager, p.GraphicsCommandPool, p.GraphicsQueue, p.Sampler, width, height, rgba)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (p *GraphicsApp) Submit(cmd vk2d.CommandList, wait, signal vk2d.Semaphore, fence vk2d.Fence) error {
	var f *Fence
	if fence != nil {
		f = fence.(*Fence)
	}
	return p.GraphicsQueue.Submit(cmd.(*CommandBuffer), asSemaphore(wait), asSemaphore(signal), f)
}

func (p *GraphicsApp) Present(sc vk2d.Swapchain, image int, wait vk2d.Semaphore) (bool, error) {
	return p.PresentQueue.Present(sc.(*Swapchain), image, asSemaphore(wait))
}

func (p *GraphicsApp) WaitIdle() error {
	return p.Device.WaitIdle()
}

func asSemaphore(s vk2d.Semaphore) *Semaphore {
	if s == nil {
		return nil
	}
	return s.(*Semaphore)
}

// Destroy tears down the graphics application. Everything created through
// the vk2d.Device methods must have been destroyed already.
func (p *GraphicsApp) Destroy() {
	if p.Device != nil {
		if err := p.Device.WaitIdle(); err != nil {
			vk2d.Logger().Warn("vkg: wait idle before destroy", "error", err)
		}
		if p.Sampler != nil {
			p.Sampler.Destroy()
		}
		if p.ResourceManager != nil {
			p.ResourceManager.Destroy()
		}
		if p.PipelineCache != nil {
			p.PipelineCache.Destroy()
		}
		if p.GraphicsCommandPool != nil {
			p.GraphicsCommandPool.Destroy()
		}
		p.Device.Destroy()
		p.Device = nil
	}
	if p.Instance != nil {
		if p.VKSurface != vk.NullSurface {
			vk.DestroySurface(p.Instance.VKInstance, p.VKSurface, nil)
			p.VKSurface = vk.NullSurface
		}
		p.Instance.Destroy()
		p.Instance = nil
	}
}
