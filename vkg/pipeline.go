package vkg

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vk2d"
)

const (
	uniformBinding = 0
	samplerBinding = 1
)

// PipelineCache wraps the driver side vk.PipelineCache which lets the driver
// reuse compiled shader state between pipeline builds.
type PipelineCache struct {
	Device          *Device
	VKPipelineCache vk.PipelineCache
}

func (d *Device) CreatePipelineCache() (*PipelineCache, error) {
	pipelineCacheCreate := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}

	var pipelineCache vk.PipelineCache
	err := NewError(vk.CreatePipelineCache(d.VKDevice, &pipelineCacheCreate, nil, &pipelineCache))
	if err != nil {
		return nil, err
	}

	return &PipelineCache{Device: d, VKPipelineCache: pipelineCache}, nil
}

func (p *PipelineCache) Destroy() {
	vk.DestroyPipelineCache(p.Device.VKDevice, p.VKPipelineCache, nil)
}

// Pipeline is a compiled graphics pipeline together with the layouts its
// descriptor sets are allocated against. It implements vk2d.Pipeline.
type Pipeline struct {
	Device     *Device
	VKPipeline vk.Pipeline
	Layout     *PipelineLayout
	SetLayout  *DescriptorSetLayout
	Sampled    bool
}

// descriptorSetLayoutFor has the MVP uniform at binding 0 and, for sampled
// pipelines, the texture at binding 1.
func descriptorSetLayoutFor(sampled bool) *DescriptorSetLayout {
	dsl := &DescriptorSetLayout{}
	dsl.AddBinding(vk.DescriptorSetLayoutBinding{
		Binding:         uniformBinding,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
	})
	if sampled {
		dsl.AddBinding(vk.DescriptorSetLayoutBinding{
			Binding:         samplerBinding,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		})
	}
	return dsl
}

// CreateGraphicsPipeline compiles desc against pass. Shader modules only live
// for the duration of the call.
func (d *Device) CreateGraphicsPipeline(cache *PipelineCache, pass *RenderPass, desc vk2d.PipelineDesc) (*Pipeline, error) {
	config, err := newGraphicsPipelineConfig(desc)
	if err != nil {
		return nil, err
	}

	for _, s := range desc.Stages {
		module, err := d.CreateShaderModule(s.Code)
		if err != nil {
			return nil, fmt.Errorf("%s stage: %w", s.Stage, err)
		}
		defer module.Destroy()

		entry := s.Entry
		if entry == "" {
			entry = "main"
		}
		config.AddShaderStage(module, s.Stage, entry)
	}

	setLayout, err := d.CreateDescriptorSetLayout(descriptorSetLayoutFor(desc.Sampled))
	if err != nil {
		return nil, err
	}

	layout, err := d.CreatePipelineLayout(setLayout)
	if err != nil {
		setLayout.Destroy()
		return nil, err
	}

	var vkCache vk.PipelineCache
	if cache != nil {
		vkCache = cache.VKPipelineCache
	}

	infos := []vk.GraphicsPipelineCreateInfo{config.VKGraphicsPipelineCreateInfo(layout, pass)}
	pipelines := make([]vk.Pipeline, 1)
	err = NewError(vk.CreateGraphicsPipelines(d.VKDevice, vkCache, 1, infos, nil, pipelines))
	if err != nil {
		layout.Destroy()
		setLayout.Destroy()
		return nil, err
	}

	return &Pipeline{
		Device:     d,
		VKPipeline: pipelines[0],
		Layout:     layout,
		SetLayout:  setLayout,
		Sampled:    desc.Sampled,
	}, nil
}

func (p *Pipeline) Destroy() {
	vk.DestroyPipeline(p.Device.VKDevice, p.VKPipeline, nil)
	p.Layout.Destroy()
	p.SetLayout.Destroy()
}
