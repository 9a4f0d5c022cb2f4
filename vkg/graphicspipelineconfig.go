package vkg

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vk2d"
)

// GraphicsPipelineConfig holds the fixed function state of a 2D pipeline.
// There is no depth attachment; viewport and scissor are always dynamic so a
// pipeline survives swapchain recreation.
type GraphicsPipelineConfig struct {
	ShaderStages []vk.PipelineShaderStageCreateInfo

	// PrimativeTopology see https://www.khronos.org/registry/vulkan/specs/1.1-extensions/man/html/VkPrimitiveTopology.html
	PrimitiveTopology vk.PrimitiveTopology

	// PolygonMode see https://www.khronos.org/registry/vulkan/specs/1.1-extensions/man/html/VkPolygonMode.html
	// defaults to VK_POLYGON_MODE_FILL
	PolygonMode vk.PolygonMode

	LineWidth float32

	// CullModes specifies which triangles will be culled. Quads may arrive in
	// either winding so this defaults to vk.CullModeNone.
	CullMode vk.CullModeFlagBits

	FrontFace vk.FrontFace

	DynamicState []vk.DynamicState

	BlendAttachments []vk.PipelineColorBlendAttachmentState

	VertexInputBindingDescriptions   []vk.VertexInputBindingDescription
	VertexInputAttributeDescriptions []vk.VertexInputAttributeDescription
}

// newGraphicsPipelineConfig translates a backend neutral description. Shader
// stages are filled in by the caller once modules exist.
func newGraphicsPipelineConfig(desc vk2d.PipelineDesc) (*GraphicsPipelineConfig, error) {
	topology, err := vkTopology(desc.Topology)
	if err != nil {
		return nil, err
	}

	g := &GraphicsPipelineConfig{
		PrimitiveTopology: topology,
		PolygonMode:       vk.PolygonModeFill,
		LineWidth:         1.0,
		CullMode:          vk.CullModeNone,
		FrontFace:         vk.FrontFaceCounterClockwise,
		DynamicState:      []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor},
	}

	g.VertexInputBindingDescriptions = []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    desc.Layout.Stride,
		InputRate: vk.VertexInputRateVertex,
	}}
	for _, a := range desc.Layout.Attributes {
		f, err := vkVertexFormat(a.Format)
		if err != nil {
			return nil, err
		}
		g.VertexInputAttributeDescriptions = append(g.VertexInputAttributeDescriptions, vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  0,
			Format:   f,
			Offset:   a.Offset,
		})
	}

	g.AddBlendAttachment(blendAttachment(desc.Blend))
	return g, nil
}

// AddBlendAttachment adds a new blend attachment
func (g *GraphicsPipelineConfig) AddBlendAttachment(ba vk.PipelineColorBlendAttachmentState) {
	g.BlendAttachments = append(g.BlendAttachments, ba)
}

// AddShaderStage appends a stage from a compiled module.
func (g *GraphicsPipelineConfig) AddShaderStage(module *ShaderModule, stage vk2d.ShaderStage, entryPoint string) {
	g.ShaderStages = append(g.ShaderStages, module.VKPipelineShaderStageCreateInfo(vkShaderStage(stage), entryPoint))
}

func blendAttachment(enabled bool) vk.PipelineColorBlendAttachmentState {
	mask := vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit)
	if !enabled {
		return vk.PipelineColorBlendAttachmentState{
			ColorWriteMask: mask,
			BlendEnable:    vk.False,
		}
	}
	return vk.PipelineColorBlendAttachmentState{
		BlendEnable:         vk.True,
		SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
		DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorOne,
		DstAlphaBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		AlphaBlendOp:        vk.BlendOpAdd,
		ColorWriteMask:      mask,
	}
}

func vkTopology(t vk2d.Topology) (vk.PrimitiveTopology, error) {
	switch t {
	case vk2d.TopologyTriangleStrip:
		return vk.PrimitiveTopologyTriangleStrip, nil
	case vk2d.TopologyTriangleList:
		return vk.PrimitiveTopologyTriangleList, nil
	}
	return 0, fmt.Errorf("unsupported topology %d", t)
}

func vkVertexFormat(f vk2d.VertexFormat) (vk.Format, error) {
	switch f {
	case vk2d.VertexFloat2:
		return vk.FormatR32g32Sfloat, nil
	case vk2d.VertexFloat4:
		return vk.FormatR32g32b32a32Sfloat, nil
	}
	return vk.FormatUndefined, fmt.Errorf("unsupported vertex format %d", f)
}

func vkShaderStage(s vk2d.ShaderStage) vk.ShaderStageFlagBits {
	if s == vk2d.StageVertex {
		return vk.ShaderStageVertexBit
	}
	return vk.ShaderStageFragmentBit
}

// VKGraphicsPipelineCreateInfo uses the provided config information to create a vk.GraphicsPipelineCreateInfo structure
func (g *GraphicsPipelineConfig) VKGraphicsPipelineCreateInfo(layout *PipelineLayout, pass *RenderPass) vk.GraphicsPipelineCreateInfo {
	vertexInputState := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(g.VertexInputBindingDescriptions)),
		PVertexBindingDescriptions:      g.VertexInputBindingDescriptions,
		VertexAttributeDescriptionCount: uint32(len(g.VertexInputAttributeDescriptions)),
		PVertexAttributeDescriptions:    g.VertexInputAttributeDescriptions,
	}

	inputAssemblyState := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               g.PrimitiveTopology,
		PrimitiveRestartEnable: vk.False,
	}

	// Counts only, the values come from SetViewport.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	rasterState := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             g.PolygonMode,
		LineWidth:               g.LineWidth,
		CullMode:                vk.CullModeFlags(g.CullMode),
		FrontFace:               g.FrontFace,
		DepthBiasEnable:         vk.False,
	}

	multisampleState := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:  vk.False,
		RasterizationSamples: vk.SampleCount1Bit,
	}

	colorBlendState := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: uint32(len(g.BlendAttachments)),
		PAttachments:    g.BlendAttachments,
	}

	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		PDynamicStates:    g.DynamicState,
		DynamicStateCount: uint32(len(g.DynamicState)),
	}

	info := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(g.ShaderStages)),
		PStages:             g.ShaderStages,
		PVertexInputState:   &vertexInputState,
		PInputAssemblyState: &inputAssemblyState,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterState,
		PMultisampleState:   &multisampleState,
		PColorBlendState:    &colorBlendState,
		PDynamicState:       &dynamicState,
		Subpass:             0,
	}
	if layout != nil {
		info.Layout = layout.VKPipelineLayout
	}
	if pass != nil {
		info.RenderPass = pass.VKRenderPass
	}
	return info
}
