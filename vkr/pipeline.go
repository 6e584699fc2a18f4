// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/devblok/koru/gfx"
	"github.com/devblok/koru/model"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// createPipelineLayout creates the layout and cache shared by every pipeline.
// Pipelines take no descriptor sets, vertices carry all the data.
func (d *Device) createPipelineLayout() error {
	plci := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}

	var pipelineLayout vk.PipelineLayout
	if err := vk.Error(vk.CreatePipelineLayout(d.device, &plci, nil, &pipelineLayout)); err != nil {
		return errors.Wrap(err, "vk.CreatePipelineLayout()")
	}

	pcci := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}

	var pipelineCache vk.PipelineCache
	if err := vk.Error(vk.CreatePipelineCache(d.device, &pcci, nil, &pipelineCache)); err != nil {
		vk.DestroyPipelineLayout(d.device, pipelineLayout, nil)
		return errors.Wrap(err, "vk.CreatePipelineCache()")
	}

	d.pipelineLayout = pipelineLayout
	d.pipelineCache = pipelineCache
	return nil
}

// CreateShaderModule implements gfx.Device
func (d *Device) CreateShaderModule(code []byte) (gfx.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, errors.Errorf("shader bytecode of %d bytes is not a sequence of words", len(code))
	}

	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    SliceUint32(code),
	}

	var shader vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(d.device, &smci, nil, &shader)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateShaderModule()")
	}
	return shader, nil
}

// DestroyShaderModule implements gfx.Device
func (d *Device) DestroyShaderModule(m gfx.ShaderModule) {
	vk.DestroyShaderModule(d.device, m.(vk.ShaderModule), nil)
}

// vertexBinding describes model.Vertex as the only vertex binding.
func vertexBinding() vk.VertexInputBindingDescription {
	return vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    model.VertexSize,
		InputRate: vk.VertexInputRateVertex,
	}
}

// vertexAttributes describes position at location 0 and color at location 1.
func vertexAttributes() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   model.PosOffset,
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   model.ColorOffset,
		},
	}
}

func shaderStageFlag(stage gfx.ShaderStage) (vk.ShaderStageFlagBits, error) {
	switch stage {
	case gfx.VertexStage:
		return vk.ShaderStageVertexBit, nil
	case gfx.FragmentStage:
		return vk.ShaderStageFragmentBit, nil
	}
	return 0, errors.Errorf("unsupported shader stage %d", stage)
}

// CreatePipeline implements gfx.Device
func (d *Device) CreatePipeline(info gfx.PipelineCreateInfo) (gfx.Pipeline, error) {
	stages := make([]vk.PipelineShaderStageCreateInfo, len(info.Stages))
	for idx, stage := range info.Stages {
		flag, err := shaderStageFlag(stage.Stage)
		if err != nil {
			return nil, err
		}
		stages[idx] = vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  flag,
			Module: stage.Module.(vk.ShaderModule),
			PName:  safeString(stage.EntryPoint),
		}
	}

	bindings := []vk.VertexInputBindingDescription{vertexBinding()}
	attributes := vertexAttributes()
	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}

	gpci := []vk.GraphicsPipelineCreateInfo{{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(stages)),
		PStages:    stages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount:   uint32(len(bindings)),
			PVertexBindingDescriptions:      bindings,
			VertexAttributeDescriptionCount: uint32(len(attributes)),
			PVertexAttributeDescriptions:    attributes,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: vk.PrimitiveTopologyTriangleList,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonModeFill,
			CullMode:    vk.CullModeFlags(vk.CullModeNone),
			FrontFace:   vk.FrontFaceClockwise,
			LineWidth:   1.0,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			AttachmentCount: 1,
			PAttachments: []vk.PipelineColorBlendAttachmentState{{
				ColorWriteMask: 0xF,
				BlendEnable:    vk.False,
			}},
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: uint32(len(dynamicStates)),
			PDynamicStates:    dynamicStates,
		},
		Layout:     d.pipelineLayout,
		RenderPass: info.RenderPass.(vk.RenderPass),
	}}

	pipelines := make([]vk.Pipeline, len(gpci))
	ret := vk.CreateGraphicsPipelines(d.device, d.pipelineCache, uint32(len(gpci)), gpci, nil, pipelines)
	if err := vk.Error(ret); err != nil {
		return nil, errors.Wrap(err, "vk.CreateGraphicsPipelines()")
	}
	return pipelines[0], nil
}

// DestroyPipeline implements gfx.Device
func (d *Device) DestroyPipeline(p gfx.Pipeline) {
	vk.DestroyPipeline(d.device, p.(vk.Pipeline), nil)
}
