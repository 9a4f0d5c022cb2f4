package vkg

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestSafeString(t *testing.T) {
	assert.Equal(t, "main\x00", safeString("main"))
	assert.Equal(t, "main\x00", safeString("main\x00"))
	assert.Equal(t, "\x00", safeString(""))

	list := []string{"a", "b\x00"}
	assert.Equal(t, []string{"a\x00", "b\x00"}, safeStrings(list))
}

func TestSliceUint32(t *testing.T) {
	assert.Nil(t, sliceUint32(nil))

	code := make([]byte, 8)
	binary.LittleEndian.PutUint32(code, 0x07230203)
	words := sliceUint32(code)
	require.Len(t, words, 2)
	assert.Equal(t, uint32(0x07230203), words[0])
}

func TestMat4Bytes(t *testing.T) {
	m := mgl32.Translate3D(3, 4, 0)
	b := mat4Bytes(&m)
	require.Len(t, b, 64)

	// column major: the translation is in the last column
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(b[0:])))
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(b[48:])))
	assert.Equal(t, float32(4), math.Float32frombits(binary.LittleEndian.Uint32(b[52:])))
}

func TestUsageToString(t *testing.T) {
	assert.Equal(t, "transfer-src", usageToString(vk.BufferUsageTransferSrcBit))
	assert.Equal(t, "uniform|vertex", usageToString(vk.BufferUsageVertexBufferBit|vk.BufferUsageUniformBufferBit))
	assert.Equal(t, "", usageToString(0))
}

func TestSamplerCreateInfo(t *testing.T) {
	info := VKSamplerCreateInfo()
	assert.Equal(t, vk.FilterNearest, info.MagFilter)
	assert.Equal(t, vk.FilterNearest, info.MinFilter)
	assert.Equal(t, vk.SamplerAddressModeRepeat, info.AddressModeU)
	assert.Equal(t, vk.SamplerAddressModeRepeat, info.AddressModeV)
	assert.Equal(t, vk.Bool32(vk.False), info.UnnormalizedCoordinates)
}

func TestRenderPassCreateInfo(t *testing.T) {
	info := VKRenderPassCreateInfo(vk.FormatB8g8r8a8Unorm)
	require.Len(t, info.PAttachments, 1)
	assert.Equal(t, vk.FormatB8g8r8a8Unorm, info.PAttachments[0].Format)
	assert.Equal(t, vk.AttachmentLoadOpClear, info.PAttachments[0].LoadOp)
	assert.Equal(t, vk.ImageLayoutPresentSrc, info.PAttachments[0].FinalLayout)
	assert.Equal(t, uint32(1), info.SubpassCount)
	require.Len(t, info.PSubpasses, 1)
	assert.Nil(t, info.PSubpasses[0].PDepthStencilAttachment)
}
