package renderer

import (
	"encoding/binary"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderModeBytes(t *testing.T) {
	b := RenderModeTexture.Bytes()
	require.Len(t, b, RenderModeUniformSize)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(b))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(RenderModeColor.Bytes()))
}

func TestLayoutDescriptors(t *testing.T) {
	camera := CameraLayoutDescriptor()
	require.Len(t, camera.Entries, 1)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, camera.Entries[0].Buffer.Type)
	assert.Equal(t, uint64(CameraUniformSize), camera.Entries[0].Buffer.MinBindingSize)

	object := ObjectLayoutDescriptor()
	require.Len(t, object.Entries, 1)
	assert.Equal(t, uint64(ObjectUniformSize), object.Entries[0].Buffer.MinBindingSize)

	texture := TextureLayoutDescriptor()
	require.Len(t, texture.Entries, 3)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, texture.Entries[0].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, texture.Entries[1].Sampler.Type)
	assert.Equal(t, uint64(RenderModeUniformSize), texture.Entries[2].Buffer.MinBindingSize)
	for i, e := range texture.Entries {
		assert.Equal(t, uint32(i), e.Binding)
		assert.Equal(t, wgpu.ShaderStageFragment, e.Visibility)
	}
}

func TestMSAASampleCountValid(t *testing.T) {
	for _, c := range []MSAASampleCount{MSAAOff, MSAA4x, MSAA8x, MSAA16x} {
		assert.True(t, c.Valid(), "%d", c)
	}
	assert.False(t, MSAASampleCount(2).Valid())
	assert.False(t, MSAASampleCount(0).Valid())
}

func TestParsePresentMode(t *testing.T) {
	assert.Equal(t, PresentModeUncapped, ParsePresentMode("uncapped"))
	assert.Equal(t, PresentModeVSync, ParsePresentMode("vsync"))
	assert.Equal(t, PresentModeVSync, ParsePresentMode(""))
}
