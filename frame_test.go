package vk2d

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAssembler(dev *fakeDevice) (*FrameAssembler, FrameTarget) {
	cache := NewPipelineCache(dev)
	cache.Register(KeyRectangle, RectangleDesc(testShaders()))
	pass := &fakeRenderPass{}
	target := FrameTarget{
		Pass:        pass,
		Framebuffer: &fakeFramebuffer{pass: pass},
		Extent:      Extent{Width: 320, Height: 240},
		Clear:       [4]float32{0, 0, 1, 1},
	}
	return NewFrameAssembler(cache), target
}

func quad() ColorVertices {
	v := make(ColorVertices, 4)
	for i, c := range UnitQuad {
		v[i] = ColorVertex{Position: c, Color: [4]float32{1, 1, 1, 1}}
	}
	return v
}

func TestAssemblerRecordsInOrder(t *testing.T) {
	dev := newFakeDevice()
	a, target := newTestAssembler(dev)
	cmd := &fakeCommandList{}

	require.NoError(t, a.BeginFrame(cmd, &fakeArena{}, target))
	assert.True(t, a.Open())

	names := []float32{1, 2, 3}
	for _, n := range names {
		u := &Uniforms{MVP: mgl32.Translate3D(n, 0, 0)}
		require.NoError(t, a.RecordDraw(DrawRequest{Key: KeyRectangle, Vertices: quad(), Uniforms: u}))
	}
	assert.Equal(t, 3, a.Draws())

	out, err := a.EndFrame()
	require.NoError(t, err)
	assert.Same(t, cmd, out.(*fakeCommandList))
	assert.False(t, a.Open())
	assert.False(t, cmd.recording)

	var got []float32
	for _, c := range cmd.cmds {
		if c.op == "bind-uniforms" {
			got = append(got, c.uniforms.u.MVP.At(0, 3))
		}
	}
	assert.Equal(t, names, got)
	assert.Equal(t, "begin-pass", cmd.cmds[0].op)
	assert.Equal(t, [4]float32{0, 0, 1, 1}, cmd.cmds[0].clear)
	assert.Equal(t, "end-pass", cmd.cmds[len(cmd.cmds)-1].op)
	assert.Equal(t, 1, a.cache.Builds(), "one pipeline for every draw of a key")
}

func TestAssemblerWithoutUniforms(t *testing.T) {
	dev := newFakeDevice()
	a, target := newTestAssembler(dev)
	cmd := &fakeCommandList{}

	require.NoError(t, a.BeginFrame(cmd, &fakeArena{}, target))
	require.NoError(t, a.RecordDraw(DrawRequest{Key: KeyRectangle, Vertices: quad()}))
	_, err := a.EndFrame()
	require.NoError(t, err)

	assert.NotContains(t, cmd.ops(), "bind-uniforms")
	assert.Equal(t, 4, cmd.draws()[0].count)
}

func TestAssemblerMisuse(t *testing.T) {
	dev := newFakeDevice()
	a, target := newTestAssembler(dev)

	assert.ErrorIs(t, a.RecordDraw(DrawRequest{Key: KeyRectangle, Vertices: quad()}), ErrNoFrame)
	_, err := a.EndFrame()
	assert.ErrorIs(t, err, ErrNoFrame)

	require.NoError(t, a.BeginFrame(&fakeCommandList{}, &fakeArena{}, target))
	assert.ErrorIs(t, a.BeginFrame(&fakeCommandList{}, &fakeArena{}, target), ErrInvalidFrameState)
	assert.Error(t, a.RecordDraw(DrawRequest{Key: KeyRectangle}))
	assert.Equal(t, 0, a.Draws())
}
