package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-5

func assertVec4(t *testing.T, want, got mgl32.Vec4) {
	t.Helper()
	for i := 0; i < 4; i++ {
		assert.InDelta(t, want[i], got[i], eps, "component %d of %v", i, got)
	}
}

func TestOrthographicCorners(t *testing.T) {
	tests := []struct {
		name                             string
		left, right, bottom, top, nr, fr float32
	}{
		{"viewport", 0, 800, 600, 0, -1, 1},
		{"centered", -2, 2, 1, -1, 0, 10},
		{"y up box", 0, 10, 0, 10, 1, 100},
		{"negative", -300, -100, -50, -250, -5, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Orthographic(tt.left, tt.right, tt.bottom, tt.top, tt.nr, tt.fr)
			for _, x := range []struct{ in, out float32 }{{tt.left, -1}, {tt.right, 1}} {
				for _, y := range []struct{ in, out float32 }{{tt.top, -1}, {tt.bottom, 1}} {
					for _, z := range []struct{ in, out float32 }{{tt.nr, 0}, {tt.fr, 1}} {
						got := m.Mul4x1(mgl32.Vec4{x.in, y.in, z.in, 1})
						assertVec4(t, mgl32.Vec4{x.out, y.out, z.out, 1}, got)
					}
				}
			}
		})
	}
}

func TestOrthographicIsYDown(t *testing.T) {
	m := Orthographic(0, 800, 600, 0, -1, 1)

	top := m.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	bottom := m.Mul4x1(mgl32.Vec4{0, 600, 0, 1})

	assert.Less(t, top.Y(), bottom.Y(), "pixel row 0 must land above the last row in clip space")
	assert.GreaterOrEqual(t, top.Z(), float32(0))
}

func TestComposeModelMapsUnitQuad(t *testing.T) {
	corners := []mgl32.Vec2{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	tests := []struct {
		size, position mgl32.Vec2
	}{
		{mgl32.Vec2{50, 50}, mgl32.Vec2{100, 100}},
		{mgl32.Vec2{1, 1}, mgl32.Vec2{0, 0}},
		{mgl32.Vec2{0.25, 300}, mgl32.Vec2{-40, 7.5}},
		{mgl32.Vec2{1024, 2}, mgl32.Vec2{-1, -1}},
	}

	for _, tt := range tests {
		m := ComposeModel(tt.size, tt.position)
		for _, c := range corners {
			got := m.Mul4x1(mgl32.Vec4{c.X(), c.Y(), 0, 1})
			want := mgl32.Vec4{
				tt.position.X() + tt.size.X()*c.X(),
				tt.position.Y() + tt.size.Y()*c.Y(),
				0, 1,
			}
			assertVec4(t, want, got)
		}
	}
}

func TestComposeModelScalesBeforeTranslating(t *testing.T) {
	size, pos := mgl32.Vec2{2, 3}, mgl32.Vec2{10, 20}

	got := ComposeModel(size, pos)
	wrong := mgl32.Scale3D(2, 3, 1).Mul4(mgl32.Translate3D(10, 20, 0))

	assert.False(t, got.ApproxEqual(wrong))
	assertVec4(t, mgl32.Vec4{10, 20, 0, 1}, got.Mul4x1(mgl32.Vec4{0, 0, 0, 1}))
}

func TestProjectionPixelMapping(t *testing.T) {
	mvp := Projection(mgl32.Vec2{50, 50}, mgl32.Vec2{100, 100}, [2]float32{800, 600})

	toPixel := func(v mgl32.Vec4) mgl32.Vec2 {
		return mgl32.Vec2{(v.X() + 1) / 2 * 800, (v.Y() + 1) / 2 * 600}
	}

	origin := toPixel(mvp.Mul4x1(mgl32.Vec4{0, 0, 0, 1}))
	assert.InDelta(t, 100, origin.X(), 1e-3)
	assert.InDelta(t, 100, origin.Y(), 1e-3)

	far := toPixel(mvp.Mul4x1(mgl32.Vec4{1, 1, 0, 1}))
	assert.InDelta(t, 150, far.X(), 1e-3)
	assert.InDelta(t, 150, far.Y(), 1e-3)
}

func TestViewMatrix(t *testing.T) {
	cam := DefaultCamera()
	v := cam.View()

	// The eye sits at the origin of view space.
	assertVec4(t, mgl32.Vec4{0, 0, 0, 1}, v.Mul4x1(cam.Position.Vec4(1)))

	// Looking down -Z from +Z, so the target is straight ahead at +3 in a left
	// handed view space.
	assertVec4(t, mgl32.Vec4{0, 0, 3, 1}, v.Mul4x1(cam.Target.Vec4(1)))

	up := v.Mul4x1(mgl32.Vec4{0, 1, 0, 0})
	assert.InDelta(t, 1, up.Y(), eps)
}

func TestViewMatrixIsOrthonormal(t *testing.T) {
	v := ViewMatrix(mgl32.Vec3{4, -2, 7}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0, 1, 0})
	r := v.Mat3()

	require.InDelta(t, 1, r.Det(), eps)
	assert.True(t, r.Mul3(r.Transpose()).ApproxEqualThreshold(mgl32.Ident3(), eps))
}
