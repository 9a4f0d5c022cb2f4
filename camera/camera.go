// Package camera computes projection and view matrices in Vulkan clip space:
// X grows to the right, Y grows downwards and depth runs from 0 at the near
// plane to 1 at the far plane. Mixing in OpenGL style matrices (Y up, depth in
// [-1,1]) renders upside down and clips everything past the midpoint.
package camera

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Orthographic returns an off-center orthographic projection. left maps to
// x=-1, right to x=+1, top to y=-1, bottom to y=+1, near to z=0 and far to z=1.
func Orthographic(left, right, bottom, top, near, far float32) mgl32.Mat4 {
	rml, tmb, fmn := right-left, bottom-top, far-near

	return mgl32.Mat4{
		2 / rml, 0, 0, 0,
		0, 2 / tmb, 0, 0,
		0, 0, 1 / fmn, 0,
		-(right + left) / rml, -(bottom + top) / tmb, -near / fmn, 1,
	}
}

// ComposeModel scales by size and then translates by position.
func ComposeModel(size, position mgl32.Vec2) mgl32.Mat4 {
	return mgl32.Translate3D(position.X(), position.Y(), 0).Mul4(mgl32.Scale3D(size.X(), size.Y(), 1))
}

// ViewMatrix is a left-handed look-at. position must differ from target and
// up must not be parallel to the view direction.
func ViewMatrix(position, target, up mgl32.Vec3) mgl32.Mat4 {
	f := target.Sub(position).Normalize()
	s := up.Cross(f).Normalize()
	u := f.Cross(s)

	return mgl32.Mat4{
		s.X(), u.X(), f.X(), 0,
		s.Y(), u.Y(), f.Y(), 0,
		s.Z(), u.Z(), f.Z(), 0,
		-s.Dot(position), -u.Dot(position), -f.Dot(position), 1,
	}
}

// Projection maps a unit quad, scaled to size and moved to position, onto a
// viewport of the given pixel dimensions with the origin at the top left.
func Projection(size, position mgl32.Vec2, viewport [2]float32) mgl32.Mat4 {
	return Orthographic(0, viewport[0], viewport[1], 0, -1, 1).Mul4(ComposeModel(size, position))
}

// Camera is a position, a target to look at and an up vector.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
}

// DefaultCamera sits at (0,0,3) looking at the origin.
func DefaultCamera() Camera {
	return Camera{
		Position: mgl32.Vec3{0, 0, 3},
		Target:   mgl32.Vec3{0, 0, 0},
		Up:       mgl32.Vec3{0, 1, 0},
	}
}

func (c Camera) View() mgl32.Mat4 {
	return ViewMatrix(c.Position, c.Target, c.Up)
}
