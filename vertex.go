package vk2d

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// VertexData is an ordered sequence of vertex records.
type VertexData interface {
	Len() int
	Bytes() []byte
}

// ColorVertex is the vertex format of the rectangle primitive.
type ColorVertex struct {
	Position mgl32.Vec2
	Color    [4]float32
}

type ColorVertices []ColorVertex

func (v ColorVertices) Len() int { return len(v) }

func (v ColorVertices) Bytes() []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*int(unsafe.Sizeof(v[0])))
}

// ColorVertexLayout matches ColorVertex: position at location 0, color at 1.
var ColorVertexLayout = VertexLayout{
	Stride: uint32(unsafe.Sizeof(ColorVertex{})),
	Attributes: []VertexAttribute{
		{Location: 0, Format: VertexFloat2, Offset: uint32(unsafe.Offsetof(ColorVertex{}.Position))},
		{Location: 1, Format: VertexFloat4, Offset: uint32(unsafe.Offsetof(ColorVertex{}.Color))},
	},
}

// PositionVertex is the vertex format of the texture primitive. The fragment
// stage derives texture coordinates from the unit quad position.
type PositionVertex struct {
	Position mgl32.Vec2
}

type PositionVertices []PositionVertex

func (v PositionVertices) Len() int { return len(v) }

func (v PositionVertices) Bytes() []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*int(unsafe.Sizeof(v[0])))
}

var PositionVertexLayout = VertexLayout{
	Stride: uint32(unsafe.Sizeof(PositionVertex{})),
	Attributes: []VertexAttribute{
		{Location: 0, Format: VertexFloat2, Offset: 0},
	},
}

// UnitQuad holds the corners of the unit square in triangle strip order.
var UnitQuad = [4]mgl32.Vec2{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
