package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

type Element = float32

type Vector2 struct {
	X Element
	Y Element
}

func (v *Vector2) HasNaN() bool {
	return isNaN(v.X) || isNaN(v.Y)
}

// ToArray returns the vector as a glTF-friendly array.
func (v *Vector2) ToArray() [2]Element {
	return [2]Element{v.X, v.Y}
}

type Vector3 struct {
	X Element
	Y Element
	Z Element
}

func NewVector3(x, y, z float32) *Vector3 {
	return &Vector3{X: x, Y: y, Z: z}
}

func (v *Vector3) Add(v2 *Vector3) *Vector3 {
	return &Vector3{X: v.X + v2.X, Y: v.Y + v2.Y, Z: v.Z + v2.Z}
}

func (v *Vector3) Sub(v2 *Vector3) *Vector3 {
	return &Vector3{X: v.X - v2.X, Y: v.Y - v2.Y, Z: v.Z - v2.Z}
}

func (v *Vector3) Scale(s Element) *Vector3 {
	return &Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v *Vector3) vec() r3.Vec {
	return r3.Vec{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

func (v *Vector3) Len() Element {
	return Element(r3.Norm(v.vec()))
}

// Normalize scales v to unit length in place. Zero vectors are left as is.
func (v *Vector3) Normalize() *Vector3 {
	l := r3.Norm(v.vec())
	if l > 0 {
		v.X = Element(float64(v.X) / l)
		v.Y = Element(float64(v.Y) / l)
		v.Z = Element(float64(v.Z) / l)
	}
	return v
}

func (v *Vector3) HasNaN() bool {
	return isNaN(v.X) || isNaN(v.Y) || isNaN(v.Z)
}

func (v *Vector3) ToArray() [3]Element {
	return [3]Element{v.X, v.Y, v.Z}
}

func isNaN(e Element) bool {
	return math.IsNaN(float64(e))
}
