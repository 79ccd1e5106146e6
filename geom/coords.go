package geom

import (
	"fmt"
	"strings"
)

// CoordinateSystem is a target axis convention for model data.
type CoordinateSystem int

const (
	CoordinateNone CoordinateSystem = iota
	CoordinateBlender
	CoordinateUnity
	CoordinateUnreal
)

type axisMapping struct {
	src  [3]int
	sign [3]Element
}

var positionAxes = map[CoordinateSystem]axisMapping{
	CoordinateBlender: {src: [3]int{1, 0, 2}, sign: [3]Element{1, -1, 1}},
	CoordinateUnity:   {src: [3]int{1, 2, 0}, sign: [3]Element{-1, 1, 1}},
	CoordinateUnreal:  {src: [3]int{0, 1, 2}, sign: [3]Element{1, -1, 1}},
}

// rotation axes differ from position axes for Unity and Unreal.
var rotationAxes = map[CoordinateSystem]axisMapping{
	CoordinateBlender: {src: [3]int{1, 0, 2}, sign: [3]Element{1, -1, 1}},
	CoordinateUnity:   {src: [3]int{1, 2, 0}, sign: [3]Element{1, -1, -1}},
	CoordinateUnreal:  {src: [3]int{0, 1, 2}, sign: [3]Element{-1, 1, -1}},
}

var coordinateNames = map[CoordinateSystem]string{
	CoordinateNone:    "none",
	CoordinateBlender: "blender",
	CoordinateUnity:   "unity",
	CoordinateUnreal:  "unreal",
}

func (s CoordinateSystem) String() string {
	if n, ok := coordinateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("CoordinateSystem(%d)", int(s))
}

// ParseCoordinateSystem accepts "none", "blender", "unity" or "unreal"
// (case-insensitive). The empty string means none.
func ParseCoordinateSystem(name string) (CoordinateSystem, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return CoordinateNone, nil
	}
	for s, n := range coordinateNames {
		if n == name {
			return s, nil
		}
	}
	return CoordinateNone, fmt.Errorf("unknown coordinate system: %q", name)
}

func (m axisMapping) apply(v [3]Element) [3]Element {
	return [3]Element{
		m.sign[0] * v[m.src[0]],
		m.sign[1] * v[m.src[1]],
		m.sign[2] * v[m.src[2]],
	}
}

// TransformPosition maps a position or direction into the target system.
func (s CoordinateSystem) TransformPosition(v Vector3) Vector3 {
	m, ok := positionAxes[s]
	if !ok {
		return v
	}
	r := m.apply(v.ToArray())
	return Vector3{X: r[0], Y: r[1], Z: r[2]}
}

// TransformQuaternion remaps the vector part of q. W is kept.
func (s CoordinateSystem) TransformQuaternion(q Quaternion) Quaternion {
	m, ok := rotationAxes[s]
	if !ok {
		return q
	}
	r := m.apply([3]Element{q.X, q.Y, q.Z})
	return Quaternion{X: r[0], Y: r[1], Z: r[2], W: q.W}
}

// Matrix returns the position mapping as a 4x4 matrix.
func (s CoordinateSystem) Matrix() *Matrix4 {
	m, ok := positionAxes[s]
	if !ok {
		return NewMatrix4()
	}
	return NewAxisMatrix4(m.src, m.sign)
}
