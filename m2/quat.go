package m2

import (
	"math"

	"github.com/binzume/m2conv/geom"
)

const (
	compQuatSize  = 8
	compQuatScale = 32767.0
)

// CompQuat is a rotation stored as four 16-bit fixed-point components.
type CompQuat struct {
	X, Y, Z, W int16
}

var IdentityCompQuat = CompQuat{W: math.MaxInt16}

// ReadCompQuat reads a compressed quaternion. X is stored negated in the
// file; -32768 saturates to 32767.
func ReadCompQuat(r *Reader, off int) (CompQuat, error) {
	b, err := r.bytes(off, compQuatSize)
	if err != nil {
		return CompQuat{}, err
	}
	x := int16(uint16(b[0]) | uint16(b[1])<<8)
	q := CompQuat{
		Y: int16(uint16(b[2]) | uint16(b[3])<<8),
		Z: int16(uint16(b[4]) | uint16(b[5])<<8),
		W: int16(uint16(b[6]) | uint16(b[7])<<8),
	}
	if x == math.MinInt16 {
		q.X = math.MaxInt16
	} else {
		q.X = -x
	}
	return q, nil
}

// Float converts to floating point without clamping.
func (q CompQuat) Float() geom.Quaternion {
	return geom.Quaternion{
		X: float32(float64(q.X) / compQuatScale),
		Y: float32(float64(q.Y) / compQuatScale),
		Z: float32(float64(q.Z) / compQuatScale),
		W: float32(float64(q.W) / compQuatScale),
	}
}

// NormalizeFloat converts to a unit quaternion; near-zero values become identity.
func (q CompQuat) NormalizeFloat() geom.Quaternion {
	f := q.Float()
	return f.Normalized()
}

// EulerDegrees returns (pitch, yaw, roll) in degrees.
func (q CompQuat) EulerDegrees() (pitch, yaw, roll float64) {
	f := q.Float()
	return f.EulerDegrees()
}

// CompQuatFromFloat quantizes q, truncating toward zero. The round trip
// through Float is accurate to one unit per component.
func CompQuatFromFloat(q geom.Quaternion) CompQuat {
	return CompQuat{
		X: quantize(q.X),
		Y: quantize(q.Y),
		Z: quantize(q.Z),
		W: quantize(q.W),
	}
}

func quantize(v float32) int16 {
	f := math.Trunc(float64(v) * compQuatScale)
	switch {
	case math.IsNaN(f):
		return 0
	case f > math.MaxInt16:
		return math.MaxInt16
	case f < math.MinInt16:
		return math.MinInt16
	}
	return int16(f)
}
