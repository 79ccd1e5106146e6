package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Quaternion is a rotation in (x, y, z, w) order.
type Quaternion struct {
	X Element
	Y Element
	Z Element
	W Element
}

func NewQuaternion(x, y, z, w float32) *Quaternion {
	return &Quaternion{X: x, Y: y, Z: z, W: w}
}

func IdentityQuaternion() Quaternion {
	return Quaternion{W: 1}
}

func (q *Quaternion) number() quat.Number {
	return quat.Number{Real: float64(q.W), Imag: float64(q.X), Jmag: float64(q.Y), Kmag: float64(q.Z)}
}

func (q *Quaternion) Len() float64 {
	return quat.Abs(q.number())
}

// Normalized returns a unit copy of q. Near-zero quaternions become identity.
func (q *Quaternion) Normalized() Quaternion {
	l := q.Len()
	if l < 1e-8 {
		return IdentityQuaternion()
	}
	n := quat.Scale(1/l, q.number())
	return Quaternion{X: Element(n.Imag), Y: Element(n.Jmag), Z: Element(n.Kmag), W: Element(n.Real)}
}

// EulerDegrees returns (pitch, yaw, roll) in degrees, computed from the
// normalized quaternion.
func (q *Quaternion) EulerDegrees() (pitch, yaw, roll float64) {
	n := q.Normalized()
	x, y, z, w := float64(n.X), float64(n.Y), float64(n.Z), float64(n.W)

	roll = math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))

	sinp := 2 * (w*y - z*x)
	if math.Abs(sinp) >= 1 {
		pitch = math.Copysign(math.Pi/2, sinp)
	} else {
		pitch = math.Asin(sinp)
	}

	yaw = math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))

	const deg = 180 / math.Pi
	return pitch * deg, yaw * deg, roll * deg
}

func (q *Quaternion) ToArray() [4]Element {
	return [4]Element{q.X, q.Y, q.Z, q.W}
}
