package geom

import (
	"math"
	"testing"
)

func TestVector3(t *testing.T) {
	zero := NewVector3(0, 0, 0)
	if zero.Len() != 0 {
		t.Error("len != 0")
	}

	if *zero.Normalize() != *NewVector3(0, 0, 0) {
		t.Error("zero vector should stay zero", zero)
	}

	if *NewVector3(1, 0, 0).Add(NewVector3(0, 1, 0)) != *NewVector3(1, 1, 0) {
		t.Error("Vector.Add()")
	}

	v := NewVector3(3, 0, 4)
	if v.Len() != 5 {
		t.Error("Len()", v.Len())
	}
	v.Normalize()
	if math.Abs(float64(v.Len())-1) > 0.000001 {
		t.Error("Normalize()", v)
	}

	nan := float32(math.NaN())
	if !NewVector3(0, nan, 0).HasNaN() || NewVector3(1, 2, 3).HasNaN() {
		t.Error("HasNaN()")
	}
	if !(&Vector2{X: nan}).HasNaN() || (&Vector2{X: 1, Y: 2}).HasNaN() {
		t.Error("Vector2.HasNaN()")
	}
}

func TestMatrix4(t *testing.T) {
	const eps = 0.000001

	m := NewTranslateMatrix4(1, 2, 3).Mul(NewScaleMatrix4(2, 2, 2))
	v := m.ApplyTo(NewVector3(1, 1, 1))
	if v.Sub(NewVector3(3, 4, 5)).Len() > eps {
		t.Error("translate*scale: ", v)
	}

	// parent * child translations add up.
	m2 := NewTranslateMatrix4(0, 0, 1).Mul(NewTranslateMatrix4(0, 2, 0))
	if *m2 != *NewTranslateMatrix4(0, 2, 1) {
		t.Error("translate*translate: ", m2)
	}

	inv := m.Inverse()
	v = inv.ApplyTo(v)
	if v.Sub(NewVector3(1, 1, 1)).Len() > eps {
		t.Error("inverse: ", v)
	}

	var a [16]float32
	NewMatrix4().ToArray(a[:])
	if a[0] != 1 || a[5] != 1 || a[10] != 1 || a[15] != 1 || a[12] != 0 {
		t.Error("ToArray: ", a)
	}
}
