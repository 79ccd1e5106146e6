package m2

import (
	"math"
	"testing"

	"github.com/binzume/m2conv/geom"
)

func TestValidateBoneDataStrict(t *testing.T) {
	res := ValidateBoneData(ValidationStrict, [4]uint8{51, 196, 141, 62}, [4]uint8{}, 34)
	for i, idx := range res.Indices {
		if idx >= 34 {
			t.Error("index not clamped", i, idx)
		}
	}
	if res.Indices[0] != 0 || res.Weights[0] != 255 {
		t.Error("root weight not forced", res)
	}
	if !res.FixedIndices || !res.FixedWeights || !res.CorruptionDetected {
		t.Error("flags", res)
	}

	// strict forces weights even on valid static geometry.
	res = ValidateBoneData(ValidationStrict, [4]uint8{0, 1, 2, 3}, [4]uint8{}, 10)
	if res.Weights[0] != 255 || !res.FixedWeights || res.CorruptionDetected || res.FixedIndices {
		t.Error("strict static", res)
	}
}

func TestValidateBoneDataPermissive(t *testing.T) {
	{
		res := ValidateBoneData(ValidationPermissive, [4]uint8{0, 1, 2, 3}, [4]uint8{}, 10)
		if res.Weights != [4]uint8{} || res.Indices != [4]uint8{0, 1, 2, 3} {
			t.Error("static geometry should be kept", res)
		}
		if res.FixedWeights || res.CorruptionDetected || res.FixedIndices {
			t.Error("flags", res)
		}
	}

	{
		res := ValidateBoneData(ValidationPermissive, [4]uint8{200, 150, 100, 255}, [4]uint8{}, 10)
		if res.Indices != [4]uint8{0, 0, 0, 0} {
			t.Error("indices", res.Indices)
		}
		if res.Weights[0] != 255 || !res.FixedWeights || !res.CorruptionDetected || !res.FixedIndices {
			t.Error("corrupted vertex", res)
		}
	}

	{
		// weighted vertex with a bad index keeps its weights.
		res := ValidateBoneData(ValidationPermissive, [4]uint8{3, 40, 0, 0}, [4]uint8{200, 55, 0, 0}, 10)
		if res.Indices != [4]uint8{3, 0, 0, 0} || res.Weights != [4]uint8{200, 55, 0, 0} {
			t.Error("weighted", res)
		}
		if !res.FixedIndices || res.FixedWeights || !res.CorruptionDetected {
			t.Error("flags", res)
		}
	}

	{
		// 255 is invalid even with enough bones.
		res := ValidateBoneData(ValidationPermissive, [4]uint8{255, 0, 0, 0}, [4]uint8{255, 0, 0, 0}, 300)
		if res.Indices[0] != 0 || !res.CorruptionDetected {
			t.Error("sentinel index", res)
		}
	}
}

func TestValidateBoneDataNone(t *testing.T) {
	indices := [4]uint8{200, 150, 100, 255}
	res := ValidateBoneData(ValidationNone, indices, [4]uint8{}, 10)
	if res.Indices != indices || res.Weights != [4]uint8{} || res.FixedIndices || res.FixedWeights || res.CorruptionDetected {
		t.Error("none mode should not change anything", res)
	}

	res = ValidateBoneData(ValidationStrict, indices, [4]uint8{}, NoBoneCount)
	if res.Indices != indices || res.CorruptionDetected {
		t.Error("unknown bone count should not change anything", res)
	}
}

func TestSanitize(t *testing.T) {
	nan := float32(math.NaN())

	if p := SanitizePosition(geom.Vector3{X: nan, Y: 1, Z: nan}); p != (geom.Vector3{X: 0, Y: 1, Z: 0}) {
		t.Error("position", p)
	}
	if uv := SanitizeTexCoord(geom.Vector2{X: 0.5, Y: nan}); uv != (geom.Vector2{X: 0.5, Y: 0}) {
		t.Error("uv", uv)
	}
	if n := SanitizeNormal(geom.Vector3{X: nan, Y: 1}); n != (geom.Vector3{Z: 1}) {
		t.Error("nan normal", n)
	}
	if n := SanitizeNormal(geom.Vector3{X: 1e-9}); n != (geom.Vector3{Z: 1}) {
		t.Error("zero normal", n)
	}
	n := SanitizeNormal(geom.Vector3{X: 3, Y: 0, Z: 4})
	if math.Abs(float64(n.Len())-1) > 1e-3 || math.Abs(float64(n.X)-0.6) > 1e-3 {
		t.Error("normal", n)
	}
}

func TestParseValidationMode(t *testing.T) {
	for name, want := range map[string]ValidationMode{
		"strict":     ValidationStrict,
		"Permissive": ValidationPermissive,
		"NONE":       ValidationNone,
		"":           ValidationPermissive,
	} {
		m, err := ParseValidationMode(name)
		if err != nil || m != want {
			t.Error(name, m, err)
		}
	}
	if _, err := ParseValidationMode("lenient"); err == nil {
		t.Error("unknown mode should fail")
	}
	if ValidationStrict.String() != "strict" {
		t.Error(ValidationStrict.String())
	}
}
