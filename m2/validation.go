package m2

import (
	"fmt"
	"strings"

	"github.com/binzume/m2conv/geom"
)

// ValidationMode selects how vertex skinning data is repaired.
type ValidationMode int

const (
	// ValidationPermissive fixes bad indices and keeps intentional zero weights.
	ValidationPermissive ValidationMode = iota
	// ValidationStrict also forces a root weight on every zero-weight vertex.
	ValidationStrict
	// ValidationNone keeps the data as stored.
	ValidationNone
)

var validationModeNames = map[ValidationMode]string{
	ValidationPermissive: "permissive",
	ValidationStrict:     "strict",
	ValidationNone:       "none",
}

func (m ValidationMode) String() string {
	if n, ok := validationModeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("ValidationMode(%d)", int(m))
}

func ParseValidationMode(name string) (ValidationMode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ValidationPermissive, nil
	}
	for m, n := range validationModeNames {
		if n == name {
			return m, nil
		}
	}
	return ValidationPermissive, fmt.Errorf("unknown validation mode: %q", name)
}

// NoBoneCount disables bone index checks.
const NoBoneCount = -1

// invalidBoneIndex is never a valid index regardless of the bone count.
const invalidBoneIndex = 0xff

type ValidationResult struct {
	Indices [4]uint8
	Weights [4]uint8

	FixedIndices       bool
	FixedWeights       bool
	CorruptionDetected bool
}

// ValidateBoneData repairs a vertex's bone indices and weights. boneCount
// may be NoBoneCount.
func ValidateBoneData(mode ValidationMode, indices, weights [4]uint8, boneCount int) ValidationResult {
	res := ValidationResult{Indices: indices, Weights: weights}
	if mode == ValidationNone || boneCount < 0 {
		return res
	}

	invalid := func(idx uint8) bool {
		return idx == invalidBoneIndex || int(idx) >= boneCount
	}

	// must be evaluated before clamping.
	hadInvalid := false
	for _, idx := range indices {
		if invalid(idx) {
			hadInvalid = true
		}
	}
	res.CorruptionDetected = hadInvalid

	for i, idx := range res.Indices {
		if invalid(idx) {
			res.Indices[i] = 0
			res.FixedIndices = true
		}
	}

	if weightSum(res.Weights) == 0 && (mode == ValidationStrict || hadInvalid) {
		res.Weights[0] = 255
		res.Indices[0] = 0
		res.FixedWeights = true
	}
	return res
}

func weightSum(w [4]uint8) int {
	return int(w[0]) + int(w[1]) + int(w[2]) + int(w[3])
}

// SanitizePosition replaces NaN components with zero.
func SanitizePosition(v geom.Vector3) geom.Vector3 {
	return geom.Vector3{X: zeroNaN(v.X), Y: zeroNaN(v.Y), Z: zeroNaN(v.Z)}
}

func SanitizeTexCoord(v geom.Vector2) geom.Vector2 {
	return geom.Vector2{X: zeroNaN(v.X), Y: zeroNaN(v.Y)}
}

var upVector = geom.Vector3{X: 0, Y: 0, Z: 1}

// SanitizeNormal returns a unit normal. NaN or degenerate normals become +Z.
func SanitizeNormal(n geom.Vector3) geom.Vector3 {
	if n.HasNaN() || n.Len() < 1e-8 {
		return upVector
	}
	return *n.Normalize()
}

func zeroNaN(e float32) float32 {
	if e != e {
		return 0
	}
	return e
}

// ValidationStats counts repairs over a vertex array.
type ValidationStats struct {
	TotalVertices      int
	IndicesFixed       int
	WeightsFixed       int
	CorruptionDetected int
	ZeroWeightVertices int
}

func (s *ValidationStats) add(res *ValidationResult) {
	s.TotalVertices++
	if res.FixedIndices {
		s.IndicesFixed++
	}
	if res.FixedWeights {
		s.WeightsFixed++
	}
	if res.CorruptionDetected {
		s.CorruptionDetected++
	}
	if weightSum(res.Weights) == 0 {
		s.ZeroWeightVertices++
	}
}

func (s ValidationStats) String() string {
	return fmt.Sprintf("vertices:%d indices_fixed:%d weights_fixed:%d corruption:%d zero_weight:%d",
		s.TotalVertices, s.IndicesFixed, s.WeightsFixed, s.CorruptionDetected, s.ZeroWeightVertices)
}
