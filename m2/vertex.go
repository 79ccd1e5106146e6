package m2

import (
	"fmt"

	"github.com/binzume/m2conv/geom"
)

const VertexSize = 48

type Vertex struct {
	Position    geom.Vector3
	BoneWeights [4]uint8
	BoneIndices [4]uint8
	Normal      geom.Vector3
	TexCoords   geom.Vector2
	TexCoords2  geom.Vector2
}

func ReadVertex(r *Reader, off int) (Vertex, error) {
	b, err := r.bytes(off, VertexSize)
	if err != nil {
		return Vertex{}, err
	}
	var v Vertex
	v.Position, _ = r.Vector3(off)
	copy(v.BoneWeights[:], b[12:16])
	copy(v.BoneIndices[:], b[16:20])
	v.Normal, _ = r.Vector3(off + 20)
	v.TexCoords, _ = r.Vector2(off + 32)
	v.TexCoords2, _ = r.Vector2(off + 40)
	return v, nil
}

// WeightSum returns the sum of the bone weights; 255 means fully skinned.
func (v *Vertex) WeightSum() int {
	return weightSum(v.BoneWeights)
}

// validated returns a repaired copy of v.
func (v Vertex) validated(mode ValidationMode, boneCount int) (Vertex, ValidationResult) {
	res := ValidateBoneData(mode, v.BoneIndices, v.BoneWeights, boneCount)
	v.BoneIndices = res.Indices
	v.BoneWeights = res.Weights
	v.Position = SanitizePosition(v.Position)
	v.Normal = SanitizeNormal(v.Normal)
	v.TexCoords = SanitizeTexCoord(v.TexCoords)
	v.TexCoords2 = SanitizeTexCoord(v.TexCoords2)
	return v, res
}

// transformed returns v remapped into the coordinate system. UVs are kept.
func (v Vertex) transformed(cs geom.CoordinateSystem) Vertex {
	v.Position = cs.TransformPosition(v.Position)
	v.Normal = cs.TransformPosition(v.Normal)
	return v
}

func (p *Parser) decodeVertices(r *Reader, h *Header) ([]Vertex, ValidationStats, error) {
	var stats ValidationStats
	n := clampCount(h.Vertices.Count, p.opts.Limits.Vertices)
	if n < int(h.Vertices.Count) {
		p.logf("vertices: %d declared, capped at %d", h.Vertices.Count, n)
	}
	boneCount := int(h.Bones.Count)

	vertices := make([]Vertex, 0, minInt(n, r.Len()/VertexSize))
	for i := 0; i < n; i++ {
		v, err := ReadVertex(r, elementOffset(h.Vertices, i, VertexSize))
		if err != nil {
			return vertices, stats, fmt.Errorf("vertex %d: %w", i, err)
		}
		if !p.opts.RawVertices {
			var res ValidationResult
			v, res = v.validated(p.opts.Validation, boneCount)
			stats.add(&res)
			v = v.transformed(p.opts.Coordinates)
		}
		vertices = append(vertices, v)
	}
	return vertices, stats, nil
}
