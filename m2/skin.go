package m2

import (
	"fmt"

	"github.com/binzume/m2conv/geom"
)

const (
	// SkinProfileSize is the size of a view embedded in pre-264 models.
	SkinProfileSize = 44
	SubmeshSize     = 32

	SkinMagic          = "SKIN"
	skinFileHeaderSize = 48
	skinSubmeshSize    = 48
)

// Submesh is a geometry range of a skin profile.
type Submesh struct {
	ID              uint16
	Level           uint16
	VertexStart     uint16
	VertexCount     uint16
	IndexStart      uint16
	IndexCount      uint16
	BoneCount       uint16
	BoneComboIndex  uint16
	BoneInfluences  uint16
	CenterBoneIndex uint16
	Center          geom.Vector3

	// external skin files only
	SortCenter geom.Vector3
	SortRadius float32
}

// SkinProfile is a level-of-detail view over the model vertices. Indices
// maps local vertex numbers to model vertices; Triangles holds local vertex
// numbers, three per face.
type SkinProfile struct {
	IndexData    ArrayDescriptor
	TriangleData ArrayDescriptor
	Properties   ArrayDescriptor
	SubmeshData  ArrayDescriptor
	TextureUnits ArrayDescriptor
	BoneCountMax uint32

	Indices   []uint16
	Triangles []uint16
	Submeshes []Submesh
}

func readSubmesh(r *Reader, off int, external bool) (Submesh, error) {
	size := SubmeshSize
	if external {
		size = skinSubmeshSize
	}
	if !r.Has(off, size) {
		return Submesh{}, fmt.Errorf("%w: submesh at %#x", ErrOutOfBounds, off)
	}
	var fields [10]uint16
	for i := range fields {
		fields[i], _ = r.U16(off + i*2)
	}
	s := Submesh{
		ID:              fields[0],
		Level:           fields[1],
		VertexStart:     fields[2],
		VertexCount:     fields[3],
		IndexStart:      fields[4],
		IndexCount:      fields[5],
		BoneCount:       fields[6],
		BoneComboIndex:  fields[7],
		BoneInfluences:  fields[8],
		CenterBoneIndex: fields[9],
	}
	s.Center, _ = r.Vector3(off + 20)
	if external {
		s.SortCenter, _ = r.Vector3(off + 32)
		s.SortRadius, _ = r.F32(off + 44)
	}
	return s, nil
}

// readLists decodes the index, triangle and submesh arrays of sp.
func (p *Parser) readLists(r *Reader, sp *SkinProfile, external bool) {
	var err error
	if sp.Indices, err = r.U16Array(sp.IndexData, p.opts.Limits.Indices); err != nil {
		p.logf("skin indices: %v", err)
	}
	if sp.Triangles, err = r.U16Array(sp.TriangleData, p.opts.Limits.Indices); err != nil {
		p.logf("skin triangles: %v", err)
	}
	stride := SubmeshSize
	if external {
		stride = skinSubmeshSize
	}
	n := clampCount(sp.SubmeshData.Count, p.opts.Limits.Submeshes)
	for i := 0; i < n; i++ {
		s, err := readSubmesh(r, elementOffset(sp.SubmeshData, i, stride), external)
		if err != nil {
			p.logf("submesh %d: %v", i, err)
			break
		}
		sp.Submeshes = append(sp.Submeshes, s)
	}
}

func (p *Parser) decodeSkinProfiles(r *Reader, h *Header) ([]SkinProfile, error) {
	if !h.HasEmbeddedSkins() {
		return nil, nil
	}
	n := clampCount(h.Views.Count, p.opts.Limits.SkinProfiles)
	var profiles []SkinProfile
	for i := 0; i < n; i++ {
		off := elementOffset(h.Views, i, SkinProfileSize)
		if !r.Has(off, SkinProfileSize) {
			return profiles, fmt.Errorf("skin profile %d: %w at %#x", i, ErrOutOfBounds, off)
		}
		var sp SkinProfile
		sp.IndexData, _ = r.Array(off)
		sp.TriangleData, _ = r.Array(off + 8)
		sp.Properties, _ = r.Array(off + 16)
		sp.SubmeshData, _ = r.Array(off + 24)
		sp.TextureUnits, _ = r.Array(off + 32)
		sp.BoneCountMax, _ = r.U32(off + 40)
		p.readLists(r, &sp, false)
		profiles = append(profiles, sp)
	}
	return profiles, nil
}

// ParseSkin decodes an external .skin file used by models from version 264.
func (p *Parser) ParseSkin(data []byte) (*SkinProfile, error) {
	r := NewReader(data)
	if r.Len() < skinFileHeaderSize {
		return nil, fmt.Errorf("%w: skin %d < %d bytes", ErrTruncatedHeader, r.Len(), skinFileHeaderSize)
	}
	if magic, _ := r.bytes(0, 4); string(magic) != SkinMagic {
		return nil, fmt.Errorf("%w: skin %q", ErrBadMagic, magic)
	}
	sp := &SkinProfile{}
	sp.IndexData, _ = r.Array(4)
	sp.TriangleData, _ = r.Array(12)
	sp.Properties, _ = r.Array(20)
	sp.SubmeshData, _ = r.Array(28)
	sp.TextureUnits, _ = r.Array(36)
	sp.BoneCountMax, _ = r.U32(44)
	p.readLists(r, sp, true)
	return sp, nil
}

// ParseSkin decodes an external .skin file with default options.
func ParseSkin(data []byte) (*SkinProfile, error) {
	return NewParser(nil).ParseSkin(data)
}
