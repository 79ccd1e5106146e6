package m2

import (
	"fmt"

	"github.com/binzume/m2conv/geom"
)

const (
	BoneSize = 112

	boneBaseSize    = 12
	boneTrackOffset = 12
	bonePivotOffset = 88
)

type BoneFlags uint32

const (
	BoneSphericalBillboard     BoneFlags = 0x8
	BoneCylindricalBillboardX  BoneFlags = 0x10
	BoneCylindricalBillboardY  BoneFlags = 0x20
	BoneCylindricalBillboardZ  BoneFlags = 0x40
	BoneTransformed            BoneFlags = 0x200
	BoneKinematic              BoneFlags = 0x400
	BoneHelper                 BoneFlags = 0x1000
	BoneHasAnimation           BoneFlags = 0x4000
	BoneAnimatedAtHigherLODs   BoneFlags = 0x8000
	BoneHasProceduralAnimation BoneFlags = 0x10000
	BoneIKSolver               BoneFlags = 0x20000
)

func (f BoneFlags) Has(flag BoneFlags) bool {
	return f&flag != 0
}

// Bone is a skeleton joint. Track headers are nil when they could not be read.
type Bone struct {
	KeyBoneID int32
	Flags     BoneFlags
	Parent    int16
	SubmeshID uint16

	Translation *TrackHeader
	Rotation    *TrackHeader
	Scale       *TrackHeader

	TranslationKeys []Vector3Key
	RotationKeys    []RotationKey
	ScaleKeys       []Vector3Key

	Pivot geom.Vector3
}

func (b *Bone) IsRoot() bool {
	return b.Parent < 0
}

// trackStride is the distance between the three track headers of a bone.
func trackStride(version uint32) int {
	if version < VersionSkinFiles {
		return 20
	}
	return 12
}

func (p *Parser) decodeBone(r *Reader, off int, version uint32, budget *keyBudget) (Bone, error) {
	if !r.Has(off, boneBaseSize) {
		return Bone{}, fmt.Errorf("%w: bone at %#x", ErrOutOfBounds, off)
	}
	var b Bone
	b.KeyBoneID, _ = r.I32(off)
	flags, _ := r.U32(off + 4)
	b.Flags = BoneFlags(flags)
	b.Parent, _ = r.I16(off + 8)
	b.SubmeshID, _ = r.U16(off + 10)

	pivot, err := r.Vector3(off + bonePivotOffset)
	if err == nil {
		b.Pivot = pivot
	}

	if err := p.decodeBoneTracks(r, &b, off+boneTrackOffset, version, budget); err != nil {
		p.logf("bone at %#x: %v", off, err)
	}
	return b.transformed(p.opts.Coordinates), nil
}

func (p *Parser) decodeBoneTracks(r *Reader, b *Bone, off int, version uint32, budget *keyBudget) error {
	stride := trackStride(version)
	var headers [3]*TrackHeader
	for i := range headers {
		t, err := DecodeTrackHeader(r, off+i*stride, version)
		if err != nil {
			return err
		}
		headers[i] = t
	}
	b.Translation, b.Rotation, b.Scale = headers[0], headers[1], headers[2]

	d := &trackDecoder{
		r:         r,
		version:   version,
		limit:     p.opts.Limits.Keyframes,
		sequences: p.opts.Limits.Sequences,
		budget:    budget,
	}
	var err error
	if b.TranslationKeys, err = d.vector3Keys(b.Translation); err != nil {
		p.logf("translation keys: %v", err)
	}
	if b.RotationKeys, err = d.rotationKeys(b.Rotation); err != nil {
		p.logf("rotation keys: %v", err)
	}
	if b.ScaleKeys, err = d.vector3Keys(b.Scale); err != nil {
		p.logf("scale keys: %v", err)
	}
	return nil
}

// transformed returns a copy of b with pivot and translation/rotation keys
// remapped. Scale keys are kept as stored.
func (b Bone) transformed(cs geom.CoordinateSystem) Bone {
	if cs == geom.CoordinateNone {
		return b
	}
	b.Pivot = cs.TransformPosition(b.Pivot)

	translations := make([]Vector3Key, len(b.TranslationKeys))
	for i, k := range b.TranslationKeys {
		k.Value = cs.TransformPosition(k.Value)
		translations[i] = k
	}
	b.TranslationKeys = translations

	rotations := make([]RotationKey, len(b.RotationKeys))
	for i, k := range b.RotationKeys {
		k.Value = CompQuatFromFloat(cs.TransformQuaternion(k.Value.Float()))
		rotations[i] = k
	}
	b.RotationKeys = rotations
	return b
}

func (p *Parser) decodeBones(r *Reader, h *Header) ([]Bone, error) {
	n := clampCount(h.Bones.Count, p.opts.Limits.Bones)
	if n < int(h.Bones.Count) {
		p.logf("bones: %d declared, capped at %d", h.Bones.Count, n)
	}
	budget := newKeyBudget(p.opts.Limits.ModelKeyframes)
	bones := make([]Bone, 0, minInt(n, r.Len()/boneBaseSize))
	for i := 0; i < n; i++ {
		b, err := p.decodeBone(r, elementOffset(h.Bones, i, BoneSize), h.Version, budget)
		if err != nil {
			return bones, fmt.Errorf("bone %d: %w", i, err)
		}
		bones = append(bones, b)
	}
	if budget.exhausted {
		return bones, fmt.Errorf("bones: %w (%d)", ErrKeyframeBudget, p.opts.Limits.ModelKeyframes)
	}
	return bones, nil
}
