package m2

import (
	"fmt"

	"github.com/binzume/m2conv/geom"
)

const (
	trackBaseSize = 4
	// NoGlobalSequence marks a track that follows the animation clips.
	NoGlobalSequence = 0xffff
)

type InterpolationType uint16

const (
	InterpolationNone InterpolationType = iota
	InterpolationLinear
	InterpolationBezier
	InterpolationHermite
)

func (t InterpolationType) String() string {
	switch t {
	case InterpolationNone:
		return "None"
	case InterpolationLinear:
		return "Linear"
	case InterpolationBezier:
		return "Bezier"
	case InterpolationHermite:
		return "Hermite"
	}
	return fmt.Sprintf("Unknown(%d)", uint16(t))
}

// TrackHeader describes one animated property.
type TrackHeader struct {
	Interpolation  InterpolationType
	GlobalSequence uint16
	HasRanges      bool
	Ranges         ArrayDescriptor
	Timestamps     ArrayDescriptor
	Values         ArrayDescriptor
}

// trackHeaderSize returns the encoded size for the given version.
func trackHeaderSize(version uint32) int {
	if version < VersionSkinFiles {
		return trackBaseSize + 3*arrayDescriptorSize
	}
	return trackBaseSize + 2*arrayDescriptorSize
}

func DecodeTrackHeader(r *Reader, off int, version uint32) (*TrackHeader, error) {
	if !r.Has(off, trackHeaderSize(version)) {
		return nil, fmt.Errorf("%w: track header at %#x", ErrOutOfBounds, off)
	}
	interp, _ := r.U16(off)
	gs, _ := r.U16(off + 2)
	t := &TrackHeader{Interpolation: InterpolationType(interp), GlobalSequence: gs}
	p := off + trackBaseSize
	if version < VersionSkinFiles {
		t.HasRanges = true
		t.Ranges, _ = r.Array(p)
		p += arrayDescriptorSize
	}
	t.Timestamps, _ = r.Array(p)
	t.Values, _ = r.Array(p + arrayDescriptorSize)
	return t, nil
}

func (t *TrackHeader) HasData() bool {
	return t.Timestamps.Count > 0 && t.Values.Count > 0
}

func (t *TrackHeader) IsStatic() bool {
	return t.Timestamps.Count <= 1
}

func (t *TrackHeader) UsesGlobalSequence() bool {
	return t.GlobalSequence != NoGlobalSequence
}

// Vector3Key is a translation or scale keyframe. Sequence is the animation
// index the key belongs to, or -1 when unknown.
type Vector3Key struct {
	Sequence int
	Time     uint32
	Value    geom.Vector3
}

type RotationKey struct {
	Sequence int
	Time     uint32
	Value    CompQuat
}

// keySlot locates one keyframe value in the buffer.
type keySlot struct {
	sequence int
	time     uint32
	off      int
}

// keyBudget bounds the keys decoded across every track of one model.
// A nil budget is unbounded.
type keyBudget struct {
	remaining int
	exhausted bool
}

func newKeyBudget(n int) *keyBudget {
	return &keyBudget{remaining: n}
}

// take reserves up to n keys and returns how many were granted.
func (b *keyBudget) take(n int) int {
	if b == nil {
		return n
	}
	if n > b.remaining {
		n = b.remaining
		b.exhausted = true
	}
	b.remaining -= n
	return n
}

// give returns unused keys to the budget.
func (b *keyBudget) give(n int) {
	if b != nil && n > 0 {
		b.remaining += n
	}
}

type trackDecoder struct {
	r         *Reader
	version   uint32
	limit     int
	// sequences caps the ranges or per-sequence sub-arrays of a track.
	// Zero means limit.
	sequences int
	budget    *keyBudget
}

func (d *trackDecoder) sequenceCount(count uint32) int {
	if d.sequences > 0 {
		return clampCount(count, d.sequences)
	}
	return clampCount(count, d.limit)
}

// slots lists keyframe value locations in order. Pre-264 tracks point at the
// values directly; later tracks point at one sub-array per sequence.
func (d *trackDecoder) slots(t *TrackHeader, stride int) ([]keySlot, error) {
	if d.version < VersionSkinFiles {
		return d.flatSlots(t, stride)
	}
	return d.nestedSlots(t, stride)
}

func (d *trackDecoder) flatSlots(t *TrackHeader, stride int) ([]keySlot, error) {
	n := d.budget.take(clampCount(t.Values.Count, d.limit))
	times, _ := d.r.U32Array(t.Timestamps, n)
	ranges := rangeCursor{r: d.r, ranges: t.Ranges, count: d.sequenceCount(t.Ranges.Count)}

	slots := make([]keySlot, 0, minInt(n, d.r.Len()/stride))
	for i := 0; i < n; i++ {
		off := elementOffset(t.Values, i, stride)
		if !d.r.Has(off, stride) {
			d.budget.give(n - i)
			return slots, fmt.Errorf("%w: key %d at %#x", ErrOutOfBounds, i, off)
		}
		s := keySlot{sequence: ranges.index(uint32(i)), off: off}
		if i < len(times) {
			s.time = times[i]
		}
		slots = append(slots, s)
	}
	return slots, nil
}

// rangeCursor maps key indices to the (start, end) pair containing them.
// Ranges are ordered by sequence and keys are visited in increasing order,
// so the cursor only moves forward.
type rangeCursor struct {
	r      *Reader
	ranges ArrayDescriptor
	count  int
	pos    int
	start  uint32
	end    uint32
	loaded bool
}

// index returns the sequence of key i, or -1.
func (c *rangeCursor) index(i uint32) int {
	for {
		if c.pos >= c.count {
			return -1
		}
		if !c.loaded {
			off := elementOffset(c.ranges, c.pos, 8)
			start, err1 := c.r.U32(off)
			end, err2 := c.r.U32(off + 4)
			if err1 != nil || err2 != nil {
				c.pos = c.count
				return -1
			}
			c.start, c.end, c.loaded = start, end, true
		}
		if i <= c.end {
			if i >= c.start {
				return c.pos
			}
			return -1
		}
		c.pos++
		c.loaded = false
	}
}

func (d *trackDecoder) nestedSlots(t *TrackHeader, stride int) ([]keySlot, error) {
	nseq := d.sequenceCount(t.Values.Count)
	var slots []keySlot
	for seq := 0; seq < nseq; seq++ {
		if len(slots) >= d.limit || (d.budget != nil && d.budget.remaining == 0) {
			return slots, nil
		}
		values, err := d.r.Array(elementOffset(t.Values, seq, arrayDescriptorSize))
		if err != nil {
			return slots, err
		}
		n := d.budget.take(clampCount(values.Count, d.limit-len(slots)))
		var times []uint32
		if uint32(seq) < t.Timestamps.Count {
			if ts, err := d.r.Array(elementOffset(t.Timestamps, seq, arrayDescriptorSize)); err == nil {
				times, _ = d.r.U32Array(ts, n)
			}
		}
		for i := 0; i < n; i++ {
			off := elementOffset(values, i, stride)
			if !d.r.Has(off, stride) {
				d.budget.give(n - i)
				return slots, fmt.Errorf("%w: sequence %d key %d at %#x", ErrOutOfBounds, seq, i, off)
			}
			s := keySlot{sequence: seq, off: off}
			if i < len(times) {
				s.time = times[i]
			}
			slots = append(slots, s)
		}
	}
	return slots, nil
}

func (d *trackDecoder) vector3Keys(t *TrackHeader) ([]Vector3Key, error) {
	slots, err := d.slots(t, 12)
	keys := make([]Vector3Key, 0, len(slots))
	for _, s := range slots {
		v, _ := d.r.Vector3(s.off)
		keys = append(keys, Vector3Key{Sequence: s.sequence, Time: s.time, Value: v})
	}
	return keys, err
}

func (d *trackDecoder) rotationKeys(t *TrackHeader) ([]RotationKey, error) {
	slots, err := d.slots(t, compQuatSize)
	keys := make([]RotationKey, 0, len(slots))
	for _, s := range slots {
		q, _ := ReadCompQuat(d.r, s.off)
		keys = append(keys, RotationKey{Sequence: s.sequence, Time: s.time, Value: q})
	}
	return keys, err
}
