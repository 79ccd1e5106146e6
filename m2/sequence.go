package m2

import "fmt"

const SequenceSize = 68

type SequenceFlags uint32

const (
	SequenceBlended  SequenceFlags = 0x20
	SequenceIsAlias  SequenceFlags = 0x40
	SequenceEmbedded SequenceFlags = 0x80
)

// Sequence is an animation clip. Start and End are in milliseconds on the
// model timeline.
type Sequence struct {
	ID            uint16
	SubID         uint16
	Start         uint32
	End           uint32
	MoveSpeed     float32
	Flags         SequenceFlags
	Frequency     int16
	ReplayMin     uint32
	ReplayMax     uint32
	BlendTime     uint32
	Bounds        Bounds
	BoundsRadius  float32
	VariationNext int16
	AliasNext     uint16
}

func (s *Sequence) Duration() uint32 {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

func readSequence(r *Reader, off int) (Sequence, error) {
	if !r.Has(off, SequenceSize) {
		return Sequence{}, fmt.Errorf("%w: sequence at %#x", ErrOutOfBounds, off)
	}
	var s Sequence
	s.ID, _ = r.U16(off)
	s.SubID, _ = r.U16(off + 2)
	s.Start, _ = r.U32(off + 4)
	s.End, _ = r.U32(off + 8)
	s.MoveSpeed, _ = r.F32(off + 12)
	flags, _ := r.U32(off + 16)
	s.Flags = SequenceFlags(flags)
	s.Frequency, _ = r.I16(off + 20)
	s.ReplayMin, _ = r.U32(off + 24)
	s.ReplayMax, _ = r.U32(off + 28)
	s.BlendTime, _ = r.U32(off + 32)
	s.Bounds.Min, _ = r.Vector3(off + 36)
	s.Bounds.Max, _ = r.Vector3(off + 48)
	s.BoundsRadius, _ = r.F32(off + 60)
	s.VariationNext, _ = r.I16(off + 64)
	s.AliasNext, _ = r.U16(off + 66)
	return s, nil
}

func (p *Parser) decodeSequences(r *Reader, h *Header) ([]Sequence, error) {
	n := clampCount(h.Animations.Count, p.opts.Limits.Sequences)
	sequences := make([]Sequence, 0, minInt(n, r.Len()/SequenceSize))
	for i := 0; i < n; i++ {
		s, err := readSequence(r, elementOffset(h.Animations, i, SequenceSize))
		if err != nil {
			return sequences, fmt.Errorf("sequence %d: %w", i, err)
		}
		sequences = append(sequences, s)
	}
	return sequences, nil
}
