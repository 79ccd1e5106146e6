package m2

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/binzume/m2conv/geom"
)

var (
	ErrTruncatedHeader = errors.New("m2: buffer too short for header")
	ErrOutOfBounds     = errors.New("m2: read out of bounds")
	ErrBadMagic        = errors.New("m2: bad magic")
	ErrKeyframeBudget  = errors.New("m2: keyframe budget exhausted")
)

// ArrayDescriptor locates a variable-length array in the buffer.
type ArrayDescriptor struct {
	Count  uint32
	Offset uint32
}

const arrayDescriptorSize = 8

// Reader provides random-access little-endian reads over an immutable buffer.
type Reader struct {
	data []byte
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) Len() int {
	return len(r.data)
}

func (r *Reader) bytes(off, size int) ([]byte, error) {
	if off < 0 || size < 0 || off > len(r.data)-size {
		return nil, fmt.Errorf("%w: %d bytes at %#x (len %d)", ErrOutOfBounds, size, off, len(r.data))
	}
	return r.data[off : off+size], nil
}

// Has reports whether size bytes at off are readable.
func (r *Reader) Has(off, size int) bool {
	return off >= 0 && size >= 0 && off <= len(r.data)-size
}

func (r *Reader) U8(off int) (uint8, error) {
	b, err := r.bytes(off, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) U16(off int) (uint16, error) {
	b, err := r.bytes(off, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) I16(off int) (int16, error) {
	v, err := r.U16(off)
	return int16(v), err
}

func (r *Reader) U32(off int) (uint32, error) {
	b, err := r.bytes(off, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) I32(off int) (int32, error) {
	v, err := r.U32(off)
	return int32(v), err
}

func (r *Reader) F32(off int) (float32, error) {
	v, err := r.U32(off)
	return math.Float32frombits(v), err
}

func (r *Reader) Vector2(off int) (geom.Vector2, error) {
	b, err := r.bytes(off, 8)
	if err != nil {
		return geom.Vector2{}, err
	}
	return geom.Vector2{
		X: math.Float32frombits(binary.LittleEndian.Uint32(b[0:])),
		Y: math.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
	}, nil
}

func (r *Reader) Vector3(off int) (geom.Vector3, error) {
	b, err := r.bytes(off, 12)
	if err != nil {
		return geom.Vector3{}, err
	}
	return geom.Vector3{
		X: math.Float32frombits(binary.LittleEndian.Uint32(b[0:])),
		Y: math.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
		Z: math.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
	}, nil
}

func (r *Reader) Array(off int) (ArrayDescriptor, error) {
	b, err := r.bytes(off, arrayDescriptorSize)
	if err != nil {
		return ArrayDescriptor{}, err
	}
	return ArrayDescriptor{
		Count:  binary.LittleEndian.Uint32(b[0:]),
		Offset: binary.LittleEndian.Uint32(b[4:]),
	}, nil
}

// CString reads a NUL-terminated string of at most max bytes. A missing
// terminator within bounds is not an error.
func (r *Reader) CString(off, max int) (string, error) {
	if off < 0 || off >= len(r.data) {
		return "", fmt.Errorf("%w: string at %#x (len %d)", ErrOutOfBounds, off, len(r.data))
	}
	end := off + max
	if end > len(r.data) || end < off {
		end = len(r.data)
	}
	b := r.data[off:end]
	for i, c := range b {
		if c == 0 {
			b = b[:i]
			break
		}
	}
	return decodeString(b), nil
}

// elementOffset returns the offset of the i-th element of stride bytes.
func elementOffset(a ArrayDescriptor, i, stride int) int {
	return int(a.Offset) + i*stride
}

// clampCount limits a declared count to the safety cap.
func clampCount(count uint32, limit int) int {
	if limit >= 0 && int64(count) > int64(limit) {
		return limit
	}
	return int(count)
}

// U16Array reads up to limit u16 values, stopping at the buffer end.
func (r *Reader) U16Array(a ArrayDescriptor, limit int) ([]uint16, error) {
	n := clampCount(a.Count, limit)
	values := make([]uint16, 0, minInt(n, r.Len()/2))
	for i := 0; i < n; i++ {
		v, err := r.U16(elementOffset(a, i, 2))
		if err != nil {
			return values, err
		}
		values = append(values, v)
	}
	return values, nil
}

// U32Array reads up to limit u32 values, stopping at the buffer end.
func (r *Reader) U32Array(a ArrayDescriptor, limit int) ([]uint32, error) {
	n := clampCount(a.Count, limit)
	values := make([]uint32, 0, minInt(n, r.Len()/4))
	for i := 0; i < n; i++ {
		v, err := r.U32(elementOffset(a, i, 4))
		if err != nil {
			return values, err
		}
		values = append(values, v)
	}
	return values, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
