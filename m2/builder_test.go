package m2

import (
	"bytes"
	"encoding/binary"
)

// le encodes values little-endian.
func le(values ...interface{}) []byte {
	var b bytes.Buffer
	for _, v := range values {
		if err := binary.Write(&b, binary.LittleEndian, v); err != nil {
			panic(err)
		}
	}
	return b.Bytes()
}

// testModel assembles an M2 buffer: a header followed by appended arrays.
type testModel struct {
	buf []byte
}

func newTestModel(version uint32) *testModel {
	m := &testModel{buf: make([]byte, HeaderMinSize)}
	copy(m.buf, Magic)
	m.putU32(4, version)
	return m
}

func (m *testModel) putU32(off int, v uint32) {
	binary.LittleEndian.PutUint32(m.buf[off:], v)
}

func (m *testModel) put(off int, data []byte) {
	copy(m.buf[off:], data)
}

// add appends data and returns its offset.
func (m *testModel) add(data []byte) uint32 {
	off := uint32(len(m.buf))
	m.buf = append(m.buf, data...)
	return off
}

// array appends data and stores a descriptor for count records at field.
func (m *testModel) array(field int, count int, data []byte) uint32 {
	off := m.add(data)
	m.putU32(field, uint32(count))
	m.putU32(field+4, off)
	return off
}

func vertexBytes(pos [3]float32, weights, indices [4]uint8, normal [3]float32, uv [2]float32) []byte {
	return le(pos, weights, indices, normal, uv, [2]float32{})
}

func bonePrefix(keyBone int32, flags uint32, parent int16) []byte {
	b := make([]byte, BoneSize)
	copy(b, le(keyBone, flags, parent, uint16(0)))
	return b
}
