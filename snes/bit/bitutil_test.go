package bit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombine(t *testing.T) {
	assert.Equal(t, uint16(0x1234), Combine(0x12, 0x34))
	assert.Equal(t, uint16(0x00FF), Combine(0x00, 0xFF))
}

func TestCombine24(t *testing.T) {
	assert.Equal(t, uint32(0x7E1234), Combine24(0x7E, 0x1234))
	assert.Equal(t, uint32(0x123456), Combine24Bytes(0x12, 0x34, 0x56))
}

func TestIsSet(t *testing.T) {
	testCases := []struct {
		desc  string
		index uint8
		value uint8
		want  bool
	}{
		{desc: "bit 0 set", index: 0, value: 0x01, want: true},
		{desc: "bit 7 set", index: 7, value: 0x80, want: true},
		{desc: "bit 3 clear", index: 3, value: 0xF7, want: false},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			assert.Equal(t, tC.want, IsSet(tC.index, tC.value))
		})
	}
}

func TestSetReset(t *testing.T) {
	assert.Equal(t, uint8(0x81), Set(7, 0x01))
	assert.Equal(t, uint8(0x01), Reset(7, 0x81))
	assert.Equal(t, uint8(0x81), Set(0, 0x81))
	assert.Equal(t, uint8(1), GetBitValue(4, 0x10))
	assert.Equal(t, uint8(0), GetBitValue(5, 0x10))
}

func TestHighLow(t *testing.T) {
	assert.Equal(t, uint8(0x12), High(0x1234))
	assert.Equal(t, uint8(0x34), Low(0x1234))
	assert.Equal(t, uint8(0x56), Byte(0, 0x123456))
	assert.Equal(t, uint8(0x34), Byte(1, 0x123456))
	assert.Equal(t, uint8(0x12), Byte(2, 0x123456))
}
