package decode

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlagBitsLayout(t *testing.T) {
	raw := []byte{0x01 | 0x40, 0x08, 0x00, 0x10 | 0x80, 0x02, 0x00}
	fb := NewFlagBits(raw)
	assert.True(t, fb.Crit())
	assert.True(t, fb.FirstHit())
	assert.True(t, fb.Dot())
	assert.True(t, fb.Bleed())
	assert.True(t, fb.Holy())
	assert.True(t, fb.Electric())

	assert.False(t, fb.Unguarded())
	assert.False(t, fb.Broken())
	assert.False(t, fb.DefaultAttack())
	assert.False(t, fb.MultiHit())
	assert.False(t, fb.PowerHit())
	assert.False(t, fb.FastHit())
	assert.False(t, fb.AddHit())
	assert.False(t, fb.Dark())
	assert.False(t, fb.Fire())
	assert.False(t, fb.Ice())
	assert.False(t, fb.Poison())
	assert.False(t, fb.Mind())
}

func TestFlagBitsMasksUndefinedBits(t *testing.T) {
	fb := NewFlagBits([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
	assert.Equal(t, len(flagDefs), len(fb.Names()))

	// bytes 2 and 5 carry no defined bits
	b := fb.Bytes()
	assert.Equal(t, byte(0x00), b[2])
	assert.Equal(t, byte(0x00), b[5])
}

func TestFlagBitsRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 64; i++ {
		raw := make([]byte, flagByteCount)
		r.Read(raw)
		fb := NewFlagBits(raw)
		assert.Equal(t, fb, NewFlagBits(fb.Bytes()))
		assert.Equal(t, fb, FlagBitsFromNames(fb.Names()))
	}
}

func TestFlagBitsJSON(t *testing.T) {
	fb := FlagBitsFromNames([]string{"crit", "dot", "fire"})
	data, err := json.Marshal(fb)
	assert.Nil(t, err)

	var got FlagBits
	err = json.Unmarshal(data, &got)
	assert.Nil(t, err)
	assert.Equal(t, fb, got)
}
