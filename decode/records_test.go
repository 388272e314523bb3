package decode

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/westhule/combatcap/consts"
)

func writePaddedID(t *testing.T, buf *bytes.Buffer, id string) {
	raw, err := hex.DecodeString(id)
	assert.Nil(t, err)
	buf.Write(raw)
	buf.Write(make([]byte, 4))
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	_ = binary.Write(buf, binary.LittleEndian, v)
}

func writeInt32(buf *bytes.Buffer, v int32) {
	_ = binary.Write(buf, binary.LittleEndian, v)
}

func writeFloat32(buf *bytes.Buffer, v float32) {
	_ = binary.Write(buf, binary.LittleEndian, v)
}

func writeName(buf *bytes.Buffer, name string) {
	writeUint32(buf, uint32(len(name)))
	buf.WriteString(name)
}

func TestDecodeSkillInfo(t *testing.T) {
	var buf bytes.Buffer
	writePaddedID(t, &buf, "aaaa0001")
	writePaddedID(t, &buf, "bbbb0002")
	writePaddedID(t, &buf, "00000000")
	writeName(&buf, "Fireball_Casting")
	writeFloat32(&buf, 12.5)
	buf.Write(make([]byte, 4))
	writeFloat32(&buf, -3)
	buf.Write(make([]byte, 4))
	writeInt32(&buf, 7)

	at := time.Now()
	si, err := DecodeSkillInfo(buf.Bytes(), at)
	assert.Nil(t, err)
	assert.Equal(t, "aaaa0001", si.UsedBy)
	assert.Equal(t, "bbbb0002", si.Target)
	assert.Equal(t, "00000000", si.Owner)
	assert.Equal(t, "Fireball_Casting", si.SkillName)
	assert.Equal(t, float32(12.5), si.X)
	assert.Equal(t, float32(-3), si.Y)
	assert.Equal(t, int32(7), si.Extra)
	assert.Equal(t, at, si.At)
}

func TestDecodeSkillInfoUTF16Name(t *testing.T) {
	wide := make([]byte, 0, 16)
	for _, c := range "Fireball" {
		wide = append(wide, byte(c), 0)
	}

	var buf bytes.Buffer
	writePaddedID(t, &buf, "aaaa0001")
	writePaddedID(t, &buf, "bbbb0002")
	writePaddedID(t, &buf, "cccc0003")
	writeUint32(&buf, uint32(len(wide)))
	buf.Write(wide)
	buf.Write(make([]byte, 20))

	si, err := DecodeSkillInfo(buf.Bytes(), time.Now())
	assert.Nil(t, err)
	assert.Equal(t, "Fireball", si.SkillName)
}

func TestDecodeSkillInfoTooShort(t *testing.T) {
	_, err := DecodeSkillInfo(make([]byte, 20), time.Now())
	assert.NotNil(t, err)
	assert.True(t, errors.Is(err, consts.ErrFrameTooShort))
}

func TestDecodeSkillInfoNameOverrun(t *testing.T) {
	var buf bytes.Buffer
	writePaddedID(t, &buf, "aaaa0001")
	writePaddedID(t, &buf, "bbbb0002")
	writePaddedID(t, &buf, "cccc0003")
	// declared name length runs past the end of the payload
	writeUint32(&buf, 4096)
	buf.Write(make([]byte, 24))

	_, err := DecodeSkillInfo(buf.Bytes(), time.Now())
	assert.NotNil(t, err)
	assert.True(t, errors.Is(err, consts.ErrFrameTooShort))
}

func TestDecodeSkillAction(t *testing.T) {
	var buf bytes.Buffer
	writePaddedID(t, &buf, "aaaa0001")
	writeName(&buf, "Slash")
	writeInt32(&buf, 1203)
	buf.Write(make([]byte, 4))
	buf.Write(make([]byte, 4))
	writeFloat32(&buf, 1.5)
	next, _ := hex.DecodeString("cccc0003")
	buf.Write(next)
	buf.Write(make([]byte, 6))
	tail, _ := hex.DecodeString("bbbb0002")
	buf.Write(tail)

	sa, err := DecodeSkillAction(buf.Bytes(), time.Now())
	assert.Nil(t, err)
	assert.Equal(t, "aaaa0001", sa.UsedBy)
	assert.Equal(t, "Slash", sa.ActionName)
	assert.Equal(t, int32(1203), sa.ActionCode)
	assert.Equal(t, float32(1.5), sa.CastTime)
	assert.Equal(t, "cccc0003", sa.NextTarget)
	assert.Equal(t, "bbbb0002", sa.Target)
}

func TestDecodeSkillDamage(t *testing.T) {
	var buf bytes.Buffer
	writePaddedID(t, &buf, "aaaa0001")
	writePaddedID(t, &buf, "bbbb0002")
	writeUint32(&buf, 5000)
	buf.Write(make([]byte, 12))
	buf.Write([]byte{0x01, 0x08, 0x00, 0x00, 0x00, 0x00})
	writeInt32(&buf, 90017)

	sd, err := DecodeSkillDamage(buf.Bytes(), time.Now())
	assert.Nil(t, err)
	assert.Equal(t, "aaaa0001", sd.UsedBy)
	assert.Equal(t, "bbbb0002", sd.Target)
	assert.Equal(t, uint32(5000), sd.Damage)
	assert.Equal(t, int32(90017), sd.SkillID)
	assert.True(t, sd.Flags.Crit())
	assert.True(t, sd.Flags.Dot())
	assert.False(t, sd.Flags.Fire())
	assert.Equal(t, "", sd.SkillName)
}

func TestDecodeSkillState(t *testing.T) {
	var buf bytes.Buffer
	writePaddedID(t, &buf, "aaaa0001")
	writePaddedID(t, &buf, "ffffffff")
	writeInt32(&buf, 77)
	buf.Write([]byte{0x00, 0x08, 0x00, 0x00, 0x00, 0x00})

	ss, err := DecodeSkillState(buf.Bytes(), time.Now())
	assert.Nil(t, err)
	assert.Equal(t, "aaaa0001", ss.UsedBy)
	assert.Equal(t, "ffffffff", ss.Target)
	assert.Equal(t, int32(77), ss.ActionCode)
	assert.True(t, ss.Flags.Dot())
}

func TestDecodeChangeHp(t *testing.T) {
	var buf bytes.Buffer
	writePaddedID(t, &buf, "bbbb0002")
	writeInt32(&buf, 1000)
	writeInt32(&buf, 400)

	ch, err := DecodeChangeHp(buf.Bytes(), time.Now())
	assert.Nil(t, err)
	assert.Equal(t, "bbbb0002", ch.Target)
	assert.Equal(t, int32(1000), ch.PrevHp)
	assert.Equal(t, int32(400), ch.CurrentHp)
	assert.Equal(t, int32(600), ch.Delta())

	// healing shows up as a negative delta
	var heal bytes.Buffer
	writePaddedID(t, &heal, "bbbb0002")
	writeInt32(&heal, 400)
	writeInt32(&heal, 1000)
	ch, err = DecodeChangeHp(heal.Bytes(), time.Now())
	assert.Nil(t, err)
	assert.Equal(t, int32(-600), ch.Delta())
}

func TestNameHeuristics(t *testing.T) {
	assert.False(t, utf16Likely([]byte("Fireball")))

	wide := make([]byte, 0, 16)
	for _, c := range "Fireball" {
		wide = append(wide, byte(c), 0)
	}
	assert.True(t, utf16Likely(wide))
	assert.Equal(t, "Fireball", decodeUTF16(wide))

	assert.Equal(t, "Fireball", filterPrintable([]byte("Fire\x01ball\x7f")))
}
