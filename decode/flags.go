package decode

import (
	"encoding/json"
)

const flagByteCount = 6

type flagDef struct {
	name string
	idx  int
	mask byte
}

// Wire layout of the damage qualifier bits.
var flagDefs = []flagDef{
	{"crit", 0, 0x01},
	{"unguarded", 0, 0x04},
	{"broken", 0, 0x08},
	{"firstHit", 0, 0x40},
	{"defaultAttack", 0, 0x80},
	{"multiHit", 1, 0x01},
	{"powerHit", 1, 0x02},
	{"fastHit", 1, 0x04},
	{"dot", 1, 0x08},
	{"addHit", 3, 0x08},
	{"bleed", 3, 0x10},
	{"dark", 3, 0x20},
	{"fire", 3, 0x40},
	{"holy", 3, 0x80},
	{"ice", 4, 0x01},
	{"electric", 4, 0x02},
	{"poison", 4, 0x04},
	{"mind", 4, 0x08},
}

var definedMask [flagByteCount]byte

func init() {
	for _, d := range flagDefs {
		definedMask[d.idx] |= d.mask
	}
}

// FlagBits is an immutable view over the 6 qualifier bytes of a damage
// frame. Bits outside the defined table are masked off at construction.
type FlagBits struct {
	b [flagByteCount]byte
}

func NewFlagBits(raw []byte) FlagBits {
	var fb FlagBits
	for i := 0; i < flagByteCount && i < len(raw); i++ {
		fb.b[i] = raw[i] & definedMask[i]
	}
	return fb
}

// FlagBitsFromNames builds a FlagBits with the named qualifiers set.
// Unknown names are ignored.
func FlagBitsFromNames(names []string) FlagBits {
	var fb FlagBits
	for _, name := range names {
		for _, d := range flagDefs {
			if d.name == name {
				fb.b[d.idx] |= d.mask
			}
		}
	}
	return fb
}

func (fb FlagBits) has(idx int, mask byte) bool {
	return fb.b[idx]&mask != 0
}

func (fb FlagBits) Crit() bool          { return fb.has(0, 0x01) }
func (fb FlagBits) Unguarded() bool     { return fb.has(0, 0x04) }
func (fb FlagBits) Broken() bool        { return fb.has(0, 0x08) }
func (fb FlagBits) FirstHit() bool      { return fb.has(0, 0x40) }
func (fb FlagBits) DefaultAttack() bool { return fb.has(0, 0x80) }
func (fb FlagBits) MultiHit() bool      { return fb.has(1, 0x01) }
func (fb FlagBits) PowerHit() bool      { return fb.has(1, 0x02) }
func (fb FlagBits) FastHit() bool       { return fb.has(1, 0x04) }
func (fb FlagBits) Dot() bool           { return fb.has(1, 0x08) }
func (fb FlagBits) AddHit() bool        { return fb.has(3, 0x08) }
func (fb FlagBits) Bleed() bool         { return fb.has(3, 0x10) }
func (fb FlagBits) Dark() bool          { return fb.has(3, 0x20) }
func (fb FlagBits) Fire() bool          { return fb.has(3, 0x40) }
func (fb FlagBits) Holy() bool          { return fb.has(3, 0x80) }
func (fb FlagBits) Ice() bool           { return fb.has(4, 0x01) }
func (fb FlagBits) Electric() bool      { return fb.has(4, 0x02) }
func (fb FlagBits) Poison() bool        { return fb.has(4, 0x04) }
func (fb FlagBits) Mind() bool          { return fb.has(4, 0x08) }

// Bytes re-encodes the set into its 6-byte wire form.
func (fb FlagBits) Bytes() []byte {
	res := make([]byte, flagByteCount)
	copy(res, fb.b[:])
	return res
}

// Names returns the set qualifiers in wire-table order.
func (fb FlagBits) Names() []string {
	res := make([]string, 0, 4)
	for _, d := range flagDefs {
		if fb.has(d.idx, d.mask) {
			res = append(res, d.name)
		}
	}
	return res
}

func (fb FlagBits) MarshalJSON() ([]byte, error) {
	return json.Marshal(fb.Names())
}

func (fb *FlagBits) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*fb = FlagBitsFromNames(names)
	return nil
}
