package record

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/westhule/combatcap/decode"
)

const Version = 1

// Record represents one resolved damage event across plugins.
type Record struct {
	Meta      Meta            `json:"meta"`
	UsedBy    string          `json:"usedBy"`
	Target    string          `json:"target"`
	SkillName string          `json:"skillName"`
	Damage    uint32          `json:"damage"`
	SkillID   int32           `json:"skillId"`
	Flags     decode.FlagBits `json:"flags"`
}

type Meta struct {
	Version int    `json:"version"`
	UUID    string `json:"uuid"`
	// Sequence of the carrying frame within its stream
	Sequence uint32 `json:"sequence"`
	// Nanosecond
	CapturedAt int64 `json:"capturedAt"`
}

// NewRecord builds the outgoing record for a damage event whose skill name
// has already been resolved (or left empty for synthesis).
func NewRecord(dmg *decode.SkillDamage, sequence uint32) *Record {
	var r Record
	r.Meta.Version = Version
	r.Meta.UUID = uuid.NewString()
	r.Meta.Sequence = sequence
	r.Meta.CapturedAt = dmg.At.UnixNano()
	r.UsedBy = dmg.UsedBy
	r.Target = dmg.Target
	r.SkillName = dmg.SkillName
	if len(r.SkillName) <= 0 {
		r.SkillName = SynthesizeName(dmg.Flags)
	}
	r.Damage = dmg.Damage
	r.SkillID = dmg.SkillID
	r.Flags = dmg.Flags
	return &r
}

// SynthesizeName derives a display name from the qualifier flags when
// correlation produced none. Dot ticks are named after their elements.
func SynthesizeName(flags decode.FlagBits) string {
	if !flags.Dot() {
		return "UNKNOWN"
	}
	parts := make([]string, 0, 4)
	if flags.Ice() {
		parts = append(parts, "ICE")
	}
	if flags.Fire() {
		parts = append(parts, "FIRE")
	}
	if flags.Electric() {
		parts = append(parts, "ELECTRIC")
	}
	if flags.Bleed() {
		parts = append(parts, "BLEED")
	}
	if flags.Poison() {
		parts = append(parts, "POISON")
	}
	if flags.Mind() {
		parts = append(parts, "MIND")
	}
	if flags.Holy() {
		parts = append(parts, "HOLY")
	}
	if flags.Dark() {
		parts = append(parts, "DARK")
	}
	if len(parts) <= 0 {
		return "DOT"
	}
	return "DOT_" + strings.Join(parts, "_")
}

// lineFlagOrder is the column order of the qualifier fields in FormatLine.
var lineFlagOrder = []string{
	"crit", "addHit", "unguarded", "broken", "firstHit", "defaultAttack",
	"multiHit", "powerHit", "fastHit", "dot", "ice", "fire", "electric",
	"holy", "dark", "bleed", "poison", "mind",
}

// FormatLine renders the pipe-delimited sink line:
// {unixMillis}|{usedBy}|{target}|{skillName}|{damage}|{18 qualifier bits}|{skillId}
func (r *Record) FormatLine() string {
	name := r.SkillName
	if len(name) <= 0 {
		name = SynthesizeName(r.Flags)
	}
	set := make(map[string]bool, 8)
	for _, n := range r.Flags.Names() {
		set[n] = true
	}

	fields := make([]string, 0, 24)
	fields = append(fields,
		strconv.FormatInt(r.Meta.CapturedAt/int64(time.Millisecond), 10),
		r.UsedBy,
		r.Target,
		name,
		strconv.FormatUint(uint64(r.Damage), 10))
	for _, n := range lineFlagOrder {
		fields = append(fields, strconv.Itoa(bool2Int(set[n])))
	}
	fields = append(fields, strconv.FormatInt(int64(r.SkillID), 10))
	return strings.Join(fields, "|")
}

func bool2Int(b bool) int {
	if b {
		return 1
	}
	return 0
}

func int2bool(v int) bool {
	return v > 0
}
