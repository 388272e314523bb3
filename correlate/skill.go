package correlate

import (
	"strings"
	"time"

	"github.com/westhule/combatcap/decode"
)

type SkillState int

const (
	StateCasting SkillState = iota + 1
	StateTargeting
	StateEnding
	StateHit
	StateIdle
	StateInstant
)

var skillStateStr = map[SkillState]string{
	StateCasting:   "casting",
	StateTargeting: "targeting",
	StateEnding:    "ending",
	StateHit:       "hit",
	StateIdle:      "idle",
	StateInstant:   "instant",
}

func (s SkillState) String() string {
	if v, ok := skillStateStr[s]; ok {
		return v
	}
	return "unknown"
}

type SkillType int

const (
	TypeCasting SkillType = iota + 1
	TypeTargetCasting
	TypeChanneling
	TypeInstant
	TypeDot
)

var skillTypeStr = map[SkillType]string{
	TypeCasting:       "casting",
	TypeTargetCasting: "target-casting",
	TypeChanneling:    "channeling",
	TypeInstant:       "instant",
	TypeDot:           "dot",
}

func (s SkillType) String() string {
	if v, ok := skillTypeStr[s]; ok {
		return v
	}
	return "unknown"
}

// ActiveSkillInfo is one tracked skill use. Casting-family entries live in
// the per-actor casting table, instant entries in the per-actor queue.
type ActiveSkillInfo struct {
	UsedBy         string
	Target         string
	NextTarget     string
	SkillName      string
	State          SkillState
	Type           SkillType
	LastStateTime  time.Time
	IsUsing        bool
	TargetingCount int
}

// NormalizeTarget forces the last two hex chars of an identity to "00".
// The wildcard and broadcast sentinels pass through unchanged.
func NormalizeTarget(target string) string {
	if target == decode.IDWildcard || target == decode.IDBroadcast {
		return target
	}
	if len(target) < 2 {
		return target
	}
	return target[:len(target)-2] + "00"
}

// targetMatch reports whether a skill target and a damage target refer to
// the same identity. Either side being a sentinel matches everything.
func targetMatch(a, b string) bool {
	if a == decode.IDWildcard || b == decode.IDWildcard {
		return true
	}
	if a == decode.IDBroadcast || b == decode.IDBroadcast {
		return true
	}
	return NormalizeTarget(a) == NormalizeTarget(b)
}

func skillTargetMatch(e *ActiveSkillInfo, dmgTarget string) bool {
	if targetMatch(e.Target, dmgTarget) {
		return true
	}
	return len(e.NextTarget) > 0 && targetMatch(e.NextTarget, dmgTarget)
}

// splitSkillName decomposes a wire skill/action name by suffix. The type
// reported for _End/_Hit is provisional, the caller refines it from the
// entry the signal closes.
func splitSkillName(name string) (string, SkillState, SkillType) {
	switch {
	case strings.HasSuffix(name, "_Casting"):
		return strings.TrimSuffix(name, "_Casting"), StateCasting, TypeCasting
	case strings.HasSuffix(name, "_Targeting"):
		return strings.TrimSuffix(name, "_Targeting"), StateTargeting, TypeTargetCasting
	case strings.HasSuffix(name, "_End"):
		return strings.TrimSuffix(name, "_End"), StateEnding, TypeCasting
	case strings.HasSuffix(name, "_Hit"):
		return strings.TrimSuffix(name, "_Hit"), StateHit, TypeCasting
	case name == "Idle":
		return name, StateIdle, TypeInstant
	default:
		return name, StateInstant, TypeInstant
	}
}
