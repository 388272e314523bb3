package correlate

import (
	"time"

	"github.com/westhule/combatcap/decode"
)

// SkillSignal is one "skill used" announcement, extracted from a skill-info
// or skill-action frame.
type SkillSignal struct {
	UsedBy     string
	Target     string
	NextTarget string
	Name       string
	At         time.Time
}

// Matcher joins skill signals with the damage events they caused. The
// default implementation is Correlator; an alternate policy can be swapped
// in when the pipeline is built.
type Matcher interface {
	// EnqueueSkill registers a skill signal.
	EnqueueSkill(sig SkillSignal)
	// MatchDamage resolves the skill name for a damage event, or returns
	// the empty string when nothing matches.
	MatchDamage(dmg *decode.SkillDamage) string
	// KeepAlive refreshes tracked skills of an actor without changing
	// their state.
	KeepAlive(usedBy, target string, at time.Time)
	// Cleanup drops state that has been idle longer than the stale
	// threshold.
	Cleanup(now time.Time)
}
