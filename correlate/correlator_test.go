package correlate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/westhule/combatcap/decode"
)

const (
	actorA  = "aaaa0001"
	targetT = "bbbb0002"
)

func damage(usedBy, target string, at time.Time) *decode.SkillDamage {
	var d decode.SkillDamage
	d.UsedBy = usedBy
	d.Target = target
	d.Damage = 100
	d.At = at
	return &d
}

func TestNormalizeTarget(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{"bbbb0002", "bbbb0000"},
		{"bbbb0000", "bbbb0000"},
		{"00000000", "00000000"},
		{"ffffffff", "ffffffff"},
		{"", ""},
	}
	for _, testCase := range testCases {
		got := NormalizeTarget(testCase.in)
		assert.Equal(t, testCase.expected, got)
		// idempotence
		assert.Equal(t, got, NormalizeTarget(got))
	}
}

func TestSplitSkillName(t *testing.T) {
	testCases := []struct {
		name  string
		base  string
		state SkillState
		typ   SkillType
	}{
		{"Fireball_Casting", "Fireball", StateCasting, TypeCasting},
		{"Arrow_Targeting", "Arrow", StateTargeting, TypeTargetCasting},
		{"Fireball_End", "Fireball", StateEnding, TypeCasting},
		{"Fireball_Hit", "Fireball", StateHit, TypeCasting},
		{"Idle", "Idle", StateIdle, TypeInstant},
		{"Slash", "Slash", StateInstant, TypeInstant},
	}
	for _, testCase := range testCases {
		base, state, typ := splitSkillName(testCase.name)
		assert.Equal(t, testCase.base, base, testCase.name)
		assert.Equal(t, testCase.state, state, testCase.name)
		assert.Equal(t, testCase.typ, typ, testCase.name)
	}
}

func TestInstantSkillMatch(t *testing.T) {
	c := NewCorrelator()
	t0 := time.Unix(1700000000, 0)

	c.EnqueueSkill(SkillSignal{UsedBy: actorA, Target: targetT, Name: "Fireball", At: t0})

	name := c.MatchDamage(damage(actorA, targetT, t0.Add(500*time.Millisecond)))
	assert.Equal(t, "Fireball", name)

	// the matched entry is removed from the queue
	name = c.MatchDamage(damage(actorA, targetT, t0.Add(600*time.Millisecond)))
	assert.Equal(t, "", name)
}

func TestInstantSkillWindowAndTarget(t *testing.T) {
	c := NewCorrelator()
	t0 := time.Unix(1700000000, 0)

	c.EnqueueSkill(SkillSignal{UsedBy: actorA, Target: targetT, Name: "Slash", At: t0})

	// outside the 2000 ms window
	assert.Equal(t, "", c.MatchDamage(damage(actorA, targetT, t0.Add(2500*time.Millisecond))))
	// wrong target
	assert.Equal(t, "", c.MatchDamage(damage(actorA, "cccc0003", t0.Add(100*time.Millisecond))))
	// identities differing only in the reuse suffix still match
	assert.Equal(t, "Slash", c.MatchDamage(damage(actorA, "bbbb0099", t0.Add(100*time.Millisecond))))
}

func TestInstantSkillBroadcast(t *testing.T) {
	c := NewCorrelator()
	t0 := time.Unix(1700000000, 0)

	c.EnqueueSkill(SkillSignal{UsedBy: actorA, Target: decode.IDBroadcast, Name: "Nova", At: t0})

	// a broadcast skill matches several damage events, the entry stays
	assert.Equal(t, "Nova", c.MatchDamage(damage(actorA, targetT, t0.Add(100*time.Millisecond))))
	assert.Equal(t, "Nova", c.MatchDamage(damage(actorA, "cccc0003", t0.Add(200*time.Millisecond))))
}

func TestDotDamageSkipsMatching(t *testing.T) {
	c := NewCorrelator()
	t0 := time.Unix(1700000000, 0)

	c.EnqueueSkill(SkillSignal{UsedBy: actorA, Target: targetT, Name: "Fireball", At: t0})

	d := damage(actorA, targetT, t0.Add(100*time.Millisecond))
	d.Flags = decode.FlagBitsFromNames([]string{"dot"})
	assert.Equal(t, "", c.MatchDamage(d))

	// the instant entry must be untouched by the dot short-circuit
	assert.Equal(t, "Fireball", c.MatchDamage(damage(actorA, targetT, t0.Add(200*time.Millisecond))))
}

func TestCastingThenHitLazyEnd(t *testing.T) {
	c := NewCorrelator()
	t0 := time.Unix(1700000000, 0)

	c.EnqueueSkill(SkillSignal{UsedBy: actorA, Target: targetT, Name: "Fireball_Casting", At: t0})
	c.EnqueueSkill(SkillSignal{UsedBy: actorA, Target: targetT, Name: "Fireball_End", At: t0.Add(time.Second)})

	// the first ending entry is treated as stale and deleted unmatched
	assert.Equal(t, "", c.MatchDamage(damage(actorA, targetT, t0.Add(1200*time.Millisecond))))
	assert.Equal(t, 0, len(c.peekActor(actorA).casting))

	// a second identical damage event must not match either
	assert.Equal(t, "", c.MatchDamage(damage(actorA, targetT, t0.Add(1300*time.Millisecond))))
}

func TestChanneling(t *testing.T) {
	c := NewCorrelator()
	t0 := time.Unix(1700000000, 0)

	c.EnqueueSkill(SkillSignal{UsedBy: actorA, Target: targetT, Name: "Lightning_Casting", At: t0})

	// first damage reclassifies the cast as a channel and matches
	assert.Equal(t, "Lightning", c.MatchDamage(damage(actorA, targetT, t0.Add(200*time.Millisecond))))

	e := c.peekActor(actorA).casting[castKey{name: "Lightning", target: "bbbb0000"}]
	assert.NotNil(t, e)
	assert.Equal(t, TypeChanneling, e.Type)
	assert.Equal(t, StateCasting, e.State)

	// later ticks keep matching the same entry
	assert.Equal(t, "Lightning", c.MatchDamage(damage(actorA, targetT, t0.Add(400*time.Millisecond))))
}

func TestChannelingIdleFinish(t *testing.T) {
	c := NewCorrelator()
	t0 := time.Unix(1700000000, 0)

	c.EnqueueSkill(SkillSignal{UsedBy: actorA, Target: targetT, Name: "Beam_Casting", At: t0})
	assert.Equal(t, "Beam", c.MatchDamage(damage(actorA, targetT, t0.Add(100*time.Millisecond))))

	c.EnqueueSkill(SkillSignal{UsedBy: actorA, Target: targetT, Name: "Beam_End", At: t0.Add(500 * time.Millisecond)})
	c.EnqueueSkill(SkillSignal{UsedBy: actorA, Name: "Idle", At: t0.Add(600 * time.Millisecond)})

	// terminal tick of the finished channel, then nothing
	assert.Equal(t, "Beam", c.MatchDamage(damage(actorA, targetT, t0.Add(700*time.Millisecond))))
	assert.Equal(t, 0, len(c.peekActor(actorA).casting))
	assert.Equal(t, "", c.MatchDamage(damage(actorA, targetT, t0.Add(800*time.Millisecond))))
}

func TestTargetingArc(t *testing.T) {
	c := NewCorrelator()
	t0 := time.Unix(1700000000, 0)
	key := castKey{name: "Arrow", target: "bbbb0000"}

	c.EnqueueSkill(SkillSignal{UsedBy: actorA, Target: targetT, Name: "Arrow_Targeting", At: t0})
	e := c.peekActor(actorA).casting[key]
	assert.NotNil(t, e)
	assert.Equal(t, 1, e.TargetingCount)
	assert.Equal(t, TypeTargetCasting, e.Type)

	c.EnqueueSkill(SkillSignal{UsedBy: actorA, Target: targetT, Name: "Arrow_End", At: t0.Add(300 * time.Millisecond)})
	assert.Equal(t, StateEnding, e.State)
	assert.Equal(t, TypeTargetCasting, e.Type)

	assert.Equal(t, "Arrow", c.MatchDamage(damage(actorA, targetT, t0.Add(500*time.Millisecond))))
	assert.True(t, e.IsUsing)

	// the hit signal completes the arc and drops the entry
	c.EnqueueSkill(SkillSignal{UsedBy: actorA, Target: targetT, Name: "Arrow_Hit", At: t0.Add(600 * time.Millisecond)})
	assert.Equal(t, 0, len(c.peekActor(actorA).casting))
	assert.Equal(t, "", c.MatchDamage(damage(actorA, targetT, t0.Add(700*time.Millisecond))))
}

func TestClosingSignalFallsBackToName(t *testing.T) {
	c := NewCorrelator()
	t0 := time.Unix(1700000000, 0)

	c.EnqueueSkill(SkillSignal{UsedBy: actorA, Target: targetT, Name: "Frost_Casting", At: t0})
	// the closing signal carries the wildcard target instead of the
	// one the cast announced
	c.EnqueueSkill(SkillSignal{UsedBy: actorA, Target: decode.IDWildcard, Name: "Frost_End", At: t0.Add(time.Second)})

	actor := c.peekActor(actorA)
	assert.Equal(t, 1, len(actor.casting))
	e := actor.casting[castKey{name: "Frost", target: "bbbb0000"}]
	assert.NotNil(t, e)
	assert.Equal(t, StateEnding, e.State)
}

func TestCleanupSweep(t *testing.T) {
	c := NewCorrelator()
	t0 := time.Unix(1700000000, 0)

	c.EnqueueSkill(SkillSignal{UsedBy: actorA, Target: targetT, Name: "Fireball_Casting", At: t0})

	c.Cleanup(t0.Add(9900 * time.Millisecond))
	assert.NotNil(t, c.peekActor(actorA))
	assert.Equal(t, 1, len(c.peekActor(actorA).casting))

	c.Cleanup(t0.Add(10100 * time.Millisecond))
	assert.Nil(t, c.peekActor(actorA))
	assert.Equal(t, 1, len(c.free))
}

func TestKeepAlive(t *testing.T) {
	c := NewCorrelator()
	t0 := time.Unix(1700000000, 0)

	c.EnqueueSkill(SkillSignal{UsedBy: actorA, Target: targetT, Name: "Fireball_Casting", At: t0})
	c.KeepAlive(actorA, targetT, t0.Add(9*time.Second))

	c.Cleanup(t0.Add(12 * time.Second))
	assert.NotNil(t, c.peekActor(actorA))

	c.Cleanup(t0.Add(20 * time.Second))
	assert.Nil(t, c.peekActor(actorA))
}

func TestActorSlotReuse(t *testing.T) {
	c := NewCorrelator()
	t0 := time.Unix(1700000000, 0)

	c.EnqueueSkill(SkillSignal{UsedBy: actorA, Target: targetT, Name: "Slash", At: t0})
	assert.Equal(t, 1, len(c.arena))

	c.Cleanup(t0.Add(11 * time.Second))
	assert.Nil(t, c.peekActor(actorA))
	assert.Equal(t, 1, len(c.free))

	c.EnqueueSkill(SkillSignal{UsedBy: "dddd0004", Target: targetT, Name: "Slash", At: t0.Add(12 * time.Second)})
	assert.Equal(t, 1, len(c.arena))
	assert.Equal(t, 0, len(c.free))
	assert.NotNil(t, c.peekActor("dddd0004"))
}
