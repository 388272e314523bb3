package correlate

import (
	"sync"
	"time"

	slog "github.com/vearne/simplelog"

	"github.com/westhule/combatcap/decode"
)

const (
	// instant skills only match damage observed within this window
	instantWindow = 2000 * time.Millisecond
	// entries untouched for longer than this are swept by Cleanup
	staleAfter = 10 * time.Second
)

type castKey struct {
	name   string
	target string
}

// actorState is one actor's slice of the correlation state: the casting
// table plus the instant-skill queue.
type actorState struct {
	usedBy   string
	casting  map[castKey]*ActiveSkillInfo
	instants []*ActiveSkillInfo
}

// Correlator is the default Matcher. Actors are resolved to arena slots
// once, so the per-damage hot path walks small per-actor tables instead of
// one big composite-keyed map. A single coarse mutex covers one processing
// batch; nothing in here blocks on I/O.
type Correlator struct {
	mu    sync.Mutex
	slots map[string]int
	arena []*actorState
	free  []int
}

func NewCorrelator() *Correlator {
	var c Correlator
	c.slots = make(map[string]int)
	c.arena = make([]*actorState, 0, 64)
	c.free = make([]int, 0, 16)
	return &c
}

func (c *Correlator) actor(usedBy string) *actorState {
	if slot, ok := c.slots[usedBy]; ok {
		return c.arena[slot]
	}
	var a actorState
	a.usedBy = usedBy
	a.casting = make(map[castKey]*ActiveSkillInfo)
	var slot int
	if n := len(c.free); n > 0 {
		slot = c.free[n-1]
		c.free = c.free[:n-1]
		c.arena[slot] = &a
	} else {
		slot = len(c.arena)
		c.arena = append(c.arena, &a)
	}
	c.slots[usedBy] = slot
	return &a
}

func (c *Correlator) peekActor(usedBy string) *actorState {
	slot, ok := c.slots[usedBy]
	if !ok {
		return nil
	}
	return c.arena[slot]
}

func (c *Correlator) EnqueueSkill(sig SkillSignal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	base, state, typ := splitSkillName(sig.Name)
	if len(base) <= 0 {
		return
	}
	normTarget := NormalizeTarget(sig.Target)

	if state == StateIdle {
		c.idleChanneling(sig.UsedBy, sig.At)
		return
	}

	if typ == TypeInstant {
		actor := c.actor(sig.UsedBy)
		var info ActiveSkillInfo
		info.UsedBy = sig.UsedBy
		info.Target = normTarget
		info.NextTarget = sig.NextTarget
		info.SkillName = base
		info.State = StateInstant
		info.Type = TypeInstant
		info.LastStateTime = sig.At
		actor.instants = append(actor.instants, &info)
		slog.Debug("enqueue instant skill, actor:%v, skill:%v, target:%v",
			sig.UsedBy, base, normTarget)
		return
	}

	actor := c.actor(sig.UsedBy)
	key := castKey{name: base, target: normTarget}
	entry, ok := actor.casting[key]
	if !ok && (state == StateEnding || state == StateHit) {
		// a closing signal may carry a different target than the cast
		// it closes, fall back to matching by name alone
		for k, e := range actor.casting {
			if k.name == base {
				entry, key, ok = e, k, true
				break
			}
		}
	}
	if ok && (state == StateEnding || state == StateHit) {
		typ = entry.Type
	}

	if !ok {
		var info ActiveSkillInfo
		info.UsedBy = sig.UsedBy
		info.Target = normTarget
		info.NextTarget = sig.NextTarget
		info.SkillName = base
		info.State = state
		info.Type = typ
		info.LastStateTime = sig.At
		if state == StateTargeting {
			info.TargetingCount = 1
		}
		actor.casting[key] = &info
		slog.Debug("enqueue casting skill, actor:%v, skill:%v, state:%v, type:%v",
			sig.UsedBy, base, state, typ)
		return
	}

	switch state {
	case StateTargeting:
		entry.TargetingCount++
		entry.State = state
		entry.Type = typ
		entry.LastStateTime = sig.At
	case StateHit:
		entry.TargetingCount--
		if entry.TargetingCount <= 0 {
			delete(actor.casting, key)
			slog.Debug("casting arc complete, actor:%v, skill:%v", sig.UsedBy, base)
		}
	default:
		entry.State = state
		entry.Type = typ
		entry.LastStateTime = sig.At
	}
}

// idleChanneling marks the actor's most recent ending channel as finished,
// so the next damage tick (or the sweep) reaps it.
func (c *Correlator) idleChanneling(usedBy string, at time.Time) {
	actor := c.peekActor(usedBy)
	if actor == nil {
		return
	}
	var best *ActiveSkillInfo
	for _, e := range actor.casting {
		if e.Type != TypeChanneling || e.State != StateEnding {
			continue
		}
		if best == nil || e.LastStateTime.After(best.LastStateTime) {
			best = e
		}
	}
	if best != nil {
		best.State = StateIdle
		best.LastStateTime = at
	}
}

func (c *Correlator) MatchDamage(dmg *decode.SkillDamage) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	// dot ticks carry no usable name on the wire, attribution happens
	// through the flag-derived synthetic name downstream
	if dmg.Flags.Dot() && len(dmg.SkillName) <= 0 {
		return ""
	}

	actor := c.peekActor(dmg.UsedBy)
	if actor == nil {
		return ""
	}

	if name, ok := actor.matchCastingFamily(dmg.At); ok {
		slog.Debug("damage matched casting skill, actor:%v, skill:%v", dmg.UsedBy, name)
		return name
	}
	if name, ok := actor.matchChanneling(dmg.Target, dmg.At); ok {
		slog.Debug("damage matched channeling skill, actor:%v, skill:%v", dmg.UsedBy, name)
		return name
	}
	if name, ok := actor.matchInstant(dmg.Target, dmg.At); ok {
		slog.Debug("damage matched instant skill, actor:%v, skill:%v", dmg.UsedBy, name)
		return name
	}
	return ""
}

// matchCastingFamily is the casting-table part of damage matching.
func (a *actorState) matchCastingFamily(at time.Time) (string, bool) {
	// the first damage observed while an entry is still in its casting
	// state reclassifies the skill as channeled; the reclassified entry
	// is then picked up by the channeling rule, not returned here
	if e := a.nearestCasting(at, func(e *ActiveSkillInfo) bool {
		return e.Type == TypeCasting && e.State == StateCasting
	}); e != nil {
		e.Type = TypeChanneling
		return "", false
	}

	if e := a.nearestCasting(at, func(e *ActiveSkillInfo) bool {
		return e.Type == TypeTargetCasting && e.State == StateEnding && !e.IsUsing
	}); e != nil {
		e.IsUsing = true
		return e.SkillName, true
	}

	if e := a.nearestCasting(at, func(e *ActiveSkillInfo) bool {
		return e.Type == TypeCasting && e.State == StateEnding
	}); e != nil {
		if !e.IsUsing {
			// the server tends to emit a spurious early _End before the
			// real hit, the first ending entry seen here is dropped
			// unmatched on purpose
			a.removeCasting(e)
			return "", false
		}
		e.LastStateTime = at
		return e.SkillName, true
	}
	return "", false
}

func (a *actorState) matchChanneling(target string, at time.Time) (string, bool) {
	e := a.nearestCasting(at, func(e *ActiveSkillInfo) bool {
		return e.Type == TypeChanneling && skillTargetMatch(e, target)
	})
	if e == nil {
		return "", false
	}
	if e.State == StateIdle {
		// terminal tick of a finished channel
		a.removeCasting(e)
		return e.SkillName, true
	}
	e.LastStateTime = at
	return e.SkillName, true
}

func (a *actorState) matchInstant(target string, at time.Time) (string, bool) {
	bestIdx := -1
	var bestDelta time.Duration
	for i, e := range a.instants {
		if !skillTargetMatch(e, target) {
			continue
		}
		d := absDuration(at.Sub(e.LastStateTime))
		if d > instantWindow {
			continue
		}
		if bestIdx < 0 || d < bestDelta {
			bestIdx, bestDelta = i, d
		}
	}
	if bestIdx < 0 {
		return "", false
	}
	e := a.instants[bestIdx]
	// broadcast skills legitimately hit several targets, keep the entry
	// around for the other damage events
	if e.Target != decode.IDBroadcast {
		a.instants = append(a.instants[:bestIdx], a.instants[bestIdx+1:]...)
	}
	return e.SkillName, true
}

func (a *actorState) nearestCasting(at time.Time, match func(*ActiveSkillInfo) bool) *ActiveSkillInfo {
	var best *ActiveSkillInfo
	var bestDelta time.Duration
	for _, e := range a.casting {
		if !match(e) {
			continue
		}
		d := absDuration(at.Sub(e.LastStateTime))
		if best == nil || d < bestDelta {
			best, bestDelta = e, d
		}
	}
	return best
}

func (a *actorState) removeCasting(e *ActiveSkillInfo) {
	delete(a.casting, castKey{name: e.SkillName, target: e.Target})
}

func (c *Correlator) KeepAlive(usedBy, target string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	actor := c.peekActor(usedBy)
	if actor == nil {
		return
	}
	for _, e := range actor.casting {
		if skillTargetMatch(e, target) {
			e.LastStateTime = at
		}
	}
}

func (c *Correlator) Cleanup(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for usedBy, slot := range c.slots {
		actor := c.arena[slot]
		for k, e := range actor.casting {
			if now.Sub(e.LastStateTime) > staleAfter {
				delete(actor.casting, k)
			}
		}
		kept := actor.instants[:0]
		for _, e := range actor.instants {
			if now.Sub(e.LastStateTime) <= staleAfter {
				kept = append(kept, e)
			}
		}
		actor.instants = kept

		if len(actor.casting) <= 0 && len(actor.instants) <= 0 {
			delete(c.slots, usedBy)
			c.arena[slot] = nil
			c.free = append(c.free, slot)
		}
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
