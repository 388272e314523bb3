package wire

import (
	"expvar"
	"time"

	slog "github.com/vearne/simplelog"

	"github.com/westhule/combatcap/correlate"
	"github.com/westhule/combatcap/decode"
	"github.com/westhule/combatcap/record"
)

var stats *expvar.Map

func init() {
	stats = expvar.NewMap("pipeline")
}

// FrameArchiver persists raw frames for later replay.
type FrameArchiver interface {
	ArchiveFrame(f *Frame) error
}

// Pipeline turns extracted frames into damage records with resolved skill
// names.
type Pipeline struct {
	matcher  correlate.Matcher
	archiver FrameArchiver
	Out      chan *record.Record
}

func NewPipeline(matcher correlate.Matcher, archiver FrameArchiver) *Pipeline {
	var pl Pipeline
	pl.matcher = matcher
	pl.archiver = archiver
	pl.Out = make(chan *record.Record, 100)
	return &pl
}

// DispatchFrames pushes a batch through decode and correlation, then lets
// the matcher sweep state that went stale.
func (pl *Pipeline) DispatchFrames(frames []*Frame) {
	var latest time.Time
	for _, f := range frames {
		pl.DispatchFrame(f)
		if f.ObservedAt.After(latest) {
			latest = f.ObservedAt
		}
	}
	if !latest.IsZero() {
		pl.matcher.Cleanup(latest)
	}
}

func (pl *Pipeline) DispatchFrame(f *Frame) {
	stats.Add("frames", 1)
	if pl.archiver != nil {
		err := pl.archiver.ArchiveFrame(f)
		if err != nil {
			slog.Warn("archive frame, type:%v, %v", f.Type, err)
		}
	}

	switch f.Type {
	case decode.FrameSkillInfo:
		si, err := decode.DecodeSkillInfo(f.Payload, f.ObservedAt)
		if err != nil {
			pl.decodeError(f, err)
			return
		}
		pl.matcher.EnqueueSkill(correlate.SkillSignal{
			UsedBy: si.UsedBy,
			Target: si.Target,
			Name:   si.SkillName,
			At:     si.At,
		})
	case decode.FrameSkillAction:
		sa, err := decode.DecodeSkillAction(f.Payload, f.ObservedAt)
		if err != nil {
			pl.decodeError(f, err)
			return
		}
		pl.matcher.EnqueueSkill(correlate.SkillSignal{
			UsedBy:     sa.UsedBy,
			Target:     sa.Target,
			NextTarget: sa.NextTarget,
			Name:       sa.ActionName,
			At:         sa.At,
		})
	case decode.FrameSkillState:
		ss, err := decode.DecodeSkillState(f.Payload, f.ObservedAt)
		if err != nil {
			pl.decodeError(f, err)
			return
		}
		pl.matcher.KeepAlive(ss.UsedBy, ss.Target, ss.At)
	case decode.FrameSkillDamage:
		dmg, err := decode.DecodeSkillDamage(f.Payload, f.ObservedAt)
		if err != nil {
			pl.decodeError(f, err)
			return
		}
		pl.resolve(&dmg, f.Sequence)
	case decode.FrameChangeHp:
		ch, err := decode.DecodeChangeHp(f.Payload, f.ObservedAt)
		if err != nil {
			pl.decodeError(f, err)
			return
		}
		delta := ch.Delta()
		if delta <= 0 {
			// healing and zero ticks are not damage
			return
		}
		var dmg decode.SkillDamage
		dmg.At = ch.At
		dmg.UsedBy = decode.IDWildcard
		dmg.Target = ch.Target
		dmg.Damage = uint32(delta)
		pl.resolve(&dmg, f.Sequence)
	default:
		slog.Debug("pipeline ignore frame, type:%v, length:%v", f.Type, f.Length)
	}
}

// resolve attaches a skill name to the damage and emits the record.
func (pl *Pipeline) resolve(dmg *decode.SkillDamage, sequence uint32) {
	name := pl.matcher.MatchDamage(dmg)
	if len(name) > 0 {
		dmg.SkillName = name
	} else {
		stats.Add("unmatched", 1)
	}
	stats.Add("records", 1)
	pl.Out <- record.NewRecord(dmg, sequence)
}

func (pl *Pipeline) decodeError(f *Frame, err error) {
	stats.Add("decode_errors", 1)
	slog.Warn("decode frame, type:%v, length:%v, %v", f.Type, f.Length, err)
}
