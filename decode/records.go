package decode

import (
	"encoding/hex"
	"time"

	"github.com/pkg/errors"

	"github.com/westhule/combatcap/consts"
)

// Identity sentinels with special matching semantics.
const (
	IDWildcard  = "00000000"
	IDBroadcast = "ffffffff"
)

// Minimum payload sizes per frame type. Payloads below the minimum yield
// consts.ErrFrameTooShort, never a partial record.
const (
	minSkillInfoLen   = 48
	minSkillActionLen = 32
	minSkillDamageLen = 42
	minSkillStateLen  = 26
	minChangeHpLen    = 16
)

type SkillInfo struct {
	At        time.Time
	UsedBy    string
	Target    string
	Owner     string
	SkillName string
	X         float32
	Y         float32
	Extra     int32
}

type SkillAction struct {
	At         time.Time
	UsedBy     string
	Target     string
	NextTarget string
	ActionName string
	ActionCode int32
	CastTime   float32
}

type SkillDamage struct {
	At      time.Time
	UsedBy  string
	Target  string
	Damage  uint32
	SkillID int32
	Flags   FlagBits
	// SkillName is empty on the wire, the correlation engine fills it in.
	SkillName string
}

type SkillState struct {
	At         time.Time
	UsedBy     string
	Target     string
	ActionCode int32
	Flags      FlagBits
}

type ChangeHp struct {
	At        time.Time
	Target    string
	PrevHp    int32
	CurrentHp int32
}

// Delta is positive when the target lost hp.
func (c ChangeHp) Delta() int32 {
	return c.PrevHp - c.CurrentHp
}

func DecodeSkillInfo(payload []byte, at time.Time) (SkillInfo, error) {
	var si SkillInfo
	if len(payload) < minSkillInfoLen {
		return si, errors.Wrapf(consts.ErrFrameTooShort, "skill info, %v bytes", len(payload))
	}
	f := newFieldReader(payload)
	si.At = at
	si.UsedBy = f.paddedID()
	si.Target = f.paddedID()
	si.Owner = f.paddedID()
	si.SkillName = f.name()
	si.X = f.float32()
	f.skip(4)
	si.Y = f.float32()
	f.skip(4)
	si.Extra = f.int32()
	if f.err != nil {
		return SkillInfo{}, errors.Wrap(consts.ErrFrameTooShort, "skill info")
	}
	return si, nil
}

func DecodeSkillAction(payload []byte, at time.Time) (SkillAction, error) {
	var sa SkillAction
	if len(payload) < minSkillActionLen {
		return sa, errors.Wrapf(consts.ErrFrameTooShort, "skill action, %v bytes", len(payload))
	}
	f := newFieldReader(payload)
	sa.At = at
	sa.UsedBy = f.paddedID()
	sa.ActionName = f.name()
	sa.ActionCode = f.int32()
	f.skip(4)
	f.skip(4)
	sa.CastTime = f.float32()
	sa.NextTarget = f.id()
	if f.err != nil {
		return SkillAction{}, errors.Wrap(consts.ErrFrameTooShort, "skill action")
	}
	// The action target rides at the very end of the payload, after a
	// variable-length section the client does not need.
	sa.Target = hex.EncodeToString(payload[len(payload)-4:])
	return sa, nil
}

func DecodeSkillDamage(payload []byte, at time.Time) (SkillDamage, error) {
	var sd SkillDamage
	if len(payload) < minSkillDamageLen {
		return sd, errors.Wrapf(consts.ErrFrameTooShort, "skill damage, %v bytes", len(payload))
	}
	f := newFieldReader(payload)
	sd.At = at
	sd.UsedBy = f.paddedID()
	sd.Target = f.paddedID()
	sd.Damage = f.uint32()
	f.skip(12)
	sd.Flags = NewFlagBits(f.bytes(6))
	sd.SkillID = f.int32()
	if f.err != nil {
		return SkillDamage{}, errors.Wrap(consts.ErrFrameTooShort, "skill damage")
	}
	return sd, nil
}

func DecodeSkillState(payload []byte, at time.Time) (SkillState, error) {
	var ss SkillState
	if len(payload) < minSkillStateLen {
		return ss, errors.Wrapf(consts.ErrFrameTooShort, "skill state, %v bytes", len(payload))
	}
	f := newFieldReader(payload)
	ss.At = at
	ss.UsedBy = f.paddedID()
	ss.Target = f.paddedID()
	ss.ActionCode = f.int32()
	ss.Flags = NewFlagBits(f.bytes(6))
	if f.err != nil {
		return SkillState{}, errors.Wrap(consts.ErrFrameTooShort, "skill state")
	}
	return ss, nil
}

func DecodeChangeHp(payload []byte, at time.Time) (ChangeHp, error) {
	var ch ChangeHp
	if len(payload) < minChangeHpLen {
		return ch, errors.Wrapf(consts.ErrFrameTooShort, "change hp, %v bytes", len(payload))
	}
	f := newFieldReader(payload)
	ch.At = at
	ch.Target = f.paddedID()
	ch.PrevHp = f.int32()
	ch.CurrentHp = f.int32()
	if f.err != nil {
		return ChangeHp{}, errors.Wrap(consts.ErrFrameTooShort, "change hp")
	}
	return ch, nil
}
