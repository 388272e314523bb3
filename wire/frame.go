package wire

import (
	"time"

	"github.com/westhule/combatcap/decode"
	"github.com/westhule/combatcap/util"
)

// Frame is one length-prefixed message cut out of the downstream TCP
// stream. Payload is already decompressed (or the raw bytes when
// decompression failed) and owned by the frame, it never aliases the
// stream buffer.
type Frame struct {
	Type     int32
	Length   int32
	Encoding uint8
	Payload  []byte
	// byte offsets of the frame within the stream buffer at extraction time
	SpanStart int
	SpanEnd   int
	// running per-connection counter, stamped by the assembler
	Sequence   uint32
	ObservedAt time.Time
}

// FramePolicy decides which well-formed frames are dropped before they
// reach the decoder.
type FramePolicy interface {
	Exclude(frameType int32, length int32, encoding uint8) bool
}

// DefaultFramePolicy drops frames whose type id is on a deny list.
// The zero-value policy keeps everything.
type DefaultFramePolicy struct {
	excludeTypes *util.Int32Set
}

func NewDefaultFramePolicy(extra []int32) *DefaultFramePolicy {
	var p DefaultFramePolicy
	p.excludeTypes = util.NewInt32Set()
	p.excludeTypes.AddAll(decode.DefaultExcludeTypes)
	p.excludeTypes.AddAll(extra)
	return &p
}

func (p *DefaultFramePolicy) Exclude(frameType int32, length int32, encoding uint8) bool {
	if p == nil || p.excludeTypes == nil {
		return false
	}
	return p.excludeTypes.Has(frameType)
}
