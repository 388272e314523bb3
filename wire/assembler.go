package wire

import (
	"time"

	slog "github.com/vearne/simplelog"
)

// MaxBufferSize caps the per-connection reassembly buffer.
const MaxBufferSize = 3 << 20

// StreamAssembler glues ordered TCP payload chunks back into frames.
// A stream that never yields a valid frame is truncated rather than
// allowed to grow without bound.
type StreamAssembler struct {
	buf    []byte
	seq    uint32
	policy FramePolicy
}

func NewStreamAssembler(policy FramePolicy) *StreamAssembler {
	var a StreamAssembler
	a.buf = make([]byte, 0, 16*1024)
	a.policy = policy
	return &a
}

// Feed appends one ordered chunk and returns every complete frame the
// buffer now holds. Frames are stamped with a running sequence and the
// chunk's capture time.
func (a *StreamAssembler) Feed(chunk []byte, observedAt time.Time) (frames []*Frame) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("StreamAssembler.Feed recovered:%v, buffered:%v", r, len(a.buf))
			a.dropHalf()
			frames = nil
		}
	}()

	a.buf = append(a.buf, chunk...)

	var consumed int
	frames, consumed = extractFrames(a.buf, a.policy)
	for _, f := range frames {
		f.Sequence = a.nextSeq()
		f.ObservedAt = observedAt
	}
	if consumed > 0 {
		a.buf = a.buf[:copy(a.buf, a.buf[consumed:])]
	}
	a.enforceCap()
	return frames
}

// Buffered reports how many unconsumed bytes the assembler holds.
func (a *StreamAssembler) Buffered() int {
	return len(a.buf)
}

func (a *StreamAssembler) nextSeq() uint32 {
	a.seq++
	return a.seq
}

func (a *StreamAssembler) enforceCap() {
	for len(a.buf) > MaxBufferSize {
		slog.Warn("assembler buffer %v bytes over cap %v, dropping older half",
			len(a.buf), MaxBufferSize)
		a.dropHalf()
	}
}

func (a *StreamAssembler) dropHalf() {
	half := a.buf[len(a.buf)/2:]
	fresh := make([]byte, len(half))
	copy(fresh, half)
	a.buf = fresh
}
