package wire

import (
	"math"
	"net"
	"sync/atomic"
	"time"

	"github.com/huandu/skiplist"
	slog "github.com/vearne/simplelog"
)

const MaxWindowSize = 65536

// Segment is the payload of one TCP packet together with its capture time.
type Segment struct {
	Seq        uint32
	Payload    []byte
	ObservedAt time.Time
}

// TCPBuffer reorders raw segments into the byte order the server sent them.
type TCPBuffer struct {
	//The number of bytes of data currently cached
	size        atomic.Int64
	List        *skiplist.SkipList
	expectedSeq uint32
	//There is at most one reader to read
	dataChannel chan *Segment
	closeChan   chan struct{}
}

func NewTCPBuffer() *TCPBuffer {
	var sb TCPBuffer
	sb.List = skiplist.New(skiplist.Uint32)
	sb.size.Store(0)
	sb.expectedSeq = 0
	sb.dataChannel = make(chan *Segment, 100)
	sb.closeChan = make(chan struct{})
	return &sb
}

func (sb *TCPBuffer) SetExpectedSeq(expectedSeq uint32) {
	sb.expectedSeq = expectedSeq
}

func (sb *TCPBuffer) Close() {
	close(sb.closeChan)
}

// ReadSegment blocks until the next in-order segment is available or the
// buffer is closed. Segments already reordered are drained before a close
// is honored.
func (sb *TCPBuffer) ReadSegment() (*Segment, error) {
	select {
	case seg := <-sb.dataChannel:
		sb.size.Add(int64(-len(seg.Payload)))
		return seg, nil
	default:
	}

	select {
	case <-sb.closeChan:
		return nil, net.ErrClosed
	case seg := <-sb.dataChannel:
		sb.size.Add(int64(-len(seg.Payload)))
		slog.Debug("TCPBuffer.ReadSegment, got:%v bytes", len(seg.Payload))
		return seg, nil
	}
}

func (sb *TCPBuffer) AddSegment(seg *Segment) {
	// pure ACKs carry no payload and would stall the advance loop
	if len(seg.Payload) <= 0 {
		return
	}
	slog.Debug("[start]TCPBuffer.AddSegment, size:%v, expectedSeq:%v, seq:%v",
		sb.size.Load(), sb.expectedSeq, seg.Seq)

	// Discard segments outside the sliding window
	if !validSegment(sb.expectedSeq, MaxWindowSize, seg.Seq) {
		slog.Debug("[end]TCPBuffer.AddSegment-discard segment outside the sliding window, "+
			"size:%v, expectedSeq:%v, seq:%v",
			sb.size.Load(), sb.expectedSeq, seg.Seq)
		return
	}

	// duplicate segment
	if sb.List.Get(seg.Seq) != nil {
		slog.Debug("[end]TCPBuffer.AddSegment-duplicate segment, size:%v, expectedSeq:%v",
			sb.size.Load(), sb.expectedSeq)
		return
	}

	ele := sb.List.Set(seg.Seq, seg)
	sb.size.Add(int64(len(seg.Payload)))
	needRemoveList := make([]*skiplist.Element, 0)

	for ele != nil && sb.expectedSeq == seg.Seq {
		// expect next sequence number
		// sequence numbers may wrap around
		payloadSize := uint32(len(seg.Payload))
		sb.expectedSeq = (seg.Seq + payloadSize) % math.MaxUint32

		// push to channel
		sb.dataChannel <- seg
		needRemoveList = append(needRemoveList, ele)

		ele = sb.List.Get(sb.expectedSeq)
		if ele != nil {
			seg = ele.Value.(*Segment)
		}
	}

	// remove
	for _, element := range needRemoveList {
		sb.List.RemoveElement(element)
	}

	slog.Debug("[end]TCPBuffer.AddSegment, size:%v, expectedSeq:%v",
		sb.size.Load(), sb.expectedSeq)
}

// validSegment checks if a segment sequence number falls within the valid window
// considering 32-bit unsigned integer wrap-around.
func validSegment(expectedSeq uint32, maxWindowSize uint32, pkgSeq uint32) bool {
	rightBorder := (expectedSeq + maxWindowSize) % math.MaxUint32
	// Handle wrap-around case
	if rightBorder < expectedSeq {
		return pkgSeq <= rightBorder || pkgSeq >= expectedSeq
	}
	// Normal case (no wrap-around)
	return pkgSeq >= expectedSeq && pkgSeq <= rightBorder
}
