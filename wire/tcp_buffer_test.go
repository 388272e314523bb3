package wire

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	slog "github.com/vearne/simplelog"
)

func readAll(t *testing.T, buffer *TCPBuffer, count int) string {
	t.Helper()
	got := make([]byte, 0)
	for i := 0; i < count; i++ {
		seg, err := buffer.ReadSegment()
		assert.Nil(t, err)
		got = append(got, seg.Payload...)
	}
	return string(got)
}

func TestTCPBufferSequence1(t *testing.T) {
	slog.SetLevel(slog.InfoLevel)
	buffer := NewTCPBuffer()
	buffer.expectedSeq = 1000

	var segA Segment
	segA.Seq = 1000
	segA.Payload = []byte("aaaaaaaaaa")

	var segB Segment
	segB.Seq = 1010
	segB.Payload = []byte("bbbbbbbbbb")

	var segC Segment
	segC.Seq = 1020
	segC.Payload = []byte("cccccccccc")

	buffer.AddSegment(&segA)
	buffer.AddSegment(&segC)
	buffer.AddSegment(&segB)

	// assert equality
	assert.Equal(t, "aaaaaaaaaabbbbbbbbbbcccccccccc", readAll(t, buffer, 3), "read data")
}

func TestTCPBufferSequence2(t *testing.T) {
	slog.SetLevel(slog.InfoLevel)
	buffer := NewTCPBuffer()
	buffer.expectedSeq = 1000

	var segA Segment
	segA.Seq = 1000
	segA.Payload = []byte("aaaaaaaaaa")

	var segB Segment
	segB.Seq = 1010
	segB.Payload = []byte("bbbbbbbbbb")

	var segC Segment
	segC.Seq = 1020
	segC.Payload = []byte("cccccccccc")

	var segD Segment
	segD.Seq = 1030
	segD.Payload = []byte("dddddddddd")

	buffer.AddSegment(&segC)
	buffer.AddSegment(&segB)
	buffer.AddSegment(&segA)
	buffer.AddSegment(&segD)

	// assert equality
	assert.Equal(t, "aaaaaaaaaabbbbbbbbbbccccccccccdddddddddd", readAll(t, buffer, 4), "read data")
}

func TestTCPBufferWrapAround(t *testing.T) {
	slog.SetLevel(slog.InfoLevel)
	buffer := NewTCPBuffer()
	buffer.expectedSeq = 4294967290

	var segA Segment
	segA.Seq = 4294967290
	segA.Payload = []byte("aaaaaaaaaa")

	var segB Segment
	segB.Seq = 4
	segB.Payload = []byte("bbbbbbbbbb")

	var segC Segment
	segC.Seq = 14
	segC.Payload = []byte("cccccccccc")

	buffer.AddSegment(&segA)
	buffer.AddSegment(&segC)
	buffer.AddSegment(&segB)
	// duplicate, must be dropped
	buffer.AddSegment(&segA)

	// assert equality
	assert.Equal(t, "aaaaaaaaaabbbbbbbbbbcccccccccc", readAll(t, buffer, 3), "read data")
}

func TestTCPBufferIgnoresEmptyPayload(t *testing.T) {
	slog.SetLevel(slog.InfoLevel)
	buffer := NewTCPBuffer()
	buffer.expectedSeq = 1000

	// a pure ACK at the expected sequence must not be queued
	var ack Segment
	ack.Seq = 1000
	ack.Payload = []byte{}
	buffer.AddSegment(&ack)

	var segA Segment
	segA.Seq = 1000
	segA.Payload = []byte("aaaaaaaaaa")
	buffer.AddSegment(&segA)

	assert.Equal(t, "aaaaaaaaaa", readAll(t, buffer, 1), "read data")
}

func TestTCPBufferClose(t *testing.T) {
	slog.SetLevel(slog.InfoLevel)
	buffer := NewTCPBuffer()
	buffer.expectedSeq = 1000

	var segA Segment
	segA.Seq = 1000
	segA.Payload = []byte("aaaaaaaaaa")
	buffer.AddSegment(&segA)
	buffer.Close()

	// a segment queued before the close is still delivered
	seg, err := buffer.ReadSegment()
	assert.Nil(t, err)
	assert.Equal(t, "aaaaaaaaaa", string(seg.Payload))

	_, err = buffer.ReadSegment()
	assert.ErrorIs(t, err, net.ErrClosed)
}

func TestValidSegment(t *testing.T) {
	testCases := []struct {
		expectedSeq   uint32
		maxWindowSize uint32
		pkgSeq        uint32
		expected      bool
	}{
		// case 1
		{4294966995, 10000, 4294967095, true},
		{4294966995, 10000, 9500, true},
		{4294966995, 10000, 4294946995, false},
		// case 2
		{10000, 10000, 10200, true},
		{10000, 10000, 3000, false},
		{10000, 10000, 20300, false},
	}
	for _, testCase := range testCases {
		actual := validSegment(testCase.expectedSeq, testCase.maxWindowSize, testCase.pkgSeq)
		assert.Equal(t, testCase.expected, actual, "Not consistent with expectations")
	}
}
