package wire

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"

	"github.com/andybalholm/brotli"
	slog "github.com/vearne/simplelog"
)

// Extract scans buf for frames and returns every one that survives the
// policy. The scan is pure, buf is never modified and payloads are copied
// out, so the caller may compact or reuse buf afterwards.
func Extract(buf []byte, policy FramePolicy) []*Frame {
	frames, _ := extractFrames(buf, policy)
	return frames
}

// extractFrames additionally reports the end offset of the last consumed
// frame, kept or excluded. The assembler discards the buffer prefix up to
// that offset.
func extractFrames(buf []byte, policy FramePolicy) ([]*Frame, int) {
	frames := make([]*Frame, 0)
	consumed := 0
	pos := 0
	for pos+HeaderSize <= len(buf) {
		frameType := int32(binary.LittleEndian.Uint32(buf[pos:]))
		length := int32(binary.LittleEndian.Uint32(buf[pos+4:]))
		encoding := buf[pos+8]
		if !validHeader(buf, pos, frameType, length, encoding) {
			// desynchronized or looking at a half-received frame,
			// slide one byte and retry
			pos++
			continue
		}
		end := pos + HeaderSize + int(length)
		if policy != nil && policy.Exclude(frameType, length, encoding) {
			pos = end
			consumed = end
			continue
		}

		var f Frame
		f.Type = frameType
		f.Length = length
		f.Encoding = encoding
		f.SpanStart = pos
		f.SpanEnd = end
		f.Payload = framePayload(frameType, encoding, buf[pos+HeaderSize:end])
		frames = append(frames, &f)
		pos = end
		consumed = end
	}
	sort.Slice(frames, func(i, j int) bool {
		return frames[i].SpanStart < frames[j].SpanStart
	})
	return frames, consumed
}

func validHeader(buf []byte, pos int, frameType int32, length int32, encoding uint8) bool {
	if frameType <= 0 || frameType > MaxFrameType {
		return false
	}
	if length < 1 || length > MaxFrameLength {
		return false
	}
	if encoding != EncodingRaw && encoding != EncodingBrotli {
		return false
	}
	return pos+HeaderSize+int(length) <= len(buf)
}

// framePayload copies the frame body out of the stream buffer,
// decompressing when the header says so. A broken compressed body degrades
// to the raw bytes instead of dropping the frame.
func framePayload(frameType int32, encoding uint8, body []byte) []byte {
	if encoding == EncodingBrotli {
		plain, err := io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
		if err == nil {
			return plain
		}
		slog.Warn("brotli decompress, type:%v, length:%v, %v", frameType, len(body), err)
	}
	payload := make([]byte, len(body))
	copy(payload, body)
	return payload
}
