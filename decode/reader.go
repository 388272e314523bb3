package decode

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"io"
	"strings"
	"unicode/utf16"
)

// fieldReader walks a payload from front to back. The first failed read
// sticks in err and turns every later accessor into a no-op, so a decoder
// can read a whole layout and check the error once.
type fieldReader struct {
	r   *bytes.Reader
	err error
}

func newFieldReader(payload []byte) *fieldReader {
	var f fieldReader
	f.r = bytes.NewReader(payload)
	return &f
}

func (f *fieldReader) uint32() uint32 {
	var v uint32
	if f.err != nil {
		return 0
	}
	f.err = binary.Read(f.r, binary.LittleEndian, &v)
	return v
}

func (f *fieldReader) int32() int32 {
	var v int32
	if f.err != nil {
		return 0
	}
	f.err = binary.Read(f.r, binary.LittleEndian, &v)
	return v
}

func (f *fieldReader) float32() float32 {
	var v float32
	if f.err != nil {
		return 0
	}
	f.err = binary.Read(f.r, binary.LittleEndian, &v)
	return v
}

func (f *fieldReader) bytes(n int) []byte {
	if f.err != nil {
		return nil
	}
	if n < 0 || n > f.r.Len() {
		f.err = io.ErrUnexpectedEOF
		return nil
	}
	b := make([]byte, n)
	_, f.err = io.ReadFull(f.r, b)
	return b
}

func (f *fieldReader) skip(n int) {
	f.bytes(n)
}

// id reads a 4-byte identity field and renders it as 8 lowercase hex chars
// in wire order.
func (f *fieldReader) id() string {
	b := f.bytes(4)
	if f.err != nil {
		return ""
	}
	return hex.EncodeToString(b)
}

// paddedID reads the common "4-byte identifier + 4-byte pad" pattern.
func (f *fieldReader) paddedID() string {
	s := f.id()
	f.skip(4)
	return s
}

// name reads a length-prefixed string: uint32 LE length followed by that
// many bytes. The bytes are decoded as UTF-16LE when the zero-density
// heuristic fires, otherwise filtered down to printable ASCII.
func (f *fieldReader) name() string {
	n := f.uint32()
	if f.err != nil {
		return ""
	}
	if uint64(n) > uint64(f.r.Len()) {
		f.err = io.ErrUnexpectedEOF
		return ""
	}
	raw := f.bytes(int(n))
	if f.err != nil {
		return ""
	}
	if utf16Likely(raw) {
		return decodeUTF16(raw)
	}
	return filterPrintable(raw)
}

// utf16Likely reports whether more than 1/4 of the odd-indexed bytes are
// zero, the signature of UTF-16LE text in the low code-point range.
func utf16Likely(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	odd, zeros := 0, 0
	for i := 1; i < len(b); i += 2 {
		odd++
		if b[i] == 0 {
			zeros++
		}
	}
	return zeros*4 > odd
}

func decodeUTF16(b []byte) string {
	u := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u = append(u, binary.LittleEndian.Uint16(b[i:]))
	}
	return strings.Trim(string(utf16.Decode(u)), "\x00")
}

func filterPrintable(b []byte) string {
	res := make([]byte, 0, len(b))
	for _, c := range b {
		if c >= 0x20 && c <= 0x7e {
			res = append(res, c)
		}
	}
	return string(res)
}
