package wire

const (
	// HeaderSize is the fixed frame header: type(4) + length(4) + encoding(1)
	HeaderSize = 9
	// MaxFrameLength is the largest declared payload a header may carry
	MaxFrameLength = 65536
	// MaxFrameType is the largest frame type id the protocol uses
	MaxFrameType = 200000
)

const (
	EncodingRaw    uint8 = 0
	EncodingBrotli uint8 = 1
)

type Dir uint8

const (
	DirUnknown Dir = iota
	// client -> server
	DirUpstream
	// server -> client
	DirDownstream
)

var DirStr map[Dir]string

func init() {
	DirStr = make(map[Dir]string)
	DirStr[DirUnknown] = "DirUnknown"
	DirStr[DirUpstream] = "DirUpstream"
	DirStr[DirDownstream] = "DirDownstream"
}

func GetDirection(d Dir) string {
	name, ok := DirStr[d]
	if ok {
		return name
	}
	return "UNKNOW"
}
