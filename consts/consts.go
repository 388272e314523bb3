package consts

import "errors"

// filled in by the linker via -ldflags -X
var (
	Version   = "unknown"
	BuildTime = "unknown"
	GitTag    = "unknown"
)

var (
	ErrCodec          = errors.New("unknown codec")
	ErrArchiveFormat  = errors.New("malformed archive line")
	ErrFrameTooShort  = errors.New("payload shorter than record layout")
	ErrUnknownFrame   = errors.New("no decoder for frame type")
	ErrReadingStopped = errors.New("reading stopped")
)
