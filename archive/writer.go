package archive

import (
	"encoding/base64"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/westhule/combatcap/buffpool"
	"github.com/westhule/combatcap/wire"
)

// base name of the active archive file, rotated copies get a timestamp
// inserted by lumberjack
const fileBase = "frames.log"

type WriterConfig struct {
	// MaxSize is the maximum size in megabytes of the archive file before it gets rotated.
	MaxSize int `json:"maxSize"`
	// MaxBackups is the maximum number of old archive files to retain.
	MaxBackups int `json:"maxBackups"`
	// MaxAge is the maximum number of days to retain old archive files based on the
	// timestamp encoded in their filename.
	MaxAge int `json:"maxAge"`
}

// Writer appends one line per extracted frame to a size-rotated archive.
// The archived payload is the post-decompression payload, a replay does not
// need to decompress again.
type Writer struct {
	logger *lumberjack.Logger
}

func NewWriter(path string, cf *WriterConfig) *Writer {
	var w Writer
	w.logger = &lumberjack.Logger{
		Filename:   filepath.Join(path, fileBase),
		MaxSize:    cf.MaxSize, // megabytes
		MaxBackups: cf.MaxBackups,
		MaxAge:     cf.MaxAge, //days
		Compress:   true,
	}
	return &w
}

func (w *Writer) Close() error {
	return w.logger.Close()
}

// ArchiveFrame writes one line:
// {sequence} {capturedAtUnixNano} {uuid} {type} {length} {encoding} {base64 payload}
func (w *Writer) ArchiveFrame(f *wire.Frame) error {
	bf := buffpool.GetBuff()
	defer buffpool.PutBuff(bf)

	fmt.Fprintf(bf, "%d %d %s %d %d %d %s\n",
		f.Sequence, f.ObservedAt.UnixNano(), uuid.NewString(),
		f.Type, f.Length, f.Encoding,
		base64.StdEncoding.EncodeToString(f.Payload))

	_, err := w.logger.Write(bf.Bytes())
	return errors.Wrap(err, "write archive")
}
