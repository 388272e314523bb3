package plugin

import (
	"io"
	"os"

	"github.com/westhule/combatcap/record"
)

// StdOutput prints records to standard output, the logs stay on stderr.
type StdOutput struct {
	codec  record.Codec
	writer io.Writer
}

func NewStdOutput(codec string) *StdOutput {
	var o StdOutput
	o.codec = record.GetCodec(codec)
	o.writer = os.Stdout
	return &o
}

func (o *StdOutput) Close() error {
	return nil
}

// PluginWrite writes a record to this plugin
func (o *StdOutput) PluginWrite(rec *record.Record) (n int, err error) {
	data, err := o.codec.Marshal(rec)
	if err != nil {
		return 0, err
	}

	n, err = o.writer.Write(data)
	if err != nil {
		return n, err
	}
	// make it more readable
	_, err = o.writer.Write([]byte{'\n'})
	return n + 1, err
}

func (o *StdOutput) String() string {
	return "stdout output"
}
