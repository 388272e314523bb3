package plugin

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vearne/gtimer"
	slog "github.com/vearne/simplelog"
	"github.com/westhule/combatcap/archive"
	"github.com/westhule/combatcap/consts"
	"github.com/westhule/combatcap/correlate"
	"github.com/westhule/combatcap/record"
	"github.com/westhule/combatcap/wire"
)

// FileDirInput replays archived frames through the same decode and
// correlation pipeline as live capture. frames are paced by their original
// capture timestamps, a speedup of 2 halves every delay.
type FileDirInput struct {
	sync.Mutex
	pipeline  *wire.Pipeline
	timer     *gtimer.SuperTimer
	path      string
	readDepth int
	speedup   float64
	// smallest capture timestamp among the prefetched frames
	benchmarkTimestamp int64
	reader             *archive.Reader
	quit               chan bool
	closed             bool
}

func NewFileDirInput(path string, readDepth int, speedup float64) *FileDirInput {
	var in FileDirInput
	in.pipeline = wire.NewPipeline(correlate.NewCorrelator(), nil)
	in.timer = gtimer.NewSuperTimer(3)
	in.path = path
	in.readDepth = readDepth
	if speedup <= 0 {
		speedup = 1.0
	}
	in.speedup = speedup
	in.benchmarkTimestamp = 0
	in.quit = make(chan bool)

	in.init()
	return &in
}

func (in *FileDirInput) init() {
	var err error
	in.reader, err = archive.NewReader(in.path)
	if err != nil {
		slog.Fatal("FileDirInput-scan directory:%v", err)
	}

	frameList := make([]*wire.Frame, 0, in.readDepth)
	slog.Debug("readDepth:%v", in.readDepth)
	for i := 0; i < in.readDepth; i++ {
		f, err := in.reader.ReadFrame()
		if err != nil {
			if err == io.EOF {
				break
			} else {
				slog.Fatal("archive read:%v", err)
			}
		}
		frameList = append(frameList, f)
		if i == 0 {
			in.benchmarkTimestamp = f.ObservedAt.UnixNano()
		} else if f.ObservedAt.UnixNano() < in.benchmarkTimestamp {
			in.benchmarkTimestamp = f.ObservedAt.UnixNano()
		}
	}
	slog.Info("benchmarkTimestamp:%v, len(frameList):%v",
		in.benchmarkTimestamp, len(frameList))
	for i := 0; i < len(frameList); i++ {
		addTaskToTimer(in, frameList[i])
	}
}

func addTaskToTimer(in *FileDirInput, f *wire.Frame) {
	d := time.Duration(float64(f.ObservedAt.UnixNano()-in.benchmarkTimestamp) / in.speedup)
	task := gtimer.NewDelayedItemFunc(
		time.Now().Add(d),
		f,
		func(t time.Time, param interface{}) {
			frame := param.(*wire.Frame)
			in.pipeline.DispatchFrames([]*wire.Frame{frame})
			// Keep the number of frames waiting in the timer constant
			next, err := in.reader.ReadFrame()
			if err != nil {
				if err == io.EOF {
					slog.Debug("All files are read")
				} else {
					slog.Error("archive read:%v", err)
				}
				return
			}
			addTaskToTimer(in, next)
		},
	)
	in.timer.Add(task)
}

// PluginRead reads a replayed record from this plugin
func (in *FileDirInput) PluginRead() (*record.Record, error) {
	select {
	case <-in.quit:
		return nil, consts.ErrReadingStopped
	case rec := <-in.pipeline.Out:
		return rec, nil
	}
}

func (in *FileDirInput) String() string {
	return fmt.Sprintf("Replaying archived frames from: %s", in.path)
}

func (in *FileDirInput) Close() error {
	in.Lock()
	defer in.Unlock()
	if in.closed {
		return nil
	}
	close(in.quit)
	in.closed = true
	return in.reader.Close()
}

func IsValidDir(dirPath string) error {
	info, err := os.Stat(dirPath)
	if err != nil {
		return errors.Wrap(err, "invalid directory")
	}
	if !info.IsDir() {
		return errors.Errorf("%v is not a directory", dirPath)
	}
	return nil
}
