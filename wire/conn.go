package wire

import (
	slog "github.com/vearne/simplelog"
)

// GameConn tracks one client connection to the game server. Only the
// downstream half carries combat frames, upstream traffic is ignored.
type GameConn struct {
	DirectConn DirectConn
	Down       *TCPBuffer
	assembler  *StreamAssembler
	processor  *Processor
}

func NewGameConn(dc DirectConn, p *Processor) *GameConn {
	var gc GameConn
	gc.DirectConn = dc
	gc.Down = NewTCPBuffer()
	gc.assembler = NewStreamAssembler(p.Policy)
	gc.processor = p
	go gc.DealDownstream()
	return &gc
}

// DealDownstream drains ordered segments and pushes every extracted frame
// through the pipeline.
func (gc *GameConn) DealDownstream() {
	slog.Debug("[start]GameConn.DealDownstream, DirectConn:%v", gc.DirectConn.String())
	for {
		seg, err := gc.Down.ReadSegment()
		if err != nil {
			slog.Debug("GameConn.DealDownstream, DirectConn:%v, ReadSegment:%v",
				gc.DirectConn.String(), err)
			break
		}
		frames := gc.assembler.Feed(seg.Payload, seg.ObservedAt)
		if len(frames) <= 0 {
			continue
		}
		gc.processor.Pipeline.DispatchFrames(frames)
	}
	slog.Debug("[end]GameConn.DealDownstream, DirectConn:%v", gc.DirectConn.String())
}

func (gc *GameConn) Close() {
	gc.Down.Close()
}
