package wire

import (
	"github.com/smallnest/gofsm"
	slog "github.com/vearne/simplelog"

	"github.com/westhule/combatcap/record"
)

// Processor consumes parsed packets, tracks TCP connection state and owns
// the per-connection downstream buffers.
type Processor struct {
	ConnRepository map[DirectConn]*GameConn
	ConnStates     map[DirectConn]*TCPConnState
	InputChan      chan *NetPkg
	OutputChan     chan *record.Record
	Pipeline       *Pipeline
	Policy         FramePolicy
	fsm            *fsm.StateMachine
}

func NewProcessor(input chan *NetPkg, pipeline *Pipeline, policy FramePolicy) *Processor {
	var p Processor
	p.ConnRepository = make(map[DirectConn]*GameConn, 100)
	p.ConnStates = make(map[DirectConn]*TCPConnState, 100)
	p.InputChan = input
	p.Pipeline = pipeline
	p.OutputChan = pipeline.Out
	p.Policy = policy
	p.fsm = InitTCPFSM(&TCPEventProcessor{})
	slog.Info("create new Processor")
	return &p
}

func (p *Processor) ProcessTCPPkg() {
	for pkg := range p.InputChan {
		if pkg.Direction == DirUnknown {
			dc := pkg.DirectConn()
			slog.Debug("Processor ignore packet without direction, %v", dc.String())
			continue
		}
		p.dispatchPkg(pkg)
	}
}

// dispatchPkg advances the connection state machine and routes downstream
// payload into the owning connection's buffer.
func (p *Processor) dispatchPkg(pkg *NetPkg) {
	dc := p.canonicalConn(pkg)

	state, ok := p.ConnStates[dc]
	if !ok {
		if pkg.TCP.SYN && !pkg.TCP.ACK && pkg.Direction == DirUpstream {
			// fresh connection, walk the whole handshake
			state = NewTCPConnState(dc)
			p.ConnStates[dc] = state
		} else if p.adoptConn(dc, pkg) {
			state = p.ConnStates[dc]
		} else {
			return
		}
	}

	event := tcpEvent(pkg)
	if len(event) > 0 {
		err := p.fsm.Trigger(state.State, event, state, pkg, p)
		if err != nil {
			slog.Debug("fsm.Trigger, DirectConn:%v, state:%v, event:%v, %v",
				dc.String(), state.State, event, err)
		}
	}

	if pkg.Direction != DirDownstream || len(pkg.TCP.Payload) <= 0 {
		return
	}
	gc, ok := p.ConnRepository[dc]
	if !ok {
		return
	}
	var seg Segment
	seg.Seq = pkg.TCP.Seq
	seg.Payload = pkg.TCP.Payload
	seg.ObservedAt = pkg.ObservedAt
	gc.Down.AddSegment(&seg)
}

// adoptConn registers a connection first seen mid-stream. The capture may
// start long after the TCP handshake, an established flow is recognized by
// downstream payload with none of SYN/FIN/RST set.
func (p *Processor) adoptConn(dc DirectConn, pkg *NetPkg) bool {
	if pkg.TCP.SYN || pkg.TCP.FIN || pkg.TCP.RST {
		return false
	}
	if pkg.Direction != DirDownstream || len(pkg.TCP.Payload) <= 0 {
		return false
	}

	state := NewTCPConnState(dc)
	state.State = StateEstablished
	state.States = append(state.States, StateEstablished)
	p.ConnStates[dc] = state

	gc := NewGameConn(dc, p)
	gc.Down.SetExpectedSeq(pkg.TCP.Seq)
	p.ConnRepository[dc] = gc
	slog.Info("Processor adopt connection mid-stream, DirectConn:%v, seq:%v",
		dc.String(), pkg.TCP.Seq)
	return true
}

// canonicalConn keys both halves of a flow by the upstream direction.
func (p *Processor) canonicalConn(pkg *NetPkg) DirectConn {
	dc := pkg.DirectConn()
	if pkg.Direction == DirDownstream {
		return dc.Reverse()
	}
	return dc
}

// tcpEvent maps packet flags and direction onto a state machine event,
// seen from the client.
func tcpEvent(pkg *NetPkg) string {
	tcp := pkg.TCP
	sent := pkg.Direction == DirUpstream
	switch {
	case tcp.RST && sent:
		return EventSendRST
	case tcp.RST:
		return EventReceiveRST
	case tcp.SYN && tcp.ACK && pkg.Direction == DirDownstream:
		return EventReceiveSYNACK
	case tcp.SYN && sent:
		return EventSendSYN
	case tcp.FIN && sent:
		return EventSendFIN
	case tcp.FIN:
		return EventReceiveFIN
	case tcp.ACK && sent:
		return EventSendACK
	case tcp.ACK:
		return EventReceiveACK
	}
	return ""
}

// Close tears down every tracked connection.
func (p *Processor) Close() {
	for dc, gc := range p.ConnRepository {
		gc.Close()
		delete(p.ConnRepository, dc)
		delete(p.ConnStates, dc)
	}
}
