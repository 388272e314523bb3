package wire

import (
	"github.com/smallnest/gofsm"
	slog "github.com/vearne/simplelog"
)

const (
	//#################### Establish Connection #################

	StateStart = "START"
	// sent SYN
	StateSynSent = "SYN-SENT"
	// received SYN+ACK
	StateSynAckReceived = "SYN-ACK-RECEIVED"
	// sent ACK
	StateEstablished = "ESTABLISHED"

	//#################### Close Connection ####################
	// received FIN
	StateCloseWait = "CLOSE_WAIT"
	// sent ACK,FIN
	StateLastAck = "LAST_ACK"
	// sent FIN first
	StateFinWait = "FIN-WAIT"
	StateClosed  = "CLOSED"
)
const (
	EventSendSYN       = "SEND_SYN"
	EventReceiveSYNACK = "RECEIVE_SYN_ACK"
	EventSendACK       = "SEND_ACK"
	EventReceiveACK    = "RECEIVE_ACK"
	EventReceiveFIN    = "RECEIVE_FIN"
	EventSendFIN       = "SEND_FIN"
	EventReceiveRST    = "RECEIVE_RST"
	EventSendRST       = "SEND_RST"
)

type TCPConnState struct {
	dc     DirectConn
	State  string
	States []string
}

func NewTCPConnState(dc DirectConn) *TCPConnState {
	var t TCPConnState
	t.dc = dc
	t.State = StateStart
	t.States = []string{StateStart}
	return &t
}

type TCPEventProcessor struct{}

func (p *TCPEventProcessor) Action(action string, fromState string, toState string, args []interface{}) error {
	ts := args[0].(*TCPConnState)
	switch action {
	case "change-state":
		slog.Info("change-state, DirectConn:%v, fromState:[%v] -> toState:[%v]",
			ts.dc.String(), fromState, toState)
	case "do-nothing":
		slog.Debug("do-nothing, DirectConn:%v, current state:%v", ts.dc.String(), toState)
	default:
		slog.Debug("unknow action: %v, DirectConn:%v", action, ts.dc.String())
	}
	return nil
}

func (p *TCPEventProcessor) OnActionFailure(action string, fromState string, toState string, args []interface{}, err error) {

}

func (p *TCPEventProcessor) OnExit(fromState string, args []interface{}) {
}

func (p *TCPEventProcessor) OnEnter(toState string, args []interface{}) {
	ts := args[0].(*TCPConnState)
	ts.State = toState
	ts.States = append(ts.States, toState)
	slog.Debug("OnEnter, DirectConn:%v, connection state -> %v", ts.dc.String(), toState)
	// args []interface{}
	// ts *TCPConnState, pkg *NetPkg, p *Processor
	switch ts.State {
	case StateEstablished:
		p := args[2].(*Processor)
		gc := NewGameConn(ts.dc, p)
		p.ConnRepository[ts.dc] = gc
		// set sequence
		/*
			    the final handshake ACK, client --> server
				pkg.TCP.Ack is the server's next sequence number,
				exactly where the downstream byte stream starts
		*/
		pkg := args[1].(*NetPkg)
		gc.Down.SetExpectedSeq(pkg.TCP.Ack)

		slog.Info("TCPEventProcessor connection [ESTABLISHED], DirectConn:%v", ts.dc.String())
	case StateClosed:
		p := args[2].(*Processor)
		delete(p.ConnStates, ts.dc)
		if gc, ok := p.ConnRepository[ts.dc]; ok {
			gc.Close()
			delete(p.ConnRepository, ts.dc)
		}
		slog.Info("TCPEventProcessor connection [CLOSED], DirectConn:%v", ts.dc.String())
	}
}

func InitTCPFSM(processor fsm.EventProcessor) *fsm.StateMachine {
	delegate := &fsm.DefaultDelegate{P: processor}
	// from the client's perspective, the capture runs next to the game client
	transitions := []fsm.Transition{
		// 1.
		{From: StateStart, Event: EventSendSYN, To: StateSynSent, Action: "change-state"},
		{From: StateSynSent, Event: EventReceiveSYNACK, To: StateSynAckReceived, Action: "change-state"},
		{From: StateSynAckReceived, Event: EventSendACK, To: StateEstablished, Action: "change-state"},

		{From: StateEstablished, Event: EventReceiveACK, To: StateEstablished, Action: "do-nothing"},
		{From: StateEstablished, Event: EventSendACK, To: StateEstablished, Action: "do-nothing"},
		{From: StateSynSent, Event: EventSendSYN, To: StateSynSent, Action: "do-nothing"},
		{From: StateSynAckReceived, Event: EventReceiveSYNACK, To: StateSynAckReceived, Action: "do-nothing"},

		// 2. server closes first
		{From: StateEstablished, Event: EventReceiveFIN, To: StateCloseWait, Action: "change-state"},
		{From: StateCloseWait, Event: EventSendACK, To: StateCloseWait, Action: "do-nothing"},
		{From: StateCloseWait, Event: EventSendFIN, To: StateLastAck, Action: "change-state"},
		{From: StateLastAck, Event: EventReceiveACK, To: StateClosed, Action: "change-state"},

		// 3. client closes first, FIN+ACK collapsed into one step
		{From: StateEstablished, Event: EventSendFIN, To: StateFinWait, Action: "change-state"},
		{From: StateFinWait, Event: EventReceiveACK, To: StateFinWait, Action: "do-nothing"},
		{From: StateFinWait, Event: EventReceiveFIN, To: StateClosed, Action: "change-state"},

		// 4.
		{From: StateSynSent, Event: EventReceiveRST, To: StateClosed, Action: "change-state"},
		{From: StateEstablished, Event: EventReceiveRST, To: StateClosed, Action: "change-state"},
		{From: StateEstablished, Event: EventSendRST, To: StateClosed, Action: "change-state"},
		{From: StateCloseWait, Event: EventReceiveRST, To: StateClosed, Action: "change-state"},
		{From: StateFinWait, Event: EventReceiveRST, To: StateClosed, Action: "change-state"},
	}

	return fsm.NewStateMachine(delegate, transitions...)
}
