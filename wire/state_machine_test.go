package wire

import (
	"log"
	"testing"
)

type TestEventProcessor struct{}

func (p *TestEventProcessor) Action(action string, fromState string, toState string, args []interface{}) error {
	switch action {
	case "change-state":
		log.Printf("change-state, fromState:[%v] -> toState:[%v]\n", fromState, toState)
	case "do-nothing":
		log.Printf("do-nothing, current state:%v\n", toState)
	default:
		log.Printf("unknow action: %v\n", action)
	}
	return nil
}

func (p *TestEventProcessor) OnActionFailure(action string, fromState string, toState string, args []interface{}, err error) {

}

func (p *TestEventProcessor) OnExit(fromState string, args []interface{}) {
}

func (p *TestEventProcessor) OnEnter(toState string, args []interface{}) {
	log.Printf("OnEnter, connection state -> %v\n", toState)
	ts := args[0].(*TCPConnState)
	ts.State = toState
	ts.States = append(ts.States, toState)
}

func TestTCPFSMHandshake(t *testing.T) {
	ts := &TCPConnState{
		State:  StateStart,
		States: []string{StateStart},
	}
	tcpFSM := InitTCPFSM(&TestEventProcessor{})

	var err error
	err = tcpFSM.Trigger(ts.State, EventSendSYN, ts)
	if err != nil {
		t.Errorf("trigger err: %v", err)
	}

	err = tcpFSM.Trigger(ts.State, EventReceiveSYNACK, ts)
	if err != nil {
		t.Errorf("trigger err: %v", err)
	}

	err = tcpFSM.Trigger(ts.State, EventSendACK, ts)
	if err != nil {
		t.Errorf("trigger err: %v", err)
	}

	t.Logf("current state:%v", ts.State)
	if ts.State != StateEstablished {
		t.Errorf("expect:%v, actual:%v", StateEstablished, ts.State)
	}
}

func TestTCPFSMServerCloseFirst(t *testing.T) {
	ts := &TCPConnState{
		State:  StateEstablished,
		States: []string{StateEstablished},
	}
	tcpFSM := InitTCPFSM(&TestEventProcessor{})

	var err error
	err = tcpFSM.Trigger(ts.State, EventReceiveFIN, ts)
	if err != nil {
		t.Errorf("trigger err: %v", err)
	}

	err = tcpFSM.Trigger(ts.State, EventSendACK, ts)
	if err != nil {
		t.Errorf("trigger err: %v", err)
	}
	if ts.State != StateCloseWait {
		t.Errorf("expect:%v, actual:%v", StateCloseWait, ts.State)
	}

	err = tcpFSM.Trigger(ts.State, EventSendFIN, ts)
	if err != nil {
		t.Errorf("trigger err: %v", err)
	}

	err = tcpFSM.Trigger(ts.State, EventReceiveACK, ts)
	if err != nil {
		t.Errorf("trigger err: %v", err)
	}

	if ts.State != StateClosed {
		t.Errorf("expect:%v, actual:%v", StateClosed, ts.State)
	}
}

func TestTCPFSMClientCloseFirst(t *testing.T) {
	ts := &TCPConnState{
		State:  StateEstablished,
		States: []string{StateEstablished},
	}
	tcpFSM := InitTCPFSM(&TestEventProcessor{})

	var err error
	err = tcpFSM.Trigger(ts.State, EventSendFIN, ts)
	if err != nil {
		t.Errorf("trigger err: %v", err)
	}
	if ts.State != StateFinWait {
		t.Errorf("expect:%v, actual:%v", StateFinWait, ts.State)
	}

	err = tcpFSM.Trigger(ts.State, EventReceiveFIN, ts)
	if err != nil {
		t.Errorf("trigger err: %v", err)
	}

	if ts.State != StateClosed {
		t.Errorf("expect:%v, actual:%v", StateClosed, ts.State)
	}
}

func TestTCPFSMReset(t *testing.T) {
	ts := &TCPConnState{
		State:  StateEstablished,
		States: []string{StateEstablished},
	}
	tcpFSM := InitTCPFSM(&TestEventProcessor{})

	err := tcpFSM.Trigger(ts.State, EventReceiveRST, ts)
	if err != nil {
		t.Errorf("trigger err: %v", err)
	}

	if ts.State != StateClosed {
		t.Errorf("expect:%v, actual:%v", StateClosed, ts.State)
	}
}
