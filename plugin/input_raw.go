package plugin

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/google/gopacket"
	slog "github.com/vearne/simplelog"
	"github.com/westhule/combatcap/capture"
	"github.com/westhule/combatcap/consts"
	"github.com/westhule/combatcap/correlate"
	"github.com/westhule/combatcap/record"
	"github.com/westhule/combatcap/wire"
)

// RAWInputConfig represents configuration that can be applied on raw input
type RAWInputConfig = capture.PcapOptions

// RAWInput intercepts the game traffic on the given address and turns it
// into damage records. address is either "interface:port[,port...]" for live
// capture or a pcap file path, "recording.pcap:port" keeps the direction
// classification working on replayed files.
type RAWInput struct {
	sync.Mutex
	config         RAWInputConfig
	listener       *capture.Listener
	processor      *wire.Processor
	pipeline       *wire.Pipeline
	cancelListener context.CancelFunc
	closed         bool

	quit  chan bool // Channel used only to indicate goroutine should shutdown
	host  string
	ports []uint16
}

// NewRAWInput constructor for RAWInput. Accepts raw input config as arguments.
func NewRAWInput(address string, config RAWInputConfig, policy wire.FramePolicy, archiver wire.FrameArchiver) (i *RAWInput) {
	slog.Debug("address:%q", address)
	i = new(RAWInput)
	i.config = config
	i.quit = make(chan bool)

	host, _ports, err := net.SplitHostPort(address)
	if err != nil {
		// If we are reading pcap file, no port needed
		if strings.HasSuffix(address, "pcap") {
			host = address
			_ports = "0"
			err = nil
		} else {
			slog.Fatal("input-raw: error while parsing address: %v", err)
		}
	}

	if strings.HasSuffix(host, "pcap") {
		i.config.Engine = capture.EnginePcapFile
	}

	var ports []uint16
	if _ports != "" {
		portsStr := strings.Split(_ports, ",")

		for _, portStr := range portsStr {
			port, err := strconv.Atoi(strings.TrimSpace(portStr))
			if err != nil {
				slog.Fatal("parsing port error: %v", err)
			}
			ports = append(ports, uint16(port))
		}
	}

	i.host = host
	i.ports = ports
	if i.config.Engine == capture.EnginePcapFile && (len(ports) == 0 || ports[0] == 0) {
		slog.Warn("no server port for pcap file %v, packets cannot be classified, use file.pcap:port", host)
	}

	i.pipeline = wire.NewPipeline(correlate.NewCorrelator(), archiver)
	i.processor = wire.NewProcessor(make(chan *wire.NetPkg, 100), i.pipeline, policy)

	i.listen()
	go i.processor.ProcessTCPPkg()
	return
}

// PluginRead reads a record from this plugin
func (i *RAWInput) PluginRead() (*record.Record, error) {
	select {
	case <-i.quit:
		return nil, consts.ErrReadingStopped
	case rec := <-i.processor.OutputChan:
		return rec, nil
	}
}

func (i *RAWInput) listen() {
	var err error
	i.listener, err = capture.NewListener(i.host, i.ports, i.config)
	if err != nil {
		slog.Fatal("input-raw: %v", err)
	}

	err = i.listener.Activate()
	if err != nil {
		slog.Fatal("input-raw: %v", err)
	}

	localIPs := i.listener.LocalIPs()
	handler := func(packet gopacket.Packet) {
		pkg, err := wire.ProcessPacket(packet, localIPs, i.ports)
		if err != nil {
			slog.Debug("ProcessPacket:%v", err)
			return
		}
		i.processor.InputChan <- pkg
	}

	var ctx context.Context
	ctx, i.cancelListener = context.WithCancel(context.Background())
	errCh := i.listener.ListenBackground(ctx, handler)
	<-i.listener.Reading

	slog.Debug("RAWInput.listen")
	go func() {
		<-errCh // the listener closed voluntarily
		i.Close()
	}()
}

func (i *RAWInput) String() string {
	ports := make([]string, 0, len(i.ports))
	for _, p := range i.ports {
		ports = append(ports, strconv.Itoa(int(p)))
	}
	return fmt.Sprintf("Intercepting traffic from: %s:%s", i.host, strings.Join(ports, ","))
}

// Close closes the input raw listener
func (i *RAWInput) Close() error {
	i.Lock()
	defer i.Unlock()
	if i.closed {
		return nil
	}
	i.cancelListener()
	close(i.quit)
	i.closed = true
	return nil
}
