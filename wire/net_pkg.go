package wire

import (
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/pkg/errors"
	psnet "github.com/shirou/gopsutil/v3/net"

	"github.com/westhule/combatcap/util"
)

type DirectConn struct {
	SrcAddr psnet.Addr
	DstAddr psnet.Addr
}

func (d *DirectConn) String() string {
	return fmt.Sprintf("%v:%v -> %v:%v", d.SrcAddr.IP,
		d.SrcAddr.Port, d.DstAddr.IP, d.DstAddr.Port)
}

// Reverse flips the connection so both halves of a flow share one map key.
func (d *DirectConn) Reverse() DirectConn {
	var c DirectConn
	c.SrcAddr = d.DstAddr
	c.DstAddr = d.SrcAddr
	return c
}

type NetPkg struct {
	SrcIP string
	DstIP string

	Ethernet   *layers.Ethernet
	IPv4       *layers.IPv4
	IPv6       *layers.IPv6
	TCP        *layers.TCP
	Direction  Dir
	ObservedAt time.Time
}

// ProcessPacket classifies one captured packet. localIPs holds the
// addresses of the machine running the client; when it is empty (replaying
// a capture file taken elsewhere) direction falls back to the server port
// alone.
func ProcessPacket(packet gopacket.Packet, localIPs *util.StringSet, ports []uint16) (*NetPkg, error) {
	var p NetPkg

	ethernet := packet.Layer(layers.LayerTypeEthernet)
	if ethernet != nil {
		p.Ethernet = ethernet.(*layers.Ethernet)
	}

	ipLayerIPv4 := packet.Layer(layers.LayerTypeIPv4)
	ipLayerIPv6 := packet.Layer(layers.LayerTypeIPv6)
	if ipLayerIPv4 == nil && ipLayerIPv6 == nil {
		return nil, errors.New("invalid IP package")
	}
	if ipLayerIPv4 != nil {
		p.IPv4 = ipLayerIPv4.(*layers.IPv4)
		p.SrcIP = p.IPv4.SrcIP.String()
		p.DstIP = p.IPv4.DstIP.String()
	}
	if ipLayerIPv6 != nil {
		p.IPv6 = ipLayerIPv6.(*layers.IPv6)
		p.SrcIP = p.IPv6.SrcIP.String()
		p.DstIP = p.IPv6.DstIP.String()
	}

	tcpLayer := packet.Layer(layers.LayerTypeTCP)
	if tcpLayer == nil {
		return nil, errors.New("invalid TCP package")
	}
	p.TCP = tcpLayer.(*layers.TCP)
	p.ObservedAt = packet.Metadata().Timestamp
	p.Direction = classify(&p, localIPs, ports)
	return &p, nil
}

func classify(p *NetPkg, localIPs *util.StringSet, ports []uint16) Dir {
	srcIsServer := portMatch(uint16(p.TCP.SrcPort), ports)
	dstIsServer := portMatch(uint16(p.TCP.DstPort), ports)

	if localIPs == nil || localIPs.Size() == 0 {
		if srcIsServer && !dstIsServer {
			return DirDownstream
		}
		if dstIsServer && !srcIsServer {
			return DirUpstream
		}
		return DirUnknown
	}

	if localIPs.Has(p.SrcIP) && dstIsServer {
		return DirUpstream
	}
	if localIPs.Has(p.DstIP) && srcIsServer {
		return DirDownstream
	}
	return DirUnknown
}

func portMatch(port uint16, ports []uint16) bool {
	if len(ports) == 0 {
		return true
	}
	for _, p := range ports {
		if p == port {
			return true
		}
	}
	return false
}

func (p *NetPkg) TCPFlags() []string {
	flags := make([]string, 0)
	if p.TCP.FIN {
		flags = append(flags, "FIN")
	}
	if p.TCP.SYN {
		flags = append(flags, "SYN")
	}
	if p.TCP.RST {
		flags = append(flags, "RST")
	}
	if p.TCP.PSH {
		flags = append(flags, "PSH")
	}
	if p.TCP.ACK {
		flags = append(flags, "ACK")
	}
	if p.TCP.URG {
		flags = append(flags, "URG")
	}
	return flags
}

func (p *NetPkg) DirectConn() DirectConn {
	var c DirectConn
	c.SrcAddr.IP = p.SrcIP
	c.DstAddr.IP = p.DstIP
	c.SrcAddr.Port = uint32(p.TCP.SrcPort)
	c.DstAddr.Port = uint32(p.TCP.DstPort)
	return c
}
