package capture

import (
	"testing"

	"github.com/google/gopacket/pcap"
)

func TestEngineTypeFlag(t *testing.T) {
	var eng EngineType
	if err := eng.Set("libpcap"); err != nil || eng != EnginePcap {
		t.Errorf("engine libpcap, got %v, err %v", eng.String(), err)
	}
	if err := eng.Set("pcap_file"); err != nil || eng != EnginePcapFile {
		t.Errorf("engine pcap_file, got %v, err %v", eng.String(), err)
	}
	if err := eng.Set("af_packet"); err == nil {
		t.Errorf("expected an error for an unsupported engine")
	}
}

func TestFilterBothDirections(t *testing.T) {
	l := &Listener{host: "10.0.0.5", ports: []uint16{7777}}
	l.config.Transport = "tcp"

	got := l.Filter(pcap.Interface{}, "10.0.0.5")
	want := "((tcp dst port 7777) and (src host 10.0.0.5)) or " +
		"((tcp src port 7777) and (dst host 10.0.0.5))"
	if got != want {
		t.Errorf("filter mismatch\n got: %s\nwant: %s", got, want)
	}
}

func TestFilterPromiscuousSkipsHosts(t *testing.T) {
	l := &Listener{host: "10.0.0.5", ports: []uint16{7777}}
	l.config.Transport = "tcp"
	l.config.Promiscuous = true

	got := l.Filter(pcap.Interface{}, "10.0.0.5")
	want := "(tcp dst port 7777) or (tcp src port 7777)"
	if got != want {
		t.Errorf("filter mismatch\n got: %s\nwant: %s", got, want)
	}
}

func TestPortsFilter(t *testing.T) {
	if got := portsFilter("tcp", "dst", nil); got != "tcp dst portrange 0-65535" {
		t.Errorf("empty ports, got %s", got)
	}
	got := portsFilter("tcp", "src", []uint16{7777, 7778})
	if got != "tcp src port 7777 or tcp src port 7778" {
		t.Errorf("two ports, got %s", got)
	}
}
