package util

import (
	"net"
	"strings"

	"github.com/pkg/errors"
	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

func IsIPv4(ipAddr string) bool {
	ip := net.ParseIP(ipAddr)
	return ip != nil && strings.Contains(ipAddr, ".")
}

func IsIPv6(ipAddr string) bool {
	ip := net.ParseIP(ipAddr)
	return ip != nil && strings.Contains(ipAddr, ":")
}

// FindProcessConns returns the established TCP connections owned by the
// processes whose executable name matches name (case-insensitive).
func FindProcessConns(name string) ([]psnet.ConnectionStat, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, errors.Wrap(err, "list processes")
	}

	result := make([]psnet.ConnectionStat, 0)
	matched := false
	for _, p := range procs {
		pname, err := p.Name()
		if err != nil {
			continue
		}
		if !strings.EqualFold(pname, name) {
			continue
		}
		matched = true
		conns, err := psnet.ConnectionsPid("tcp", p.Pid)
		if err != nil {
			continue
		}
		for _, conn := range conns {
			if conn.Status != "ESTABLISHED" {
				continue
			}
			if len(conn.Raddr.IP) <= 0 {
				continue
			}
			result = append(result, conn)
		}
	}
	if !matched {
		return nil, errors.Errorf("process %v not found", name)
	}
	return result, nil
}
