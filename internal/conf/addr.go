package conf

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// validateAddr checks a host:port pair without resolving the host. The host may
// be empty for listen addresses; an empty address is accepted when allowEmpty is set.
func validateAddr(addr string, allowEmpty bool) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		if allowEmpty {
			return "", nil
		}
		return "", fmt.Errorf("address is required")
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("invalid address '%s': %v", addr, err)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return "", fmt.Errorf("invalid port in address '%s'", addr)
	}
	return net.JoinHostPort(host, port), nil
}
