package conf

import (
	"fmt"
	"strings"
)

// Proxy selects how transports reach the servers.
type Proxy struct {
	Type_    string `yaml:"type"`
	Addr_    string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	Type string `yaml:"-"`
	Addr string `yaml:"-"`
}

func (p *Proxy) setDefaults() {
	if p.Type_ == "" {
		p.Type = "direct"
	} else {
		p.Type = strings.ToLower(strings.TrimSpace(p.Type_))
	}
}

func (p *Proxy) validate() []error {
	var errors []error

	if p.Type == "" {
		p.Type = "direct"
	}
	if p.Type != "direct" && p.Type != "socks5" {
		errors = append(errors, fmt.Errorf("proxy type must be 'direct' or 'socks5', got %q", p.Type))
	}
	if p.Type == "socks5" {
		addr := strings.TrimPrefix(strings.TrimSpace(p.Addr_), "socks5://")
		if addr == "" {
			errors = append(errors, fmt.Errorf("proxy addr is required when type is socks5"))
		} else if a, err := validateAddr(addr, false); err != nil {
			errors = append(errors, fmt.Errorf("proxy addr invalid: %v", err))
		} else {
			p.Addr = a
		}
	}
	return errors
}
