package conf

import (
	"fmt"
	"strings"
)

// Login describes the login servers and the account presented to them.
type Login struct {
	Servers_ []string `yaml:"servers"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	// Shard selects an entry of the server list by name; empty takes the first.
	Shard string `yaml:"shard"`
	// Seed is sent in the handshake; 0 derives it from the local address.
	Seed uint32 `yaml:"seed"`
	// RetrySec is the pause before trying the next login server.
	RetrySec int `yaml:"retry_sec"`

	Servers []string `yaml:"-"`
}

func (l *Login) setDefaults() {
	if l.RetrySec == 0 {
		l.RetrySec = 5
	}
}

func (l *Login) validate() []error {
	var errors []error

	if len(l.Servers_) == 0 {
		errors = append(errors, fmt.Errorf("login servers are required"))
	}
	l.Servers = l.Servers[:0]
	for i, s := range l.Servers_ {
		addr, err := validateAddr(s, false)
		if err != nil {
			errors = append(errors, fmt.Errorf("login.servers[%d] %v", i, err))
			continue
		}
		if strings.HasPrefix(addr, ":") {
			errors = append(errors, fmt.Errorf("login.servers[%d] missing host in '%s'", i, s))
			continue
		}
		l.Servers = append(l.Servers, addr)
	}
	if len(l.Username) > 30 {
		errors = append(errors, fmt.Errorf("login username must be at most 30 characters"))
	}
	if len(l.Password) > 30 {
		errors = append(errors, fmt.Errorf("login password must be at most 30 characters"))
	}
	if l.RetrySec < 1 || l.RetrySec > 3600 {
		errors = append(errors, fmt.Errorf("login retry_sec must be between 1-3600"))
	}
	return errors
}
