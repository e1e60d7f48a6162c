package conf

import (
	"fmt"
	"strings"
)

type Plugins struct {
	Capture Capture `yaml:"capture"`
	NATS    NATS    `yaml:"nats"`
	Filter  Filter  `yaml:"filter"`
}

func (p *Plugins) setDefaults() {
	p.Capture.setDefaults()
	p.NATS.setDefaults()
}

func (p *Plugins) validate() []error {
	var errors []error
	errors = append(errors, p.Capture.validate()...)
	errors = append(errors, p.NATS.validate()...)
	errors = append(errors, p.Filter.validate()...)
	return errors
}

// Capture writes every frame to a pcap file; empty Path disables it.
type Capture struct {
	Path    string `yaml:"path"`
	Snaplen int    `yaml:"snaplen"`
}

func (c *Capture) setDefaults() {
	if c.Snaplen == 0 {
		c.Snaplen = 65535
	}
}

func (c *Capture) validate() []error {
	var errors []error
	if c.Snaplen < 64 || c.Snaplen > 262144 {
		errors = append(errors, fmt.Errorf("capture snaplen must be between 64-262144"))
	}
	return errors
}

// NATS mirrors frames to a NATS server; empty URL disables it.
type NATS struct {
	URL    string `yaml:"url"`
	Prefix string `yaml:"subject_prefix"`
}

func (n *NATS) setDefaults() {
	if n.Prefix == "" {
		n.Prefix = "shardlink"
	}
}

func (n *NATS) validate() []error {
	var errors []error
	if n.URL != "" && !strings.HasPrefix(n.URL, "nats://") && !strings.HasPrefix(n.URL, "tls://") {
		errors = append(errors, fmt.Errorf("nats url must start with nats:// or tls://"))
	}
	if strings.ContainsAny(n.Prefix, " *>") {
		errors = append(errors, fmt.Errorf("nats subject_prefix must not contain spaces or wildcards"))
	}
	return errors
}

// Filter drops frames by identifier in either direction.
type Filter struct {
	DropInbound  []int `yaml:"drop_inbound"`
	DropOutbound []int `yaml:"drop_outbound"`
}

func (f *Filter) validate() []error {
	var errors []error
	for _, id := range f.DropInbound {
		if id < 0 || id > 0xFF {
			errors = append(errors, fmt.Errorf("filter drop_inbound id %d out of range 0-255", id))
		}
	}
	for _, id := range f.DropOutbound {
		if id < 0 || id > 0xFF {
			errors = append(errors, fmt.Errorf("filter drop_outbound id %d out of range 0-255", id))
		}
	}
	return errors
}

func (f *Filter) Enabled() bool { return len(f.DropInbound) > 0 || len(f.DropOutbound) > 0 }
