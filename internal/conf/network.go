package conf

import (
	"fmt"
	"time"
)

type Network struct {
	ReadChunk        int `yaml:"read_chunk"`
	DecompressBuffer int `yaml:"decompress_buffer"`
	DialTimeoutSec   int `yaml:"dial_timeout_sec"`
	TickMs           int `yaml:"tick_ms"`
	PingSec          int `yaml:"ping_sec"`
	// SendQueue bounds the segments waiting for the socket; 0 is unbounded.
	SendQueue int `yaml:"send_queue"`
}

func (n *Network) setDefaults() {
	if n.ReadChunk == 0 {
		n.ReadChunk = 4096
	}
	if n.DecompressBuffer == 0 {
		n.DecompressBuffer = 64 * 1024
	}
	if n.DialTimeoutSec == 0 {
		n.DialTimeoutSec = 10
	}
	if n.TickMs == 0 {
		n.TickMs = 10
	}
	if n.PingSec == 0 {
		n.PingSec = 30
	}
}

func (n *Network) validate() []error {
	var errors []error

	if n.ReadChunk < 64 || n.ReadChunk > 1024*1024 {
		errors = append(errors, fmt.Errorf("network read_chunk must be between 64-1048576"))
	}
	// one read chunk expands to at most 4x its size after decompression
	if n.DecompressBuffer < 4*n.ReadChunk {
		errors = append(errors, fmt.Errorf("network decompress_buffer must be at least 4x read_chunk (%d)", 4*n.ReadChunk))
	}
	if n.DialTimeoutSec < 1 || n.DialTimeoutSec > 300 {
		errors = append(errors, fmt.Errorf("network dial_timeout_sec must be between 1-300"))
	}
	if n.TickMs < 1 || n.TickMs > 1000 {
		errors = append(errors, fmt.Errorf("network tick_ms must be between 1-1000"))
	}
	if n.PingSec < 1 || n.PingSec > 600 {
		errors = append(errors, fmt.Errorf("network ping_sec must be between 1-600"))
	}
	if n.SendQueue < 0 {
		errors = append(errors, fmt.Errorf("network send_queue must not be negative"))
	}
	return errors
}

func (n *Network) DialTimeout() time.Duration { return time.Duration(n.DialTimeoutSec) * time.Second }

func (n *Network) Tick() time.Duration { return time.Duration(n.TickMs) * time.Millisecond }

func (n *Network) Ping() time.Duration { return time.Duration(n.PingSec) * time.Second }
