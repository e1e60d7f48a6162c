package conf

import (
	"fmt"

	"shardlink/internal/framing"
)

type Protocol struct {
	ClientVersion_ string `yaml:"client_version"`
	// Compression turns on the Huffman stage once the game server login is sent.
	Compression *bool `yaml:"compression"`

	ClientVersion framing.ClientVersion `yaml:"-"`
}

func (p *Protocol) setDefaults() {
	if p.ClientVersion_ == "" {
		p.ClientVersion_ = framing.VLatest.String()
	}
	if p.Compression == nil {
		on := true
		p.Compression = &on
	}
}

func (p *Protocol) validate() []error {
	var errors []error

	v, err := framing.ParseVersion(p.ClientVersion_)
	if err != nil {
		errors = append(errors, fmt.Errorf("protocol client_version: %v", err))
	}
	p.ClientVersion = v
	return errors
}

// CompressionEnabled reports the compression setting; unset means on.
func (p *Protocol) CompressionEnabled() bool {
	return p.Compression == nil || *p.Compression
}
