package conf

import (
	"fmt"
	"slices"

	"shardlink/internal/crypt"
)

// Crypto configures the stream cipher applied after the handshake seed.
type Crypto struct {
	Mode   string `yaml:"mode"`
	Secret string `yaml:"secret"`
}

func (c *Crypto) setDefaults() {
	if c.Mode == "" {
		c.Mode = "none"
	}
}

func (c *Crypto) validate() []error {
	var errors []error

	validModes := crypt.Names()
	if !slices.Contains(validModes, c.Mode) {
		errors = append(errors, fmt.Errorf("crypto mode must be one of: %v", validModes))
	}
	if c.Mode != "none" && len(c.Secret) < 8 {
		errors = append(errors, fmt.Errorf("crypto secret must be at least 8 characters when mode is %s", c.Mode))
	}
	return errors
}
