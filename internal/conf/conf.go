package conf

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

type Conf struct {
	Log      Log      `yaml:"log"`
	Login    Login    `yaml:"login"`
	Protocol Protocol `yaml:"protocol"`
	Network  Network  `yaml:"network"`
	Proxy    Proxy    `yaml:"proxy"`
	Crypto   Crypto   `yaml:"crypto"`
	Plugins  Plugins  `yaml:"plugins"`
	Admin    Admin    `yaml:"admin"`
}

func LoadFromFile(path string) (*Conf, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data)
}

func Load(data []byte) (*Conf, error) {
	var conf Conf

	if err := yaml.Unmarshal(data, &conf); err != nil {
		return &conf, err
	}

	conf.setDefaults()
	if err := conf.validate(); err != nil {
		return &conf, err
	}

	return &conf, nil
}

func (c *Conf) setDefaults() {
	c.Log.setDefaults()
	c.Login.setDefaults()
	c.Protocol.setDefaults()
	c.Network.setDefaults()
	c.Proxy.setDefaults()
	c.Crypto.setDefaults()
	c.Plugins.setDefaults()
	c.Admin.setDefaults()
}

func (c *Conf) validate() error {
	var allErrors []error

	allErrors = append(allErrors, c.Log.validate()...)
	allErrors = append(allErrors, c.Login.validate()...)
	allErrors = append(allErrors, c.Protocol.validate()...)
	allErrors = append(allErrors, c.Network.validate()...)
	allErrors = append(allErrors, c.Proxy.validate()...)
	allErrors = append(allErrors, c.Crypto.validate()...)
	allErrors = append(allErrors, c.Plugins.validate()...)
	allErrors = append(allErrors, c.Admin.validate()...)

	return writeErr(allErrors)
}

func writeErr(allErrors []error) error {
	if len(allErrors) > 0 {
		var messages []string
		for _, err := range allErrors {
			messages = append(messages, err.Error())
		}
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(messages, "\n  - "))
	}
	return nil
}
