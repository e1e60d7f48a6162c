package conf

// Admin serves health, metrics and status over HTTP; empty Listen disables it.
type Admin struct {
	Listen_ string `yaml:"listen"`
	Listen  string `yaml:"-"`
}

func (a *Admin) setDefaults() {}

func (a *Admin) validate() []error {
	var errors []error

	addr, err := validateAddr(a.Listen_, true)
	if err != nil {
		errors = append(errors, err)
	}
	a.Listen = addr
	return errors
}
