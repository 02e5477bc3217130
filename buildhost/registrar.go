package buildhost

// Registrar tells a host build system that its output depends on path.
type Registrar interface {
	Register(path string) error
}

// RegistrarFunc adapts a function to a Registrar.
type RegistrarFunc func(path string) error

func (f RegistrarFunc) Register(path string) error {
	return f(path)
}

// NopRegistrar discards registrations, for hosts without change tracking.
type NopRegistrar struct{}

func (NopRegistrar) Register(string) error {
	return nil
}

// MultiRegistrar forwards each registration to every registrar in order and
// stops at the first error.
type MultiRegistrar []Registrar

func (m MultiRegistrar) Register(path string) error {
	for _, r := range m {
		if err := r.Register(path); err != nil {
			return err
		}
	}
	return nil
}
