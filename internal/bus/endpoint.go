package bus

import (
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
)

// Endpoint identifies the daemon surface. It is built once at startup and
// passed by value.
type Endpoint struct {
	Service   string
	Path      dbus.ObjectPath
	Interface string
}

// NewEndpoint builds and validates an Endpoint from configuration strings.
func NewEndpoint(service, path, iface string) (Endpoint, error) {
	ep := Endpoint{
		Service:   strings.TrimSpace(service),
		Path:      dbus.ObjectPath(strings.TrimSpace(path)),
		Interface: strings.TrimSpace(iface),
	}
	if ep.Interface == "" {
		ep.Interface = ep.Service
	}
	if err := ep.Validate(); err != nil {
		return Endpoint{}, err
	}
	return ep, nil
}

// Validate checks each member against the bus naming rules.
func (e Endpoint) Validate() error {
	if !validBusName(e.Service) {
		return fmt.Errorf("invalid service name %q", e.Service)
	}
	if !e.Path.IsValid() {
		return fmt.Errorf("invalid object path %q", e.Path)
	}
	if !validInterfaceName(e.Interface) {
		return fmt.Errorf("invalid interface name %q", e.Interface)
	}
	return nil
}

// Method returns the fully qualified method name on the endpoint interface.
func (e Endpoint) Method(member string) string {
	return e.Interface + "." + member
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s %s %s", e.Service, e.Path, e.Interface)
}

// MatchRule renders the textual match rule used for a signal member.
func (e Endpoint) MatchRule(member string) string {
	return fmt.Sprintf("type='signal',sender='%s',path='%s',interface='%s',member='%s'",
		e.Service, e.Path, e.Interface, member)
}

func validBusName(name string) bool {
	if len(name) == 0 || len(name) > 255 || strings.HasPrefix(name, ":") {
		return false
	}
	return validDotted(name, true)
}

func validInterfaceName(name string) bool {
	if len(name) == 0 || len(name) > 255 {
		return false
	}
	return validDotted(name, false)
}

func validDotted(name string, allowHyphen bool) bool {
	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return false
	}
	for _, part := range parts {
		if !validElement(part, allowHyphen) {
			return false
		}
	}
	return true
}

func validElement(element string, allowHyphen bool) bool {
	if element == "" {
		return false
	}
	for i, r := range element {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r == '-' && allowHyphen:
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// ValidMember reports whether member is a usable method or signal name.
func ValidMember(member string) bool {
	if member == "" || len(member) > 255 || strings.Contains(member, ".") {
		return false
	}
	return validElement(member, false)
}
