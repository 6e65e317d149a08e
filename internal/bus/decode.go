package bus

import (
	"fmt"
	"reflect"

	"github.com/godbus/dbus/v5"
)

// Store decodes a message body into dest pointers. Unlike dbus.Store it
// requires each value's type to match its destination exactly, so a uint32
// never decodes into a string through Go's integer conversion.
func Store(body []any, dest ...any) error {
	if len(body) != len(dest) {
		return fmt.Errorf("body has %d values, want %d", len(body), len(dest))
	}
	values := make([]any, len(body))
	for i := range body {
		value := body[i]
		if variant, ok := value.(dbus.Variant); ok {
			value = variant.Value()
		}
		target := reflect.TypeOf(dest[i])
		if target == nil || target.Kind() != reflect.Pointer {
			return fmt.Errorf("destination %d is not a pointer", i)
		}
		if value == nil || reflect.TypeOf(value) != target.Elem() {
			return fmt.Errorf("value %d has type %T, want %s", i, value, target.Elem())
		}
		values[i] = value
	}
	return dbus.Store(values, dest...)
}
