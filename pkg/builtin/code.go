package builtin

import "github.com/kristofer/pebble/pkg/object"

// registerCode is intentionally empty: Code values have no user-visible
// attributes (spec.md §4.3).
func registerCode(class *object.Class) {}
