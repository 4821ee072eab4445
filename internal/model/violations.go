package model

import (
	"fmt"
	"strings"
)

// Violations collects every failed shape rule of an entity so callers can
// report all of them at once.
type Violations []string

func (v Violations) Error() string {
	return strings.Join(v, ", ")
}

// Violations returns the individual messages.
func (v Violations) Violations() []string {
	return v
}

// Err returns nil when there are no violations.
func (v Violations) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v *Violations) add(format string, args ...any) {
	*v = append(*v, fmt.Sprintf(format, args...))
}
