package swma

import (
	"errors"
	"fmt"
)

// ErrNonFiniteTick is returned by Add for NaN and infinite ticks. The window is
// left untouched.
var ErrNonFiniteTick = errors.New("swma: non-finite tick")

// ConfigurationError reports an invalid averager setting at construction.
type ConfigurationError struct {
	Field string
	Value int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("swma: invalid %s %d: must be positive", e.Field, e.Value)
}
