package gdbio

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimeout matches every *TimeoutError.
var ErrTimeout = errors.New("gdbio: timed out waiting for a response")

// TimeoutError reports that gdb produced no output in time.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("gdbio: no response within %s", e.Timeout)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }
