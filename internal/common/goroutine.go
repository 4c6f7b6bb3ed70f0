// -----------------------------------------------------------------------
// Unit recovery - panic protection for independent units of work
// -----------------------------------------------------------------------

package common

import (
	"fmt"
	"runtime"

	"github.com/ternarybob/arbor"
)

// PanicError is returned by RecoverUnit when the unit panicked.
type PanicError struct {
	Unit  string
	Value interface{}
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Unit, e.Value)
}

// RecoverUnit runs fn and converts a panic into a *PanicError so one failing
// unit cannot take down its siblings.
//
// Example:
//
//	err := common.RecoverUnit(logger, doc.URL, func() error {
//	    return svc.Process(ctx, doc)
//	})
func RecoverUnit(logger arbor.ILogger, unit string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			stackTrace := string(buf[:n])

			if logger != nil {
				logger.Error().
					Str("unit", unit).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", stackTrace).
					Msg("Recovered from panic in work unit - continuing batch")
			}

			err = &PanicError{Unit: unit, Value: r, Stack: stackTrace}
		}
	}()

	return fn()
}
