// File: services/appointment/errors.go
package appointment

import "fmt"

// InvalidStageError reports a flow operation attempted outside the stage
// that permits it.
type InvalidStageError struct {
	Op    string
	Stage string
}

func (e *InvalidStageError) Error() string {
	return fmt.Sprintf("appointment: %s not allowed at stage %q", e.Op, e.Stage)
}

// UnknownSlotError reports a time selection that is not among the offered
// slots.
type UnknownSlotError struct {
	Time string
}

func (e *UnknownSlotError) Error() string {
	return fmt.Sprintf("appointment: slot %q is not offered", e.Time)
}
