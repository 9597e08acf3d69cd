package schedule

import "fmt"

// InvalidConfigError reports a pace or intensity the generator refuses.
type InvalidConfigError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid schedule config %s=%v: %s", e.Field, e.Value, e.Reason)
}
