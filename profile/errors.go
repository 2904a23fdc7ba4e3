package profile

import "fmt"

// MissingParameterError is returned by Builder.Build when a required
// field was never set.
type MissingParameterError struct {
	Name string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("profile: missing required parameter %q", e.Name)
}
