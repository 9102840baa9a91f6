package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is one argument that does not fit its parameter type.
type ValidationError struct {
	Key    string // Parameter name
	Reason string
	Value  any // Offending argument, nil when missing
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("field %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("field %q: %s (got %T)", e.Key, e.Reason, e.Value)
}

// AggregateError collects every invalid argument of one action call.
// Action is set by the registry once the call is known.
type AggregateError struct {
	Action string
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

// Fields maps each invalid parameter to its reason, for structured error responses.
func (e *AggregateError) Fields() map[string]string {
	out := make(map[string]string, len(e.Errors))
	for _, err := range e.Errors {
		var verr *ValidationError
		if errors.As(err, &verr) {
			out[verr.Key] = verr.Reason
		}
	}
	return out
}

// ValidationErrors returns the validation errors carried anywhere in err's chain, or nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}
