package helper

import "fmt"

// NewError wraps err with a short context describing the failed step.
func NewError(context string, err error) error {
	return fmt.Errorf("error in %v: %w", context, err)
}
