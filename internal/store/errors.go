package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

// Validate checks the required comment fields. Discussion is optional.
func (r CommentRow) Validate() error {
	if strings.TrimSpace(r.Observation) == "" {
		return fmt.Errorf("%w: observation is required", ErrValidation)
	}
	if strings.TrimSpace(r.Recommendation) == "" {
		return fmt.Errorf("%w: recommendation is required", ErrValidation)
	}
	return nil
}
