package pipeline

import (
	"errors"
	"fmt"
)

// Pipeline error constants
var (
	ErrSourceNotFound     = errors.New("source not found")
	ErrMetadataNotFound   = errors.New("metadata file not found")
	ErrNoMetadataKey      = errors.New("metadata file has no key column")
	ErrMissingSourceCode  = errors.New("row has no source code")
	ErrMissingName        = errors.New("row has no indicator name")
	ErrInvalidValue       = errors.New("value is not numeric")
	ErrDuplicateDataValue = errors.New("duplicate fact row")
)

// StageError wraps a failure with the source and stage it happened in, so the
// runner can report which of the isolated failure domains broke.
type StageError struct {
	Source string
	Stage  string
	Err    error
}

// NewStageError creates a stage error wrapping the underlying cause.
func NewStageError(source, stage string, err error) *StageError {
	return &StageError{Source: source, Stage: stage, Err: err}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s stage failed: %v", e.Source, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
