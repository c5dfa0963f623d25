package services

import "fmt"

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

// GenerationError means no usable question set could be obtained from the
// text-generation service. Raw carries the reply text when one arrived.
type GenerationError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("question generation failed: %s: %v", e.Reason, e.Err)
	}
	return "question generation failed: " + e.Reason
}

func (e *GenerationError) Unwrap() error { return e.Err }

// AdviceError is produced inside the remediation advisor and always replaced
// by the fallback tips before leaving it.
type AdviceError struct {
	Err error
}

func (e *AdviceError) Error() string { return fmt.Sprintf("remediation advice failed: %v", e.Err) }

func (e *AdviceError) Unwrap() error { return e.Err }
