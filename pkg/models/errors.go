package models

import (
	"errors"
	"fmt"
)

var (
	ErrModelNotFound  = errors.New("model not found")
	ErrDuplicateModel = errors.New("duplicate model id")
	ErrValidation     = errors.New("validation error")
)

type ModelNotFoundError struct {
	ID string
}

func (e *ModelNotFoundError) Error() string {
	if e == nil {
		return ErrModelNotFound.Error()
	}
	return fmt.Sprintf("%s: %q", ErrModelNotFound, e.ID)
}

func (e *ModelNotFoundError) Is(target error) bool { return target == ErrModelNotFound }

type DuplicateModelError struct {
	ID string
}

func (e *DuplicateModelError) Error() string {
	if e == nil {
		return ErrDuplicateModel.Error()
	}
	return fmt.Sprintf("%s: %q", ErrDuplicateModel, e.ID)
}

func (e *DuplicateModelError) Is(target error) bool { return target == ErrDuplicateModel }

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ErrValidation.Error()
	}
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s (%s): %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
