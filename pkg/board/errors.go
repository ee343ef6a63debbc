package board

import (
	"errors"
	"fmt"
)

var (
	ErrBoardNotFound   = errors.New("board not found")
	ErrNodeNotFound    = errors.New("node not found")
	ErrNodeExists      = errors.New("node already exists")
	ErrVersionConflict = errors.New("version conflict")
	ErrValidation      = errors.New("validation error")
	ErrStoreClosed     = errors.New("store closed")
)

type BoardNotFoundError struct {
	BoardID string
}

func (e *BoardNotFoundError) Error() string {
	if e == nil {
		return ErrBoardNotFound.Error()
	}
	return fmt.Sprintf("%s: %q", ErrBoardNotFound, e.BoardID)
}

func (e *BoardNotFoundError) Is(target error) bool { return target == ErrBoardNotFound }

type NodeNotFoundError struct {
	BoardID string
	NodeID  string
}

func (e *NodeNotFoundError) Error() string {
	if e == nil {
		return ErrNodeNotFound.Error()
	}
	return fmt.Sprintf("%s: %q on board %q", ErrNodeNotFound, e.NodeID, e.BoardID)
}

func (e *NodeNotFoundError) Is(target error) bool { return target == ErrNodeNotFound }

// VersionConflictError is returned when a node's history changed between
// the snapshot a dispatch was built from and the append of its result.
type VersionConflictError struct {
	BoardID  string
	NodeID   string
	Expected uint64
	Actual   uint64
}

func (e *VersionConflictError) Error() string {
	if e == nil {
		return ErrVersionConflict.Error()
	}
	return fmt.Sprintf("node %q on board %q version conflict: expected=%d actual=%d", e.NodeID, e.BoardID, e.Expected, e.Actual)
}

func (e *VersionConflictError) Is(target error) bool { return target == ErrVersionConflict }

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
