package services

import (
	"errors"
	"fmt"
)

var (
	ErrProposalNotFound = errors.New("proposal not found")
	ErrExamSetNotFound  = errors.New("exam set not found")
	ErrExamNotFound     = errors.New("exam not found")
	ErrUserNotFound     = errors.New("user not found")

	// Returned when a status update names the status the proposal already has.
	ErrNoStatusChange = errors.New("proposal already has the requested status")
)

// NotFoundError carries the entity kind and id for 404 mapping.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func NewNotFoundError(resource string, id uint) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ConflictError signals a uniqueness violation (plan code, set name, exam
// code/name/file) or a linking conflict such as an already-assigned exam set.
type ConflictError struct {
	Resource string
	Field    string
	Value    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Resource, e.Field, e.Value)
}

func NewConflictError(resource, field, value string) *ConflictError {
	return &ConflictError{Resource: resource, Field: field, Value: value}
}

// ImmutableStateError is returned for any mutation of an approved proposal.
type ImmutableStateError struct {
	Resource string
	ID       uint
	Reason   string
}

func (e *ImmutableStateError) Error() string {
	return fmt.Sprintf("%s %d cannot be modified: %s", e.Resource, e.ID, e.Reason)
}

func NewImmutableStateError(resource string, id uint, reason string) *ImmutableStateError {
	return &ImmutableStateError{Resource: resource, ID: id, Reason: reason}
}

// PermissionError is returned when the acting user may not touch the record.
type PermissionError struct {
	UserID   uint
	Resource string
	ID       uint
	Action   string
	Reason   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %d cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ID, e.Reason)
}

func NewPermissionError(userID uint, id uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:   userID,
		Resource: resource,
		ID:       id,
		Action:   action,
		Reason:   reason,
	}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return true
	}
	return errors.Is(err, ErrProposalNotFound) ||
		errors.Is(err, ErrExamSetNotFound) ||
		errors.Is(err, ErrExamNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

func IsImmutableState(err error) bool {
	var ie *ImmutableStateError
	return errors.As(err, &ie)
}

func IsPermissionDenied(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}
