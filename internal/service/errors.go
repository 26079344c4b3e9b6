package service

import (
	"errors"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError carries the full list of user-facing messages that blocked
// a save. Nothing is persisted when one is returned.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func validationErr(messages []string) error {
	return &ValidationError{Messages: messages}
}
