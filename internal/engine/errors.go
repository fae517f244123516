package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents a fatal error detected during execution.
//
// Runtime errors include:
//   - Unknown instruction: a character outside the alphabet was fetched
//   - Stack underflow: ']' popped an empty control stack
//   - Frame mismatch: a pop found the wrong frame kind (strict frames only)
//
// A RuntimeError always stops the run; the engine moves to Faulted and
// stays inspectable.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Offset is the source offset of the failing instruction.
	Offset int

	// Instruction is the failing source character.
	Instruction byte

	// Frame is the popped frame (for frame mismatch errors).
	Frame *Frame
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownInstruction indicates a character outside the alphabet.
	ErrCodeUnknownInstruction RuntimeErrorCode = "UNKNOWN_INSTRUCTION"

	// ErrCodeStackUnderflow indicates a pop on an empty control stack.
	ErrCodeStackUnderflow RuntimeErrorCode = "STACK_UNDERFLOW"

	// ErrCodeFrameMismatch indicates a loop frame where a call frame was
	// expected, or the reverse.
	ErrCodeFrameMismatch RuntimeErrorCode = "FRAME_MISMATCH"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s (offset=%d, instruction=%q)", e.Code, e.Message, e.Offset, e.Instruction)
}

// NewUnknownInstructionError creates a RuntimeError for character c at offset.
func NewUnknownInstructionError(offset int, c byte) *RuntimeError {
	return &RuntimeError{
		Code:        ErrCodeUnknownInstruction,
		Message:     fmt.Sprintf("unknown instruction %q", c),
		Offset:      offset,
		Instruction: c,
	}
}

// NewStackUnderflowError creates a RuntimeError for a pop on an empty stack.
func NewStackUnderflowError(offset int, c byte) *RuntimeError {
	return &RuntimeError{
		Code:        ErrCodeStackUnderflow,
		Message:     "no open loop or call to return to",
		Offset:      offset,
		Instruction: c,
	}
}

// NewFrameMismatchError creates a RuntimeError for a popped frame of the
// wrong kind.
func NewFrameMismatchError(offset int, c byte, got Frame, want FrameKind) *RuntimeError {
	return &RuntimeError{
		Code:        ErrCodeFrameMismatch,
		Message:     fmt.Sprintf("expected %s frame, popped %s frame from offset %d", want, got.Kind, got.Offset),
		Offset:      offset,
		Instruction: c,
		Frame:       &got,
	}
}

// IsUnknownInstruction returns true if err is an unknown instruction error.
// Uses errors.As to handle wrapped errors.
func IsUnknownInstruction(err error) bool {
	return hasCode(err, ErrCodeUnknownInstruction)
}

// IsStackUnderflow returns true if err is a stack underflow error.
// Uses errors.As to handle wrapped errors.
func IsStackUnderflow(err error) bool {
	return hasCode(err, ErrCodeStackUnderflow)
}

// IsFrameMismatch returns true if err is a frame mismatch error.
// Uses errors.As to handle wrapped errors.
func IsFrameMismatch(err error) bool {
	return hasCode(err, ErrCodeFrameMismatch)
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}
