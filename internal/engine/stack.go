package engine

import "errors"

// ErrStackEmpty is returned by ControlStack.Pop on an empty stack.
var ErrStackEmpty = errors.New("control stack is empty")

// FrameKind tags what pushed a control stack entry.
type FrameKind uint8

const (
	// LoopFrame holds the offset of an entered '['.
	LoopFrame FrameKind = iota + 1
	// CallFrame holds the resume offset after a call letter.
	CallFrame
)

// String returns "loop" or "call".
func (k FrameKind) String() string {
	switch k {
	case LoopFrame:
		return "loop"
	case CallFrame:
		return "call"
	default:
		return "unknown"
	}
}

// Frame is one control stack entry: a source offset and what pushed it.
type Frame struct {
	Kind   FrameKind
	Offset int
}

// ControlStack is the LIFO shared by loop re-entry and subroutine return.
// Depth is unbounded. The stack does not enforce nesting; see the package
// documentation for the frame discipline.
type ControlStack struct {
	frames []Frame
}

// NewControlStack creates an empty stack.
func NewControlStack() *ControlStack {
	return &ControlStack{}
}

// Push adds a frame on top of the stack.
func (s *ControlStack) Push(f Frame) {
	s.frames = append(s.frames, f)
}

// Pop removes and returns the top frame.
// Returns ErrStackEmpty if there is nothing to pop.
func (s *ControlStack) Pop() (Frame, error) {
	if len(s.frames) == 0 {
		return Frame{}, ErrStackEmpty
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f, nil
}

// Peek returns the top frame without removing it.
func (s *ControlStack) Peek() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

// IsEmpty reports whether the stack has no frames.
func (s *ControlStack) IsEmpty() bool {
	return len(s.frames) == 0
}

// Len returns the current depth.
func (s *ControlStack) Len() int {
	return len(s.frames)
}

// Frames returns a copy of the stack, bottom first.
func (s *ControlStack) Frames() []Frame {
	out := make([]Frame, len(s.frames))
	copy(out, s.frames)
	return out
}
