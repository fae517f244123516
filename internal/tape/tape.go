// Package tape implements the bounded byte tape the engine operates on.
//
// Pointer motion is clamped at both ends so a program behaves the same way
// regardless of tape size. Cell arithmetic wraps like an 8-bit register.
package tape

// DefaultSize is the number of cells on a tape when no size is configured.
const DefaultSize = 30000

// Tape is a fixed-capacity sequence of byte cells with a single pointer.
//
// INVARIANTS:
//   - 0 <= pointer < len(cells)
//   - cells never grows or shrinks after New
//
// A Tape is not safe for concurrent use; it belongs to exactly one engine.
type Tape struct {
	cells   []byte
	pointer int
}

// New creates a zero-initialized tape with the given capacity.
// A non-positive size falls back to DefaultSize.
func New(size int) *Tape {
	if size <= 0 {
		size = DefaultSize
	}
	return &Tape{cells: make([]byte, size)}
}

// MoveRight advances the pointer by one, stopping at the last cell.
func (t *Tape) MoveRight() {
	if t.pointer < len(t.cells)-1 {
		t.pointer++
	}
}

// MoveLeft moves the pointer back by one, stopping at cell 0.
func (t *Tape) MoveLeft() {
	if t.pointer > 0 {
		t.pointer--
	}
}

// Increment adds one to the current cell, wrapping 255 to 0.
func (t *Tape) Increment() {
	t.cells[t.pointer]++
}

// Decrement subtracts one from the current cell, wrapping 0 to 255.
func (t *Tape) Decrement() {
	t.cells[t.pointer]--
}

// Read returns the value of the current cell.
func (t *Tape) Read() byte {
	return t.cells[t.pointer]
}

// Write stores v in the current cell.
func (t *Tape) Write(v byte) {
	t.cells[t.pointer] = v
}

// Pointer returns the index of the current cell.
func (t *Tape) Pointer() int {
	return t.pointer
}

// Seek positions the pointer at i, clamped to the tape bounds.
// Hosts use it to prepare a tape before running; programs never call it.
func (t *Tape) Seek(i int) {
	switch {
	case i < 0:
		t.pointer = 0
	case i >= len(t.cells):
		t.pointer = len(t.cells) - 1
	default:
		t.pointer = i
	}
}

// Len returns the tape capacity.
func (t *Tape) Len() int {
	return len(t.cells)
}

// Cell returns the value at index i. It panics if i is out of range.
func (t *Tape) Cell(i int) byte {
	return t.cells[i]
}

// Cells returns a copy of the cells in [from, to). Bounds are clamped.
func (t *Tape) Cells(from, to int) []byte {
	if from < 0 {
		from = 0
	}
	if to > len(t.cells) {
		to = len(t.cells)
	}
	if from >= to {
		return []byte{}
	}
	out := make([]byte, to-from)
	copy(out, t.cells[from:to])
	return out
}

// Used returns a copy of the cells up to and including the highest
// nonzero cell or the pointer, whichever is further right.
// Hosts use it to print or persist a compact view of the tape.
func (t *Tape) Used() []byte {
	end := t.pointer + 1
	for i := len(t.cells) - 1; i >= end; i-- {
		if t.cells[i] != 0 {
			end = i + 1
			break
		}
	}
	return t.Cells(0, end)
}
