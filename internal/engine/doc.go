// Package engine implements the BrainPlus execution engine.
//
// The engine fetches one character at a time from a program, decodes it into
// an Instruction and dispatches it against a bounded memory tape and a control
// stack. Loops and subroutine calls share the control stack: '[' pushes its
// own offset so ']' can re-enter the loop guard, and a call letter pushes the
// offset after the call site so '@' can resume there.
//
// ARCHITECTURE:
//
// Single-Owner Dispatch Loop:
// An Engine is driven by exactly one goroutine. Host callbacks (input, output,
// trace) are invoked synchronously and must return before the next
// instruction is fetched. There is no internal locking and no background work.
// Independent engines may run on independent goroutines.
//
// Run Termination:
//  1. Halted: '@' executed with an empty control stack
//  2. Exhausted: the instruction pointer ran past the end of the source
//  3. CycleLimited: a nonzero cycle limit was reached (not an error)
//  4. Faulted: a fatal RuntimeError stopped the run
//
// Frame Discipline:
// Loop and call frames must be properly nested. By default the engine trusts
// the program: '@' resumes at whatever offset is on top of the stack. WithStrictFrames makes the engine check the
// frame kind on every pop and fault with FRAME_MISMATCH instead.
package engine
