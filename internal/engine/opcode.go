package engine

import "fmt"

// Kind is the closed set of instruction kinds.
type Kind uint8

const (
	OpRight     Kind = iota + 1 // >  move the tape pointer right
	OpLeft                      // <  move the tape pointer left
	OpInc                       // +  increment the current cell
	OpDec                       // -  decrement the current cell
	OpOutput                    // .  emit the current cell
	OpInput                     // ,  read a byte into the current cell
	OpLoopStart                 // [  enter or skip a loop
	OpLoopEnd                   // ]  re-enter or leave a loop
	OpCall                      // a..z  call a function
	OpReturn                    // @  return from a function or exit
)

var kindNames = map[Kind]string{
	OpRight:     "right",
	OpLeft:      "left",
	OpInc:       "inc",
	OpDec:       "dec",
	OpOutput:    "output",
	OpInput:     "input",
	OpLoopStart: "loop_start",
	OpLoopEnd:   "loop_end",
	OpCall:      "call",
	OpReturn:    "return",
}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Instruction is a decoded source character.
type Instruction struct {
	Kind Kind
	Char byte // the source character
	Func int  // function index, only meaningful for OpCall
}

// String returns the source character of the instruction.
func (in Instruction) String() string {
	return string(in.Char)
}

// Decode maps a source character to its instruction.
// The second result is false for characters outside the alphabet.
func Decode(c byte) (Instruction, bool) {
	switch c {
	case '>':
		return Instruction{Kind: OpRight, Char: c}, true
	case '<':
		return Instruction{Kind: OpLeft, Char: c}, true
	case '+':
		return Instruction{Kind: OpInc, Char: c}, true
	case '-':
		return Instruction{Kind: OpDec, Char: c}, true
	case '.':
		return Instruction{Kind: OpOutput, Char: c}, true
	case ',':
		return Instruction{Kind: OpInput, Char: c}, true
	case '[':
		return Instruction{Kind: OpLoopStart, Char: c}, true
	case ']':
		return Instruction{Kind: OpLoopEnd, Char: c}, true
	case '@':
		return Instruction{Kind: OpReturn, Char: c}, true
	}
	if c >= 'a' && c <= 'z' {
		return Instruction{Kind: OpCall, Char: c, Func: int(c - 'a')}, true
	}
	return Instruction{Char: c}, false
}

// Alphabet lists every character the engine accepts, in a stable order.
func Alphabet() []byte {
	out := []byte("><+-.,[]@")
	for c := byte('a'); c <= 'z'; c++ {
		out = append(out, c)
	}
	return out
}
