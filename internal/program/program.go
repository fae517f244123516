// Package program holds BrainPlus source text and its function table.
//
// A Program is immutable. Functions are declared by the '@' delimiter: the
// body of function i starts right after the i-th '@' and runs up to the
// next '@' (or the end of the source). Everything before the first '@' is
// the main program.
//
// Editing a function yields a new Program; the receiver is never changed.
package program

import (
	"strings"
)

// Delimiter separates the main program from function bodies and marks
// a return (or exit) at run time.
const Delimiter = '@'

// MaxFunctions is the number of call letters, 'a' through 'z'.
const MaxFunctions = 26

// Program is BrainPlus source text plus its derived function table.
type Program struct {
	source    string
	functions []int // offset of the first character of each body, in source order
}

// Build scans source once and records the offset following every
// delimiter. It returns a *ConfigurationError when more than
// MaxFunctions functions are declared.
func Build(source string) (*Program, error) {
	var functions []int
	for i := 0; i < len(source); i++ {
		if source[i] == Delimiter {
			functions = append(functions, i+1)
		}
	}
	if len(functions) > MaxFunctions {
		return nil, NewTooManyFunctionsError(len(functions))
	}
	return &Program{source: source, functions: functions}, nil
}

// MustBuild is like Build but panics on error.
// Use only in tests or with literal sources.
func MustBuild(source string) *Program {
	p, err := Build(source)
	if err != nil {
		panic(err)
	}
	return p
}

// Source returns the full program text.
func (p *Program) Source() string {
	return p.source
}

// Len returns the number of instructions (characters) in the source.
func (p *Program) Len() int {
	return len(p.source)
}

// At returns the instruction at offset ip. It panics if ip is out of range.
func (p *Program) At(ip int) byte {
	return p.source[ip]
}

// FunctionCount returns the number of declared functions.
func (p *Program) FunctionCount() int {
	return len(p.functions)
}

// FunctionStart returns the body offset of function i.
// It panics if i is not a declared function.
func (p *Program) FunctionStart(i int) int {
	return p.functions[i]
}

// Functions returns a copy of the function start offsets.
func (p *Program) Functions() []int {
	out := make([]int, len(p.functions))
	copy(out, p.functions)
	return out
}

// Body returns the source of function i.
//
// Querying an undeclared function is a programming error: Body panics with
// an index out of range fault. Use Function for a checked lookup.
func (p *Program) Body(i int) string {
	start := p.functions[i]
	end := len(p.source)
	if i+1 < len(p.functions) {
		end = p.functions[i+1] - 1
	}
	return p.source[start:end]
}

// Function returns the body of function i and whether it is declared.
func (p *Program) Function(i int) (string, bool) {
	if i < 0 || i >= len(p.functions) {
		return "", false
	}
	return p.Body(i), true
}

// Prefix returns the main program: the source before the first delimiter.
func (p *Program) Prefix() string {
	if len(p.functions) == 0 {
		return p.source
	}
	return p.source[:p.functions[0]-1]
}

// WithFunction returns a new Program whose function i has the given body.
//
// When i is beyond the last declared function, empty functions are
// inserted so indices stay contiguous. The receiver is not modified.
// Bodies containing the delimiter would shift every later index, so the
// result is rebuilt from text and may fail with a ConfigurationError.
func (p *Program) WithFunction(i int, body string) (*Program, error) {
	if i < 0 {
		return nil, &ConfigurationError{
			Code:    ErrCodeInvalidFunction,
			Message: "function index must not be negative",
			Index:   i,
		}
	}
	if i >= MaxFunctions {
		return nil, NewTooManyFunctionsError(i + 1)
	}

	parts := make([]string, 0, i+2)
	parts = append(parts, p.Prefix())
	for n := 0; n < len(p.functions); n++ {
		parts = append(parts, p.Body(n))
	}
	for len(parts) < i+2 {
		parts = append(parts, "")
	}
	parts[i+1] = body

	return Build(strings.Join(parts, string(Delimiter)))
}

// CallLetter returns the instruction that calls function i.
func CallLetter(i int) byte {
	return byte('a' + i)
}
