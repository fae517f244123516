package store

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/roach88/brainplus/internal/ir"
)

// Encoder and decoder are safe for concurrent EncodeAll/DecodeAll.
var (
	traceEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	traceDecoder, _ = zstd.NewReader(nil)
)

// marshalTrace converts a trace to zstd-compressed canonical JSON.
// An empty trace is stored as NULL.
func marshalTrace(trace []ir.TraceStep) ([]byte, error) {
	if len(trace) == 0 {
		return nil, nil
	}
	data, err := ir.MarshalCanonical(ir.CanonicalTrace(trace))
	if err != nil {
		return nil, fmt.Errorf("marshal trace: %w", err)
	}
	return traceEncoder.EncodeAll(data, nil), nil
}

// unmarshalTrace reverses marshalTrace.
func unmarshalTrace(blob []byte) ([]ir.TraceStep, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	data, err := traceDecoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress trace: %w", err)
	}
	var trace []ir.TraceStep
	if err := json.Unmarshal(data, &trace); err != nil {
		return nil, fmt.Errorf("unmarshal trace: %w", err)
	}
	return trace, nil
}

// marshalFunctions stores function start offsets as canonical JSON TEXT.
func marshalFunctions(starts []int) (string, error) {
	if starts == nil {
		starts = []int{}
	}
	data, err := ir.MarshalCanonical(starts)
	if err != nil {
		return "", fmt.Errorf("marshal functions: %w", err)
	}
	return string(data), nil
}

func unmarshalFunctions(text string) ([]int, error) {
	starts := []int{}
	if err := json.Unmarshal([]byte(text), &starts); err != nil {
		return nil, fmt.Errorf("unmarshal functions: %w", err)
	}
	return starts, nil
}

// blob returns b, or an empty non-nil slice so NOT NULL columns accept it.
func blob(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
