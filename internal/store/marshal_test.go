package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/brainplus/internal/ir"
)

func TestMarshalTrace_RoundTrip(t *testing.T) {
	trace := make([]ir.TraceStep, 0, 500)
	for i := 0; i < 500; i++ {
		trace = append(trace, ir.TraceStep{Cycle: int64(i), IP: i % 7, Op: "+", Pointer: 0, Cell: i % 256})
	}

	blob, err := marshalTrace(trace)
	require.NoError(t, err)

	raw, err := ir.MarshalCanonical(ir.CanonicalTrace(trace))
	require.NoError(t, err)
	assert.Less(t, len(blob), len(raw), "compressed trace should be smaller")

	got, err := unmarshalTrace(blob)
	require.NoError(t, err)
	assert.Equal(t, trace, got)
}

func TestMarshalTrace_Empty(t *testing.T) {
	blob, err := marshalTrace(nil)
	require.NoError(t, err)
	assert.Nil(t, blob)

	got, err := unmarshalTrace(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUnmarshalTrace_Corrupt(t *testing.T) {
	_, err := unmarshalTrace([]byte("not zstd"))
	assert.Error(t, err)
}

func TestMarshalFunctions(t *testing.T) {
	text, err := marshalFunctions([]int{2, 5})
	require.NoError(t, err)
	assert.Equal(t, "[2,5]", text)

	text, err = marshalFunctions(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", text)

	starts, err := unmarshalFunctions("[2,5]")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5}, starts)
}
