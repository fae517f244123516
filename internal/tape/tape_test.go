package tape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultSize(t *testing.T) {
	tp := New(0)
	assert.Equal(t, DefaultSize, tp.Len())
	assert.Equal(t, 0, tp.Pointer())
	assert.Equal(t, byte(0), tp.Read())

	tp = New(-5)
	assert.Equal(t, DefaultSize, tp.Len())
}

func TestTape_MoveLeftClampsAtZero(t *testing.T) {
	tp := New(10)
	tp.MoveLeft()
	assert.Equal(t, 0, tp.Pointer())

	tp.MoveRight()
	tp.MoveLeft()
	tp.MoveLeft()
	assert.Equal(t, 0, tp.Pointer())
}

func TestTape_MoveRightClampsAtLastCell(t *testing.T) {
	tp := New(3)
	for i := 0; i < 10; i++ {
		tp.MoveRight()
	}
	assert.Equal(t, 2, tp.Pointer())

	tp.MoveLeft()
	assert.Equal(t, 1, tp.Pointer())
}

func TestTape_IncrementWraps(t *testing.T) {
	tp := New(1)
	for i := 0; i < 255; i++ {
		tp.Increment()
	}
	assert.Equal(t, byte(255), tp.Read())

	tp.Increment()
	assert.Equal(t, byte(0), tp.Read())
}

func TestTape_DecrementWraps(t *testing.T) {
	tp := New(1)
	tp.Decrement()
	assert.Equal(t, byte(255), tp.Read())

	tp.Decrement()
	assert.Equal(t, byte(254), tp.Read())
}

func TestTape_ReadWrite(t *testing.T) {
	tp := New(4)
	tp.Write(42)
	tp.MoveRight()
	tp.Write(7)

	assert.Equal(t, byte(7), tp.Read())
	assert.Equal(t, byte(42), tp.Cell(0))
	assert.Equal(t, []byte{42, 7}, tp.Cells(0, 2))
}

func TestTape_Seek(t *testing.T) {
	tp := New(5)

	tp.Seek(3)
	assert.Equal(t, 3, tp.Pointer())

	tp.Seek(-1)
	assert.Equal(t, 0, tp.Pointer())

	tp.Seek(99)
	assert.Equal(t, 4, tp.Pointer())
}

func TestTape_CellsClampsAndCopies(t *testing.T) {
	tp := New(3)
	tp.Write(9)

	cells := tp.Cells(-4, 100)
	require.Len(t, cells, 3)
	assert.Equal(t, byte(9), cells[0])

	cells[0] = 1
	assert.Equal(t, byte(9), tp.Cell(0), "Cells must return a copy")

	assert.Empty(t, tp.Cells(2, 1))
}

func TestTape_Used(t *testing.T) {
	tp := New(100)
	assert.Equal(t, []byte{0}, tp.Used())

	tp.Write(1)
	tp.Seek(4)
	tp.Write(5)
	tp.Seek(2)
	assert.Equal(t, []byte{1, 0, 0, 0, 5}, tp.Used())

	tp.Seek(7)
	assert.Len(t, tp.Used(), 8)
}
