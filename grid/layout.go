package grid

import "fmt"

// Layout selects the linear storage order of a Buffer.
type Layout uint8

const (
	// RowMajorOrder stores the last axis fastest.
	RowMajorOrder Layout = iota
	// ColMajorOrder stores the first axis fastest.
	ColMajorOrder
)

func NewLayout(name string) (Layout, error) {
	switch name {
	case "RowMajor":
		return RowMajorOrder, nil
	case "ColumnMajor":
		return ColMajorOrder, nil
	}
	return 0, fmt.Errorf("unknown memory layout %q (RowMajor, ColumnMajor)", name)
}

func (l Layout) String() string {
	if l == ColMajorOrder {
		return "ColumnMajor"
	}
	return "RowMajor"
}

// RowMajor is a row-major contiguous flattening of a 2-D slab. It is a
// distinct type on purpose: the placement gather accepts nothing else, so a
// column-major buffer cannot reach it without passing through
// RowMajorContiguous first.
type RowMajor []float64

// Buffer is a worker-local 2-D slab with an explicit storage order.
type Buffer struct {
	Rows, Cols int
	Order      Layout
	Vals       []float64
}

func NewBuffer(rows, cols int, order Layout) Buffer {
	return Buffer{Rows: rows, Cols: cols, Order: order, Vals: make([]float64, rows*cols)}
}

// NewBufferFrom builds a Buffer in the given order from row-major values.
func NewBufferFrom(rows, cols int, order Layout, rowMajorVals []float64) Buffer {
	if len(rowMajorVals) != rows*cols {
		panic(fmt.Errorf("buffer [%d,%d] from %d values", rows, cols, len(rowMajorVals)))
	}
	b := NewBuffer(rows, cols, order)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			b.Set(i, j, rowMajorVals[i*cols+j])
		}
	}
	return b
}

func (b Buffer) index(i, j int) int {
	if b.Order == ColMajorOrder {
		return i + b.Rows*j
	}
	return j + b.Cols*i
}

func (b Buffer) At(i, j int) float64     { return b.Vals[b.index(i, j)] }
func (b Buffer) Set(i, j int, v float64) { b.Vals[b.index(i, j)] = v }

func (b Buffer) Count() int { return b.Rows * b.Cols }

// RowMajorContiguous returns the slab flattened row-major. A row-major buffer
// passes its backing storage through unchanged; a column-major buffer is
// copied into the required order. Applying it to its own output is a no-op.
func (b Buffer) RowMajorContiguous() RowMajor {
	if b.Order == RowMajorOrder {
		return RowMajor(b.Vals)
	}
	out := make([]float64, len(b.Vals))
	for i := 0; i < b.Rows; i++ {
		for j := 0; j < b.Cols; j++ {
			out[j+b.Cols*i] = b.At(i, j)
		}
	}
	return RowMajor(out)
}
