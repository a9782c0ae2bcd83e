package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
)

// SparseRows accumulates matrix entries strictly in row-append order and
// produces a CSR matrix whose storage order matches the append order. Rows are
// never reordered, so a matrix-vector product accumulates in a reproducible
// sequence run to run.
type SparseRows struct {
	nr, nc int
	ia     []int
	ja     []int
	data   []float64
	curRow int
}

func NewSparseRows(nr, nc int) (s *SparseRows) {
	s = &SparseRows{
		nr: nr,
		nc: nc,
		ia: make([]int, 1, nr+1),
	}
	return
}

// Append adds an entry to row i. Rows must be appended in nondecreasing order;
// within a row, entries are stored in the order given.
func (s *SparseRows) Append(i, j int, v float64) {
	if i < 0 || i >= s.nr || j < 0 || j >= s.nc {
		panic(fmt.Errorf("sparse entry (%d,%d) out of bounds for [%d,%d]", i, j, s.nr, s.nc))
	}
	if i < s.curRow {
		panic(fmt.Errorf("sparse row %d appended after row %d", i, s.curRow))
	}
	for s.curRow < i {
		s.ia = append(s.ia, len(s.ja))
		s.curRow++
	}
	s.ja = append(s.ja, j)
	s.data = append(s.data, v)
}

func (s *SparseRows) ToCSR() *sparse.CSR {
	for s.curRow < s.nr {
		s.ia = append(s.ia, len(s.ja))
		s.curRow++
	}
	return sparse.NewCSR(s.nr, s.nc, s.ia, s.ja, s.data)
}

// CSRMulVec computes y = A*x, accumulating each row left to right.
func CSRMulVec(A *sparse.CSR, x, y []float64) {
	var (
		nr, nc = A.Dims()
	)
	if len(x) != nc || len(y) != nr {
		panic(fmt.Errorf("CSRMulVec dimension mismatch: A is [%d,%d], x %d, y %d", nr, nc, len(x), len(y)))
	}
	for i := range y {
		y[i] = 0
	}
	A.DoNonZero(func(i, j int, v float64) {
		y[i] += v * x[j]
	})
}
