package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a lightweight value wrapper around a dense gonum matrix. The zero
// value is "empty" and is used where a rank holds no meaningful array.
type Matrix struct {
	M *mat.Dense
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var m *mat.Dense
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			panic(fmt.Errorf("mismatch in allocation size, NewMatrix([%d,%d]) with data length %d",
				nr, nc, len(dataO[0])))
		}
		m = mat.NewDense(nr, nc, dataO[0])
	} else {
		m = mat.NewDense(nr, nc, nil)
	}
	R = Matrix{M: m}
	return
}

func (m Matrix) IsEmpty() bool { return m.M == nil }

func (m Matrix) Dims() (r, c int)    { return m.M.Dims() }
func (m Matrix) At(i, j int) float64 { return m.M.At(i, j) }

// Data returns the row-major backing storage.
func (m Matrix) Data() []float64 { return m.M.RawMatrix().Data }

func (m Matrix) Set(i, j int, val float64) Matrix { // Changes receiver
	m.M.Set(i, j, val)
	return m
}

// Slice copies the half-open index ranges [I,K) x [J,L) into a new Matrix.
func (m Matrix) Slice(I, K, J, L int) (R Matrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
	)
	if I < 0 || J < 0 || K > nr || L > nc || I > K || J > L {
		panic(fmt.Errorf("unable to Slice[%d:%d,%d:%d] from [%d,%d] matrix", I, K, J, L, nr, nc))
	}
	R = NewMatrix(K-I, L-J)
	for i := I; i < K; i++ {
		for j := J; j < L; j++ {
			R.M.Set(i-I, j-J, m.At(i, j))
		}
	}
	return
}

func (m Matrix) Copy() (R Matrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
	)
	R = NewMatrix(nr, nc)
	R.M.CloneFrom(m.M)
	return
}

func (m Matrix) Transpose() (R Matrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
	)
	R = NewMatrix(nc, nr)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			R.M.Set(j, i, m.At(i, j))
		}
	}
	return
}

func (m Matrix) Row(i int) (r []float64) {
	var (
		_, nc = m.Dims()
	)
	r = make([]float64, nc)
	copy(r, m.M.RawRowView(i))
	return
}

// Equals reports exact element equality, including shape.
func (m Matrix) Equals(A Matrix) bool {
	if m.IsEmpty() || A.IsEmpty() {
		return m.IsEmpty() && A.IsEmpty()
	}
	nr, nc := m.Dims()
	ar, ac := A.Dims()
	if nr != ar || nc != ac {
		return false
	}
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			if m.At(i, j) != A.At(i, j) {
				return false
			}
		}
	}
	return true
}

func (m Matrix) Min() (min float64) {
	min = math.Inf(1)
	for _, val := range m.Data() {
		if val < min {
			min = val
		}
	}
	return
}

func (m Matrix) Max() (max float64) {
	max = math.Inf(-1)
	for _, val := range m.Data() {
		if val > max {
			max = val
		}
	}
	return
}

func (m Matrix) Mean() (mean float64) {
	d := m.Data()
	if len(d) == 0 {
		return
	}
	for _, val := range d {
		mean += val
	}
	mean /= float64(len(d))
	return
}
