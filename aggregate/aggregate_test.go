package aggregate

import (
	"fmt"
	"testing"

	"github.com/NESII/goregrid/comm"
	"github.com/NESII/goregrid/grid"
	"github.com/NESII/goregrid/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildGlobal makes a destination-shaped matrix with distinct values.
func buildGlobal(rows, cols int) utils.Matrix {
	m := utils.NewMatrix(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.Set(i, j, float64(i)*1000+float64(j)+0.25)
		}
	}
	return m
}

// localSlab slices the rank's partition of global into a LocalField carrying
// only data, in the given storage order.
func localSlab(global utils.Matrix, p grid.Partition, order grid.Layout) *grid.LocalField {
	b := grid.NewBuffer(p.NumRows(), p.NumCols(), order)
	for i := 0; i < p.NumRows(); i++ {
		for j := 0; j < p.NumCols(); j++ {
			b.Set(i, j, global.At(p.RowLo+i, p.ColLo+j))
		}
	}
	return &grid.LocalField{Part: p, Data: b}
}

func runStrategy(t *testing.T, rows, cols, size int, s Strategy, order grid.Layout) utils.Matrix {
	t.Helper()
	var (
		global = buildGlobal(rows, cols)
		result utils.Matrix
	)
	err := comm.Spawn(size, func(c *comm.Comm) error {
		p := grid.PartitionOf(rows, cols, c.Size(), c.Rank())
		R, err := New(c, rows, cols, s).Aggregate(localSlab(global, p, order))
		if err != nil {
			return err
		}
		if c.Rank() == comm.Root {
			result = R
		} else if !R.IsEmpty() {
			return fmt.Errorf("rank %d holds a result", c.Rank())
		}
		return nil
	})
	require.NoError(t, err)
	return result
}

func TestStrategiesReassembleExactly(t *testing.T) {
	// Row counts deliberately not divisible by the worker counts.
	for _, size := range []int{1, 2, 3, 7} {
		for _, order := range []grid.Layout{grid.RowMajorOrder, grid.ColMajorOrder} {
			t.Run(fmt.Sprintf("size=%d;order=%s", size, order), func(t *testing.T) {
				global := buildGlobal(10, 8)
				a := runStrategy(t, 10, 8, size, PlanAndPlace, order)
				b := runStrategy(t, 10, 8, size, GatherConcatenate, order)
				assert.True(t, global.Equals(a), "plan-and-place differs from input")
				assert.True(t, a.Equals(b), "strategies disagree")
			})
		}
	}
}

func TestStrategiesWithEmptyPartitions(t *testing.T) {
	// More workers than rows: high ranks contribute nothing.
	global := buildGlobal(5, 3)
	a := runStrategy(t, 5, 3, 7, PlanAndPlace, grid.ColMajorOrder)
	b := runStrategy(t, 5, 3, 7, GatherConcatenate, grid.ColMajorOrder)
	assert.True(t, global.Equals(a))
	assert.True(t, a.Equals(b))
}

func TestSizeOneIdentity(t *testing.T) {
	// The lone worker's slab is the result, unchanged.
	global := buildGlobal(6, 4)
	for _, s := range []Strategy{PlanAndPlace, GatherConcatenate} {
		assert.True(t, global.Equals(runStrategy(t, 6, 4, 1, s, grid.ColMajorOrder)))
	}
}

func TestPlanAndPlaceRejectsWrongPartition(t *testing.T) {
	err := comm.Spawn(2, func(c *comm.Comm) error {
		p := grid.PartitionOf(10, 8, c.Size(), c.Rank())
		if c.Rank() == 1 {
			p.RowHi-- // lie about the slab
		}
		b := grid.NewBuffer(p.NumRows(), p.NumCols(), grid.RowMajorOrder)
		_, err := New(c, 10, 8, PlanAndPlace).Aggregate(&grid.LocalField{Part: p, Data: b})
		return err
	})
	require.Error(t, err)
}

func TestNewStrategy(t *testing.T) {
	s, err := NewStrategy("PlanAndPlace")
	require.NoError(t, err)
	assert.Equal(t, PlanAndPlace, s)
	s, err = NewStrategy("GatherConcatenate")
	require.NoError(t, err)
	assert.Equal(t, GatherConcatenate, s)
	_, err = NewStrategy("Gatherv")
	assert.Error(t, err)
}
