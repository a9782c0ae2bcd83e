package driver

import (
	"fmt"
	"math"
	"testing"

	"github.com/NESII/goregrid/params"
	"github.com/NESII/goregrid/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runParams(strategy, layout string) *params.RegridParameters {
	return &params.RegridParameters{
		Title:        "test",
		Variable:     "dpc",
		Strategy:     strategy,
		MemoryLayout: layout,
		Output:       params.OutputDisplay,
	}
}

func TestConstantFieldRoundTrip(t *testing.T) {
	// Source 10x8 holding 5.0 everywhere, destination identical, 4 workers:
	// decomposition and reassembly must not alter a single value.
	src := store.Synthetic(10, 8, 30, 40, -100, -90, "dpc",
		func(lat, lon float64) float64 { return 5.0 })
	dst := store.Synthetic(10, 8, 30, 40, -100, -90, "", nil)
	for _, strategy := range []string{"PlanAndPlace", "GatherConcatenate"} {
		t.Run(strategy, func(t *testing.T) {
			R, err := Run(runParams(strategy, "ColumnMajor"), src, dst, 4, nil)
			require.NoError(t, err)
			nr, nc := R.Dims()
			assert.Equal(t, 10, nr)
			assert.Equal(t, 8, nc)
			for _, v := range R.Data() {
				assert.Equal(t, 5.0, v)
			}
		})
	}
}

func TestStrategyEquivalence(t *testing.T) {
	// Both aggregation protocols must produce bit-identical results, for
	// worker counts that do not divide the row counts.
	src := store.Synthetic(10, 9, 0, 10, 0, 10, "dpc",
		func(lat, lon float64) float64 { return math.Sin(lat) + math.Cos(lon) })
	dst := store.Synthetic(10, 11, 1, 9, 1, 9, "", nil)
	for _, size := range []int{1, 2, 3, 7} {
		for _, layout := range []string{"RowMajor", "ColumnMajor"} {
			t.Run(fmt.Sprintf("size=%d;layout=%s", size, layout), func(t *testing.T) {
				a, err := Run(runParams("PlanAndPlace", layout), src, dst, size, nil)
				require.NoError(t, err)
				b, err := Run(runParams("GatherConcatenate", layout), src, dst, size, nil)
				require.NoError(t, err)
				assert.True(t, a.Equals(b), "strategies disagree")
			})
		}
	}
}

func TestWiderDestinationHasZeroBorder(t *testing.T) {
	// Destination strictly larger and wider than the source: exact 0 outside
	// the source's extent, smoothly varying values inside.
	src := store.Synthetic(12, 12, 2, 6, 2, 6, "dpc",
		func(lat, lon float64) float64 { return lat + 0.5*lon })
	dst := store.Synthetic(16, 16, 0, 8, 0, 8, "", nil)
	R, err := Run(runParams("PlanAndPlace", "ColumnMajor"), src, dst, 3, nil)
	require.NoError(t, err)
	var insideChecked bool
	for i := 0; i < 16; i++ {
		for j := 0; j < 16; j++ {
			lat := dst.Lat.At(i, j)
			lon := dst.Lon.At(i, j)
			if lat < 2 || lat > 6 || lon < 2 || lon > 6 {
				assert.Equal(t, 0.0, R.At(i, j), "outside point (%g,%g)", lat, lon)
			} else {
				assert.InDelta(t, lat+0.5*lon, R.At(i, j), 1e-9)
				insideChecked = true
			}
		}
	}
	assert.True(t, insideChecked)
}

func TestSerialRun(t *testing.T) {
	src := store.Synthetic(6, 6, 0, 5, 0, 5, "dpc",
		func(lat, lon float64) float64 { return lat * lon })
	dst := store.Synthetic(6, 6, 0, 5, 0, 5, "", nil)
	R, err := Run(runParams("GatherConcatenate", "RowMajor"), src, dst, 1, nil)
	require.NoError(t, err)
	assert.True(t, src.Vars["dpc"].Equals(R))
}

func TestConfigurationErrorsBeforeSpawn(t *testing.T) {
	src := store.Synthetic(4, 4, 0, 1, 0, 1, "dpc",
		func(lat, lon float64) float64 { return 1 })
	dst := store.Synthetic(4, 4, 0, 1, 0, 1, "", nil)

	_, err := Run(runParams("Gatherv", "RowMajor"), src, dst, 2, nil)
	assert.Error(t, err)
	_, err = Run(runParams("PlanAndPlace", "Fortran"), src, dst, 2, nil)
	assert.Error(t, err)
	p := runParams("PlanAndPlace", "RowMajor")
	p.Variable = "nosuch"
	_, err = Run(p, src, dst, 2, nil)
	assert.Error(t, err)
}

func TestNonRootsHoldNoResult(t *testing.T) {
	// Run returns only the root's matrix; make sure it is populated and of
	// the destination shape even when the destination differs from the
	// source shape.
	src := store.Synthetic(9, 5, 0, 5, 0, 5, "dpc",
		func(lat, lon float64) float64 { return 2 })
	dst := store.Synthetic(13, 7, 1, 4, 1, 4, "", nil)
	R, err := Run(runParams("PlanAndPlace", "ColumnMajor"), src, dst, 5, nil)
	require.NoError(t, err)
	nr, nc := R.Dims()
	assert.Equal(t, 13, nr)
	assert.Equal(t, 7, nc)
	assert.False(t, R.IsEmpty())
}
