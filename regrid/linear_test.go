package regrid

import (
	"fmt"
	"math"
	"testing"

	"github.com/NESII/goregrid/comm"
	"github.com/NESII/goregrid/grid"
	"github.com/NESII/goregrid/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFields(c *comm.Comm, src, dst *grid.Grid, variable string,
	order grid.Layout) (sf, df *grid.LocalField, err error) {
	sp := grid.PartitionOf(src.Rows, src.Cols, c.Size(), c.Rank())
	dp := grid.PartitionOf(dst.Rows, dst.Cols, c.Size(), c.Rank())
	if sf, err = grid.BuildLocal(src, sp, variable, order); err != nil {
		return
	}
	df, err = grid.BuildLocal(dst, dp, "", order)
	return
}

func TestConstantFieldIsReproducedExactly(t *testing.T) {
	// Identical source and destination grids: every destination point snaps
	// onto a source point, so no value may change at all.
	src := store.Synthetic(10, 8, 30, 40, -100, -90, "dpc",
		func(lat, lon float64) float64 { return 5.0 })
	dst := store.Synthetic(10, 8, 30, 40, -100, -90, "", nil)
	err := comm.Spawn(4, func(c *comm.Comm) error {
		sf, df, err := buildFields(c, src, dst, "dpc", grid.ColMajorOrder)
		if err != nil {
			return err
		}
		eng := NewLinear(c)
		ws, err := eng.ComputeWeights(sf, df, Bilinear, Ignore)
		if err != nil {
			return err
		}
		out, err := eng.Apply(ws, sf)
		if err != nil {
			return err
		}
		for i := 0; i < out.Data.Rows; i++ {
			for j := 0; j < out.Data.Cols; j++ {
				if v := out.Data.At(i, j); v != 5.0 {
					return fmt.Errorf("rank %d point (%d,%d) = %v", c.Rank(), i, j, v)
				}
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestLinearFieldIsInterpolated(t *testing.T) {
	// Barycentric interpolation reproduces a linear function at points that
	// do not coincide with source points.
	src := store.Synthetic(12, 12, 0, 10, 0, 10, "dpc",
		func(lat, lon float64) float64 { return 2*lat + 3*lon })
	dst := store.Synthetic(7, 7, 1.3, 8.7, 1.3, 8.7, "", nil)
	err := comm.Spawn(3, func(c *comm.Comm) error {
		sf, df, err := buildFields(c, src, dst, "dpc", grid.RowMajorOrder)
		if err != nil {
			return err
		}
		eng := NewLinear(c)
		ws, err := eng.ComputeWeights(sf, df, Bilinear, Ignore)
		if err != nil {
			return err
		}
		out, err := eng.Apply(ws, sf)
		if err != nil {
			return err
		}
		for i := 0; i < out.Data.Rows; i++ {
			for j := 0; j < out.Data.Cols; j++ {
				want := 2*out.Lat.At(i, j) + 3*out.Lon.At(i, j)
				if math.Abs(out.Data.At(i, j)-want) > 1e-9 {
					return fmt.Errorf("point (%d,%d): got %v want %v", i, j, out.Data.At(i, j), want)
				}
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestUnmappedPointsAreZero(t *testing.T) {
	// Destination wider than the source: points outside the source's convex
	// extent must come back as exactly 0.
	src := store.Synthetic(8, 8, 2, 6, 2, 6, "dpc",
		func(lat, lon float64) float64 { return 7.5 })
	dst := store.Synthetic(10, 10, 0, 8, 0, 8, "", nil)
	err := comm.Spawn(2, func(c *comm.Comm) error {
		sf, df, err := buildFields(c, src, dst, "dpc", grid.ColMajorOrder)
		if err != nil {
			return err
		}
		eng := NewLinear(c)
		ws, err := eng.ComputeWeights(sf, df, Bilinear, Ignore)
		if err != nil {
			return err
		}
		out, err := eng.Apply(ws, sf)
		if err != nil {
			return err
		}
		for i := 0; i < out.Data.Rows; i++ {
			for j := 0; j < out.Data.Cols; j++ {
				lat, lon := out.Lat.At(i, j), out.Lon.At(i, j)
				outside := lat < 2 || lat > 6 || lon < 2 || lon > 6
				v := out.Data.At(i, j)
				if outside && v != 0 {
					return fmt.Errorf("outside point (%g,%g) = %v", lat, lon, v)
				}
				if !outside && math.Abs(v-7.5) > 1e-9 {
					return fmt.Errorf("inside point (%g,%g) = %v", lat, lon, v)
				}
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestErrorOnUnmappedPolicy(t *testing.T) {
	src := store.Synthetic(4, 4, 2, 3, 2, 3, "dpc",
		func(lat, lon float64) float64 { return 1 })
	dst := store.Synthetic(4, 4, 0, 10, 0, 10, "", nil)
	err := comm.Spawn(1, func(c *comm.Comm) error {
		sf, df, err := buildFields(c, src, dst, "dpc", grid.RowMajorOrder)
		if err != nil {
			return err
		}
		_, err = NewLinear(c).ComputeWeights(sf, df, Bilinear, ErrorOnUnmapped)
		if err == nil {
			return fmt.Errorf("expected an unmapped-point error")
		}
		return nil
	})
	require.NoError(t, err)
}

func TestApplyNeedsData(t *testing.T) {
	src := store.Synthetic(4, 4, 0, 1, 0, 1, "dpc",
		func(lat, lon float64) float64 { return 1 })
	err := comm.Spawn(1, func(c *comm.Comm) error {
		sf, df, err := buildFields(c, src, src, "dpc", grid.RowMajorOrder)
		if err != nil {
			return err
		}
		eng := NewLinear(c)
		ws, err := eng.ComputeWeights(sf, df, Bilinear, Ignore)
		if err != nil {
			return err
		}
		bare, err := grid.BuildLocal(src, sf.Part, "", grid.RowMajorOrder)
		if err != nil {
			return err
		}
		if _, err = eng.Apply(ws, bare); err == nil {
			return fmt.Errorf("expected an error for a dataless source field")
		}
		return nil
	})
	require.NoError(t, err)
}

func TestUnsupportedMethod(t *testing.T) {
	src := store.Synthetic(4, 4, 0, 1, 0, 1, "dpc",
		func(lat, lon float64) float64 { return 1 })
	err := comm.Spawn(1, func(c *comm.Comm) error {
		sf, df, err := buildFields(c, src, src, "dpc", grid.RowMajorOrder)
		if err != nil {
			return err
		}
		_, err = NewLinear(c).ComputeWeights(sf, df, Method(99), Ignore)
		assert.Error(t, err)
		return nil
	})
	require.NoError(t, err)
}
