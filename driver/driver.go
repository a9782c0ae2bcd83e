// Package driver runs the full regridding pipeline: decompose both grids,
// build local fields, compute and apply interpolation weights, and reassemble
// the global result on the root worker.
package driver

import (
	"fmt"

	"github.com/NESII/goregrid/aggregate"
	"github.com/NESII/goregrid/comm"
	"github.com/NESII/goregrid/grid"
	"github.com/NESII/goregrid/params"
	"github.com/NESII/goregrid/regrid"
	"github.com/NESII/goregrid/utils"
	"github.com/sirupsen/logrus"
)

// Run executes the pipeline on size workers and returns the root worker's
// global result of the destination grid's shape. Configuration and shape
// errors surface before any worker starts; an error inside the run aborts the
// whole group and no result is produced.
func Run(p *params.RegridParameters, src, dst *grid.Grid, size int,
	log *logrus.Logger) (utils.Matrix, error) {
	if err := p.Validate(); err != nil {
		return utils.Matrix{}, err
	}
	if _, ok := src.Vars[p.Variable]; !ok {
		return utils.Matrix{}, fmt.Errorf("source grid has no variable %q", p.Variable)
	}
	layout, err := grid.NewLayout(p.MemoryLayout)
	if err != nil {
		return utils.Matrix{}, err
	}
	strategy, err := aggregate.NewStrategy(p.Strategy)
	if err != nil {
		return utils.Matrix{}, err
	}
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}

	var result utils.Matrix
	err = comm.Spawn(size, func(c *comm.Comm) error {
		R, err := runWorker(c, p.Variable, layout, strategy, src, dst,
			log.WithField("rank", c.Rank()))
		if err != nil {
			return err
		}
		if c.Rank() == comm.Root {
			result = R
		}
		return nil
	})
	if err != nil {
		return utils.Matrix{}, err
	}
	return result, nil
}

func runWorker(c *comm.Comm, variable string, layout grid.Layout,
	strategy aggregate.Strategy, src, dst *grid.Grid, log *logrus.Entry) (utils.Matrix, error) {
	srcPart := grid.PartitionOf(src.Rows, src.Cols, c.Size(), c.Rank())
	dstPart := grid.PartitionOf(dst.Rows, dst.Cols, c.Size(), c.Rank())
	log.Debugf("source rows [%d,%d), destination rows [%d,%d)",
		srcPart.RowLo, srcPart.RowHi, dstPart.RowLo, dstPart.RowHi)

	srcField, err := grid.BuildLocal(src, srcPart, variable, layout)
	if err != nil {
		return utils.Matrix{}, err
	}
	dstField, err := grid.BuildLocal(dst, dstPart, "", layout)
	if err != nil {
		return utils.Matrix{}, err
	}

	eng := regrid.NewLinear(c)
	log.Debug("computing interpolation weights")
	ws, err := eng.ComputeWeights(srcField, dstField, regrid.Bilinear, regrid.Ignore)
	if err != nil {
		return utils.Matrix{}, err
	}
	log.Debug("applying weights")
	out, err := eng.Apply(ws, srcField)
	if err != nil {
		return utils.Matrix{}, err
	}

	// Every rank's local destination field must exist before any aggregation
	// traffic starts.
	if err = comm.Barrier(c); err != nil {
		return utils.Matrix{}, err
	}
	log.Debugf("aggregating with %s", strategy)
	agg := aggregate.New(c, dst.Rows, dst.Cols, strategy)
	return agg.Aggregate(out)
}
