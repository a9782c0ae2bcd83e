package aggregate

import (
	"fmt"

	"github.com/NESII/goregrid/comm"
	"github.com/NESII/goregrid/grid"
	"github.com/NESII/goregrid/utils"
)

// Strategy selects how per-rank destination slabs are reassembled on the root.
// Both strategies produce identical results; PlanAndPlace moves flat buffers
// with explicit placement, GatherConcatenate moves whole field objects and
// relies on rank-ordered concatenation.
type Strategy uint8

const (
	PlanAndPlace Strategy = iota
	GatherConcatenate
)

func NewStrategy(name string) (Strategy, error) {
	switch name {
	case "PlanAndPlace":
		return PlanAndPlace, nil
	case "GatherConcatenate":
		return GatherConcatenate, nil
	}
	return 0, fmt.Errorf("unknown aggregation strategy %q (PlanAndPlace, GatherConcatenate)", name)
}

func (s Strategy) String() string {
	if s == GatherConcatenate {
		return "GatherConcatenate"
	}
	return "PlanAndPlace"
}

// GatherPlan maps each rank to the flat placement of its contribution in the
// row-major global buffer. Root-only; derived from the destination partitions.
type GatherPlan struct {
	SendCounts    []int
	Displacements []int
}

// Aggregator reassembles local destination fields into the global result on
// the root rank. All its methods are collective.
type Aggregator struct {
	c          *comm.Comm
	rows, cols int // destination global shape
	strategy   Strategy
}

func New(c *comm.Comm, dstRows, dstCols int, strategy Strategy) *Aggregator {
	return &Aggregator{c: c, rows: dstRows, cols: dstCols, strategy: strategy}
}

// Aggregate collects every rank's local destination field into one global
// array on the root. The root returns the populated matrix; every other rank
// returns an empty one. Callers must ensure every rank's field exists before
// any rank enters (the driver barriers first).
func (a *Aggregator) Aggregate(local *grid.LocalField) (utils.Matrix, error) {
	switch a.strategy {
	case PlanAndPlace:
		return a.planAndPlace(local)
	case GatherConcatenate:
		return a.gatherConcatenate(local)
	}
	return utils.Matrix{}, fmt.Errorf("unknown aggregation strategy %d", a.strategy)
}

func (a *Aggregator) planAndPlace(local *grid.LocalField) (utils.Matrix, error) {
	// The displacement comes from the recomputed partition while the count
	// comes from the field itself; the coverage invariant says they agree,
	// and we verify rather than assume it.
	p := grid.PartitionOf(a.rows, a.cols, a.c.Size(), a.c.Rank())
	if p != local.Part || local.Data.Count() != p.Count() {
		err := fmt.Errorf("local field %v does not match recomputed partition %v for shape [%d,%d]",
			local.Part, p, a.rows, a.cols)
		a.c.Abort(err)
		return utils.Matrix{}, err
	}
	counts, err := comm.Gather(a.c, p.Count())
	if err != nil {
		return utils.Matrix{}, err
	}
	displs, err := comm.Gather(a.c, p.Displacement(a.cols))
	if err != nil {
		return utils.Matrix{}, err
	}
	var plan *GatherPlan
	if a.c.Rank() == comm.Root {
		plan = &GatherPlan{SendCounts: counts, Displacements: displs}
	}
	return a.placeGather(local.Data.RowMajorContiguous(), plan)
}

// placeGather sends each rank's flat buffer to the root, which places count
// elements at the rank's displacement. The send buffer type is RowMajor: a
// column-major slab cannot arrive here without conversion.
func (a *Aggregator) placeGather(send grid.RowMajor, plan *GatherPlan) (utils.Matrix, error) {
	bufs, err := comm.Gather(a.c, send)
	if err != nil {
		return utils.Matrix{}, err
	}
	if a.c.Rank() != comm.Root {
		return utils.Matrix{}, nil
	}
	global := make([]float64, a.rows*a.cols)
	for n, buf := range bufs {
		if len(buf) != plan.SendCounts[n] {
			err = fmt.Errorf("rank %d sent %d elements, plan expects %d", n, len(buf), plan.SendCounts[n])
			a.c.Abort(err)
			return utils.Matrix{}, err
		}
		copy(global[plan.Displacements[n]:plan.Displacements[n]+plan.SendCounts[n]], buf)
	}
	return utils.NewMatrix(a.rows, a.cols, global), nil
}

func (a *Aggregator) gatherConcatenate(local *grid.LocalField) (utils.Matrix, error) {
	fields, err := comm.Gather(a.c, local)
	if err != nil {
		return utils.Matrix{}, err
	}
	if a.c.Rank() != comm.Root {
		return utils.Matrix{}, nil
	}
	R := utils.NewMatrix(a.rows, a.cols)
	row := 0
	for n, f := range fields {
		if f.Data.Cols != a.cols && f.Data.Rows != 0 {
			err = fmt.Errorf("rank %d sent a %d-column slab for a %d-column grid", n, f.Data.Cols, a.cols)
			a.c.Abort(err)
			return utils.Matrix{}, err
		}
		for i := 0; i < f.Data.Rows; i++ {
			for j := 0; j < f.Data.Cols; j++ {
				R.Set(row+i, j, f.Data.At(i, j))
			}
		}
		row += f.Data.Rows
	}
	if row != a.rows {
		err = fmt.Errorf("concatenated %d rows for a %d-row grid", row, a.rows)
		a.c.Abort(err)
		return utils.Matrix{}, err
	}
	return R, nil
}
