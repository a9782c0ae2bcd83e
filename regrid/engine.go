package regrid

import (
	"fmt"

	"github.com/NESII/goregrid/grid"
	"github.com/james-bowman/sparse"
)

// Method selects the interpolation scheme.
type Method uint8

const (
	Bilinear Method = iota
)

// UnmappedPolicy decides what happens to destination points with no covering
// source cell.
type UnmappedPolicy uint8

const (
	// Ignore leaves unmapped destination points at exactly 0.
	Ignore UnmappedPolicy = iota
	// ErrorOnUnmapped fails the weight computation instead.
	ErrorOnUnmapped
)

// WeightSet maps a worker's local destination points onto the global source
// point set. Rows index the local destination slab row-major; columns index
// the global source grid row-major.
type WeightSet struct {
	W       *sparse.CSR
	NSrc    int
	DstPart grid.Partition
	dst     *grid.LocalField
}

// Engine computes interpolation weights and applies them. Both operations are
// collective: every rank in the group must call them together, and an
// implementation is free to exchange source data internally, so source and
// destination partitions need not align across ranks.
type Engine interface {
	ComputeWeights(src, dst *grid.LocalField, method Method, policy UnmappedPolicy) (*WeightSet, error)
	Apply(ws *WeightSet, src *grid.LocalField) (*grid.LocalField, error)
}

func (m Method) String() string {
	switch m {
	case Bilinear:
		return "bilinear"
	}
	return fmt.Sprintf("Method(%d)", m)
}
