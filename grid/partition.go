package grid

// Partition is a worker's half-open slice of a grid's global index space.
// Decomposition is along rows only, so ColLo is always 0 and ColHi the full
// column count.
type Partition struct {
	RowLo, RowHi int
	ColLo, ColHi int
}

// PartitionOf splits rows into size contiguous bands with a maximum imbalance
// of one row, the remainder spread over the lowest ranks. It is a pure
// function of its arguments: any rank can recompute any other rank's
// partition. size=1 yields the whole grid; size greater than rows yields
// zero-row partitions on the high ranks, which is a valid state.
func PartitionOf(rows, cols, size, rank int) (p Partition) {
	var (
		nband            = rows / size
		remainder        = rows % size
		startAdd, endAdd int
	)
	if remainder != 0 { // spread the remainder over the first bands evenly
		if rank+1 > remainder {
			startAdd = remainder
		} else {
			startAdd = rank
			endAdd = 1
		}
	}
	p.RowLo = rank*nband + startAdd
	p.RowHi = p.RowLo + nband + endAdd
	p.ColLo = 0
	p.ColHi = cols
	return
}

func (p Partition) NumRows() int { return p.RowHi - p.RowLo }
func (p Partition) NumCols() int { return p.ColHi - p.ColLo }

// Count is the flattened element count of the partition's slab.
func (p Partition) Count() int { return p.NumRows() * p.NumCols() }

// Displacement is the flattened offset of the partition's first element in a
// row-major global buffer with globalCols columns. Only meaningful for
// row-contiguous partitions placed into a row-major target.
func (p Partition) Displacement(globalCols int) int { return p.RowLo * globalCols }
