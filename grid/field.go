package grid

import (
	"fmt"

	"github.com/NESII/goregrid/utils"
)

// LocalField is one worker's slab of a grid: coordinates and, when a variable
// was named, data, all of shape (NumRows, NumCols) in the requested storage
// order. Owned exclusively by the worker that built it.
type LocalField struct {
	Part     Partition
	Lat, Lon Buffer
	Data     Buffer // zero-count when no variable was requested
}

// ShapeError reports a partition that falls outside its grid's index space, a
// decomposer/builder contract violation.
type ShapeError struct {
	Part       Partition
	Rows, Cols int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("partition rows [%d,%d) cols [%d,%d) outside grid shape [%d,%d]",
		e.Part.RowLo, e.Part.RowHi, e.Part.ColLo, e.Part.ColHi, e.Rows, e.Cols)
}

// BuildLocal extracts the partition's coordinate slabs, and the slab of the
// named variable when varName is non-empty, into buffers of the given order.
// Pure index-range extraction; no interpolation logic.
func BuildLocal(g *Grid, p Partition, varName string, order Layout) (*LocalField, error) {
	if p.RowLo < 0 || p.RowLo > p.RowHi || p.RowHi > g.Rows ||
		p.ColLo < 0 || p.ColLo > p.ColHi || p.ColHi > g.Cols {
		return nil, &ShapeError{Part: p, Rows: g.Rows, Cols: g.Cols}
	}
	lf := &LocalField{
		Part: p,
		Lat:  sliceBuffer(g.Lat, p, order),
		Lon:  sliceBuffer(g.Lon, p, order),
	}
	if varName != "" {
		m, ok := g.Vars[varName]
		if !ok {
			return nil, fmt.Errorf("unknown variable %q", varName)
		}
		lf.Data = sliceBuffer(m, p, order)
	}
	return lf, nil
}

func sliceBuffer(m utils.Matrix, p Partition, order Layout) Buffer {
	b := NewBuffer(p.NumRows(), p.NumCols(), order)
	for i := 0; i < p.NumRows(); i++ {
		for j := 0; j < p.NumCols(); j++ {
			b.Set(i, j, m.At(p.RowLo+i, p.ColLo+j))
		}
	}
	return b
}
