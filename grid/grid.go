package grid

import (
	"fmt"

	"github.com/NESII/goregrid/utils"
)

// Grid is an immutable description of a 2-D structured grid: coordinate
// arrays of shape Rows x Cols plus optional named data arrays of the same
// shape. Loaded once at startup; read-only afterward.
type Grid struct {
	Rows, Cols int
	Lat, Lon   utils.Matrix
	Vars       map[string]utils.Matrix
}

func NewGrid(lat, lon utils.Matrix) (*Grid, error) {
	latR, latC := lat.Dims()
	lonR, lonC := lon.Dims()
	if latR != lonR || latC != lonC {
		return nil, fmt.Errorf("coordinate shape mismatch: lat [%d,%d], lon [%d,%d]",
			latR, latC, lonR, lonC)
	}
	return &Grid{
		Rows: latR,
		Cols: latC,
		Lat:  lat,
		Lon:  lon,
		Vars: make(map[string]utils.Matrix),
	}, nil
}

func (g *Grid) AddVar(name string, m utils.Matrix) error {
	nr, nc := m.Dims()
	if nr != g.Rows || nc != g.Cols {
		return fmt.Errorf("variable %q shape [%d,%d] does not match grid [%d,%d]",
			name, nr, nc, g.Rows, g.Cols)
	}
	g.Vars[name] = m
	return nil
}

func (g *Grid) Shape() (rows, cols int) { return g.Rows, g.Cols }
