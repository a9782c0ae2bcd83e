// Package store holds the grid-data collaborators: NetCDF input/output and
// synthetic demo grids. The regridding core never touches files directly.
package store

import (
	"fmt"
	"io"
	"os"

	"github.com/NESII/goregrid/grid"
	"github.com/NESII/goregrid/utils"
	"github.com/ctessum/cdf"
)

// ResultKey is the fixed variable name the global result is persisted under.
const ResultKey = "dat"

// ReadGrid loads a grid from a NetCDF file holding "lat" and "lon" on (y, x)
// dimensions, plus the named data variables of the same shape.
func ReadGrid(path string, varNames ...string) (*grid.Grid, error) {
	ff, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer ff.Close()
	f, err := cdf.Open(ff)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	lat, err := readVar(f, "lat")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	lon, err := readVar(f, "lon")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	g, err := grid.NewGrid(lat, lon)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, name := range varNames {
		m, err := readVar(f, name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if err = g.AddVar(name, m); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return g, nil
}

func readVar(f *cdf.File, name string) (utils.Matrix, error) {
	lens := f.Header.Lengths(name)
	if len(lens) != 2 {
		return utils.Matrix{}, fmt.Errorf("variable %q has %d dimensions, want 2", name, len(lens))
	}
	r := f.Reader(name, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return utils.Matrix{}, fmt.Errorf("reading %q: %w", name, err)
	}
	var data []float64
	switch v := buf.(type) {
	case []float64:
		data = v
	case []float32:
		data = make([]float64, len(v))
		for i, x := range v {
			data[i] = float64(x)
		}
	default:
		return utils.Matrix{}, fmt.Errorf("variable %q has unsupported type %T", name, buf)
	}
	return utils.NewMatrix(lens[0], lens[1], data), nil
}

// WriteResult persists the global result under ResultKey.
func WriteResult(path string, m utils.Matrix) error {
	nr, nc := m.Dims()
	h := cdf.NewHeader([]string{"y", "x"}, []int{nr, nc})
	h.AddAttribute("", "comment", "Regridded field")
	h.AddVariable(ResultKey, []string{"y", "x"}, []float64{0})
	h.Define()
	ff, err := os.Create(path)
	if err != nil {
		return err
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h) // writes the header to ff
	if err != nil {
		return err
	}
	return writeVar(f, ResultKey, m.Data())
}

// ReadResult loads a previously persisted global result.
func ReadResult(path string) (utils.Matrix, error) {
	ff, err := os.Open(path)
	if err != nil {
		return utils.Matrix{}, err
	}
	defer ff.Close()
	f, err := cdf.Open(ff)
	if err != nil {
		return utils.Matrix{}, fmt.Errorf("opening %s: %w", path, err)
	}
	return readVar(f, ResultKey)
}

// WriteGrid saves a grid's coordinates and variables, mainly for building
// test and demo fixtures.
func WriteGrid(path string, g *grid.Grid, varNames ...string) error {
	h := cdf.NewHeader([]string{"y", "x"}, []int{g.Rows, g.Cols})
	h.AddVariable("lat", []string{"y", "x"}, []float64{0})
	h.AddVariable("lon", []string{"y", "x"}, []float64{0})
	for _, name := range varNames {
		h.AddVariable(name, []string{"y", "x"}, []float64{0})
	}
	h.Define()
	ff, err := os.Create(path)
	if err != nil {
		return err
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h)
	if err != nil {
		return err
	}
	if err = writeVar(f, "lat", g.Lat.Data()); err != nil {
		return err
	}
	if err = writeVar(f, "lon", g.Lon.Data()); err != nil {
		return err
	}
	for _, name := range varNames {
		m, ok := g.Vars[name]
		if !ok {
			return fmt.Errorf("unknown variable %q", name)
		}
		if err = writeVar(f, name, m.Data()); err != nil {
			return err
		}
	}
	return nil
}

func writeVar(f *cdf.File, name string, data []float64) error {
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing %q: %w", name, err)
	}
	return nil
}

// Synthetic builds a rows x cols grid with coordinates spanning the given
// extents and one data variable filled from f. Used by tests and the no-input
// demo path.
func Synthetic(rows, cols int, lat0, lat1, lon0, lon1 float64,
	varName string, f func(lat, lon float64) float64) *grid.Grid {
	lat := utils.NewMatrix(rows, cols)
	lon := utils.NewMatrix(rows, cols)
	rowDen, colDen := float64(rows-1), float64(cols-1)
	if rows == 1 {
		rowDen = 1
	}
	if cols == 1 {
		colDen = 1
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			lat.Set(i, j, lat0+(lat1-lat0)*float64(i)/rowDen)
			lon.Set(i, j, lon0+(lon1-lon0)*float64(j)/colDen)
		}
	}
	g, err := grid.NewGrid(lat, lon)
	if err != nil {
		panic(err) // shapes are equal by construction
	}
	if varName != "" {
		dat := utils.NewMatrix(rows, cols)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				dat.Set(i, j, f(lat.At(i, j), lon.At(i, j)))
			}
		}
		if err = g.AddVar(varName, dat); err != nil {
			panic(err)
		}
	}
	return g
}

// Display writes a short textual rendering of the result: summary statistics
// and a coarse raster, smallest values printed as '.', largest as '9'.
func Display(w io.Writer, m utils.Matrix) {
	if m.IsEmpty() {
		fmt.Fprintln(w, "(no result on this worker)")
		return
	}
	nr, nc := m.Dims()
	min, max, mean := m.Min(), m.Max(), m.Mean()
	fmt.Fprintf(w, "result [%d,%d]  min %.4g  max %.4g  mean %.4g\n", nr, nc, min, max, mean)
	const maxSide = 40
	di, dj := (nr+maxSide-1)/maxSide, (nc+maxSide-1)/maxSide
	for i := 0; i < nr; i += di {
		for j := 0; j < nc; j += dj {
			v := m.At(i, j)
			if max == min {
				fmt.Fprint(w, "5")
				continue
			}
			level := int(9 * (v - min) / (max - min))
			if level == 0 && v == min {
				fmt.Fprint(w, ".")
			} else {
				fmt.Fprintf(w, "%d", level)
			}
		}
		fmt.Fprintln(w)
	}
}
