package regrid

import (
	"fmt"
	"math"
	"sort"

	"github.com/NESII/goregrid/comm"
	"github.com/NESII/goregrid/grid"
	"github.com/NESII/goregrid/utils"
	"github.com/pradeep-pyro/triangle"
)

const (
	// coincidentTol snaps a destination point onto a source point, so
	// regridding a grid onto itself reproduces values exactly.
	coincidentTol = 1e-12
	// insideTol absorbs roundoff when testing triangle containment.
	insideTol = 1e-12
)

// Linear is the reference engine: it Delaunay-triangulates the global source
// point set and interpolates each destination point barycentrically within its
// containing triangle. Source coordinates and data are all-gathered
// internally, so callers never deal with non-aligned partitions.
type Linear struct {
	c *comm.Comm
}

func NewLinear(c *comm.Comm) *Linear {
	return &Linear{c: c}
}

func (ln *Linear) ComputeWeights(src, dst *grid.LocalField, method Method,
	policy UnmappedPolicy) (*WeightSet, error) {
	if method != Bilinear {
		return nil, fmt.Errorf("unsupported interpolation method %s", method)
	}
	glat, err := allGatherFlat(ln.c, src.Lat)
	if err != nil {
		return nil, err
	}
	glon, err := allGatherFlat(ln.c, src.Lon)
	if err != nil {
		return nil, err
	}
	nSrc := len(glat)
	if nSrc < 3 {
		return nil, fmt.Errorf("source grid has %d points, need at least 3", nSrc)
	}
	pts := make([][2]float64, nSrc)
	for n := range pts {
		pts[n] = [2]float64{glon[n], glat[n]}
	}
	faces := triangle.Delaunay(pts)

	var (
		nRows, nCols = dst.Part.NumRows(), dst.Part.NumCols()
		rows         = utils.NewSparseRows(dst.Part.Count(), nSrc)
	)
	for i := 0; i < nRows; i++ {
		for j := 0; j < nCols; j++ {
			var (
				k    = i*nCols + j
				px   = dst.Lon.At(i, j)
				py   = dst.Lat.At(i, j)
				done bool
			)
			if vi, ok := coincidentPoint(pts, px, py); ok {
				rows.Append(k, vi, 1)
				continue
			}
			for _, f := range faces {
				w, inside := barycentric(pts, f, px, py)
				if !inside {
					continue
				}
				appendSorted(rows, k, f, w)
				done = true
				break
			}
			if !done && policy == ErrorOnUnmapped {
				return nil, fmt.Errorf("destination point (%g, %g) outside source coverage", py, px)
			}
			// policy Ignore: row stays empty, value 0
		}
	}
	return &WeightSet{
		W:       rows.ToCSR(),
		NSrc:    nSrc,
		DstPart: dst.Part,
		dst:     dst,
	}, nil
}

func (ln *Linear) Apply(ws *WeightSet, src *grid.LocalField) (*grid.LocalField, error) {
	if src.Data.Count() != src.Part.Count() {
		return nil, fmt.Errorf("source field carries no data slab")
	}
	gdat, err := allGatherFlat(ln.c, src.Data)
	if err != nil {
		return nil, err
	}
	if len(gdat) != ws.NSrc {
		return nil, fmt.Errorf("gathered %d source values for %d weight columns", len(gdat), ws.NSrc)
	}
	y := make([]float64, ws.DstPart.Count())
	utils.CSRMulVec(ws.W, gdat, y)
	return &grid.LocalField{
		Part: ws.DstPart,
		Lat:  ws.dst.Lat,
		Lon:  ws.dst.Lon,
		Data: grid.NewBufferFrom(ws.DstPart.NumRows(), ws.DstPart.NumCols(), ws.dst.Lat.Order, y),
	}, nil
}

// allGatherFlat concatenates every rank's row-major slab in rank order. For a
// row-contiguous decomposition this is exactly the global array flattened
// row-major.
func allGatherFlat(c *comm.Comm, b grid.Buffer) ([]float64, error) {
	parts, err := comm.AllGather(c, []float64(b.RowMajorContiguous()))
	if err != nil {
		return nil, err
	}
	var total int
	for _, p := range parts {
		total += len(p)
	}
	out := make([]float64, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

func coincidentPoint(pts [][2]float64, px, py float64) (int, bool) {
	for n, p := range pts {
		if math.Abs(p[0]-px) <= coincidentTol && math.Abs(p[1]-py) <= coincidentTol {
			return n, true
		}
	}
	return 0, false
}

// barycentric returns the weights of (px,py) within face f, and whether the
// point lies inside it.
func barycentric(pts [][2]float64, f [3]int32, px, py float64) (w [3]float64, inside bool) {
	var (
		a, b, c = pts[f[0]], pts[f[1]], pts[f[2]]
		det     = (b[1]-c[1])*(a[0]-c[0]) + (c[0]-b[0])*(a[1]-c[1])
	)
	if det == 0 {
		return w, false
	}
	w[0] = ((b[1]-c[1])*(px-c[0]) + (c[0]-b[0])*(py-c[1])) / det
	w[1] = ((c[1]-a[1])*(px-c[0]) + (a[0]-c[0])*(py-c[1])) / det
	w[2] = 1 - w[0] - w[1]
	for n := range w {
		if w[n] < -insideTol {
			return w, false
		}
		if w[n] < 0 {
			w[n] = 0
		}
	}
	// renormalize so the weights of a constant field sum to one
	s := w[0] + w[1] + w[2]
	for n := range w {
		w[n] /= s
	}
	return w, true
}

func appendSorted(rows *utils.SparseRows, k int, f [3]int32, w [3]float64) {
	type entry struct {
		j int
		v float64
	}
	es := []entry{{int(f[0]), w[0]}, {int(f[1]), w[1]}, {int(f[2]), w[2]}}
	sort.Slice(es, func(a, b int) bool { return es[a].j < es[b].j })
	for _, e := range es {
		if e.v != 0 {
			rows.Append(k, e.j, e.v)
		}
	}
}
