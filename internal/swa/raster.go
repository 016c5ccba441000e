package swa

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/ctessum/geom"
	"github.com/fhs/go-netcdf/netcdf"

	"swa-yield-pipeline/pkg/utils"
)

// NetCDF variable names for the monthly grids and the arable mask.
const (
	varLat    = "lat"
	varLon    = "lon"
	varSWA    = "swa"
	varArable = "arable"
)

// Grid is a regular lat/lon raster: one polygon and one value per cell,
// flattened row-major (lat outer, lon inner). Missing cells are NaN.
type Grid struct {
	Cells  []geom.Polygonal
	Values []float64
}

// SWAPath names the monthly anomaly grid for a date, swa_YYYY-MM.nc.
func SWAPath(dir string, year, month int) string {
	return filepath.Join(dir, fmt.Sprintf("swa_%s.nc", utils.Date(year, month)))
}

// ReadGrid reads one variable of a NetCDF raster and builds the cell
// polygons from its lat/lon axes. The grid is assumed regular; cell edges sit
// half a step from the centers.
func ReadGrid(path, varName string) (*Grid, error) {
	ds, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open raster %s: %w", filepath.Base(path), err)
	}
	defer ds.Close()

	lat, err := readAxis(ds, varLat)
	if err != nil {
		return nil, err
	}
	lon, err := readAxis(ds, varLon)
	if err != nil {
		return nil, err
	}
	if len(lat) < 2 || len(lon) < 2 {
		return nil, fmt.Errorf("raster %s: degenerate grid %dx%d", filepath.Base(path), len(lat), len(lon))
	}
	dy := lat[1] - lat[0]
	dx := lon[1] - lon[0]

	v, err := ds.Var(varName)
	if err != nil {
		return nil, fmt.Errorf("raster %s: missing variable %q: %w", filepath.Base(path), varName, err)
	}
	values := make([]float64, len(lat)*len(lon))
	if err := v.ReadFloat64s(values); err != nil {
		return nil, fmt.Errorf("raster %s: failed to read %q: %w", filepath.Base(path), varName, err)
	}

	// axes may run in either direction, keep bounds ordered
	hdy, hdx := math.Abs(dy)/2, math.Abs(dx)/2

	cells := make([]geom.Polygonal, 0, len(values))
	for j := range lat {
		for i := range lon {
			cells = append(cells, &geom.Bounds{
				Min: geom.Point{X: lon[i] - hdx, Y: lat[j] - hdy},
				Max: geom.Point{X: lon[i] + hdx, Y: lat[j] + hdy},
			})
		}
	}
	return &Grid{Cells: cells, Values: values}, nil
}

func readAxis(ds netcdf.Dataset, name string) ([]float64, error) {
	dim, err := ds.Dim(name)
	if err != nil {
		return nil, fmt.Errorf("missing dimension %q: %w", name, err)
	}
	n, err := dim.Len()
	if err != nil {
		return nil, fmt.Errorf("failed to size dimension %q: %w", name, err)
	}
	v, err := ds.Var(name)
	if err != nil {
		return nil, fmt.Errorf("missing axis variable %q: %w", name, err)
	}
	axis := make([]float64, n)
	if err := v.ReadFloat64s(axis); err != nil {
		return nil, fmt.Errorf("failed to read axis %q: %w", name, err)
	}
	return axis, nil
}

// ReadArableMask reads the land-cover weight grid and scales its 0..255
// byte range to [0,1] arable weights.
func ReadArableMask(path string) (*Grid, error) {
	g, err := ReadGrid(path, varArable)
	if err != nil {
		return nil, err
	}
	for i, v := range g.Values {
		g.Values[i] = v / 255.0
	}
	return g, nil
}
