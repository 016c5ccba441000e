package swa

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
)

// RegionShape is one region polygon keyed by the configured ID attribute.
type RegionShape struct {
	ID   string
	Geom geom.Polygonal
}

// ReadRegions decodes the boundary shapefile, keying each polygon by the
// idField attribute. DBF strings are fixed-width, so padding and NUL bytes
// are stripped.
func ReadRegions(path, idField string) ([]RegionShape, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open shapefile %s: %w", filepath.Base(path), err)
	}
	defer d.Close()

	var shapes []RegionShape
	for {
		g, fields, more := d.DecodeRowFields(idField)
		if !more {
			break
		}
		poly, ok := g.(geom.Polygonal)
		if !ok {
			continue
		}
		id := strings.TrimSpace(strings.ReplaceAll(fields[idField], "\x00", ""))
		if id == "" {
			continue
		}
		shapes = append(shapes, RegionShape{ID: id, Geom: poly})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("failed to decode shapefile %s: %w", filepath.Base(path), err)
	}
	if len(shapes) == 0 {
		return nil, fmt.Errorf("shapefile %s: no polygons with field %q", filepath.Base(path), idField)
	}
	return shapes, nil
}
