/*
Copyright © 2017 the Transects authors.
This file is part of Transects.

Transects is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Transects is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Transects.  If not, see <http://www.gnu.org/licenses/>.
*/

package store

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"github.com/spatialmodel/transects"
)

// Shapefile writes transect collections as polyline shapefiles with one
// record per transect.
type Shapefile struct {
	// Projection is the spatial reference of the transects in WKT format.
	// If it is not empty it is written to a .prj file alongside the
	// shapefile.
	Projection string
}

var shpFields = []goshp.Field{
	goshp.NumberField("ID", 10),
	goshp.NumberField("Bearing", 4),
	goshp.FloatField("Length", 24, 8),
	goshp.FloatField("StartX", 24, 8),
	goshp.FloatField("StartY", 24, 8),
	goshp.FloatField("EndX", 24, 8),
	goshp.FloatField("EndY", 24, 8),
}

// shpBase removes the extension from a shapefile path.
func shpBase(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// WriteCollection writes items to the shapefile at destination, replacing
// any shapefile already there.
func (s Shapefile) WriteCollection(ctx context.Context, items []transects.Transect, destination string) error {
	fileBase := shpBase(destination)
	e, err := shp.NewEncoderFromFields(fileBase+".shp", goshp.POLYLINE, shpFields...)
	if err != nil {
		return fmt.Errorf("store: creating shapefile %s: %v", destination, err)
	}
	for _, t := range items {
		end := t.End()
		err = e.EncodeFields(geom.MultiLineString{t.Line}, t.ID, t.Bearing, t.Length, t.Start.X, t.Start.Y, end.X, end.Y)
		if err != nil {
			e.Close()
			return fmt.Errorf("store: writing transect %d to %s: %v", t.ID, destination, err)
		}
	}
	e.Close()

	if s.Projection == "" {
		if err := os.Remove(fileBase + ".prj"); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("store: removing stale prj file: %v", err)
		}
		return nil
	}
	if err := ioutil.WriteFile(fileBase+".prj", []byte(s.Projection), 0644); err != nil {
		return fmt.Errorf("store: creating prj file: %v", err)
	}
	return nil
}

// ReadCount returns the number of records in the shapefile at destination.
func (s Shapefile) ReadCount(ctx context.Context, destination string) (int, error) {
	d, err := shp.NewDecoder(shpBase(destination) + ".shp")
	if err != nil {
		return 0, fmt.Errorf("store: opening shapefile %s: %v", destination, err)
	}
	defer d.Close()
	return d.AttributeCount(), nil
}

// Remove deletes the shapefile at destination and its associated files.
func (s Shapefile) Remove(ctx context.Context, destination string) error {
	for _, f := range ExpandShp(shpBase(destination) + ".shp") {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("store: removing %s: %v", f, err)
		}
	}
	return nil
}

// ReadShapefile reads the transects stored in the shapefile at path,
// along with the WKT spatial reference in its .prj file, if there is one.
func ReadShapefile(path string) ([]transects.Transect, string, error) {
	fileBase := shpBase(path)
	d, err := shp.NewDecoder(fileBase + ".shp")
	if err != nil {
		return nil, "", fmt.Errorf("store: opening shapefile %s: %v", path, err)
	}
	defer d.Close()

	n := d.AttributeCount()
	items := make([]transects.Transect, 0, n)
	for i := 0; i < n; i++ {
		g, fields, more := d.DecodeRowFields("ID", "Bearing", "Length")
		if !more {
			return nil, "", fmt.Errorf("store: reading %s: ran out of rows", path)
		}
		line, ok := g.(geom.LineString)
		if !ok {
			if ml, isMulti := g.(geom.MultiLineString); isMulti && len(ml) == 1 {
				line, ok = ml[0], true
			}
		}
		if !ok || len(line) < 2 {
			return nil, "", fmt.Errorf("store: record %d of %s is a %T, not a transect", i, path, g)
		}
		t := transects.Transect{Start: line[0], Line: line}
		if t.ID, err = strconv.Atoi(strings.TrimSpace(fields["ID"])); err != nil {
			return nil, "", fmt.Errorf("store: record %d of %s: ID: %v", i, path, err)
		}
		if t.Bearing, err = strconv.Atoi(strings.TrimSpace(fields["Bearing"])); err != nil {
			return nil, "", fmt.Errorf("store: record %d of %s: Bearing: %v", i, path, err)
		}
		if t.Length, err = strconv.ParseFloat(strings.TrimSpace(fields["Length"]), 64); err != nil {
			return nil, "", fmt.Errorf("store: record %d of %s: Length: %v", i, path, err)
		}
		items = append(items, t)
	}
	if err := d.Error(); err != nil {
		return nil, "", fmt.Errorf("store: reading %s: %v", path, err)
	}

	prj, err := ioutil.ReadFile(fileBase + ".prj")
	if err != nil && !os.IsNotExist(err) {
		return nil, "", fmt.Errorf("store: reading prj file: %v", err)
	}
	return items, string(prj), nil
}

// ExpandShp returns the given file + associated [.dbf, .shx, .prj]
// files if the given file has the .shp extension, and returns the given
// file otherwise.
func ExpandShp(filename string) []string {
	o := []string{filename}
	if filepath.Ext(filename) != ".shp" {
		return o
	}
	for _, newExt := range []string{".dbf", ".shx", ".prj"} {
		o = append(o, filename[0:len(filename)-4]+newExt)
	}
	return o
}
