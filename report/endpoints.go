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

package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/spatialmodel/transects"
)

// EndpointHeader is the header row written by ExportEndpoints.
var EndpointHeader = []string{"ID", "START_X", "START_Y", "MID_X", "MID_Y", "END_X", "END_Y", "BEARING"}

// Endpoint holds the start, middle and end points of a transect and the
// bearing from its start to its end, in degrees clockwise from north.
type Endpoint struct {
	ID              int
	Start, Mid, End geom.Point
	Bearing         float64
}

// Endpoints computes the endpoints of items. If inputSR and outputSR are
// both non-empty, they are parsed as WKT or PROJ4 spatial references and
// the points are reprojected from inputSR to outputSR, with bearings
// computed in the output spatial reference.
func Endpoints(items []transects.Transect, inputSR, outputSR string) ([]Endpoint, error) {
	trans := func(p geom.Point) (geom.Point, error) { return p, nil }
	geographic := false
	if outputSR != "" {
		if inputSR == "" {
			return nil, fmt.Errorf("report: the transects have no spatial reference to reproject from")
		}
		in, err := proj.Parse(inputSR)
		if err != nil {
			return nil, fmt.Errorf("report: parsing input spatial reference: %v", err)
		}
		out, err := proj.Parse(outputSR)
		if err != nil {
			return nil, fmt.Errorf("report: parsing output spatial reference: %v", err)
		}
		t, err := in.NewTransform(out)
		if err != nil {
			return nil, fmt.Errorf("report: creating spatial reprojector: %v", err)
		}
		trans = func(p geom.Point) (geom.Point, error) {
			g, err := p.Transform(t)
			if err != nil {
				return geom.Point{}, err
			}
			return g.(geom.Point), nil
		}
		geographic = out.Name == "longlat"
	}

	o := make([]Endpoint, len(items))
	for i, t := range items {
		start, end := t.Line[0], t.End()
		mid := geom.Point{X: (start.X + end.X) / 2, Y: (start.Y + end.Y) / 2}
		e := Endpoint{ID: t.ID}
		var err error
		for _, pp := range []struct {
			dst *geom.Point
			src geom.Point
		}{{&e.Start, start}, {&e.Mid, mid}, {&e.End, end}} {
			if *pp.dst, err = trans(pp.src); err != nil {
				return nil, fmt.Errorf("report: reprojecting transect %d: %v", t.ID, err)
			}
		}
		if geographic {
			e.Bearing = geodesicBearing(e.Start, e.End)
		} else {
			e.Bearing = planarBearing(e.Start, e.End)
		}
		o[i] = e
	}
	return o, nil
}

// planarBearing returns the bearing from a to b in [0, 360).
func planarBearing(a, b geom.Point) float64 {
	return normalizeBearing(math.Atan2(b.X-a.X, b.Y-a.Y) * 180 / math.Pi)
}

// geodesicBearing returns the initial great circle bearing from a to b,
// where X is longitude and Y is latitude in degrees.
func geodesicBearing(a, b geom.Point) float64 {
	const deg = math.Pi / 180
	phi1, phi2 := a.Y*deg, b.Y*deg
	dLambda := (b.X - a.X) * deg
	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	return normalizeBearing(math.Atan2(y, x) / deg)
}

func normalizeBearing(b float64) float64 {
	b = math.Mod(b, 360)
	if b < 0 {
		b += 360
	}
	if b >= 360 { // -1e-14 + 360 rounds to 360
		b -= 360
	}
	return b
}

// ExportEndpoints writes the endpoints of items to w as CSV, reprojecting
// them as described for Endpoints.
func ExportEndpoints(w io.Writer, items []transects.Transect, inputSR, outputSR string) error {
	points, err := Endpoints(items, inputSR, outputSR)
	if err != nil {
		return err
	}
	c := csv.NewWriter(w)
	if err := c.Write(EndpointHeader); err != nil {
		return fmt.Errorf("report: writing endpoints: %v", err)
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, p := range points {
		row := []string{
			strconv.Itoa(p.ID),
			f(p.Start.X), f(p.Start.Y),
			f(p.Mid.X), f(p.Mid.Y),
			f(p.End.X), f(p.End.Y),
			f(p.Bearing),
		}
		if err := c.Write(row); err != nil {
			return fmt.Errorf("report: writing endpoints: %v", err)
		}
	}
	c.Flush()
	if err := c.Error(); err != nil {
		return fmt.Errorf("report: writing endpoints: %v", err)
	}
	return nil
}
