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

package transects

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/ctessum/geom"
)

// Geometry is the set of planar geometry operations the placement engine
// needs. All geometries are assumed to share one projected coordinate system.
type Geometry interface {
	// Area returns the area of p.
	Area(p geom.Polygonal) float64

	// RandomPointInside returns a point drawn uniformly from inside p.
	// It returns ErrEmptyZone if p has no area to draw from.
	RandomPointInside(p geom.Polygonal, r *rand.Rand) (geom.Point, error)

	// Buffer returns the polygon covering every location within
	// distance of l.
	Buffer(l geom.LineString, distance float64) (geom.Polygonal, error)

	// Difference returns the part of a that is not in b.
	Difference(a, b geom.Polygonal) (geom.Polygonal, error)

	// IsCompletelyWithin reports whether no part of l lies outside p.
	IsCompletelyWithin(l geom.LineString, p geom.Polygonal) (bool, error)

	// MakeLine returns the straight line of the given length starting at
	// start and heading in the direction bearing, in degrees clockwise
	// from north.
	MakeLine(start geom.Point, bearing, length float64) geom.LineString
}

const (
	defaultArcSegments = 16
	defaultMaxDraws    = 100000

	// areaTolerance is the relative round-off allowed in clipped areas.
	areaTolerance   = 1e-6
	differenceTries = 4
	growStep        = 1e-7
)

// Planar is a Geometry backed by github.com/ctessum/geom.
type Planar struct {
	// ArcSegments is the number of straight segments used to approximate
	// each rounded end of a buffered line. If zero, 16 is used.
	ArcSegments int

	// MaxDraws is the number of rejection-sampling draws RandomPointInside
	// makes before deciding that the polygon is too small to sample from.
	// If zero, 100000 is used.
	MaxDraws int
}

// Area returns the area of p.
func (g Planar) Area(p geom.Polygonal) float64 {
	if p == nil {
		return 0
	}
	return math.Abs(p.Area())
}

// RandomPointInside draws points uniformly from the bounding box of p until
// one falls inside p.
func (g Planar) RandomPointInside(p geom.Polygonal, r *rand.Rand) (geom.Point, error) {
	if !(g.Area(p) > 0) {
		return geom.Point{}, ErrEmptyZone
	}
	b := p.Bounds()
	dx, dy := b.Max.X-b.Min.X, b.Max.Y-b.Min.Y
	draws := g.MaxDraws
	if draws <= 0 {
		draws = defaultMaxDraws
	}
	for i := 0; i < draws; i++ {
		pt := geom.Point{X: b.Min.X + r.Float64()*dx, Y: b.Min.Y + r.Float64()*dy}
		if pt.Within(p) == geom.Inside {
			return pt, nil
		}
	}
	return geom.Point{}, fmt.Errorf("%w: no point found inside polygon after %d draws", ErrEmptyZone, draws)
}

// Buffer returns a polygon enclosing the area within distance of the
// two-point line l. The rounded ends are approximated by polygon edges that
// lie outside the true circle, so the result always contains the exact
// buffer.
func (g Planar) Buffer(l geom.LineString, distance float64) (geom.Polygonal, error) {
	if len(l) != 2 {
		return nil, &GeometryError{Op: "buffer", Err: fmt.Errorf("line must have 2 points but has %d", len(l))}
	}
	if !(distance > 0) {
		return nil, &GeometryError{Op: "buffer", Err: fmt.Errorf("invalid buffer distance %g", distance)}
	}
	n := g.ArcSegments
	if n <= 0 {
		n = defaultArcSegments
	}
	a, b := l[0], l[1]
	theta := math.Atan2(b.Y-a.Y, b.X-a.X)
	r := distance / math.Cos(math.Pi/float64(2*n))

	ring := make([]geom.Point, 0, 2*n+3)
	for _, end := range []struct {
		c     geom.Point
		start float64
	}{
		{c: b, start: theta - math.Pi/2},
		{c: a, start: theta + math.Pi/2},
	} {
		for i := 0; i <= n; i++ {
			ang := end.start + math.Pi*float64(i)/float64(n)
			ring = append(ring, geom.Point{X: end.c.X + r*math.Cos(ang), Y: end.c.Y + r*math.Sin(ang)})
		}
	}
	ring = append(ring, ring[0])
	return geom.Polygon{ring}, nil
}

// Difference returns a with b removed. Failures inside the polygon clipping
// library are returned as a *GeometryError.
//
// The clipping library occasionally returns a corrupted result for
// polygons with holes. A result that removes more area than b covers, or
// that is larger than a, is discarded and the difference is retried with b
// grown very slightly about its center. If every try is inconsistent the
// last failure is returned.
func (g Planar) Difference(a, b geom.Polygonal) (geom.Polygonal, error) {
	before, removable := g.Area(a), g.Area(b)
	tol := areaTolerance * math.Max(before, 1)
	var err error
	for try := 0; try < differenceTries; try++ {
		bb := b
		if try > 0 {
			bb = grow(b, 1+float64(try)*growStep)
			removable = g.Area(bb)
		}
		var out geom.Polygonal
		if out, err = g.difference(a, bb); err != nil {
			continue
		}
		after := g.Area(out)
		if after > before+tol || before-after > removable+tol {
			err = &GeometryError{Op: "difference", Err: fmt.Errorf(
				"removing an area of %g from an area of %g left an area of %g", removable, before, after)}
			continue
		}
		return out, nil
	}
	return nil, err
}

func (g Planar) difference(a, b geom.Polygonal) (out geom.Polygonal, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &GeometryError{Op: "difference", Err: fmt.Errorf("%v", r)}
		}
	}()
	return a.Difference(b), nil
}

// grow scales every ring of p by factor about the center of its bounds.
func grow(p geom.Polygonal, factor float64) geom.Polygonal {
	b := p.Bounds()
	cx, cy := (b.Min.X+b.Max.X)/2, (b.Min.Y+b.Max.Y)/2
	var out geom.Polygon
	for _, poly := range p.Polygons() {
		for _, ring := range poly {
			r := make([]geom.Point, len(ring))
			for i, pt := range ring {
				r[i] = geom.Point{X: cx + (pt.X-cx)*factor, Y: cy + (pt.Y-cy)*factor}
			}
			out = append(out, r)
		}
	}
	return out
}

// IsCompletelyWithin reports whether every vertex and segment midpoint of l
// is inside or on the edge of p and no segment of l crosses an edge of p.
func (g Planar) IsCompletelyWithin(l geom.LineString, p geom.Polygonal) (bool, error) {
	if len(l) < 2 {
		return false, &GeometryError{Op: "within", Err: fmt.Errorf("line must have at least 2 points but has %d", len(l))}
	}
	if p == nil {
		return false, nil
	}
	for _, pt := range l {
		if pt.Within(p) == geom.Outside {
			return false, nil
		}
	}
	for i := 1; i < len(l); i++ {
		s0, s1 := l[i-1], l[i]
		mid := geom.Point{X: (s0.X + s1.X) / 2, Y: (s0.Y + s1.Y) / 2}
		if mid.Within(p) == geom.Outside {
			return false, nil
		}
		for _, poly := range p.Polygons() {
			for _, ring := range poly {
				for j := range ring {
					if segmentsCross(s0, s1, ring[j], ring[(j+1)%len(ring)]) {
						return false, nil
					}
				}
			}
		}
	}
	return true, nil
}

// MakeLine returns a two-point line from start heading along bearing.
func (g Planar) MakeLine(start geom.Point, bearing, length float64) geom.LineString {
	rad := bearing * math.Pi / 180
	end := geom.Point{
		X: start.X + length*math.Sin(rad),
		Y: start.Y + length*math.Cos(rad),
	}
	return geom.LineString{start, end}
}

// segmentsCross reports whether segments p1-p2 and q1-q2 cross at a single
// point interior to both.
func segmentsCross(p1, p2, q1, q2 geom.Point) bool {
	d1 := orientation(q1, q2, p1)
	d2 := orientation(q1, q2, p2)
	d3 := orientation(p1, p2, q1)
	d4 := orientation(p1, p2, q2)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

// orientation is positive if c is to the left of a->b, negative if it is to
// the right, and zero if the three points are collinear.
func orientation(a, b, c geom.Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// segmentDistance returns the shortest distance between the two-point
// lines a and b.
func segmentDistance(a, b geom.LineString) float64 {
	if segmentsCross(a[0], a[1], b[0], b[1]) {
		return 0
	}
	return math.Min(
		math.Min(pointSegmentDistance(a[0], b), pointSegmentDistance(a[1], b)),
		math.Min(pointSegmentDistance(b[0], a), pointSegmentDistance(b[1], a)),
	)
}

func pointSegmentDistance(p geom.Point, s geom.LineString) float64 {
	dx, dy := s[1].X-s[0].X, s[1].Y-s[0].Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(s[0].X-p.X, s[0].Y-p.Y)
	}
	u := ((p.X-s[0].X)*dx + (p.Y-s[0].Y)*dy) / l2
	u = math.Max(0, math.Min(1, u))
	return math.Hypot(s[0].X+u*dx-p.X, s[0].Y+u*dy-p.Y)
}
