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

// Package transects places random, non-overlapping sampling transects of a
// fixed length inside a polygonal survey area.
//
// An Engine runs one placement trial: it repeatedly drops a random start
// point inside the part of the survey area that is not yet sampled, draws a
// transect from it at a random bearing, and keeps the transect if it lies
// completely within that unsampled zone. Each kept transect is buffered by
// its own length and the buffer is erased from the zone, so later transects
// can neither overlap it nor come closer to it than one transect length.
//
// An Optimizer repeats trials and keeps the one with the most transects,
// checkpointing every improvement to a Sink so that an interrupted run does
// not lose its best result.
package transects

import "github.com/ctessum/geom"

// Version gives the version number.
const Version = "1.0.0"

// Transect is a straight sampling line of a fixed length.
type Transect struct {
	// ID is the order in which the transect was accepted within its trial.
	ID int

	// Start is the point the transect was drawn from.
	Start geom.Point

	// Bearing is the compass direction of the transect in whole degrees,
	// clockwise from north, in the range [1, 360].
	Bearing int

	// Length is the length of the transect in the units of the survey area.
	Length float64

	// Line is the transect geometry, from Start to the end point.
	Line geom.LineString
}

// End returns the end point of the transect.
func (t Transect) End() geom.Point {
	return t.Line[len(t.Line)-1]
}

// SurveyArea is the polygon transects are placed within.
type SurveyArea struct {
	Polygon geom.Polygonal

	// Area is the area of Polygon, which must be positive.
	Area float64
}

// NewSurveyArea returns a SurveyArea for p, using g to calculate its area.
func NewSurveyArea(g Geometry, p geom.Polygonal) (*SurveyArea, error) {
	if p == nil {
		return nil, invalidf("survey area polygon is nil")
	}
	a := g.Area(p)
	if !(a > 0) {
		return nil, invalidf("survey area must have a positive area but has area %g", a)
	}
	return &SurveyArea{Polygon: p, Area: a}, nil
}

// Trial is the result of one run of the placement engine.
type Trial struct {
	// Transects are the accepted transects, in the order they were accepted.
	Transects []Transect

	// Attempts is the number of candidate transects that were drawn.
	Attempts int

	// UnsampledArea is the area of the survey area that is not covered by
	// the buffer of any accepted transect.
	UnsampledArea float64

	// UnsampledProportion is UnsampledArea divided by the survey area.
	UnsampledProportion float64

	// Exhausted is true if placement stopped because there appeared to be
	// no room left for another transect.
	Exhausted bool

	// AreaHistory holds the unsampled area before any transect was placed
	// followed by the unsampled area after each accepted transect.
	AreaHistory []float64

	// Destination is where the trial was last persisted, if anywhere.
	Destination string
}

// Count returns the number of transects in the trial.
func (t *Trial) Count() int {
	if t == nil {
		return 0
	}
	return len(t.Transects)
}

// Config holds the placement parameters.
type Config struct {
	// TransectLength is the length of each transect, in the units of the
	// survey area.
	TransectLength float64

	// MaxTransects is the number of placement attempts per trial. It is
	// an upper bound on the number of transects, not a target that is
	// guaranteed to be reached.
	MaxTransects int

	// MaxIterations is the number of trials the optimizer runs.
	MaxIterations int

	// TargetSamplingProportion is the fraction of the survey area that
	// must be covered by transect buffers before a single trial stops
	// early. The optimizer always uses 1.
	TargetSamplingProportion float64
}
