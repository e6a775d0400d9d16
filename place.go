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
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
)

// spacingTolerance is the relative round-off allowed when checking that an
// accepted transect is at least one length from every earlier one.
const spacingTolerance = 1e-9

// Engine runs single placement trials.
type Engine struct {
	Geometry Geometry

	// Rand is the source of random start points and bearings. If nil,
	// a source seeded with 1 is created on first use.
	Rand *rand.Rand

	Log logrus.FieldLogger
}

// NewEngine returns an Engine using g and a random source seeded with seed.
func NewEngine(g Geometry, seed int64) *Engine {
	return &Engine{
		Geometry: g,
		Rand:     rand.New(rand.NewSource(seed)),
		Log:      logrus.StandardLogger(),
	}
}

func (e *Engine) rand() *rand.Rand {
	if e.Rand == nil {
		e.Rand = rand.New(rand.NewSource(1))
	}
	return e.Rand
}

func (e *Engine) log() logrus.FieldLogger {
	if e.Log == nil {
		return logrus.StandardLogger()
	}
	return e.Log
}

// checkPlacement validates placement parameters without touching any
// geometry.
func checkPlacement(area *SurveyArea, transectLength float64, maxTransects int, target float64) error {
	if area == nil || area.Polygon == nil {
		return invalidf("survey area is not specified")
	}
	if !(area.Area > 0) {
		return invalidf("survey area must have a positive area but has area %g", area.Area)
	}
	if !(transectLength > 0) || math.IsInf(transectLength, 1) {
		return invalidf("transect length must be > 0 but is %g", transectLength)
	}
	if maxTransects < 1 {
		return invalidf("maximum number of transects must be >= 1 but is %d", maxTransects)
	}
	if !(target >= 0 && target <= 1) {
		return invalidf("target sampling proportion must be within [0, 1] but is %g", target)
	}
	return nil
}

// Place runs one placement trial in area. It makes at most maxTransects
// placement attempts and stops early once the buffers of the accepted
// transects cover targetSamplingProportion of the area, or once there
// appears to be no room left. A rejected candidate uses up an attempt just
// like an accepted one, so fewer than maxTransects transects is the usual
// outcome.
//
// Running out of room is not an error: the transects placed so far are
// returned. ctx is checked before every attempt.
func (e *Engine) Place(ctx context.Context, area *SurveyArea, transectLength float64, maxTransects int, targetSamplingProportion float64) (*Trial, error) {
	if err := checkPlacement(area, transectLength, maxTransects, targetSamplingProportion); err != nil {
		return nil, err
	}
	log := e.log()

	zone := area.Polygon
	t := &Trial{
		UnsampledArea:       area.Area,
		UnsampledProportion: 1,
		AreaHistory:         []float64{area.Area},
	}
	maxUnsampledProportion := 1 - targetSamplingProportion

	for t.UnsampledProportion > maxUnsampledProportion && t.Attempts < maxTransects && !t.Exhausted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c, err := e.sampleCandidate(zone, transectLength)
		if errors.Is(err, ErrEmptyZone) {
			log.WithFields(logrus.Fields{
				"attempt":        t.Attempts,
				"unsampled_area": t.UnsampledArea,
			}).Info("unsampled zone is empty")
			t.Exhausted = true
			break
		} else if err != nil {
			return nil, err
		}

		inside, err := e.Geometry.IsCompletelyWithin(c.Line, zone)
		if err != nil {
			return nil, geometryErr("within", err)
		}
		fields := logrus.Fields{
			"attempt": t.Attempts,
			"x":       c.Start.X,
			"y":       c.Start.Y,
			"bearing": c.Bearing,
		}
		t.Attempts++

		if !inside {
			log.WithFields(fields).Debug("transect exited unsampled zone")
			// The zone may still have room for a differently placed
			// transect; this is a heuristic cutoff.
			if t.UnsampledArea < 2*transectLength {
				log.WithFields(logrus.Fields{
					"unsampled_area": t.UnsampledArea,
				}).Info("unsampled area too small for another transect")
				t.Exhausted = true
			}
			continue
		}

		if j, d := nearest(c.Line, t.Transects); d < transectLength*(1-spacingTolerance) {
			fields["nearest"] = j
			fields["distance"] = d
			log.WithFields(fields).Warn("transect inside unsampled zone is too close to an accepted transect")
			continue
		}

		buf, err := e.Geometry.Buffer(c.Line, transectLength)
		if err != nil {
			return nil, geometryErr("buffer", err)
		}
		zone, err = e.Geometry.Difference(zone, buf)
		if err != nil {
			return nil, geometryErr("difference", err)
		}
		c.ID = len(t.Transects)
		t.Transects = append(t.Transects, c)

		a := e.Geometry.Area(zone)
		if a > t.UnsampledArea*(1+areaTolerance) {
			return nil, &GeometryError{Op: "difference", Err: fmt.Errorf(
				"unsampled area grew from %g to %g", t.UnsampledArea, a)}
		} else if a > t.UnsampledArea {
			a = t.UnsampledArea // round-off
		}
		t.UnsampledArea = a
		t.UnsampledProportion = a / area.Area
		t.AreaHistory = append(t.AreaHistory, a)

		fields["unsampled_area"] = t.UnsampledArea
		fields["unsampled_proportion"] = t.UnsampledProportion
		log.WithFields(fields).Debugf("accepted transect %d", c.ID)
	}
	return t, nil
}

// nearest returns the index of the transect in accepted that is closest to
// l, and its distance. It returns -1 and +Inf if accepted is empty.
func nearest(l geom.LineString, accepted []Transect) (int, float64) {
	j, d := -1, math.Inf(1)
	for i, tr := range accepted {
		if di := segmentDistance(l, tr.Line); di < d {
			j, d = i, di
		}
	}
	return j, d
}

// sampleCandidate draws a random candidate transect starting inside zone.
func (e *Engine) sampleCandidate(zone geom.Polygonal, length float64) (Transect, error) {
	r := e.rand()
	start, err := e.Geometry.RandomPointInside(zone, r)
	if err != nil {
		if errors.Is(err, ErrEmptyZone) {
			return Transect{}, err
		}
		return Transect{}, geometryErr("random point", err)
	}
	bearing := 1 + r.Intn(360)
	return Transect{
		Start:   start,
		Bearing: bearing,
		Length:  length,
		Line:    e.Geometry.MakeLine(start, float64(bearing), length),
	}, nil
}
