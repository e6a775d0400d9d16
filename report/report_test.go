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
	"bytes"
	"encoding/csv"
	"io/ioutil"
	"math"
	"os"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/kr/pretty"
	"github.com/spatialmodel/transects"
)

func TestCounts(t *testing.T) {
	scores := []int{3, 5, 4, 4, 0}
	for _, fname := range []string{"test_counts.csv", "test_counts.xlsx"} {
		t.Run(fname, func(t *testing.T) {
			defer os.Remove(fname)
			if err := NewScoreRecorder(fname).RecordScores(scores); err != nil {
				t.Fatal(err)
			}
			have, err := ReadCounts(fname)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(have, scores) {
				t.Errorf("have %v, want %v", have, scores)
			}
		})
	}

	t.Run("csv format", func(t *testing.T) {
		const fname = "test_counts_format.csv"
		defer os.Remove(fname)
		if err := (CSV{Path: fname}).RecordScores(scores); err != nil {
			t.Fatal(err)
		}
		b, err := ioutil.ReadFile(fname)
		if err != nil {
			t.Fatal(err)
		}
		if want := "Counts,3,5,4,4,0\n"; string(b) != want {
			t.Errorf("have %q, want %q", b, want)
		}
	})

	t.Run("not a counts file", func(t *testing.T) {
		const fname = "test_not_counts.csv"
		defer os.Remove(fname)
		if err := ioutil.WriteFile(fname, []byte("a,1,2\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := ReadCounts(fname); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestSummarize(t *testing.T) {
	s, err := Summarize([]int{3, 5, 4, 4, 6})
	if err != nil {
		t.Fatal(err)
	}
	want := &Summary{
		N:      5,
		Min:    3,
		Max:    6,
		Mean:   4.4,
		StdDev: math.Sqrt(1.3),
		Bins: []Bin{
			{Lower: 1, Upper: 2, Trials: 0},
			{Lower: 2, Upper: 3, Trials: 0},
			{Lower: 3, Upper: 4, Trials: 1},
			{Lower: 4, Upper: 5, Trials: 2},
			{Lower: 5, Upper: 6, Trials: 1},
			{Lower: 6, Upper: 7, Trials: 1},
		},
	}
	if math.Abs(s.Mean-want.Mean) > 1e-12 || math.Abs(s.StdDev-want.StdDev) > 1e-12 {
		t.Errorf("mean, std. dev. = %g, %g; want %g, %g", s.Mean, s.StdDev, want.Mean, want.StdDev)
	}
	s.Mean, s.StdDev = want.Mean, want.StdDev
	if diff := pretty.Diff(s, want); len(diff) != 0 {
		t.Errorf("summary differs: %v", diff)
	}

	one, err := Summarize([]int{2})
	if err != nil {
		t.Fatal(err)
	}
	if one.StdDev != 0 || len(one.Bins) != 3 {
		t.Errorf("single score summary: %+v", one)
	}

	if _, err := Summarize(nil); err == nil {
		t.Error("expected an error for no scores")
	}

	var b bytes.Buffer
	if err := s.Write(&b); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(b.String(), "\n"); n != 7+len(s.Bins) {
		t.Errorf("summary has %d lines:\n%s", n, b.String())
	}
}

func TestEndpoints(t *testing.T) {
	var g transects.Planar
	items := []transects.Transect{
		{ID: 0, Start: geom.Point{X: 0, Y: 0}, Bearing: 90, Length: 10, Line: g.MakeLine(geom.Point{X: 0, Y: 0}, 90, 10)},
		{ID: 1, Start: geom.Point{X: 5, Y: 5}, Bearing: 225, Length: 10, Line: g.MakeLine(geom.Point{X: 5, Y: 5}, 225, 10)},
		{ID: 2, Start: geom.Point{X: 1, Y: 1}, Bearing: 360, Length: 4, Line: g.MakeLine(geom.Point{X: 1, Y: 1}, 360, 4)},
	}
	points, err := Endpoints(items, "", "")
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range points {
		want := float64(items[i].Bearing % 360)
		if math.Abs(p.Bearing-want) > 1e-9 {
			t.Errorf("transect %d: bearing %g, want %g", i, p.Bearing, want)
		}
		if !p.Mid.Similar(geom.Point{X: (p.Start.X + p.End.X) / 2, Y: (p.Start.Y + p.End.Y) / 2}, 1e-9) {
			t.Errorf("transect %d: mid point %v", i, p.Mid)
		}
	}

	var b bytes.Buffer
	if err := ExportEndpoints(&b, items, "", ""); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&b).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != len(items)+1 {
		t.Fatalf("have %d rows", len(rows))
	}
	if !reflect.DeepEqual(rows[0], EndpointHeader) {
		t.Errorf("header = %v", rows[0])
	}
	if endX, _ := strconv.ParseFloat(rows[1][5], 64); math.Abs(endX-10) > 1e-9 {
		t.Errorf("END_X = %s, want 10", rows[1][5])
	}

	if _, err := Endpoints(items, "", "+proj=longlat +datum=WGS84"); err == nil {
		t.Error("expected an error reprojecting without an input spatial reference")
	}
}

func TestEndpointsReproject(t *testing.T) {
	const utm10 = "+proj=utm +zone=10 +datum=WGS84 +units=m +no_defs"
	const wgs84 = "+proj=longlat +datum=WGS84 +no_defs"
	var g transects.Planar
	// A transect heading due north from near the central meridian of zone 10.
	start := geom.Point{X: 500000, Y: 4500000}
	items := []transects.Transect{{Start: start, Bearing: 360, Length: 1000, Line: g.MakeLine(start, 360, 1000)}}
	points, err := Endpoints(items, utm10, wgs84)
	if err != nil {
		t.Fatal(err)
	}
	p := points[0]
	if math.Abs(p.Start.X+123) > 1e-6 {
		t.Errorf("start longitude = %g, want -123", p.Start.X)
	}
	if p.Start.Y < 40 || p.Start.Y > 41 {
		t.Errorf("start latitude = %g", p.Start.Y)
	}
	if b := math.Min(p.Bearing, 360-p.Bearing); b > 1e-3 {
		t.Errorf("bearing = %g, want 0", p.Bearing)
	}
}

func TestBearing(t *testing.T) {
	for _, test := range []struct {
		a, b geom.Point
		want float64
	}{
		{geom.Point{X: 0, Y: 0}, geom.Point{X: 0, Y: 1}, 0},
		{geom.Point{X: 0, Y: 0}, geom.Point{X: 1, Y: 0}, 90},
		{geom.Point{X: 0, Y: 0}, geom.Point{X: 0, Y: -1}, 180},
		{geom.Point{X: 0, Y: 0}, geom.Point{X: -1, Y: 0}, 270},
	} {
		if have := planarBearing(test.a, test.b); math.Abs(have-test.want) > 1e-9 {
			t.Errorf("planar bearing %v -> %v = %g, want %g", test.a, test.b, have, test.want)
		}
		if have := geodesicBearing(test.a, test.b); math.Abs(have-test.want) > 1e-9 {
			t.Errorf("geodesic bearing %v -> %v = %g, want %g", test.a, test.b, have, test.want)
		}
	}
}

func TestNormalizeBearing(t *testing.T) {
	for _, test := range []struct {
		in, want float64
	}{
		{0, 0},
		{-1e-14, 0},
		{360, 0},
		{-90, 270},
		{725, 5},
	} {
		have := normalizeBearing(test.in)
		if have < 0 || have >= 360 || math.Abs(have-test.want) > 1e-9 {
			t.Errorf("normalizeBearing(%g) = %g, want %g", test.in, have, test.want)
		}
	}
}

func TestManifest(t *testing.T) {
	const fname = "test_manifest.toml"
	defer os.Remove(fname)
	c := transects.Config{TransectLength: 100, MaxTransects: 10, MaxIterations: 5}
	m := NewManifest("optimize", "area.shp", 42, c)
	if other := NewManifest("optimize", "area.shp", 42, c); other.ConfigHash != m.ConfigHash || other.RunID == m.RunID {
		t.Errorf("config hashes %s and %s, run IDs %s and %s", m.ConfigHash, other.ConfigHash, m.RunID, other.RunID)
	}
	if other := NewManifest("optimize", "area.shp", 43, c); other.ConfigHash == m.ConfigHash {
		t.Error("different seeds have the same configuration hash")
	}

	best := &transects.Trial{Transects: make([]transects.Transect, 4), Attempts: 10, Destination: "out.shp"}
	if err := m.Finish(best, []int{2, 4, 3}); err != nil {
		t.Fatal(err)
	}
	if err := m.Write(fname); err != nil {
		t.Fatal(err)
	}
	have, err := ReadManifest(fname)
	if err != nil {
		t.Fatal(err)
	}
	if have.RunID != m.RunID || have.BestCount != 4 || have.OutputFile != "out.shp" || have.Seed != 42 {
		t.Errorf("manifest = %# v", pretty.Formatter(have))
	}
	if !reflect.DeepEqual(have.Config, c) || !reflect.DeepEqual(have.Scores, []int{2, 4, 3}) {
		t.Errorf("manifest = %# v", pretty.Formatter(have))
	}
	if have.Summary == nil || have.Summary.Max != 4 {
		t.Errorf("summary = %+v", have.Summary)
	}
}
