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
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/kr/pretty"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spatialmodel/transects"
)

const testPrj = `PROJCS["WGS_1984_UTM_Zone_10N",GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Degree",0.017453292519943295]],PROJECTION["Transverse_Mercator"],PARAMETER["latitude_of_origin",0],PARAMETER["central_meridian",-123],PARAMETER["scale_factor",0.9996],PARAMETER["false_easting",500000],PARAMETER["false_northing",0],UNIT["Meter",1]]`

func sampleTransects() []transects.Transect {
	var g transects.Planar
	starts := []geom.Point{{X: 10, Y: 20}, {X: 500.5, Y: -30.25}, {X: 1e5, Y: 4e6}}
	bearings := []int{90, 225, 360}
	out := make([]transects.Transect, len(starts))
	for i, s := range starts {
		out[i] = transects.Transect{
			ID:      i,
			Start:   s,
			Bearing: bearings[i],
			Length:  100,
			Line:    g.MakeLine(s, float64(bearings[i]), 100),
		}
	}
	return out
}

func similarTransects(t *testing.T, have, want []transects.Transect) {
	t.Helper()
	if len(have) != len(want) {
		t.Fatalf("have %d transects, want %d", len(have), len(want))
	}
	for i := range want {
		h, w := have[i], want[i]
		if h.ID != w.ID || h.Bearing != w.Bearing || math.Abs(h.Length-w.Length) > 1e-6 {
			t.Errorf("transect %d: have %+v, want %+v", i, h, w)
		}
		if len(h.Line) != 2 || !h.Line[0].Similar(w.Line[0], 1e-6) || !h.Line[1].Similar(w.Line[1], 1e-6) {
			t.Errorf("transect %d: have line %v, want %v", i, h.Line, w.Line)
		}
	}
}

func TestShapefile(t *testing.T) {
	ctx := context.Background()
	const fname = "test_transects.shp"
	s := Shapefile{Projection: testPrj}
	defer s.Remove(ctx, fname)

	items := sampleTransects()
	if err := s.WriteCollection(ctx, items, fname); err != nil {
		t.Fatal(err)
	}
	n, err := s.ReadCount(ctx, fname)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(items) {
		t.Errorf("count = %d, want %d", n, len(items))
	}

	have, prj, err := ReadShapefile(fname)
	if err != nil {
		t.Fatal(err)
	}
	similarTransects(t, have, items)
	if prj != testPrj {
		t.Errorf("projection = %q, want %q", prj, testPrj)
	}

	t.Run("overwrite", func(t *testing.T) {
		if err := (Shapefile{}).WriteCollection(ctx, items[:1], fname); err != nil {
			t.Fatal(err)
		}
		n, err := s.ReadCount(ctx, fname)
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Errorf("count = %d, want 1", n)
		}
		if _, err := os.Stat("test_transects.prj"); !os.IsNotExist(err) {
			t.Error("stale prj file was not removed")
		}
	})

	t.Run("empty", func(t *testing.T) {
		if err := s.WriteCollection(ctx, nil, fname); err != nil {
			t.Fatal(err)
		}
		n, err := s.ReadCount(ctx, fname)
		if err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Errorf("count = %d, want 0", n)
		}
	})

	t.Run("remove", func(t *testing.T) {
		if err := s.Remove(ctx, fname); err != nil {
			t.Fatal(err)
		}
		for _, f := range ExpandShp(fname) {
			if _, err := os.Stat(f); !os.IsNotExist(err) {
				t.Errorf("%s was not removed", f)
			}
		}
	})
}

func TestExpandShp(t *testing.T) {
	have := ExpandShp("dir/area.shp")
	want := []string{"dir/area.shp", "dir/area.dbf", "dir/area.shx", "dir/area.prj"}
	if diff := pretty.Diff(have, want); len(diff) != 0 {
		t.Error(diff)
	}
	if have := ExpandShp("area.geojson"); len(have) != 1 {
		t.Errorf("have %v", have)
	}
}

func TestGeoJSON(t *testing.T) {
	ctx := context.Background()
	items := sampleTransects()

	b, err := EncodeCollection(items)
	if err != nil {
		t.Fatal(err)
	}
	have, err := DecodeCollection(b)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(have, items); len(diff) != 0 {
		t.Errorf("round trip differs: %v", diff)
	}

	b, err = EncodeCollection(nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"type":"FeatureCollection","features":[]}`; string(b) != want {
		t.Errorf("empty collection = %s, want %s", b, want)
	}

	if _, err := DecodeCollection([]byte(`{"type":"Polygon","coordinates":[]}`)); err == nil {
		t.Error("expected an error for a bare geometry")
	}

	const fname = "test_transects.geojson"
	defer os.Remove(fname)
	var s GeoJSON
	if err := s.WriteCollection(ctx, items, fname); err != nil {
		t.Fatal(err)
	}
	n, err := s.ReadCount(ctx, fname)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(items) {
		t.Errorf("count = %d, want %d", n, len(items))
	}
}

func TestBlob(t *testing.T) {
	ctx := context.Background()
	if err := os.MkdirAll("testbucket", os.ModePerm); err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll("testbucket")

	log, _ := test.NewNullLogger()
	s := Blob{Shapefile: Shapefile{Projection: testPrj}, Log: log}
	items := sampleTransects()

	for _, dest := range []string{"file://testbucket/out/transects.shp", "file://testbucket/out/transects.geojson"} {
		t.Run(filepath.Ext(dest), func(t *testing.T) {
			if err := s.WriteCollection(ctx, items, dest); err != nil {
				t.Fatal(err)
			}
			n, err := s.ReadCount(ctx, dest)
			if err != nil {
				t.Fatal(err)
			}
			if n != len(items) {
				t.Errorf("count = %d, want %d", n, len(items))
			}

			local, err := s.Download(ctx, dest)
			if err != nil {
				t.Fatal(err)
			}
			defer os.RemoveAll(filepath.Dir(local))
			if filepath.Base(local) != filepath.Base(dest) {
				t.Errorf("downloaded to %s", local)
			}

			if err := s.Remove(ctx, dest); err != nil {
				t.Fatal(err)
			}
			key := filepath.Join("testbucket", "out", filepath.Base(dest))
			for _, f := range ExpandShp(key) {
				if _, err := os.Stat(f); !os.IsNotExist(err) {
					t.Errorf("%s was not removed", f)
				}
			}
		})
	}

	b, err := ioutil.ReadDir("testbucket/out")
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range b {
		if filepath.Ext(f.Name()) != ".attrs" {
			t.Errorf("unexpected file %s left in bucket", f.Name())
		}
	}
}

func TestBlobStaleProjection(t *testing.T) {
	ctx := context.Background()
	if err := os.MkdirAll("testbucket_prj", os.ModePerm); err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll("testbucket_prj")

	log, _ := test.NewNullLogger()
	const dest = "file://testbucket_prj/transects.shp"
	prj := filepath.Join("testbucket_prj", "transects.prj")

	withPrj := Blob{Shapefile: Shapefile{Projection: testPrj}, Log: log}
	if err := withPrj.WriteCollection(ctx, sampleTransects(), dest); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(prj); err != nil {
		t.Fatalf("projection was not uploaded: %v", err)
	}

	noPrj := Blob{Log: log}
	if err := noPrj.WriteCollection(ctx, sampleTransects(), dest); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(prj); !os.IsNotExist(err) {
		t.Errorf("stale projection was left in the bucket: %v", err)
	}
	if err := noPrj.Remove(ctx, dest); err != nil {
		t.Fatal(err)
	}
}

func TestMuxRoute(t *testing.T) {
	m := &Mux{}
	defer m.Close()
	tests := []struct {
		destination string
		want        interface{}
		wantDest    string
	}{
		{destination: "out.shp", want: Shapefile{}, wantDest: "out.shp"},
		{destination: "out", want: Shapefile{}, wantDest: "out"},
		{destination: "out.geojson", want: GeoJSON{}, wantDest: "out.geojson"},
		{destination: "out.JSON", want: GeoJSON{}, wantDest: "out.JSON"},
		{destination: "s3://bucket/out.shp", want: Blob{}, wantDest: "s3://bucket/out.shp"},
		{destination: "redis://localhost:6379/0?key=best", want: &Redis{}, wantDest: "best"},
		{destination: "redis://localhost:6379/0", want: &Redis{}, wantDest: "transects"},
	}
	for _, test := range tests {
		t.Run(test.destination, func(t *testing.T) {
			s, d, err := m.route(test.destination)
			if err != nil {
				t.Fatal(err)
			}
			if have, want := typeName(s), typeName(test.want); have != want {
				t.Errorf("sink = %s, want %s", have, want)
			}
			if d != test.wantDest {
				t.Errorf("destination = %s, want %s", d, test.wantDest)
			}
		})
	}

	a, _, _ := m.route("redis://localhost:6379/0?key=a")
	b, _, _ := m.route("redis://localhost:6379/0?key=b")
	if a != b {
		t.Error("connections to the same server should be shared")
	}
}

func typeName(v interface{}) string {
	switch v.(type) {
	case Shapefile:
		return "Shapefile"
	case GeoJSON:
		return "GeoJSON"
	case Blob:
		return "Blob"
	case *Redis:
		return "Redis"
	default:
		return "unknown"
	}
}

// TestRedis requires a running Redis server, specified by the
// TRANSECTS_TEST_REDIS environment variable
// (e.g. redis://localhost:6379/0).
func TestRedis(t *testing.T) {
	server := os.Getenv("TRANSECTS_TEST_REDIS")
	if server == "" {
		t.Skip("TRANSECTS_TEST_REDIS is not set")
	}
	ctx := context.Background()
	m := &Mux{}
	defer m.Close()
	dest := server + "?key=transects_test"
	defer m.Remove(ctx, dest)

	items := sampleTransects()
	if err := m.WriteCollection(ctx, items, dest); err != nil {
		t.Fatal(err)
	}
	n, err := m.ReadCount(ctx, dest)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(items) {
		t.Errorf("count = %d, want %d", n, len(items))
	}
	if err := m.Remove(ctx, dest); err != nil {
		t.Fatal(err)
	}
	if _, err := m.ReadCount(ctx, dest); err == nil {
		t.Error("expected an error reading a removed collection")
	}
}
