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
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/spatialmodel/transects"
)

type featureProperties struct {
	ID      int
	Bearing int
	Length  float64
	StartX  float64
	StartY  float64
	EndX    float64
	EndY    float64
}

type feature struct {
	Type       string            `json:"type"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties featureProperties `json:"properties"`
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

// EncodeCollection returns items as a GeoJSON FeatureCollection of
// LineString features.
func EncodeCollection(items []transects.Transect) ([]byte, error) {
	fc := featureCollection{
		Type:     "FeatureCollection",
		Features: make([]feature, len(items)),
	}
	for i, t := range items {
		g, err := geojson.ToGeoJSON(t.Line)
		if err != nil {
			return nil, fmt.Errorf("store: encoding transect %d: %v", t.ID, err)
		}
		end := t.End()
		fc.Features[i] = feature{
			Type:     "Feature",
			Geometry: g,
			Properties: featureProperties{
				ID:      t.ID,
				Bearing: t.Bearing,
				Length:  t.Length,
				StartX:  t.Start.X,
				StartY:  t.Start.Y,
				EndX:    end.X,
				EndY:    end.Y,
			},
		}
	}
	return json.Marshal(fc)
}

// DecodeCollection is the inverse of EncodeCollection.
func DecodeCollection(b []byte) ([]transects.Transect, error) {
	var fc featureCollection
	if err := json.Unmarshal(b, &fc); err != nil {
		return nil, fmt.Errorf("store: decoding feature collection: %v", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("store: decoding feature collection: invalid type %q", fc.Type)
	}
	items := make([]transects.Transect, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry == nil {
			return nil, fmt.Errorf("store: feature %d has no geometry", i)
		}
		g, err := geojson.FromGeoJSON(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("store: decoding feature %d: %v", i, err)
		}
		line, ok := g.(geom.LineString)
		if !ok || len(line) < 2 {
			return nil, fmt.Errorf("store: feature %d is a %T, not a transect", i, g)
		}
		items[i] = transects.Transect{
			ID:      f.Properties.ID,
			Start:   line[0],
			Bearing: f.Properties.Bearing,
			Length:  f.Properties.Length,
			Line:    line,
		}
	}
	return items, nil
}

// GeoJSON writes transect collections as GeoJSON files.
type GeoJSON struct{}

// WriteCollection writes items to the file destination as a GeoJSON
// FeatureCollection.
func (GeoJSON) WriteCollection(ctx context.Context, items []transects.Transect, destination string) error {
	b, err := EncodeCollection(items)
	if err != nil {
		return err
	}
	if err := ioutil.WriteFile(destination, b, 0644); err != nil {
		return fmt.Errorf("store: writing %s: %v", destination, err)
	}
	return nil
}

// ReadCount returns the number of features in the file destination.
func (GeoJSON) ReadCount(ctx context.Context, destination string) (int, error) {
	b, err := ioutil.ReadFile(destination)
	if err != nil {
		return 0, fmt.Errorf("store: reading %s: %v", destination, err)
	}
	items, err := DecodeCollection(b)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Remove deletes the file destination if it exists.
func (GeoJSON) Remove(ctx context.Context, destination string) error {
	if err := os.Remove(destination); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: removing %s: %v", destination, err)
	}
	return nil
}
