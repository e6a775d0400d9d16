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

// Package store persists transect collections to shapefiles, GeoJSON files,
// Redis and blob storage.
package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spatialmodel/transects"
	"github.com/spatialmodel/transects/cloud"
)

// Mux is a transects.Sink that dispatches each destination to the
// appropriate sink:
//
//	redis://...            Redis
//	gs://, s3://, file://  Blob
//	*.geojson, *.json      GeoJSON
//	anything else          Shapefile
type Mux struct {
	Shapefile Shapefile
	Blob      Blob

	mu    sync.Mutex
	redis map[string]*Redis
}

// route returns the sink for destination and the destination as that
// sink understands it.
func (m *Mux) route(destination string) (transects.Sink, string, error) {
	switch {
	case strings.HasPrefix(destination, "redis://") || strings.HasPrefix(destination, "rediss://"):
		server, key, err := splitRedisDestination(destination)
		if err != nil {
			return nil, "", err
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if r, ok := m.redis[server]; ok {
			return r, key, nil
		}
		r, _, err := OpenRedis(destination)
		if err != nil {
			return nil, "", err
		}
		if m.redis == nil {
			m.redis = make(map[string]*Redis)
		}
		m.redis[server] = r
		return r, key, nil
	case cloud.IsBlob(destination):
		return m.Blob, destination, nil
	}
	switch strings.ToLower(filepath.Ext(destination)) {
	case ".geojson", ".json":
		return GeoJSON{}, destination, nil
	default:
		return m.Shapefile, destination, nil
	}
}

// WriteCollection writes items using the sink for destination.
func (m *Mux) WriteCollection(ctx context.Context, items []transects.Transect, destination string) error {
	s, d, err := m.route(destination)
	if err != nil {
		return err
	}
	return s.WriteCollection(ctx, items, d)
}

// ReadCount reads the count using the sink for destination.
func (m *Mux) ReadCount(ctx context.Context, destination string) (int, error) {
	s, d, err := m.route(destination)
	if err != nil {
		return 0, err
	}
	return s.ReadCount(ctx, d)
}

// Remove deletes destination using its sink.
func (m *Mux) Remove(ctx context.Context, destination string) error {
	s, d, err := m.route(destination)
	if err != nil {
		return err
	}
	r, ok := s.(transects.Remover)
	if !ok {
		return fmt.Errorf("store: cannot remove %s", destination)
	}
	return r.Remove(ctx, d)
}

// Close closes any open database connections.
func (m *Mux) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for server, r := range m.redis {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(m.redis, server)
	}
	return firstErr
}
