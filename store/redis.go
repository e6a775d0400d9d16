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
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spatialmodel/transects"
)

// Redis stores transect collections as GeoJSON FeatureCollections in a
// Redis database, with the destination used as the key.
type Redis struct {
	Client *redis.Client

	// TTL is the expiration of stored collections. Zero means no
	// expiration.
	TTL time.Duration
}

// OpenRedis connects to the Redis database specified by a destination of
// the form redis://[user:password@]host:port/db?key=name and returns it
// along with the key that the collection should be stored at. If the key
// parameter is missing, "transects" is used.
func OpenRedis(destination string) (*Redis, string, error) {
	server, key, err := splitRedisDestination(destination)
	if err != nil {
		return nil, "", err
	}
	opt, err := redis.ParseURL(server)
	if err != nil {
		return nil, "", fmt.Errorf("store: parsing redis destination: %v", err)
	}
	return &Redis{Client: redis.NewClient(opt)}, key, nil
}

// splitRedisDestination separates the server URL from the key in a
// redis destination.
func splitRedisDestination(destination string) (server, key string, err error) {
	u, err := url.Parse(destination)
	if err != nil {
		return "", "", fmt.Errorf("store: parsing redis destination: %v", err)
	}
	q := u.Query()
	key = q.Get("key")
	if key == "" {
		key = "transects"
	}
	q.Del("key")
	u.RawQuery = q.Encode()
	return u.String(), key, nil
}

// WriteCollection stores items at the key destination as GeoJSON.
func (r *Redis) WriteCollection(ctx context.Context, items []transects.Transect, destination string) error {
	b, err := EncodeCollection(items)
	if err != nil {
		return err
	}
	if err := r.Client.Set(ctx, destination, b, r.TTL).Err(); err != nil {
		return fmt.Errorf("store: writing redis key %s: %w", destination, err)
	}
	return nil
}

// ReadCount decodes the collection at the key destination and returns
// its length.
func (r *Redis) ReadCount(ctx context.Context, destination string) (int, error) {
	b, err := r.Client.Get(ctx, destination).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("store: redis key %s does not exist", destination)
	} else if err != nil {
		return 0, fmt.Errorf("store: reading redis key %s: %w", destination, err)
	}
	items, err := DecodeCollection(b)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Remove deletes the key destination.
func (r *Redis) Remove(ctx context.Context, destination string) error {
	if err := r.Client.Del(ctx, destination).Err(); err != nil {
		return fmt.Errorf("store: deleting redis key %s: %w", destination, err)
	}
	return nil
}

// Close closes the connection to the database.
func (r *Redis) Close() error {
	return r.Client.Close()
}
