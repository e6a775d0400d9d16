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
	"path"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/transects"
	"github.com/spatialmodel/transects/cloud"
	"gocloud.dev/blob"
)

// Blob writes transect collections to blob storage. Destinations are
// of the form provider://bucket/key, where provider is one of the
// providers supported by cloud.OpenPath. Collections are first written
// to a temporary directory as a shapefile or, for keys with a .geojson or
// .json extension, as GeoJSON, and then uploaded.
type Blob struct {
	// Shapefile is used to write shapefile collections.
	Shapefile Shapefile

	// MaxRetryTime is the longest time to keep retrying a failed
	// transfer. If zero, the backoff package default is used.
	MaxRetryTime time.Duration

	Log logrus.FieldLogger
}

func (s Blob) local(key string) transects.Sink {
	switch filepath.Ext(key) {
	case ".geojson", ".json":
		return GeoJSON{}
	default:
		return s.Shapefile
	}
}

func (s Blob) log() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

// retry runs op with exponential backoff, logging each failure.
func (s Blob) retry(ctx context.Context, op func() error, fields logrus.Fields) error {
	b := backoff.NewExponentialBackOff()
	if s.MaxRetryTime > 0 {
		b.MaxElapsedTime = s.MaxRetryTime
	}
	return backoff.RetryNotify(op, backoff.WithContext(b, ctx),
		func(err error, d time.Duration) {
			s.log().WithFields(fields).WithError(err).Warnf("retrying in %v", d)
		},
	)
}

// tempDir creates a temporary directory for staging a collection.
func tempDir() (string, error) {
	dir, err := ioutil.TempDir("", "transects")
	if err != nil {
		return "", fmt.Errorf("store: creating temporary directory: %v", err)
	}
	return dir, nil
}

// WriteCollection writes items to the blob at destination, replacing any
// earlier collection there.
func (s Blob) WriteCollection(ctx context.Context, items []transects.Transect, destination string) error {
	bucket, key, err := cloud.OpenPath(ctx, destination)
	if err != nil {
		return fmt.Errorf("store: opening bucket for %s: %v", destination, err)
	}
	defer bucket.Close()

	dir, err := tempDir()
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	localPath := filepath.Join(dir, path.Base(key))
	if err := s.local(key).WriteCollection(ctx, items, localPath); err != nil {
		return err
	}
	localFiles := ExpandShp(localPath)
	for i, k := range ExpandShp(key) {
		data, err := ioutil.ReadFile(localFiles[i])
		if os.IsNotExist(err) {
			// No projection was written, so one left by an earlier
			// write no longer applies.
			if err := deleteIfExists(ctx, bucket, k); err != nil {
				return err
			}
			continue
		} else if err != nil {
			return fmt.Errorf("store: reading file '%s' for upload: %v", localFiles[i], err)
		}
		k := k
		err = s.retry(ctx, func() error {
			return bucket.WriteAll(ctx, k, data, &blob.WriterOptions{})
		}, logrus.Fields{"destination": destination, "key": k})
		if err != nil {
			return fmt.Errorf("store: uploading '%s' to '%s': %v", localFiles[i], destination, err)
		}
	}
	return nil
}

// download copies the blob at destination, plus any associated
// shapefile files, into dir and returns the local path.
func (s Blob) download(ctx context.Context, bucket *blob.Bucket, key, dir string) (string, error) {
	localPath := filepath.Join(dir, path.Base(key))
	localFiles := ExpandShp(localPath)
	for i, k := range ExpandShp(key) {
		if i > 0 {
			ok, err := bucket.Exists(ctx, k)
			if err != nil {
				return "", fmt.Errorf("store: checking for '%s': %v", k, err)
			}
			if !ok {
				continue
			}
		}
		var data []byte
		k := k
		err := s.retry(ctx, func() error {
			var err error
			data, err = bucket.ReadAll(ctx, k)
			return err
		}, logrus.Fields{"key": k})
		if err != nil {
			return "", fmt.Errorf("store: downloading '%s': %v", k, err)
		}
		if err := ioutil.WriteFile(localFiles[i], data, 0644); err != nil {
			return "", fmt.Errorf("store: writing downloaded file: %v", err)
		}
	}
	return localPath, nil
}

// ReadCount downloads the collection at destination and returns the number
// of transects in it.
func (s Blob) ReadCount(ctx context.Context, destination string) (int, error) {
	bucket, key, err := cloud.OpenPath(ctx, destination)
	if err != nil {
		return 0, fmt.Errorf("store: opening bucket for %s: %v", destination, err)
	}
	defer bucket.Close()

	dir, err := tempDir()
	if err != nil {
		return 0, err
	}
	defer os.RemoveAll(dir)

	localPath, err := s.download(ctx, bucket, key, dir)
	if err != nil {
		return 0, err
	}
	return s.local(key).ReadCount(ctx, localPath)
}

// Remove deletes the blob at destination and any associated shapefile
// files.
func (s Blob) Remove(ctx context.Context, destination string) error {
	bucket, key, err := cloud.OpenPath(ctx, destination)
	if err != nil {
		return fmt.Errorf("store: opening bucket for %s: %v", destination, err)
	}
	defer bucket.Close()
	for _, k := range ExpandShp(key) {
		if err := deleteIfExists(ctx, bucket, k); err != nil {
			return err
		}
	}
	return nil
}

func deleteIfExists(ctx context.Context, bucket *blob.Bucket, key string) error {
	ok, err := bucket.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("store: checking for '%s': %v", key, err)
	}
	if !ok {
		return nil
	}
	if err := bucket.Delete(ctx, key); err != nil {
		return fmt.Errorf("store: deleting '%s': %v", key, err)
	}
	return nil
}

// Download copies the file at the blob storage path, along with its
// associated shapefile files, into a new temporary directory and returns
// the local path. The caller is responsible for removing the directory.
func (s Blob) Download(ctx context.Context, blobPath string) (string, error) {
	bucket, key, err := cloud.OpenPath(ctx, blobPath)
	if err != nil {
		return "", fmt.Errorf("store: opening bucket for %s: %v", blobPath, err)
	}
	defer bucket.Close()
	dir, err := tempDir()
	if err != nil {
		return "", err
	}
	return s.download(ctx, bucket, key, dir)
}
