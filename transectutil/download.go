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

package transectutil

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spatialmodel/transects/cloud"
	"github.com/spatialmodel/transects/store"
)

// maybeDownload checks if the input is an existing file locally.
// If not, it checks if the file is a URL or blob storage location.
// If it is, it downloads the file and
// returns the path to the downloaded file.
// For shapefiles, it downloads all associated files and
// returns the path to the file with the ".shp" extension.
// The returned cleanup function removes anything that was downloaded.
func maybeDownload(ctx context.Context, path string) (string, func(), error) {
	// Check if local file exists. If it does, return the given path.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return path, func() {}, nil
	}

	var local string
	var err error
	switch {
	case strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://"):
		local, err = downloadHTTP(ctx, path)
	case cloud.IsBlob(path):
		local, err = store.Blob{}.Download(ctx, path)
	default:
		return path, func() {}, nil
	}
	if err != nil {
		return "", nil, err
	}
	return local, func() { os.RemoveAll(filepath.Dir(local)) }, nil
}

// downloadHTTP downloads a file from the specified URL and returns
// the path to the downloaded file. Missing .prj files are ignored.
func downloadHTTP(ctx context.Context, path string) (string, error) {
	// Prepare a temporary directory for the downloads.
	dir, err := ioutil.TempDir("", "transects")
	if err != nil {
		return "", fmt.Errorf("transects: failed creating temporary download directory: %v", err)
	}

	fnames := store.ExpandShp(path)
	for _, fname := range fnames {
		optional := filepath.Ext(fname) == ".prj"
		if err := downloadHTTPFile(ctx, fname, filepath.Join(dir, filepath.Base(fname)), optional); err != nil {
			os.RemoveAll(dir)
			return "", err
		}
	}
	return filepath.Join(dir, filepath.Base(fnames[0])), nil
}

func downloadHTTPFile(ctx context.Context, url, dst string, optional bool) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("transects: downloading %s: %v", url, err)
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("transects: downloading %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound && optional {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("transects: downloading %s: %s", url, resp.Status)
	}
	w, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("transects: failed creating file for download: %v", err)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		w.Close()
		return fmt.Errorf("transects: downloading %s: %v", url, err)
	}
	return w.Close()
}
