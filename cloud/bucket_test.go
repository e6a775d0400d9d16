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

package cloud

import (
	"context"
	"io/ioutil"
	"os"
	"testing"
)

func TestIsBlob(t *testing.T) {
	for path, want := range map[string]bool{
		"gs://bucket/area.shp": true,
		"s3://bucket/area.shp": true,
		"file://test/area.shp": true,
		"area.shp":             false,
		"http://host/area.shp": false,
		"/tmp/gs://confusing":  false,
	} {
		if got := IsBlob(path); got != want {
			t.Errorf("IsBlob(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestOpenPath(t *testing.T) {
	ctx := context.Background()
	if err := os.MkdirAll("testbucket", os.ModePerm); err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll("testbucket")

	bucket, key, err := OpenPath(ctx, "file://testbucket/out/transects.shp")
	if err != nil {
		t.Fatal(err)
	}
	defer bucket.Close()
	if key != "out/transects.shp" {
		t.Errorf("key = %q, want out/transects.shp", key)
	}
	if err := bucket.WriteAll(ctx, key, []byte("abc"), nil); err != nil {
		t.Fatal(err)
	}
	b, err := ioutil.ReadFile("testbucket/out/transects.shp")
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "abc" {
		t.Errorf("blob holds %q", b)
	}

	if _, _, err := OpenPath(ctx, "file://testbucket"); err == nil {
		t.Error("expected an error for a path without a key")
	}
	if _, _, err := OpenPath(ctx, "ftp://testbucket/transects.shp"); err == nil {
		t.Error("expected an error for an unsupported provider")
	}
}
