/*
Copyright (C) 2026  CAST Contributors

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package store abstracts where a CAST container's bytes come from and go
// to: a local path, an s3:// URL, or a ceph:// RADOS object. The container
// format itself never changes; only the byte source/sink does. Capability
// split (one small backend interface, one Factory-style constructor per
// scheme) is grounded on the teacher's storage/persistence.go
// PersistenceEngine/Factory pattern.
package store

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Backend reads and writes a whole container file as bytes. CAST containers
// are read fully into memory on decode and built fully in memory on encode
// (spec.md's block size cap already bounds peak memory per block; the
// container itself is assumed to fit on the target store), so Backend deals
// in whole-file Get/Put rather than streaming ranges.
type Backend interface {
	// Get returns the full contents at path.
	Get(ctx context.Context, path string) ([]byte, error)
	// Put writes data as the full contents at path, replacing any prior
	// contents.
	Put(ctx context.Context, path string, data []byte) error
}

// Open resolves a location string to a Backend and the path within it.
// Recognized schemes: "s3://bucket/key", "ceph://pool/object", and a bare
// filesystem path (the default).
func Open(location string) (Backend, string, error) {
	switch {
	case strings.HasPrefix(location, "s3://"):
		bucket, key, err := splitBucketKey(strings.TrimPrefix(location, "s3://"))
		if err != nil {
			return nil, "", err
		}
		return NewS3(bucket), key, nil
	case strings.HasPrefix(location, "ceph://"):
		pool, obj, err := splitBucketKey(strings.TrimPrefix(location, "ceph://"))
		if err != nil {
			return nil, "", err
		}
		return NewCeph(pool), obj, nil
	default:
		return LocalBackend{}, location, nil
	}
}

func splitBucketKey(rest string) (string, string, error) {
	i := strings.IndexByte(rest, '/')
	if i < 0 {
		return "", "", fmt.Errorf("store: expected bucket/key form, got %q", rest)
	}
	return rest[:i], rest[i+1:], nil
}

// LocalBackend reads and writes plain filesystem paths.
type LocalBackend struct{}

var _ Backend = LocalBackend{}

func (LocalBackend) Get(_ context.Context, path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (LocalBackend) Put(_ context.Context, path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}

// CopyInto is a convenience for CLI plumbing: Get from src, Put to dst.
func CopyInto(ctx context.Context, src Backend, srcPath string, dst Backend, dstPath string) error {
	data, err := src.Get(ctx, srcPath)
	if err != nil {
		return err
	}
	return dst.Put(ctx, dstPath, data)
}
