//go:build !ceph

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

package store

import "context"

// CephBackend is a stub when Ceph support is not compiled in. Build with
// -tags=ceph to link github.com/ceph/go-ceph/rados and get the real
// implementation (see ceph.go).
type CephBackend struct {
	pool string
}

var _ Backend = (*CephBackend)(nil)

// NewCeph returns a backend that fails on first use. Build with
// -tags=ceph for a working Ceph backend.
func NewCeph(pool string) *CephBackend {
	return &CephBackend{pool: pool}
}

func (c *CephBackend) Get(_ context.Context, path string) ([]byte, error) {
	return nil, errCephNotCompiled
}

func (c *CephBackend) Put(_ context.Context, path string, data []byte) error {
	return errCephNotCompiled
}

var errCephNotCompiled = cephNotCompiledError{}

type cephNotCompiledError struct{}

func (cephNotCompiledError) Error() string {
	return "store: ceph support not compiled in; build with -tags=ceph"
}
