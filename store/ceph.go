//go:build ceph

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

import (
	"context"
	"fmt"
	"sync"

	"github.com/ceph/go-ceph/rados"
)

// CephBackend stores container files as whole RADOS objects in a single
// pool, one object per path. Connection/IOContext lifecycle is lazy, the
// way S3Backend.ensureOpen lazily builds its client, and is grounded on
// the teacher's storage/persistence-ceph.go CephFactory.
type CephBackend struct {
	pool string

	UserName    string
	ClusterName string
	ConfFile    string

	mu   sync.Mutex
	conn *rados.Conn
	ioctx *rados.IOContext
}

var _ Backend = (*CephBackend)(nil)

// NewCeph returns a backend targeting pool, using the default cluster
// name ("ceph"), user ("client.admin") and config file ("/etc/ceph/ceph.conf")
// unless overridden on the returned struct before first use.
func NewCeph(pool string) *CephBackend {
	return &CephBackend{pool: pool}
}

func (c *CephBackend) ensureOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ioctx != nil {
		return nil
	}

	userName := c.UserName
	if userName == "" {
		userName = "client.admin"
	}
	clusterName := c.ClusterName
	if clusterName == "" {
		clusterName = "ceph"
	}
	confFile := c.ConfFile
	if confFile == "" {
		confFile = "/etc/ceph/ceph.conf"
	}

	conn, err := rados.NewConnWithClusterAndUser(clusterName, userName)
	if err != nil {
		return fmt.Errorf("store: ceph conn: %w", err)
	}
	if err := conn.ReadConfigFile(confFile); err != nil {
		return fmt.Errorf("store: ceph read config %s: %w", confFile, err)
	}
	if err := conn.Connect(); err != nil {
		return fmt.Errorf("store: ceph connect: %w", err)
	}
	ioctx, err := conn.OpenIOContext(c.pool)
	if err != nil {
		conn.Shutdown()
		return fmt.Errorf("store: ceph open pool %s: %w", c.pool, err)
	}
	c.conn = conn
	c.ioctx = ioctx
	return nil
}

// Get reads the whole object at path out of the pool.
func (c *CephBackend) Get(_ context.Context, path string) ([]byte, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}
	stat, err := c.ioctx.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("store: ceph stat %s/%s: %w", c.pool, path, err)
	}
	buf := make([]byte, stat.Size)
	var off uint64
	for off < stat.Size {
		n, err := c.ioctx.Read(path, buf[off:], off)
		if err != nil {
			return nil, fmt.Errorf("store: ceph read %s/%s: %w", c.pool, path, err)
		}
		if n == 0 {
			break
		}
		off += uint64(n)
	}
	return buf[:off], nil
}

// Put writes data as the full contents of path, replacing it.
func (c *CephBackend) Put(_ context.Context, path string, data []byte) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	if err := c.ioctx.WriteFull(path, data); err != nil {
		return fmt.Errorf("store: ceph write %s/%s: %w", c.pool, path, err)
	}
	return nil
}
