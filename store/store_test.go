package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalBackendRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "container.cast")

	var b LocalBackend
	require.NoError(t, b.Put(context.Background(), path, []byte("hello container")))

	data, err := b.Get(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "hello container", string(data))

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, data, onDisk)
}

func TestOpenDispatchesByScheme(t *testing.T) {
	dir := t.TempDir()

	b, path, err := Open(filepath.Join(dir, "x.cast"))
	require.NoError(t, err)
	require.IsType(t, LocalBackend{}, b)
	require.Equal(t, filepath.Join(dir, "x.cast"), path)

	b, path, err = Open("s3://my-bucket/shards/001.cast")
	require.NoError(t, err)
	require.IsType(t, &S3Backend{}, b)
	require.Equal(t, "shards/001.cast", path)

	b, path, err = Open("ceph://my-pool/shards/001.cast")
	require.NoError(t, err)
	require.IsType(t, &CephBackend{}, b)
	require.Equal(t, "shards/001.cast", path)

	_, _, err = Open("s3://missing-slash")
	require.Error(t, err)
}

func TestCopyInto(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.cast")
	dstPath := filepath.Join(dir, "dst.cast")

	var local LocalBackend
	require.NoError(t, local.Put(context.Background(), srcPath, []byte("payload")))
	require.NoError(t, CopyInto(context.Background(), local, srcPath, local, dstPath))

	data, err := local.Get(context.Background(), dstPath)
	require.NoError(t, err)
	require.Equal(t, "payload", string(data))
}
