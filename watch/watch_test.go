package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/launix-de/cast/container"
	"github.com/stretchr/testify/require"
)

func TestEligibleExtensions(t *testing.T) {
	require.True(t, eligible("/tmp/orders.csv"))
	require.True(t, eligible("/tmp/orders.CSV"))
	require.True(t, eligible("/tmp/dump.sql"))
	require.False(t, eligible("/tmp/readme.md"))
	require.False(t, eligible("/tmp/noext"))
}

func TestDaemonCompressesSettledFile(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()

	d := New(Options{
		InDir:         inDir,
		OutDir:        outDir,
		ContainerOpts: container.DefaultOptions(),
		SettleDelay:   50 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	// give the watcher a moment to register before writing
	time.Sleep(100 * time.Millisecond)
	src := filepath.Join(inDir, "rows.csv")
	require.NoError(t, os.WriteFile(src, []byte("1,a\n2,b\n3,c\n"), 0644))

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(outDir, "rows.csv.cast"))
		return err == nil
	}, 1500*time.Millisecond, 25*time.Millisecond)

	cancel()
	<-done
}
