package imagesink

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilesystemSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "public", "screenshots")
	sink, err := NewFilesystemSink(dir)
	require.NoError(t, err)
	require.Equal(t, dir, sink.Directory())

	id, err := sink.Store(context.Background(), []byte("png"), "cooldown-full-6-1-a-1-1.png")
	require.NoError(t, err)
	require.Equal(t, "cooldown-full-6-1-a-1-1.png", id)

	contents, err := os.ReadFile(filepath.Join(dir, id))
	require.NoError(t, err)
	require.Equal(t, []byte("png"), contents)
}

func TestFilesystemSinkRejectsPaths(t *testing.T) {
	sink, err := NewFilesystemSink(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../escape.png", "nested/name.png", ".hidden"} {
		_, err := sink.Store(context.Background(), []byte("x"), name)
		require.Error(t, err, "name: %q", name)
	}
}

func TestFilesystemSinkCancelled(t *testing.T) {
	sink, err := NewFilesystemSink(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sink.Store(ctx, []byte("x"), "a.png")
	require.ErrorIs(t, err, context.Canceled)
}
