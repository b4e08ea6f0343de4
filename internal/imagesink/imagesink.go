package imagesink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	devenv "curriculum-scraper/dev/env"
)

// Sink stores captured image bytes and returns the identifier they can be
// referenced by.
type Sink interface {
	Store(ctx context.Context, contents []byte, name string) (string, error)
}

// FilesystemSink writes images into a directory (usually one that is served
// publicly), the identifier is the file name.
type FilesystemSink struct {
	directory string
}

func NewFilesystemSink(dir string) (FilesystemSink, error) {
	dir, err := devenv.ResolvePath(dir)
	if err != nil {
		return FilesystemSink{}, err
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemSink{}, err
	}
	return FilesystemSink{directory: dir}, nil
}

func (s FilesystemSink) Directory() string {
	return s.directory
}

func (s FilesystemSink) Store(ctx context.Context, contents []byte, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid image name %q", name)
	}
	err := os.WriteFile(filepath.Join(s.directory, name), contents, 0644)
	if err != nil {
		return "", fmt.Errorf("write image %s: %w", name, err)
	}
	return name, nil
}
