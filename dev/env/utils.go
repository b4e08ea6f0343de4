package devenv

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	moduleName = "curriculum-scraper"
	// StatePrefix marks a path as relative to the dev state directory.
	StatePrefix = "<dev_state>"
	// StateDirEnv overrides where <dev_state> points, useful on hosts where
	// the binary runs outside of a checkout.
	StateDirEnv = "CURRICULUM_STATE_DIR"
)

var modulePattern = regexp.MustCompile(`(?m)^module\s+(\S+)\s*$`)

func isWorkspaceRoot(dir string) bool {
	mod, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return false
	}
	matches := modulePattern.FindSubmatch(mod)
	return len(matches) == 2 && string(matches[1]) == moduleName
}

// GetWorkspaceRoot walks up from the working directory to the checkout of
// this module.
func GetWorkspaceRoot() (string, error) {
	dir, err := filepath.Abs(".")
	if err != nil {
		return "", err
	}
	for {
		if isWorkspaceRoot(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// StateDir is $CURRICULUM_STATE_DIR when set, dev/.state in the workspace
// otherwise. It is created if missing.
func StateDir() (string, error) {
	dir := os.Getenv(StateDirEnv)
	if dir == "" {
		root, err := GetWorkspaceRoot()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(root, "dev", ".state")
	}
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return "", err
	}
	return dir, nil
}

// ResolvePath replaces a leading <dev_state> with StateDir, other paths are
// returned unchanged.
func ResolvePath(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, StatePrefix)
	if !ok {
		return path, nil
	}
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.FromSlash(strings.TrimLeft(rest, `/\`))), nil
}
