package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// Validator can be implemented by config structs that need to check
// their own fields after being read.
type Validator interface {
	Validate() error
}

func validate(config any) error {
	v, ok := config.(Validator)
	if !ok {
		return nil
	}
	return v.Validate()
}

var envReference = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces `${NAME}` with the value of the environment variable
// NAME, a bare `$` is left alone so it can appear in passwords.
func expandEnv(contents []byte) []byte {
	return envReference.ReplaceAllFunc(contents, func(match []byte) []byte {
		name := envReference.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// readFile decodes one config file, found is false when it does not exist.
func readFile[T any](path string) (out T, found bool, err error) {
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return out, false, nil
	}
	if err != nil {
		return out, false, err
	}
	if len(strings.TrimSpace(string(contents))) == 0 {
		return out, false, nil
	}
	err = json5.Unmarshal(expandEnv(contents), &out)
	if err != nil {
		return out, true, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, true, nil
}

// localPath turns `dir/name.ext` into `dir/name.local.ext`.
func localPath(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

// ReadConfig reads a configuration file, `name` should come with a file
// extension. `<name>.local.<ext>` next to it is merged over it when present.
// os.ErrNotExist is returned when neither file exists.
func ReadConfig[T any](name string) (T, error) {
	out, foundDefault, err := readFile[T](name)
	if err != nil {
		return out, err
	}

	local := localPath(name)
	override, foundLocal, err := readFile[T](local)
	if err != nil {
		return out, err
	}
	if foundLocal {
		err = mergo.Merge(&out, override, mergo.WithOverride)
		if err != nil {
			return out, err
		}
		slog.Debug("merging config with local overrides", "local", local)
	}

	if !foundDefault && !foundLocal {
		return out, os.ErrNotExist
	}

	err = validate(&out)
	if err != nil {
		return out, fmt.Errorf("invalid config %s: %w", name, err)
	}
	return out, nil
}

// ReadRecursively is ReadConfig but it walks up from the working directory
// to the filesystem root until a directory has the file.
func ReadRecursively[T any](name string) (T, error) {
	var none T

	current, err := os.Getwd()
	if err != nil {
		return none, err
	}
	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if err == nil {
			return config, nil
		}
		if !os.IsNotExist(err) {
			return none, err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return none, os.ErrNotExist
		}
		current = parent
	}
}
