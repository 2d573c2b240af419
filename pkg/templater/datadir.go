package templater

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

const (
	AppDirName         = "infra-cli"
	TemplatesDirectory = "templates"
	ReposDirectory     = "repos"
)

// DataDir returns ${XDG_DATA_HOME}/infra-cli, or ~/.infra-cli when
// XDG_DATA_HOME is not set.
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, AppDirName), nil
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "cannot resolve home directory")
	}

	return filepath.Join(home, "."+AppDirName), nil
}

func DefaultTemplatesDir(dataDir string) string {
	return filepath.Join(dataDir, TemplatesDirectory)
}

// ExpandPath expands a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", errors.Wrapf(err, "cannot expand %s", path)
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", errors.Wrapf(err, "cannot resolve %s", path)
	}

	return abs, nil
}
