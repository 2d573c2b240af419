package templater

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const ConfigFile = "config.json"

// Config is written after every successful sync as a record of the last
// synchronized repository.
type Config struct {
	DefaultRepo string `json:"defaultRepo"`
	Ref         string `json:"ref"`
}

func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, ConfigFile)
}

func SaveConfig(dataDir string, config Config) (string, error) {
	configPath := ConfigPath(dataDir)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", errors.Wrapf(err, "cannot create %s", dataDir)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "cannot marshal config")
	}

	if err := ioutil.WriteFile(configPath, data, 0644); err != nil {
		return "", errors.Wrapf(err, "cannot write %s", configPath)
	}

	return configPath, nil
}
