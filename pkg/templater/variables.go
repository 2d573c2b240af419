package templater

import (
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const NameVariable = "name"

// Variables is the data a template is rendered with.
type Variables map[string]interface{}

// Merge returns a new set where later sets override earlier ones.
func (v Variables) Merge(others ...Variables) Variables {
	merged := Variables{}
	for key, value := range v {
		merged[key] = value
	}
	for _, other := range others {
		for key, value := range other {
			merged[key] = value
		}
	}

	return merged
}

// Name returns the name variable if it is a non-empty string.
func (v Variables) Name() (string, bool) {
	name, ok := v[NameVariable].(string)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

func (v Variables) validate() error {
	if _, ok := v.Name(); !ok {
		return errors.Wrapf(ErrValidation, "variables must include a non-empty %q", NameVariable)
	}
	return nil
}

// ParseVarsJSON parses a JSON object of variables.
func ParseVarsJSON(s string) (Variables, error) {
	var vars Variables
	if err := json.Unmarshal([]byte(s), &vars); err != nil {
		return nil, errors.Wrapf(ErrValidation, "invalid JSON: %s", err)
	}
	if vars == nil {
		return nil, errors.Wrap(ErrValidation, "variables must be a JSON object")
	}
	return vars, nil
}

// LoadVarsFile reads variables from a .toml, .yaml, .yml or .json file.
func LoadVarsFile(path string) (Variables, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read variables file %s", path)
	}

	// decoded into a plain map so nested tables keep their generic type
	raw := map[string]interface{}{}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".json":
		err = json.Unmarshal(data, &raw)
	default:
		return nil, errors.Wrapf(ErrValidation, "unsupported variables file extension %q", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(ErrValidation, "invalid variables file %s: %s", path, err)
	}
	if raw == nil {
		return nil, errors.Wrapf(ErrValidation, "variables file %s is not a mapping", path)
	}

	return Variables(raw), nil
}
