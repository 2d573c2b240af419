package templater

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

func (t Templater) Root() string {
	return t.TemplatesDir
}

func (t Templater) TemplateDir(templateType, name string) string {
	return filepath.Join(t.TemplatesDir, templateType, name)
}

// List returns the sorted template names of the given type. A missing type
// directory is not an error.
func (t Templater) List(templateType string) ([]string, error) {
	base := filepath.Join(t.TemplatesDir, templateType)

	files, err := ioutil.ReadDir(base)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		// not a directory
		if info, statErr := os.Stat(base); statErr == nil && !info.IsDir() {
			return []string{}, nil
		}
		return nil, errors.Wrapf(err, "cannot list %s templates", templateType)
	}

	names := []string{}
	for _, file := range files {
		if file.Mode()&os.ModeSymlink != 0 {
			target, err := os.Stat(filepath.Join(base, file.Name()))
			if err != nil {
				// dangling link
				continue
			}
			file = target
		}
		if file.IsDir() {
			names = append(names, file.Name())
		}
	}
	sort.Strings(names)

	return names, nil
}

// LoadSchema returns nil without error when the template has no template.json.
func (t Templater) LoadSchema(templateType, name string) (*Schema, error) {
	schemaPath := filepath.Join(t.TemplateDir(templateType, name), SchemaFile)

	data, err := ioutil.ReadFile(schemaPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", schemaPath)
	}

	schema, err := ParseSchema(data)
	if err != nil {
		return nil, errors.Wrapf(err, "%s in %s/%s", SchemaFile, templateType, name)
	}

	return schema, nil
}
