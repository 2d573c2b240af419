package templater

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

const SchemaFile = "template.json"

const (
	QuestionInput    = "input"
	QuestionPassword = "password"
)

//go:embed schema/template.schema.json
var manifestSchemaBytes []byte

var (
	manifestSchema     *jsonschema.Schema
	manifestSchemaOnce sync.Once
	manifestSchemaErr  error
)

// Schema is the optional template.json manifest. Questions are asked in order.
type Schema struct {
	Questions []Question `json:"questions"`
}

type Question struct {
	Name    string  `json:"name"`
	Message string  `json:"message,omitempty"`
	Type    string  `json:"type,omitempty"`
	Default *string `json:"default,omitempty"`
}

// Prompt returns the text shown to the user, falling back to the name.
func (q Question) Prompt() string {
	if q.Message != "" {
		return q.Message
	}
	return q.Name
}

func (q Question) IsPassword() bool {
	return q.Type == QuestionPassword
}

func compiledManifestSchema() (*jsonschema.Schema, error) {
	manifestSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(manifestSchemaBytes))
		if err != nil {
			manifestSchemaErr = errors.Wrap(err, "cannot unmarshal manifest schema")
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource("template.schema.json", doc); err != nil {
			manifestSchemaErr = errors.Wrap(err, "cannot add manifest schema")
			return
		}

		manifestSchema, manifestSchemaErr = c.Compile("template.schema.json")
		if manifestSchemaErr != nil {
			manifestSchemaErr = errors.Wrap(manifestSchemaErr, "cannot compile manifest schema")
		}
	})

	return manifestSchema, manifestSchemaErr
}

// ParseSchema decodes and validates template.json content.
func ParseSchema(data []byte) (*Schema, error) {
	compiled, err := compiledManifestSchema()
	if err != nil {
		return nil, err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(ErrSchemaParse, err.Error())
	}
	if err := compiled.Validate(inst); err != nil {
		return nil, errors.Wrap(ErrSchemaParse, err.Error())
	}

	schema := &Schema{}
	if err := json.Unmarshal(data, schema); err != nil {
		return nil, errors.Wrap(ErrSchemaParse, err.Error())
	}

	seen := map[string]struct{}{}
	for _, q := range schema.Questions {
		if _, ok := seen[q.Name]; ok {
			return nil, errors.Wrapf(ErrSchemaParse, "duplicated question %q", q.Name)
		}
		seen[q.Name] = struct{}{}
	}

	return schema, nil
}
