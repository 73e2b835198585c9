package config

import (
	"bytes"
	_ "embed"
	stdjson "encoding/json"
	"fmt"
	"sync"

	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "metriculator.schema.json"

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
})

// ValidationError reports a config document that does not match the schema.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config %s: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Schema returns the embedded JSON schema for config documents.
func Schema() []byte {
	return bytes.Clone(schemaJSON)
}

// Validate checks the document at path against the schema, whatever its
// format, and then loads it. Unknown keys are rejected here while Load
// ignores them.
func Validate(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	raw, err := stdjson.Marshal(k.Raw())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	sch, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return nil, &ValidationError{Path: path, Err: err}
	}

	return Load(path)
}
