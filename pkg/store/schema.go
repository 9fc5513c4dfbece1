package store

import (
	"bytes"
	_ "embed"
	"encoding/json"

	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed snapshot.schema.json
var schemaJSON []byte

const schemaURL = "snapshot.schema.json"

// compileSchema compiles the embedded document schema
func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to load snapshot schema")
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to compile snapshot schema")
	}
	return schema, nil
}

func validate(schema *jsonschema.Schema, data []byte) error {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return errors.Wrap(err, errors.ErrStoreCorrupt, "invalid snapshot document")
	}
	if err := schema.Validate(instance); err != nil {
		return errors.Wrap(err, errors.ErrStoreCorrupt, "snapshot document does not match schema")
	}
	return nil
}
