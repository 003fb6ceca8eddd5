package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"ratetables/internal/ddl"
	"ratetables/internal/schema"
)

// ErrRecords reports records that do not match their table's columns.
var ErrRecords = errors.New("artifact records do not match the table")

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

var jsonTypes = map[string]string{
	ddl.TypeText:  "string",
	ddl.TypeInt:   "integer",
	ddl.TypeFloat: "number",
	ddl.TypeBool:  "boolean",
}

// recordsSchema renders the JSON Schema of a records array for td: every
// column is required, nothing else is allowed and nullable columns also
// accept null.
func recordsSchema(td ddl.TableDef) map[string]any {
	props := make(map[string]any, len(td.Columns))
	required := make([]string, 0, len(td.Columns))
	for _, c := range td.Columns {
		var typ any = jsonTypes[c.Type]
		if c.Nullable {
			typ = []string{jsonTypes[c.Type], "null"}
		}
		props[c.Name] = map[string]any{"type": typ}
		required = append(required, c.Name)
	}
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "array",
		"items": map[string]any{
			"type":                 "object",
			"properties":           props,
			"required":             required,
			"additionalProperties": false,
		},
	}
}

func compileSchemas() (map[string]*jsonschema.Schema, error) {
	out := make(map[string]*jsonschema.Schema)
	for _, td := range schema.Tables() {
		raw, err := json.Marshal(recordsSchema(td))
		if err != nil {
			return nil, err
		}
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		url := fmt.Sprintf("https://ratetables.local/artifact/%s.schema.json", td.Name)
		if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("load %s schema: %w", td.Name, err)
		}
		s, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", td.Name, err)
		}
		out[td.Name] = s
	}
	return out, nil
}

// validateRecords checks records against the schema of table. Tables without
// a schema are not checked.
func validateRecords(table string, records []byte) error {
	schemasOnce.Do(func() { schemas, schemasErr = compileSchemas() })
	if schemasErr != nil {
		return schemasErr
	}
	s, ok := schemas[table]
	if !ok {
		return nil
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(records))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("%w: %v", ErrRecords, err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrRecords, err)
	}
	return nil
}
