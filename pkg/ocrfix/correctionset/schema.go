package correctionset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/ocrfix/pkg/ocrfix/internalerr"
)

const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["corrections"],
  "properties": {
    "metadata": {
      "type": "object",
      "properties": {
        "description": {"type": "string"},
        "version": {"type": "string"},
        "generated": {"type": "string"},
        "word_count": {"type": "integer", "minimum": 0},
        "corrections_count": {"type": "integer", "minimum": 0},
        "run_id": {"type": "string"},
        "threshold": {"type": "number"},
        "min_occurrences": {"type": "integer", "minimum": 0}
      }
    },
    "corrections": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    },
    "garbage_patterns": {"type": ["array", "null"], "items": {"type": "string"}},
    "preserve_terms": {"type": ["array", "null"], "items": {"type": "string"}}
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func documentSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("correctionset.json", strings.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("load correction set schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("correctionset.json")
	})
	return schema, schemaErr
}

// Validate checks the shape of a correction set document before it is decoded.
// YAML documents are checked through their JSON equivalent.
func Validate(data []byte, yamlFormat bool) error {
	s, err := documentSchema()
	if err != nil {
		return err
	}

	var doc any
	if yamlFormat {
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w: %v", internalerr.ErrInvalidInput, err)
		}
		buf, err := json.Marshal(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", internalerr.ErrInvalidInput, err)
		}
		data = buf
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrInvalidInput, err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%w: correction set does not match schema: %v", internalerr.ErrInvalidInput, err)
	}
	return nil
}
