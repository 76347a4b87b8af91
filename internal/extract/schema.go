// Package extract turns unstructured page content into typed records.
// It selects a schema and instructions for a content type, prompts the
// inference port, and validates and repairs the returned payload.
package extract

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// FieldType enumerates the value types a schema field may carry.
type FieldType string

const (
	// FieldString is a text value.
	FieldString FieldType = "string"
	// FieldNumber is a numeric value.
	FieldNumber FieldType = "number"
	// FieldBoolean is a true/false value.
	FieldBoolean FieldType = "boolean"
	// FieldList is an ordered sequence of values.
	FieldList FieldType = "list"
	// FieldObject is a nested mapping.
	FieldObject FieldType = "object"
)

// validFieldTypes guards schema validation.
var validFieldTypes = map[FieldType]struct{}{
	FieldString:  {},
	FieldNumber:  {},
	FieldBoolean: {},
	FieldList:    {},
	FieldObject:  {},
}

// Field is one named, typed slot in an extraction schema.
type Field struct {
	Name        string    `json:"name" yaml:"name" mapstructure:"name"`
	Type        FieldType `json:"type" yaml:"type" mapstructure:"type"`
	Required    bool      `json:"required,omitempty" yaml:"required,omitempty" mapstructure:"required"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
}

// Schema describes the shape of records extracted from a page.
type Schema struct {
	Name   string  `json:"name" yaml:"name" mapstructure:"name"`
	Fields []Field `json:"fields" yaml:"fields" mapstructure:"fields"`
	// LinkField names the field whose value is a followable URL, if any.
	LinkField string `json:"linkField,omitempty" yaml:"link_field,omitempty" mapstructure:"link_field"`
}

// Validate checks that the schema decomposes into named, typed fields.
// A failure here is a ConfigurationError at the call sites.
func (s Schema) Validate() error {
	if len(s.Fields) == 0 {
		return &ConfigurationError{Reason: fmt.Sprintf("schema %q has no fields", s.Name)}
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return &ConfigurationError{Reason: fmt.Sprintf("schema %q has an unnamed field", s.Name)}
		}
		if _, ok := validFieldTypes[f.Type]; !ok {
			return &ConfigurationError{
				Reason: fmt.Sprintf("schema %q field %q has unknown type %q", s.Name, f.Name, f.Type),
			}
		}
		if _, dup := seen[f.Name]; dup {
			return &ConfigurationError{Reason: fmt.Sprintf("schema %q has duplicate field %q", s.Name, f.Name)}
		}
		seen[f.Name] = struct{}{}
	}
	if s.LinkField != "" {
		if _, ok := seen[s.LinkField]; !ok {
			return &ConfigurationError{
				Reason: fmt.Sprintf("schema %q link field %q is not a schema field", s.Name, s.LinkField),
			}
		}
	}
	return nil
}

// Field returns the field definition by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// JSONSchema renders the schema as a JSON-schema document suitable for
// the inference prompt.
func (s Schema) JSONSchema() (json.RawMessage, error) {
	properties := make(map[string]any, len(s.Fields))
	required := make([]string, 0, len(s.Fields))

	for _, f := range s.Fields {
		prop := map[string]any{"type": jsonType(f.Type)}
		if f.Type == FieldList {
			prop["items"] = map[string]any{}
		}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		properties[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}

	doc := map[string]any{
		"type":       "object",
		"title":      s.Name,
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("render schema %q: %w", s.Name, err)
	}
	return out, nil
}

// jsonType maps a FieldType to its JSON-schema type keyword.
func jsonType(t FieldType) string {
	switch t {
	case FieldNumber:
		return "number"
	case FieldBoolean:
		return "boolean"
	case FieldList:
		return "array"
	case FieldObject:
		return "object"
	default:
		return "string"
	}
}

// DecodeSchema builds a Schema from a loosely typed document, such as a
// viper sub-tree or a parsed YAML/JSON file. The result is validated.
func DecodeSchema(raw map[string]any) (Schema, error) {
	var s Schema
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Schema{}, fmt.Errorf("schema decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return Schema{}, &ConfigurationError{Reason: fmt.Sprintf("malformed schema document: %v", err)}
	}
	if err := s.Validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// LoadSchemaFile reads a custom schema from a YAML or JSON file.
func LoadSchemaFile(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, &ConfigurationError{Reason: fmt.Sprintf("read schema file: %v", err)}
	}

	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return Schema{}, &ConfigurationError{Reason: fmt.Sprintf("parse schema file %s: %v", path, err)}
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Schema{}, &ConfigurationError{Reason: fmt.Sprintf("parse schema file %s: %v", path, err)}
		}
	}

	return DecodeSchema(raw)
}
