package extract

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name    string
		schema  Schema
		wantErr bool
	}{
		{
			name: "valid schema",
			schema: Schema{
				Name: "item",
				Fields: []Field{
					{Name: "title", Type: FieldString, Required: true},
					{Name: "price", Type: FieldNumber},
				},
			},
		},
		{
			name:    "no fields",
			schema:  Schema{Name: "empty"},
			wantErr: true,
		},
		{
			name: "unnamed field",
			schema: Schema{
				Name:   "item",
				Fields: []Field{{Type: FieldString}},
			},
			wantErr: true,
		},
		{
			name: "unknown type",
			schema: Schema{
				Name:   "item",
				Fields: []Field{{Name: "title", Type: "text"}},
			},
			wantErr: true,
		},
		{
			name: "duplicate field",
			schema: Schema{
				Name: "item",
				Fields: []Field{
					{Name: "title", Type: FieldString},
					{Name: "title", Type: FieldString},
				},
			},
			wantErr: true,
		},
		{
			name: "link field not declared",
			schema: Schema{
				Name:      "item",
				Fields:    []Field{{Name: "title", Type: FieldString}},
				LinkField: "url",
			},
			wantErr: true,
		},
		{
			name: "link field declared",
			schema: Schema{
				Name: "item",
				Fields: []Field{
					{Name: "title", Type: FieldString},
					{Name: "url", Type: FieldString},
				},
				LinkField: "url",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if tt.wantErr {
				var cfgErr *ConfigurationError
				require.ErrorAs(t, err, &cfgErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSchemaJSONSchema(t *testing.T) {
	schema := Schema{
		Name: "product",
		Fields: []Field{
			{Name: "name", Type: FieldString, Required: true},
			{Name: "rating", Type: FieldNumber},
			{Name: "images", Type: FieldList, Description: "image URLs"},
		},
	}

	raw, err := schema.JSONSchema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, "product", doc["title"])
	assert.Equal(t, []any{"name"}, doc["required"])

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	images, ok := props["images"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "array", images["type"])
	assert.Equal(t, "image URLs", images["description"])
}

func TestDecodeSchema(t *testing.T) {
	raw := map[string]any{
		"name": "job",
		"fields": []any{
			map[string]any{"name": "title", "type": "string", "required": true},
			map[string]any{"name": "url", "type": "string"},
		},
		"link_field": "url",
	}

	schema, err := DecodeSchema(raw)
	require.NoError(t, err)
	assert.Equal(t, "job", schema.Name)
	assert.Len(t, schema.Fields, 2)
	assert.Equal(t, "url", schema.LinkField)
	assert.True(t, schema.Fields[0].Required)
}

func TestDecodeSchemaInvalid(t *testing.T) {
	_, err := DecodeSchema(map[string]any{"name": "empty"})
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestLoadSchemaFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "schema.yaml")
	yamlDoc := `name: listing
fields:
  - name: title
    type: string
    required: true
  - name: url
    type: string
link_field: url
`
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlDoc), 0o600))

	schema, err := LoadSchemaFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "listing", schema.Name)
	assert.Equal(t, "url", schema.LinkField)

	jsonPath := filepath.Join(dir, "schema.json")
	jsonDoc := `{"name":"listing","fields":[{"name":"title","type":"string"}]}`
	require.NoError(t, os.WriteFile(jsonPath, []byte(jsonDoc), 0o600))

	schema, err = LoadSchemaFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "listing", schema.Name)

	_, err = LoadSchemaFile(filepath.Join(dir, "missing.yaml"))
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}
