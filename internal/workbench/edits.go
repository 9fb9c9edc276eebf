package workbench

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/offerscan/internal/table"
)

// Edit is one table correction from a batch edits file. Row is 1-based.
type Edit struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
}

var editsSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type":    "array",
	"items": map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"row", "column", "value"},
		"properties": map[string]any{
			"row":    map[string]any{"type": "integer", "minimum": 1},
			"column": map[string]any{"enum": []any{"Name", "Company", "Duration", "name", "company", "duration"}},
			"value":  map[string]any{"type": "string", "maxLength": 500},
		},
	},
}

// ParseEdits validates data against the edits schema and decodes it.
func ParseEdits(data []byte) ([]Edit, error) {
	if err := validateJSON(editsSchema, data); err != nil {
		return nil, err
	}
	var edits []Edit
	if err := json.Unmarshal(data, &edits); err != nil {
		return nil, fmt.Errorf("decode edits: %w", err)
	}
	return edits, nil
}

func validateJSON(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("edits.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("edits.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal edits: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("edits do not match schema: %w", err)
	}
	return nil
}

// ApplyEdits types every edit into the grid. Nothing reaches the store
// until the next Save, navigation or export.
func (w *Workbench) ApplyEdits(edits []Edit) error {
	for _, e := range edits {
		col, err := table.ParseColumn(e.Column)
		if err != nil {
			return err
		}
		if err := w.EditCell(e.Row-1, col, e.Value); err != nil {
			return fmt.Errorf("edit row %d: %w", e.Row, err)
		}
	}
	return nil
}
