package batch

import (
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/karupanerura/shunting-yard/internal/types"
)

func ParseBatchYAML(r io.Reader) (*Batch, error) {
	yamlBytes, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}

	jsonBytes, err := yaml.YAMLToJSON(yamlBytes)
	if err != nil {
		return nil, &types.Error{Tag: types.ValueErrorTag, Err: fmt.Errorf("yaml.YAMLToJSON: %w", err), Pos: types.NoPos}
	}

	return ParseBatchJSON(bytes.NewReader(jsonBytes))
}

func ParseBatchJSON(r io.Reader) (*Batch, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var def batchDef
	if err := decoder.Decode(&def); err != nil {
		return nil, &types.Error{Tag: types.ValueErrorTag, Err: fmt.Errorf("json.Decode: %w", err), Pos: types.NoPos}
	}

	return def.compile()
}
