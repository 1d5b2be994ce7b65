package batch

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/karupanerura/shunting-yard/internal/types"
	"github.com/mitchellh/mapstructure"
)

type batchDef struct {
	Expressions []any `json:"expressions"`
}

type entryDef struct {
	Name   string `json:"name" mapstructure:"name"`
	Source string `json:"source" mapstructure:"source"`
}

func (d *batchDef) compile() (*Batch, error) {
	if len(d.Expressions) == 0 {
		return nil, types.NewError(types.ValueErrorTag, types.NoPos, "expressions: required")
	}

	b := &Batch{Entries: make([]Entry, len(d.Expressions))}
	names := make(map[string]int, len(d.Expressions))
	for i, v := range d.Expressions {
		entry, err := compileEntry(i, v)
		if err != nil {
			return nil, &types.Error{
				Tag: types.ValueErrorTag,
				Err: fmt.Errorf("expressions[%d]: %w", i, err),
				Pos: types.NoPos,
			}
		}
		if j, duplicated := names[entry.Name]; duplicated {
			return nil, types.NewError(types.ValueErrorTag, types.NoPos, "expressions[%d]: name %q is duplicated with expressions[%d]", i, entry.Name, j)
		}
		names[entry.Name] = i
		b.Entries[i] = entry
	}
	return b, nil
}

func compileEntry(i int, v any) (Entry, error) {
	switch vv := v.(type) {
	case string:
		return Entry{Name: defaultEntryName(i), Source: vv}, nil

	case json.Number:
		return Entry{Name: defaultEntryName(i), Source: vv.String()}, nil

	case map[string]any:
		var def entryDef
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			ErrorUnused: true,
			Result:      &def,
		})
		if err != nil {
			return Entry{}, fmt.Errorf("mapstructure.NewDecoder: %w", err)
		}
		if err := decoder.Decode(vv); err != nil {
			return Entry{}, err
		}
		if def.Source == "" {
			return Entry{}, fmt.Errorf("source: required")
		}
		if def.Name == "" {
			def.Name = defaultEntryName(i)
		}
		return Entry{Name: def.Name, Source: def.Source}, nil

	default:
		return Entry{}, fmt.Errorf("invalid type: %T", v)
	}
}

func defaultEntryName(i int) string {
	return fmt.Sprintf("expressions[%d]", i)
}
