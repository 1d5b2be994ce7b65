package batch_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/karupanerura/shunting-yard/internal/batch"
	"github.com/karupanerura/shunting-yard/internal/types"
)

const yamlDocument = `
expressions:
  - "2+3*4"
  - name: area
    source: w*h
  - 42
  - name: broken
    source: "(3+4"
`

func TestParseBatchYAML(t *testing.T) {
	t.Parallel()

	b, err := batch.ParseBatchYAML(strings.NewReader(yamlDocument))
	if err != nil {
		t.Fatal(err)
	}

	expected := []batch.Entry{
		{Name: "expressions[0]", Source: "2+3*4"},
		{Name: "area", Source: "w*h"},
		{Name: "expressions[2]", Source: "42"},
		{Name: "broken", Source: "(3+4"},
	}
	if diff := cmp.Diff(expected, b.Entries); diff != "" {
		t.Errorf("unexpected entries (-want +got):\n%s", diff)
	}
}

func TestParseBatchJSON(t *testing.T) {
	t.Parallel()

	b, err := batch.ParseBatchJSON(strings.NewReader(`{"expressions": [1.5, {"source": "-x"}]}`))
	if err != nil {
		t.Fatal(err)
	}

	expected := []batch.Entry{
		{Name: "expressions[0]", Source: "1.5"},
		{Name: "expressions[1]", Source: "-x"},
	}
	if diff := cmp.Diff(expected, b.Entries); diff != "" {
		t.Errorf("unexpected entries (-want +got):\n%s", diff)
	}
}

func TestParseBatchInvalidDocument(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name   string
		source string
	}{
		{name: "empty", source: `{}`},
		{name: "no expressions", source: `{"expressions": []}`},
		{name: "not an object", source: `[]`},
		{name: "missing source", source: `{"expressions": [{"name": "a"}]}`},
		{name: "unknown key", source: `{"expressions": [{"source": "a", "sauce": "b"}]}`},
		{name: "invalid entry type", source: `{"expressions": [true]}`},
		{name: "duplicated name", source: `{"expressions": [{"name": "a", "source": "1"}, {"name": "a", "source": "2"}]}`},
		{name: "broken JSON", source: `{"expressions": [`},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := batch.ParseBatchJSON(strings.NewReader(tt.source))
			if !types.IsTagged(err, types.ValueErrorTag) {
				t.Fatalf("should be ValueError but got %v", err)
			}
			t.Logf("expected error: %v", err)
		})
	}
}

func TestBatchParse(t *testing.T) {
	t.Parallel()

	b, err := batch.ParseBatchYAML(strings.NewReader(yamlDocument))
	if err != nil {
		t.Fatal(err)
	}

	results, err := b.Parse(context.Background(), batch.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(b.Entries) {
		t.Fatalf("expect %d results but got %d", len(b.Entries), len(results))
	}

	for i, expected := range []struct {
		sexpr string
		depth int
	}{
		{sexpr: "(+ 2 (* 3 4))", depth: 3},
		{sexpr: "(* w h)", depth: 2},
		{sexpr: "42", depth: 1},
	} {
		r := results[i]
		if !r.Succeeded() {
			t.Errorf("results[%d]: unexpected error: %v", i, r.Err)
			continue
		}
		if r.SExpr != expected.sexpr || r.Depth != expected.depth {
			t.Errorf("results[%d]: expect to %s (depth=%d) but got %s (depth=%d)", i, expected.sexpr, expected.depth, r.SExpr, r.Depth)
		}
	}

	if diff := cmp.Diff([]string{"w", "h"}, results[1].Identifiers); diff != "" {
		t.Errorf("unexpected identifiers (-want +got):\n%s", diff)
	}
	if results[0].Identifiers != nil {
		t.Errorf("unexpected identifiers: %v", results[0].Identifiers)
	}

	failed := batch.Failed(results)
	if len(failed) != 1 || failed[0].Name != "broken" {
		t.Fatalf("unexpected failed results: %+v", failed)
	}
	if !types.IsTagged(failed[0].Err, types.SyntaxErrorTag) {
		t.Errorf("should be SyntaxError but got %v", failed[0].Err)
	}
	exception, ok := failed[0].Error.(map[string]any)
	if !ok || exception["position"] != 4 {
		t.Errorf("unexpected exception: %#v", failed[0].Error)
	}
}

func TestBatchParseFailFast(t *testing.T) {
	t.Parallel()

	b := batch.NewBatch("1+1", "1+", "2*2")
	_, err := b.Parse(context.Background(), batch.Options{FailFast: true})
	if !types.IsTagged(err, types.SyntaxErrorTag) {
		t.Fatalf("should be SyntaxError but got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "expressions[1]: ") {
		t.Errorf("error should be prefixed by the entry name: %v", err)
	}
}

func TestBatchParseCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := batch.NewBatch("1", "2").Parse(ctx, batch.Options{})
	if err != context.Canceled {
		t.Fatalf("should be canceled but got %v", err)
	}
	for i, r := range results {
		if r != nil {
			t.Errorf("results[%d] should not be parsed: %+v", i, r)
		}
	}
}

func TestBatchParseMaxDepth(t *testing.T) {
	t.Parallel()

	results, err := batch.NewBatch("((1))", "(((1)))").Parse(context.Background(), batch.Options{MaxDepth: 2})
	if err != nil {
		t.Fatal(err)
	}
	if !results[0].Succeeded() {
		t.Errorf("unexpected error: %v", results[0].Err)
	}
	if !types.IsTagged(results[1].Err, types.RecursionErrorTag) {
		t.Errorf("should be RecursionError but got %v", results[1].Err)
	}
}

func TestBatchParseConcurrency(t *testing.T) {
	t.Parallel()

	t.Run("many entries", func(t *testing.T) {
		t.Parallel()

		sources := make([]string, 10000)
		for i := range sources {
			sources[i] = "x+1"
		}
		results, err := batch.NewBatch(sources...).Parse(context.Background(), batch.Options{Concurrency: 4})
		if err != nil {
			t.Fatal(err)
		}
		for i, r := range results {
			if r == nil || r.Name != fmt.Sprintf("expressions[%d]", i) || r.SExpr != "(+ x 1)" {
				t.Fatalf("results[%d]: unexpected result %+v", i, r)
			}
		}
	})

	t.Run("fail fast stops queueing", func(t *testing.T) {
		t.Parallel()

		results, err := batch.NewBatch("1", "1+", "2", "3").Parse(context.Background(), batch.Options{FailFast: true, Concurrency: 1})
		if !types.IsTagged(err, types.SyntaxErrorTag) {
			t.Fatalf("should be SyntaxError but got %v", err)
		}
		if results[0] == nil || !results[0].Succeeded() {
			t.Errorf("results[0] should be parsed: %+v", results[0])
		}
		if results[1] == nil || results[1].Succeeded() {
			t.Errorf("results[1] should fail: %+v", results[1])
		}
		for i, r := range results[2:] {
			if r != nil {
				t.Errorf("results[%d] should not be parsed: %+v", i+2, r)
			}
		}
	})
}
