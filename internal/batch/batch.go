// Package batch parses many expressions described by a YAML or JSON document.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/karupanerura/shunting-yard/internal/ast"
	"github.com/karupanerura/shunting-yard/internal/expression"
	"github.com/karupanerura/shunting-yard/internal/types"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

type Entry struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

type Batch struct {
	Entries []Entry
}

// NewBatch builds a batch of unnamed expressions.
func NewBatch(sources ...string) *Batch {
	return &Batch{
		Entries: lo.Map(sources, func(source string, i int) Entry {
			return Entry{Name: defaultEntryName(i), Source: source}
		}),
	}
}

type Options struct {
	MaxDepth int
	Debug    bool
	// FailFast stops parsing at the first failed entry and returns its error.
	FailFast bool
	// Concurrency caps the entries parsed at once. Zero means GOMAXPROCS.
	Concurrency int
}

type Result struct {
	Name        string   `json:"name"`
	Source      string   `json:"source"`
	AST         ast.Node `json:"ast,omitempty"`
	SExpr       string   `json:"sexpr,omitempty"`
	Depth       int      `json:"depth,omitempty"`
	Identifiers []string `json:"identifiers,omitempty"`
	Error       any      `json:"error,omitempty"`

	Err error `json:"-"`
}

func (r *Result) Succeeded() bool {
	return r.Err == nil
}

// Parse parses every entry concurrently. Results keep the order of entries.
// When an error is returned, entries that were never parsed have nil results.
func (b *Batch) Parse(ctx context.Context, opts Options) ([]*Result, error) {
	parser := &expression.Parser{MaxDepth: opts.MaxDepth, Debug: opts.Debug}
	results := make([]*Result, len(b.Entries))

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)
	for i, entry := range b.Entries {
		if egCtx.Err() != nil {
			break
		}

		i := i
		entry := entry
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}

			results[i] = parseEntry(parser, entry)
			if opts.FailFast && results[i].Err != nil {
				return fmt.Errorf("%s: %w", entry.Name, results[i].Err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func parseEntry(parser *expression.Parser, entry Entry) *Result {
	result := &Result{Name: entry.Name, Source: entry.Source}

	node, err := parser.Parse(entry.Source)
	if err != nil {
		result.Err = err
		var exception types.Exception
		if errors.As(err, &exception) {
			result.Error = exception.Exception()
		} else {
			result.Error = err.Error()
		}
		return result
	}

	result.AST = node
	result.SExpr = node.String()
	result.Depth = ast.Depth(node)
	result.Identifiers = identifiers(node)
	return result
}

// identifiers lists the distinct identifiers of the tree in order of appearance.
func identifiers(node ast.Node) []string {
	var names []string
	ast.Walk(node, func(n ast.Node) bool {
		if ident, ok := n.(*ast.Identifier); ok {
			names = append(names, ident.Name)
		}
		return true
	})
	if len(names) == 0 {
		return nil
	}
	return lo.Uniq(names)
}

// Failed returns the results that hold an error.
func Failed(results []*Result) []*Result {
	return lo.Filter(results, func(r *Result, _ int) bool {
		return r != nil && !r.Succeeded()
	})
}
