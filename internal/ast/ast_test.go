package ast_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/karupanerura/shunting-yard/internal/ast"
)

// (3+x)*-y
func sampleTree() ast.Node {
	return &ast.Binary{
		Op: '*',
		Left: &ast.Parenthesized{
			Inner: &ast.Binary{
				Op:       '+',
				Left:     &ast.Number{Value: 3, Position: 1},
				Right:    &ast.Identifier{Name: "x", Position: 3},
				Position: 2,
			},
			Position: 0,
		},
		Right: &ast.Prefix{
			Op:       '-',
			Operand:  &ast.Identifier{Name: "y", Position: 7},
			Position: 6,
		},
		Position: 5,
	}
}

func TestString(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		node     ast.Node
		expected string
	}{
		{node: &ast.Number{Value: 2.5}, expected: "2.5"},
		{node: &ast.Number{Value: 1e21}, expected: "1e+21"},
		{node: &ast.Identifier{Name: "zy"}, expected: "zy"},
		{node: &ast.Postfix{Op: '!', Operand: &ast.Identifier{Name: "n"}}, expected: "(n !)"},
		{node: sampleTree(), expected: "(* (group (+ 3 x)) (- y))"},
	} {
		tt := tt
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()

			if got := tt.node.String(); got != tt.expected {
				t.Errorf("expect to %q but got %q", tt.expected, got)
			}
		})
	}
}

func TestMarshalJSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(sampleTree())
	if err != nil {
		t.Fatal(err)
	}

	var got any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}

	expected := map[string]any{
		"type": "binary",
		"pos":  float64(5),
		"op":   "*",
		"left": map[string]any{
			"type": "parenthesized",
			"pos":  float64(0),
			"inner": map[string]any{
				"type":  "binary",
				"pos":   float64(2),
				"op":    "+",
				"left":  map[string]any{"type": "number", "pos": float64(1), "value": float64(3)},
				"right": map[string]any{"type": "identifier", "pos": float64(3), "name": "x"},
			},
		},
		"right": map[string]any{
			"type":    "prefix",
			"pos":     float64(6),
			"op":      "-",
			"operand": map[string]any{"type": "identifier", "pos": float64(7), "name": "y"},
		},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("unexpected JSON (-want +got):\n%s", diff)
	}
}

func TestWalk(t *testing.T) {
	t.Parallel()

	var visited []int
	ast.Walk(sampleTree(), func(n ast.Node) bool {
		visited = append(visited, n.Pos())
		return true
	})
	if diff := cmp.Diff([]int{5, 0, 2, 1, 3, 6, 7}, visited); diff != "" {
		t.Errorf("unexpected visit order (-want +got):\n%s", diff)
	}

	visited = nil
	ast.Walk(sampleTree(), func(n ast.Node) bool {
		visited = append(visited, n.Pos())
		_, isGroup := n.(*ast.Parenthesized)
		return !isGroup
	})
	if diff := cmp.Diff([]int{5, 0, 6, 7}, visited); diff != "" {
		t.Errorf("unexpected visit order (-want +got):\n%s", diff)
	}
}

func TestDepth(t *testing.T) {
	t.Parallel()

	if got := ast.Depth(nil); got != 0 {
		t.Errorf("expect 0 but got %d", got)
	}
	if got := ast.Depth(&ast.Number{}); got != 1 {
		t.Errorf("expect 1 but got %d", got)
	}
	if got := ast.Depth(sampleTree()); got != 4 {
		t.Errorf("expect 4 but got %d", got)
	}
}

const (
	longChainLength = 100000
	longChainBudget = 2 * time.Second
)

// 1-1-...-1
func leftNestedChain(n int) ast.Node {
	var node ast.Node = &ast.Number{Value: 1}
	for i := 0; i < n; i++ {
		node = &ast.Binary{Op: '-', Left: node, Right: &ast.Number{Value: 1, Position: 2*i + 2}, Position: 2*i + 1}
	}
	return node
}

// 1^1^...^1
func rightNestedChain(n int) ast.Node {
	var node ast.Node = &ast.Number{Value: 1, Position: 2 * n}
	for i := n - 1; i >= 0; i-- {
		node = &ast.Binary{Op: '^', Left: &ast.Number{Value: 1, Position: 2 * i}, Right: node, Position: 2*i + 1}
	}
	return node
}

func TestLongChain(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name          string
		node          ast.Node
		expectedSExpr string
	}{
		{
			name:          "left nested",
			node:          leftNestedChain(longChainLength),
			expectedSExpr: strings.Repeat("(- ", longChainLength) + "1" + strings.Repeat(" 1)", longChainLength),
		},
		{
			name:          "right nested",
			node:          rightNestedChain(longChainLength),
			expectedSExpr: strings.Repeat("(^ 1 ", longChainLength) + "1" + strings.Repeat(")", longChainLength),
		},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			started := time.Now()
			if got := tt.node.String(); got != tt.expectedSExpr {
				t.Errorf("unexpected S-expression of %d bytes", len(got))
			}
			if got := ast.Depth(tt.node); got != longChainLength+1 {
				t.Errorf("expect depth %d but got %d", longChainLength+1, got)
			}
			b, err := json.Marshal(tt.node)
			if err != nil {
				t.Fatal(err)
			}
			if got := bytes.Count(b, []byte(`"type":"binary"`)); got != longChainLength {
				t.Errorf("expect %d binary nodes in JSON but got %d", longChainLength, got)
			}
			if elapsed := time.Since(started); elapsed > longChainBudget {
				t.Errorf("rendering %d nodes took %s", longChainLength, elapsed)
			}
		})
	}
}
