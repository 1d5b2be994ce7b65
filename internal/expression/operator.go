package expression

import (
	"fmt"

	"github.com/samber/lo"
)

type operatorKind int

const (
	sentinelOperator operatorKind = iota
	binaryOperator
	prefixOperator
	postfixOperator
)

func (k operatorKind) String() string {
	switch k {
	case sentinelOperator:
		return "sentinel"
	case binaryOperator:
		return "binary"
	case prefixOperator:
		return "prefix"
	case postfixOperator:
		return "postfix"
	default:
		return fmt.Sprintf("operatorKind(%d)", int(k))
	}
}

type operator struct {
	kind operatorKind
	char byte
	pos  int
}

func (op operator) String() string {
	if op.kind == sentinelOperator {
		return fmt.Sprintf("sentinel@%d", op.pos)
	}
	return fmt.Sprintf("%s %q@%d", op.kind, op.char, op.pos)
}

// outerSentinelPos marks the sentinel bounding the whole expression.
const outerSentinelPos = -1

var (
	binaryOperatorChars = []byte{'+', '-', '*', '/', '^'}
	prefixOperatorChars = []byte{'-'}
)

func isBinaryOperator(c byte) bool {
	return lo.Contains(binaryOperatorChars, c)
}

func isPrefixOperator(c byte) bool {
	return lo.Contains(prefixOperatorChars, c)
}

var binaryOperatorPrecedenceMap = map[byte]int{
	'+': 1,
	'-': 1,
	'*': 2,
	'/': 2,
	'^': 4,
}

var prefixOperatorPrecedenceMap = map[byte]int{
	'-': 3,
}

var rightAssociativeOperators = []byte{'^'}

func precedence(op operator) int {
	switch op.kind {
	case sentinelOperator:
		return 0
	case binaryOperator:
		if p, ok := binaryOperatorPrecedenceMap[op.char]; ok {
			return p
		}
	case prefixOperator:
		if p, ok := prefixOperatorPrecedenceMap[op.char]; ok {
			return p
		}
	}
	panic(InvariantViolation(fmt.Sprintf("unexpected operator %s", op)))
}

// isLeftAssociative is only meaningful for binary operators; prefix operators
// nest to the right and never reduce against each other.
func isLeftAssociative(op operator) bool {
	return op.kind == binaryOperator && !lo.Contains(rightAssociativeOperators, op.char)
}

// hasGreaterPrecedence reports whether top must be reduced before op is pushed.
// A prefix operator has no left operand yet, so pushing one never reduces.
func hasGreaterPrecedence(top, op operator) bool {
	if op.kind == prefixOperator {
		return false
	}
	p1, p2 := precedence(top), precedence(op)
	return p1 > p2 || (p1 == p2 && isLeftAssociative(top))
}
