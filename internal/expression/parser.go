package expression

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/k0kubun/pp"
	"github.com/karupanerura/shunting-yard/internal/ast"
	"github.com/karupanerura/shunting-yard/internal/types"
)

// DefaultMaxDepth bounds the nesting of parentheses and prefix operators.
const DefaultMaxDepth = 256

var (
	parserDebugLog  = false
	parserMaxDepth  = DefaultMaxDepth
	closeParenToken = operatorToken{char: ')'}
)

func init() {
	if v, err := strconv.ParseBool(os.Getenv("SHUNTING_YARD_DEBUG")); v && err == nil {
		parserDebugLog = true
	}
	if v, err := strconv.Atoi(os.Getenv("SHUNTING_YARD_MAX_DEPTH")); err == nil && v > 0 {
		parserMaxDepth = v
	}
}

// InvariantViolation is the panic value raised when the parser's own stack
// bookkeeping is broken. It never describes malformed input.
type InvariantViolation string

func (v InvariantViolation) Error() string {
	return "shunting-yard invariant violation: " + string(v)
}

// Parser holds the settings of parse calls. Each call owns its own state, so
// a Parser can be shared between goroutines.
type Parser struct {
	// MaxDepth is the maximum nesting of parentheses and prefix operators.
	// Zero means SHUNTING_YARD_MAX_DEPTH, or DefaultMaxDepth when unset.
	MaxDepth int
	// Debug traces the parser with the log package. SHUNTING_YARD_DEBUG
	// turns it on for every parser.
	Debug bool
}

func Parse(source string) (ast.Node, error) {
	p := &Parser{}
	return p.Parse(source)
}

func ParseWithDebugOutput(source string) (ast.Node, error) {
	p := &Parser{Debug: true}
	return p.Parse(source)
}

// Parse parses source into a tree using the grammar
//
//	E --> P { B P }
//	P --> v | "(" E ")" | U P
//	B --> "+" | "-" | "*" | "/" | "^"
//	U --> "-"
//
// The whole source must be consumed.
func (p *Parser) Parse(source string) (ast.Node, error) {
	lex := newLexer(source)
	next, err := lex.nextToken()
	if err != nil {
		return nil, err
	}

	maxDepth := p.MaxDepth
	if maxDepth <= 0 {
		maxDepth = parserMaxDepth
	}
	debug := p.Debug || parserDebugLog

	sy := &shuntingYard{
		source:    source,
		lexer:     lex,
		next:      next,
		operators: []operator{{kind: sentinelOperator, pos: outerSentinelPos}},
		maxDepth:  maxDepth,
		debug:     debug,
	}
	root, err := sy.parse()
	if err != nil {
		return nil, err
	}

	if debug {
		pp.Println(source)
		pp.Println(root)
		log.Println(root.String())
	}
	return root, nil
}

type shuntingYard struct {
	source    string
	lexer     *lexer
	next      token
	operators []operator
	operands  []ast.Node
	depth     int
	maxDepth  int
	debug     bool
}

func (sy *shuntingYard) parse() (ast.Node, error) {
	if err := sy.parseExpression(); err != nil {
		return nil, err
	}
	if err := sy.expect(endToken{}); err != nil {
		return nil, err
	}
	sy.checkCompleted()
	return sy.operands[0], nil
}

func (sy *shuntingYard) checkCompleted() {
	if len(sy.operands) != 1 {
		panic(InvariantViolation(fmt.Sprintf("%d operands left after parsing %q", len(sy.operands), sy.source)))
	}
	if len(sy.operators) != 1 || sy.operators[0].kind != sentinelOperator {
		panic(InvariantViolation(fmt.Sprintf("operators %v left after parsing %q", sy.operators, sy.source)))
	}
}

func (sy *shuntingYard) consume() error {
	next, err := sy.lexer.nextToken()
	if err != nil {
		return err
	}
	if sy.debug {
		log.Println("token: ", next)
	}
	sy.next = next
	return nil
}

func (sy *shuntingYard) expect(expected token) error {
	if !sameToken(sy.next, expected) {
		return sy.createUnexpectedTokenError(expected.String())
	}
	return sy.consume()
}

func (sy *shuntingYard) parseExpression() error {
	if err := sy.parsePrimary(); err != nil {
		return err
	}

	for {
		tok, isOP := sy.next.(operatorToken)
		if !isOP || !isBinaryOperator(tok.char) {
			break
		}

		sy.pushOperator(operator{kind: binaryOperator, char: tok.char, pos: tok.BeginsPos()})
		if err := sy.consume(); err != nil {
			return err
		}
		if err := sy.parsePrimary(); err != nil {
			return err
		}
	}

	for sy.topOperator().kind != sentinelOperator {
		sy.popOperator()
	}
	return nil
}

func (sy *shuntingYard) parsePrimary() error {
	switch tok := sy.next.(type) {
	case numberToken:
		sy.operands = append(sy.operands, &ast.Number{Value: tok.value, Position: tok.BeginsPos()})
		return sy.consume()

	case identifierToken:
		sy.operands = append(sy.operands, &ast.Identifier{Name: tok.name, Position: tok.BeginsPos()})
		return sy.consume()

	case operatorToken:
		switch {
		case tok.char == '(':
			if err := sy.enterNesting(tok); err != nil {
				return err
			}
			defer sy.leaveNesting()

			if err := sy.consume(); err != nil {
				return err
			}
			sy.operators = append(sy.operators, operator{kind: sentinelOperator, pos: tok.BeginsPos()})
			if err := sy.parseExpression(); err != nil {
				return err
			}
			if err := sy.expect(closeParenToken); err != nil {
				return err
			}

			if sentinel := sy.popSentinel(); sentinel.pos != tok.BeginsPos() {
				panic(InvariantViolation(fmt.Sprintf("sentinel %s does not match '(' at %d", sentinel, tok.BeginsPos())))
			}
			inner := sy.popOperand()
			sy.operands = append(sy.operands, &ast.Parenthesized{Inner: inner, Position: tok.BeginsPos()})
			return nil

		case isPrefixOperator(tok.char):
			if err := sy.enterNesting(tok); err != nil {
				return err
			}
			defer sy.leaveNesting()

			sy.pushOperator(operator{kind: prefixOperator, char: tok.char, pos: tok.BeginsPos()})
			if err := sy.consume(); err != nil {
				return err
			}
			return sy.parsePrimary()

		default:
			return sy.createUnexpectedTokenError("primary expression or unary operator")
		}

	default:
		return sy.createUnexpectedTokenError("primary expression")
	}
}

func (sy *shuntingYard) enterNesting(tok token) error {
	if sy.depth >= sy.maxDepth {
		return types.NewError(types.RecursionErrorTag, tok.BeginsPos(), "nesting deeper than %d at position %d", sy.maxDepth, tok.BeginsPos())
	}
	sy.depth++
	return nil
}

func (sy *shuntingYard) leaveNesting() {
	sy.depth--
}

func (sy *shuntingYard) topOperator() operator {
	if len(sy.operators) == 0 {
		panic(InvariantViolation(fmt.Sprintf("empty operator stack while parsing %q", sy.source)))
	}
	return sy.operators[len(sy.operators)-1]
}

func (sy *shuntingYard) pushOperator(op operator) {
	for hasGreaterPrecedence(sy.topOperator(), op) {
		sy.popOperator()
	}
	if sy.debug {
		log.Println("push: ", op)
	}
	sy.operators = append(sy.operators, op)
}

// popOperator reduces the top operator with its operands into a single node.
func (sy *shuntingYard) popOperator() {
	op := sy.topOperator()
	if op.kind == sentinelOperator {
		panic(InvariantViolation(fmt.Sprintf("unexpected %s on operator stack", op)))
	}
	sy.operators = sy.operators[:len(sy.operators)-1]
	if sy.debug {
		log.Println("reduce: ", op)
	}

	operand := sy.popOperand()
	switch op.kind {
	case binaryOperator:
		left := sy.popOperand()
		sy.operands = append(sy.operands, &ast.Binary{Op: op.char, Left: left, Right: operand, Position: op.pos})
	case prefixOperator:
		sy.operands = append(sy.operands, &ast.Prefix{Op: op.char, Operand: operand, Position: op.pos})
	case postfixOperator:
		sy.operands = append(sy.operands, &ast.Postfix{Op: op.char, Operand: operand, Position: op.pos})
	default:
		panic(InvariantViolation(fmt.Sprintf("unknown operator %s", op)))
	}
}

func (sy *shuntingYard) popSentinel() operator {
	op := sy.topOperator()
	if op.kind != sentinelOperator {
		panic(InvariantViolation(fmt.Sprintf("expected sentinel but got %s on operator stack", op)))
	}
	sy.operators = sy.operators[:len(sy.operators)-1]
	return op
}

func (sy *shuntingYard) popOperand() ast.Node {
	if len(sy.operands) == 0 {
		panic(InvariantViolation(fmt.Sprintf("empty operand stack while parsing %q", sy.source)))
	}
	n := sy.operands[len(sy.operands)-1]
	sy.operands = sy.operands[:len(sy.operands)-1]
	return n
}

func (sy *shuntingYard) createUnexpectedTokenError(expected string) error {
	pos := sy.next.BeginsPos()
	return &types.Error{
		Tag: types.SyntaxErrorTag,
		Err: fmt.Errorf("expected %s, but got %s at position %d: expr=%q", expected, sy.next, pos, sy.source),
		Pos: pos,
		Extra: map[string]any{
			"expected": expected,
			"actual":   sy.next.String(),
		},
	}
}
