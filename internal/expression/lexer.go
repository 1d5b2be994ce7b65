package expression

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/karupanerura/shunting-yard/internal/types"
	"github.com/samber/lo"
)

var operatorChars = []byte{'+', '-', '*', '/', '^', '(', ')'}

type lexer struct {
	source  string
	index   int
	context lexerContext
}

func newLexer(source string) *lexer {
	return &lexer{
		source:  source,
		index:   0,
		context: lexerContext{kind: defaultLexerContext},
	}
}

type lexerContextKind int

const (
	defaultLexerContext lexerContextKind = iota
	numericLiteralLexerContext
	symbolLiteralLexerContext
)

type lexerContext struct {
	kind           lexerContextKind
	rangeBeginsIdx int
	dotFound       bool
}

// nextToken returns the next token of the source. Once the source is
// exhausted it keeps returning the end token.
func (l *lexer) nextToken() (token, error) {
	for l.index != len(l.source) {
		c := l.source[l.index]
		switch l.context.kind {
		case defaultLexerContext:
			switch {
			case c == ' ' || c == '\t' || c == '\r' || c == '\n':
				l.index++ // just skip white spaces
			case isDigit(c):
				l.context = lexerContext{kind: numericLiteralLexerContext, rangeBeginsIdx: l.index}
				l.index++
			case isSymbolBeginning(c):
				l.context = lexerContext{kind: symbolLiteralLexerContext, rangeBeginsIdx: l.index}
				l.index++
			case lo.Contains(operatorChars, c):
				l.index++
				return operatorToken{rangeToken: rangeToken{beginsPos: l.index - 1, endsPos: l.index}, char: c}, nil
			default:
				r, _ := utf8.DecodeRuneInString(l.source[l.index:])
				return nil, types.NewError(types.LexErrorTag, l.index, "invalid character %q at position %d", r, l.index)
			}

		case numericLiteralLexerContext:
			switch {
			case isDigit(c):
				l.index++
			case c == '.' && !l.context.dotFound:
				l.context.dotFound = true
				l.index++
			default:
				return l.completeLiteral()
			}

		case symbolLiteralLexerContext:
			if isSymbolBeginning(c) || isDigit(c) {
				l.index++
			} else {
				return l.completeLiteral()
			}
		}
	}

	if l.context.kind != defaultLexerContext {
		return l.completeLiteral()
	}
	return endToken{rangeToken{beginsPos: len(l.source), endsPos: len(l.source)}}, nil
}

func (l *lexer) completeLiteral() (token, error) {
	context := l.context
	l.context = lexerContext{kind: defaultLexerContext}

	literal := l.source[context.rangeBeginsIdx:l.index]
	r := rangeToken{beginsPos: context.rangeBeginsIdx, endsPos: l.index}
	switch context.kind {
	case numericLiteralLexerContext:
		if literal[len(literal)-1] == '.' {
			return nil, types.NewError(types.LexErrorTag, r.beginsPos, "invalid number %s at position %d: missing digits after '.'", literal, r.beginsPos)
		}
		v, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return nil, &types.Error{
				Tag: types.LexErrorTag,
				Err: fmt.Errorf("invalid number %s at position %d: %w", literal, r.beginsPos, err),
				Pos: r.beginsPos,
			}
		}
		return numberToken{rangeToken: r, value: v}, nil

	case symbolLiteralLexerContext:
		return identifierToken{rangeToken: r, name: literal}, nil

	default:
		panic(fmt.Sprintf("should not reach here: source=%s", l.source))
	}
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isSymbolBeginning(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c == '_'
}
