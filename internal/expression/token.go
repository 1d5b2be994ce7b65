package expression

import (
	"fmt"
	"strconv"
)

type tokenKind int

const (
	numberTokenKind tokenKind = iota
	identifierTokenKind
	operatorTokenKind
	endTokenKind
)

type token interface {
	fmt.Stringer
	BeginsPos() int
	EndsPos() int
	kind() tokenKind
}

type rangeToken struct {
	beginsPos, endsPos int
}

func (t rangeToken) BeginsPos() int {
	return t.beginsPos
}

func (t rangeToken) EndsPos() int {
	return t.endsPos
}

type numberToken struct {
	rangeToken
	value float64
}

func (numberToken) kind() tokenKind { return numberTokenKind }

func (t numberToken) String() string {
	return "number " + strconv.FormatFloat(t.value, 'g', -1, 64)
}

type identifierToken struct {
	rangeToken
	name string
}

func (identifierToken) kind() tokenKind { return identifierTokenKind }

func (t identifierToken) String() string {
	return "identifier " + strconv.Quote(t.name)
}

type operatorToken struct {
	rangeToken
	char byte
}

func (operatorToken) kind() tokenKind { return operatorTokenKind }

func (t operatorToken) String() string {
	return "operator " + strconv.QuoteRune(rune(t.char))
}

type endToken struct {
	rangeToken
}

func (endToken) kind() tokenKind { return endTokenKind }

func (endToken) String() string {
	return "end of input"
}

// sameToken compares the tag and payload of two tokens, ignoring positions.
func sameToken(a, b token) bool {
	if a.kind() != b.kind() {
		return false
	}

	switch a := a.(type) {
	case numberToken:
		return a.value == b.(numberToken).value
	case identifierToken:
		return a.name == b.(identifierToken).name
	case operatorToken:
		return a.char == b.(operatorToken).char
	default:
		return true
	}
}
