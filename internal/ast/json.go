package ast

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

const (
	numberNodeType        = "number"
	identifierNodeType    = "identifier"
	binaryNodeType        = "binary"
	prefixNodeType        = "prefix"
	postfixNodeType       = "postfix"
	parenthesizedNodeType = "parenthesized"
)

func (n *Number) MarshalJSON() ([]byte, error)        { return marshalNode(n) }
func (n *Identifier) MarshalJSON() ([]byte, error)    { return marshalNode(n) }
func (n *Binary) MarshalJSON() ([]byte, error)        { return marshalNode(n) }
func (n *Prefix) MarshalJSON() ([]byte, error)        { return marshalNode(n) }
func (n *Postfix) MarshalJSON() ([]byte, error)       { return marshalNode(n) }
func (n *Parenthesized) MarshalJSON() ([]byte, error) { return marshalNode(n) }

// marshalNode encodes the whole subtree in one pass. Children are written
// directly into the buffer and never go through their own MarshalJSON.
func marshalNode(n Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeNode(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeNode(buf *bytes.Buffer, node Node) error {
	switch n := node.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case *Number:
		writeNodeHeader(buf, numberNodeType, n.Position)
		if err := encodeField(buf, "value", n.Value); err != nil {
			return err
		}
	case *Identifier:
		writeNodeHeader(buf, identifierNodeType, n.Position)
		if err := encodeField(buf, "name", n.Name); err != nil {
			return err
		}
	case *Binary:
		writeNodeHeader(buf, binaryNodeType, n.Position)
		if err := encodeField(buf, "op", string(n.Op)); err != nil {
			return err
		}
		if err := encodeChild(buf, "left", n.Left); err != nil {
			return err
		}
		if err := encodeChild(buf, "right", n.Right); err != nil {
			return err
		}
	case *Prefix:
		writeNodeHeader(buf, prefixNodeType, n.Position)
		if err := encodeField(buf, "op", string(n.Op)); err != nil {
			return err
		}
		if err := encodeChild(buf, "operand", n.Operand); err != nil {
			return err
		}
	case *Postfix:
		writeNodeHeader(buf, postfixNodeType, n.Position)
		if err := encodeField(buf, "op", string(n.Op)); err != nil {
			return err
		}
		if err := encodeChild(buf, "operand", n.Operand); err != nil {
			return err
		}
	case *Parenthesized:
		writeNodeHeader(buf, parenthesizedNodeType, n.Position)
		if err := encodeChild(buf, "inner", n.Inner); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown node type %T", node)
	}
	buf.WriteByte('}')
	return nil
}

func writeNodeHeader(buf *bytes.Buffer, nodeType string, pos int) {
	buf.WriteString(`{"type":"`)
	buf.WriteString(nodeType)
	buf.WriteString(`","pos":`)
	buf.WriteString(strconv.Itoa(pos))
}

func encodeField(buf *bytes.Buffer, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json.Marshal(%s): %w", key, err)
	}
	buf.WriteString(`,"`)
	buf.WriteString(key)
	buf.WriteString(`":`)
	buf.Write(b)
	return nil
}

func encodeChild(buf *bytes.Buffer, key string, child Node) error {
	buf.WriteString(`,"`)
	buf.WriteString(key)
	buf.WriteString(`":`)
	return encodeNode(buf, child)
}
