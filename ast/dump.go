package ast

import (
	"fmt"

	"github.com/iancoleman/orderedmap"
)

// Dump converts a node into an ordered JSON-ready tree. Every object carries a
// "type" member naming the node kind followed by the node's fields in
// declaration order. A nil node dumps as nil.
func Dump(node Node) *orderedmap.OrderedMap {
	if node == nil {
		return nil
	}

	m := orderedmap.New()
	m.SetEscapeHTML(false)

	switch n := node.(type) {
	case *Program:
		m.Set("type", "Program")
		m.Set("statements", dumpStatements(n.Statements))
	case *LetStatement:
		m.Set("type", "LetStatement")
		m.Set("name", dumpIdentifier(n.Name))
		m.Set("value", dumpExpr(n.Value))
	case *ReturnStatement:
		m.Set("type", "ReturnStatement")
		m.Set("returnValue", dumpExpr(n.ReturnValue))
	case *ExpressionStatement:
		m.Set("type", "ExpressionStatement")
		m.Set("expression", dumpExpr(n.Expression))
	case *BlockStatement:
		m.Set("type", "BlockStatement")
		m.Set("statements", dumpStatements(n.Statements))
	case *Identifier:
		m.Set("type", "Identifier")
		m.Set("value", n.Value)
	case *IntegerLiteral:
		m.Set("type", "IntegerLiteral")
		m.Set("value", n.Value)
	case *StringLiteral:
		m.Set("type", "StringLiteral")
		m.Set("value", n.Value)
	case *Boolean:
		m.Set("type", "Boolean")
		m.Set("value", n.Value)
	case *PrefixExpression:
		m.Set("type", "PrefixExpression")
		m.Set("operator", n.Operator)
		m.Set("right", dumpExpr(n.Right))
	case *InfixExpression:
		m.Set("type", "InfixExpression")
		m.Set("left", dumpExpr(n.Left))
		m.Set("operator", n.Operator)
		m.Set("right", dumpExpr(n.Right))
	case *IfExpression:
		m.Set("type", "IfExpression")
		m.Set("condition", dumpExpr(n.Condition))
		m.Set("consequence", dumpBlock(n.Consequence))
		m.Set("alternative", dumpBlock(n.Alternative))
	case *FunctionLiteral:
		m.Set("type", "FunctionLiteral")
		params := make([]interface{}, 0, len(n.Parameters))
		for _, p := range n.Parameters {
			params = append(params, dumpIdentifier(p))
		}
		m.Set("parameters", params)
		m.Set("body", dumpBlock(n.Body))
	case *CallExpression:
		m.Set("type", "CallExpression")
		m.Set("function", dumpExpr(n.Function))
		m.Set("arguments", dumpExprs(n.Arguments))
	case *ArrayLiteral:
		m.Set("type", "ArrayLiteral")
		m.Set("elements", dumpExprs(n.Elements))
	case *IndexExpression:
		m.Set("type", "IndexExpression")
		m.Set("left", dumpExpr(n.Left))
		m.Set("index", dumpExpr(n.Index))
	case *HashLiteral:
		m.Set("type", "HashLiteral")
		pairs := orderedmap.New()
		pairs.SetEscapeHTML(false)
		for _, key := range n.Keys() {
			value, _ := n.Get(key)
			pairs.Set(key, dumpExpr(value))
		}
		m.Set("pairs", pairs)
	default:
		m.Set("type", fmt.Sprintf("%T", node))
	}
	return m
}

// dumpExpr keeps nil placeholders as JSON null instead of a typed nil map.
func dumpExpr(e Expression) interface{} {
	if e == nil {
		return nil
	}
	return Dump(e)
}

func dumpIdentifier(i *Identifier) interface{} {
	if i == nil {
		return nil
	}
	return Dump(i)
}

func dumpBlock(b *BlockStatement) interface{} {
	if b == nil {
		return nil
	}
	return Dump(b)
}

func dumpExprs(exprs []Expression) []interface{} {
	out := make([]interface{}, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, dumpExpr(e))
	}
	return out
}

func dumpStatements(stmts []Statement) []interface{} {
	out := make([]interface{}, 0, len(stmts))
	for _, s := range stmts {
		if s == nil {
			out = append(out, nil)
			continue
		}
		out = append(out, Dump(s))
	}
	return out
}
