// Package ast defines the syntax tree produced by the parser.
//
// The node hierarchy is closed: Statement and Expression carry unexported
// marker methods, so only the types declared here can satisfy them.
package ast

import (
	"bytes"
	"strings"

	"github.com/iancoleman/orderedmap"
	"github.com/podhmo/monkey/token"
)

// Node is implemented by every syntax tree node.
type Node interface {
	// TokenLiteral returns the literal of the token the node starts with.
	TokenLiteral() string
	// String renders the node back to canonical source text.
	String() string
}

// Statement is a node that appears in statement position.
type Statement interface {
	Node
	statementNode()
}

// Expression is a node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// --- Statements ---

// Program is the root node of every tree the parser produces.
type Program struct {
	Statements []Statement
}

// TokenLiteral returns the literal of the first statement, or "" for an empty program.
func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

// String renders every statement in order.
func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
	}
	return out.String()
}

// LetStatement binds Value to Name in the current scope: `let <name> = <value>;`.
type LetStatement struct {
	Token token.Token // the token.LET token
	Name  *Identifier
	Value Expression
}

func (ls *LetStatement) statementNode() {}

// TokenLiteral returns the literal of the let keyword.
func (ls *LetStatement) TokenLiteral() string { return ls.Token.Literal }

// String renders `let <name> = <value>;`.
func (ls *LetStatement) String() string {
	var out bytes.Buffer
	out.WriteString(ls.TokenLiteral() + " ")
	if ls.Name != nil {
		out.WriteString(ls.Name.String())
	}
	out.WriteString(" = ")
	if ls.Value != nil {
		out.WriteString(ls.Value.String())
	}
	out.WriteString(";")
	return out.String()
}

// ReturnStatement is `return <value>;`.
type ReturnStatement struct {
	Token       token.Token // the token.RETURN token
	ReturnValue Expression
}

func (rs *ReturnStatement) statementNode() {}

// TokenLiteral returns the literal of the return keyword.
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }

// String renders `return <value>;`.
func (rs *ReturnStatement) String() string {
	var out bytes.Buffer
	out.WriteString(rs.TokenLiteral() + " ")
	if rs.ReturnValue != nil {
		out.WriteString(rs.ReturnValue.String())
	}
	out.WriteString(";")
	return out.String()
}

// ExpressionStatement wraps an expression used as a statement.
type ExpressionStatement struct {
	Token      token.Token // the first token of the expression
	Expression Expression
}

func (es *ExpressionStatement) statementNode() {}

// TokenLiteral returns the literal of the first token of the expression.
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }

// String renders the wrapped expression.
func (es *ExpressionStatement) String() string {
	if es.Expression != nil {
		return es.Expression.String()
	}
	return ""
}

// BlockStatement is a brace-delimited sequence of statements.
type BlockStatement struct {
	Token      token.Token // the { token
	Statements []Statement
}

func (bs *BlockStatement) statementNode() {}

// TokenLiteral returns the literal of the opening brace.
func (bs *BlockStatement) TokenLiteral() string { return bs.Token.Literal }

// String renders its statements concatenated, without braces.
func (bs *BlockStatement) String() string {
	var out bytes.Buffer
	for _, s := range bs.Statements {
		out.WriteString(s.String())
	}
	return out.String()
}

// --- Expressions ---

// Identifier is a name bound by let or a function parameter.
type Identifier struct {
	Token token.Token // the token.IDENT token
	Value string
}

func (i *Identifier) expressionNode() {}

// TokenLiteral returns the literal of the identifier.
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }

// String renders the identifier name.
func (i *Identifier) String() string { return i.Value }

// IntegerLiteral is a decimal integer constant.
type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (il *IntegerLiteral) expressionNode() {}

// TokenLiteral returns the literal of the integer as written.
func (il *IntegerLiteral) TokenLiteral() string { return il.Token.Literal }

// String renders the integer as written.
func (il *IntegerLiteral) String() string { return il.Token.Literal }

// StringLiteral renders as its raw contents, without quotes.
// Hash literal keys rely on this matching the display text of a string value.
type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode() {}

// TokenLiteral returns the literal of the string contents.
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }

// String renders the string contents.
func (sl *StringLiteral) String() string { return sl.Token.Literal }

// Boolean is the literal true or false.
type Boolean struct {
	Token token.Token
	Value bool
}

func (b *Boolean) expressionNode() {}

// TokenLiteral returns the literal of the true or false keyword.
func (b *Boolean) TokenLiteral() string { return b.Token.Literal }

// String renders true or false.
func (b *Boolean) String() string { return b.Token.Literal }

// PrefixExpression is `<operator><right>`, e.g. `!ok` or `-x`.
type PrefixExpression struct {
	Token    token.Token // the prefix token, e.g. !
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode() {}

// TokenLiteral returns the literal of the operator.
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }

// String renders `(<operator><right>)`.
func (pe *PrefixExpression) String() string {
	return "(" + pe.Operator + render(pe.Right) + ")"
}

// InfixExpression is `<left> <operator> <right>`.
type InfixExpression struct {
	Token    token.Token // the operator token, e.g. +
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode() {}

// TokenLiteral returns the literal of the operator.
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }

// String renders `(<left> <operator> <right>)`.
func (ie *InfixExpression) String() string {
	return "(" + render(ie.Left) + " " + ie.Operator + " " + render(ie.Right) + ")"
}

// IfExpression is `if (<condition>) <consequence> else <alternative>`; Alternative may be nil.
type IfExpression struct {
	Token       token.Token // the 'if' token
	Condition   Expression
	Consequence *BlockStatement
	Alternative *BlockStatement
}

func (ie *IfExpression) expressionNode() {}

// TokenLiteral returns the literal of the if keyword.
func (ie *IfExpression) TokenLiteral() string { return ie.Token.Literal }

// String renders `if<condition> <consequence>else <alternative>`.
func (ie *IfExpression) String() string {
	var out bytes.Buffer
	out.WriteString("if")
	out.WriteString(render(ie.Condition))
	out.WriteString(" ")
	if ie.Consequence != nil {
		out.WriteString(ie.Consequence.String())
	}
	if ie.Alternative != nil {
		out.WriteString("else ")
		out.WriteString(ie.Alternative.String())
	}
	return out.String()
}

// FunctionLiteral is `fn(<parameters>) <body>`.
type FunctionLiteral struct {
	Token      token.Token // the 'fn' token
	Parameters []*Identifier
	Body       *BlockStatement
}

func (fl *FunctionLiteral) expressionNode() {}

// TokenLiteral returns the literal of the fn keyword.
func (fl *FunctionLiteral) TokenLiteral() string { return fl.Token.Literal }

// String renders `fn(<parameters>) <body>`.
func (fl *FunctionLiteral) String() string {
	params := make([]string, 0, len(fl.Parameters))
	for _, p := range fl.Parameters {
		params = append(params, p.String())
	}

	var out bytes.Buffer
	out.WriteString(fl.TokenLiteral())
	out.WriteString("(")
	out.WriteString(strings.Join(params, ", "))
	out.WriteString(") ")
	if fl.Body != nil {
		out.WriteString(fl.Body.String())
	}
	return out.String()
}

// CallExpression is `<function>(<arguments>)`.
type CallExpression struct {
	Token     token.Token // the '(' token
	Function  Expression  // Identifier or FunctionLiteral, or any expression yielding a function
	Arguments []Expression
}

func (ce *CallExpression) expressionNode() {}

// TokenLiteral returns the literal of the opening parenthesis.
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }

// String renders `<function>(<arguments>)`.
func (ce *CallExpression) String() string {
	return render(ce.Function) + "(" + renderList(ce.Arguments) + ")"
}

// ArrayLiteral is `[<elements>]`.
type ArrayLiteral struct {
	Token    token.Token // the '[' token
	Elements []Expression
}

func (al *ArrayLiteral) expressionNode() {}

// TokenLiteral returns the literal of the opening bracket.
func (al *ArrayLiteral) TokenLiteral() string { return al.Token.Literal }

// String renders `[<elements>]`.
func (al *ArrayLiteral) String() string {
	return "[" + renderList(al.Elements) + "]"
}

// IndexExpression is `<left>[<index>]`.
type IndexExpression struct {
	Token token.Token // the '[' token
	Left  Expression
	Index Expression
}

func (ie *IndexExpression) expressionNode() {}

// TokenLiteral returns the literal of the opening bracket.
func (ie *IndexExpression) TokenLiteral() string { return ie.Token.Literal }

// String renders `(<left>[<index>])`.
func (ie *IndexExpression) String() string {
	return "(" + render(ie.Left) + "[" + render(ie.Index) + "])"
}

// HashLiteral maps the rendered text of each literal key to its value expression.
// Entries keep their first-insertion order; a duplicate key overwrites the earlier value.
type HashLiteral struct {
	Token token.Token // the '{' token
	pairs *orderedmap.OrderedMap
}

// NewHashLiteral returns an empty hash literal starting at tok.
func NewHashLiteral(tok token.Token) *HashLiteral {
	return &HashLiteral{Token: tok, pairs: orderedmap.New()}
}

// Set stores value under the rendered key text.
func (hl *HashLiteral) Set(key string, value Expression) {
	if hl.pairs == nil {
		hl.pairs = orderedmap.New()
	}
	hl.pairs.Set(key, value)
}

// Get returns the value expression stored under key.
func (hl *HashLiteral) Get(key string) (Expression, bool) {
	if hl.pairs == nil {
		return nil, false
	}
	v, ok := hl.pairs.Get(key)
	if !ok {
		return nil, false
	}
	expr, _ := v.(Expression)
	return expr, true
}

// Keys returns the key texts in insertion order.
func (hl *HashLiteral) Keys() []string {
	if hl.pairs == nil {
		return nil
	}
	return hl.pairs.Keys()
}

// Len returns the number of distinct keys.
func (hl *HashLiteral) Len() int { return len(hl.Keys()) }

func (hl *HashLiteral) expressionNode() {}

// TokenLiteral returns the literal of the opening brace.
func (hl *HashLiteral) TokenLiteral() string { return hl.Token.Literal }

// String renders `{<key>: <value>, ...}` in insertion order.
func (hl *HashLiteral) String() string {
	pairs := []string{}
	for _, key := range hl.Keys() {
		value, _ := hl.Get(key)
		pairs = append(pairs, key+": "+render(value))
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

func render(n Node) string {
	if n == nil {
		return ""
	}
	return n.String()
}

func renderList(exprs []Expression) string {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		parts = append(parts, render(e))
	}
	return strings.Join(parts, ", ")
}
