package token

import "slices"

// Type is a string representation of a token's kind.
type Type string

// Token is a single lexeme produced by the lexer.
type Token struct {
	Type    Type
	Literal string
}

const (
	ILLEGAL Type = "ILLEGAL"
	EOF     Type = "EOF"

	// Identifiers and literals
	IDENT  Type = "IDENT"
	INT    Type = "INT"
	STRING Type = "STRING"

	// Operators
	ASSIGN   Type = "="
	PLUS     Type = "+"
	MINUS    Type = "-"
	BANG     Type = "!"
	ASTERISK Type = "*"
	SLASH    Type = "/"

	LT Type = "<"
	GT Type = ">"

	EQ     Type = "=="
	NOT_EQ Type = "!="

	// Delimiters
	COMMA     Type = ","
	SEMICOLON Type = ";"
	COLON     Type = ":"

	LPAREN   Type = "("
	RPAREN   Type = ")"
	LBRACE   Type = "{"
	RBRACE   Type = "}"
	LBRACKET Type = "["
	RBRACKET Type = "]"

	// Keywords
	FUNCTION Type = "FUNCTION"
	LET      Type = "LET"
	TRUE     Type = "TRUE"
	FALSE    Type = "FALSE"
	IF       Type = "IF"
	ELSE     Type = "ELSE"
	RETURN   Type = "RETURN"
)

var keywords = map[string]Type{
	"fn":     FUNCTION,
	"let":    LET,
	"true":   TRUE,
	"false":  FALSE,
	"if":     IF,
	"else":   ELSE,
	"return": RETURN,
}

// LookupIdent returns the keyword type for ident, or IDENT if it is not a keyword.
func LookupIdent(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Keywords returns the reserved words in sorted order.
func Keywords() []string {
	words := make([]string, 0, len(keywords))
	for word := range keywords {
		words = append(words, word)
	}
	slices.Sort(words)
	return words
}
