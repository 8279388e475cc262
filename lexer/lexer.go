// Package lexer turns source text into a stream of tokens.
package lexer

import "github.com/podhmo/monkey/token"

// Lexer scans an input string one character at a time.
// It never fails; characters it does not recognize become ILLEGAL tokens.
type Lexer struct {
	input        []rune
	position     int  // current position in input (points to ch)
	readPosition int  // next reading position in input
	ch           rune // character under examination
	eof          bool
}

// New creates a lexer positioned at the first character of input.
func New(input string) *Lexer {
	l := &Lexer{input: []rune(input)}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.eof = true
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// NextToken returns the next token. Once the input is exhausted it keeps returning EOF.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()

	if l.eof {
		return token.Token{Type: token.EOF, Literal: ""}
	}

	var tok token.Token
	switch l.ch {
	case '=':
		if l.peekChar() == '=' {
			tok = l.twoCharToken(token.EQ)
		} else {
			tok = newToken(token.ASSIGN, l.ch)
		}
	case '!':
		if l.peekChar() == '=' {
			tok = l.twoCharToken(token.NOT_EQ)
		} else {
			tok = newToken(token.BANG, l.ch)
		}
	case '+':
		tok = newToken(token.PLUS, l.ch)
	case '-':
		tok = newToken(token.MINUS, l.ch)
	case '*':
		tok = newToken(token.ASTERISK, l.ch)
	case '/':
		tok = newToken(token.SLASH, l.ch)
	case '<':
		tok = newToken(token.LT, l.ch)
	case '>':
		tok = newToken(token.GT, l.ch)
	case ';':
		tok = newToken(token.SEMICOLON, l.ch)
	case ',':
		tok = newToken(token.COMMA, l.ch)
	case ':':
		tok = newToken(token.COLON, l.ch)
	case '(':
		tok = newToken(token.LPAREN, l.ch)
	case ')':
		tok = newToken(token.RPAREN, l.ch)
	case '{':
		tok = newToken(token.LBRACE, l.ch)
	case '}':
		tok = newToken(token.RBRACE, l.ch)
	case '[':
		tok = newToken(token.LBRACKET, l.ch)
	case ']':
		tok = newToken(token.RBRACKET, l.ch)
	case '"':
		tok = token.Token{Type: token.STRING, Literal: l.readString()}
	default:
		switch {
		case isLetter(l.ch):
			literal := l.readIdentifier()
			// readIdentifier already advanced past the last letter.
			return token.Token{Type: token.LookupIdent(literal), Literal: literal}
		case isDigit(l.ch):
			return token.Token{Type: token.INT, Literal: l.readNumber()}
		default:
			tok = newToken(token.ILLEGAL, l.ch)
		}
	}

	l.readChar()
	return tok
}

func (l *Lexer) twoCharToken(typ token.Type) token.Token {
	ch := l.ch
	l.readChar()
	return token.Token{Type: typ, Literal: string(ch) + string(l.ch)}
}

func (l *Lexer) skipWhitespace() {
	for !l.eof && (l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r') {
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for !l.eof && isLetter(l.ch) {
		l.readChar()
	}
	return string(l.input[position:l.position])
}

func (l *Lexer) readNumber() string {
	position := l.position
	for !l.eof && isDigit(l.ch) {
		l.readChar()
	}
	return string(l.input[position:l.position])
}

// readString consumes up to the closing quote. An unterminated string runs to the end of input.
func (l *Lexer) readString() string {
	position := l.position + 1
	for {
		l.readChar()
		if l.ch == '"' || l.eof {
			break
		}
	}
	end := l.position
	if end > len(l.input) {
		end = len(l.input)
	}
	return string(l.input[position:end])
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func newToken(tokenType token.Type, ch rune) token.Token {
	return token.Token{Type: tokenType, Literal: string(ch)}
}

// Tokenize drains l and returns every token up to and including EOF.
func Tokenize(input string) []token.Token {
	l := New(input)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}
