package monkey

import (
	"strings"

	"github.com/podhmo/monkey/object"
)

const monkeyFace = `            __,__
   .--.  .-"     "-.  .--.
  / .. \/  .-. .-.  \/ .. \
 | |  '|  /   Y   \  |'  | |
 | \   \  \ 0 | 0 /  /   / |
  \ '- ,\.-"""""""-./, -' /
   ''-' /_   ^ ^   _\ '-''
       |  \._   _./  |
       \   \ '~' /   /
        '._ '-=-' _.'
           '-----'
`

// ParseError is returned when source text has syntax errors.
// Messages keeps the parser's messages in the order they were reported.
type ParseError struct {
	Messages []string
}

func (e *ParseError) Error() string {
	return "parse error: " + strings.Join(e.Messages, "; ")
}

// Banner returns the text shown to users in place of a result.
func (e *ParseError) Banner() string {
	return FormatParserErrors(e.Messages)
}

// FormatParserErrors renders parser messages below the monkey face, one
// tab-indented message per line.
func FormatParserErrors(errors []string) string {
	var b strings.Builder
	b.WriteString(monkeyFace)
	b.WriteString("Woops! We ran into some monkey business here!\n")
	b.WriteString(" parser errors:\n")
	for _, msg := range errors {
		b.WriteString("\t")
		b.WriteString(msg)
		b.WriteString("\n")
	}
	return b.String()
}

// RuntimeError reports an evaluation that ended in an error value.
type RuntimeError struct {
	Object *object.Error
}

func (e *RuntimeError) Error() string {
	return e.Object.Message
}
