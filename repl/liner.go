package repl

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/peterh/liner"
	"github.com/podhmo/monkey/evaluator"
	"github.com/podhmo/monkey/token"
)

// Liner is a LineReader on a terminal with line editing, completion of
// keywords and builtins, and a line history kept in a file.
type Liner struct {
	*liner.State
	historyFile string
}

// NewLiner opens the terminal and loads the line history from historyFile,
// if it exists. An empty historyFile keeps the history in memory only.
func NewLiner(historyFile string) *Liner {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetCompleter(complete)

	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = state.ReadHistory(f)
			_ = f.Close()
		}
	}
	return &Liner{State: state, historyFile: historyFile}
}

// Close writes the line history back and restores the terminal.
func (l *Liner) Close() error {
	var saveErr error
	if l.historyFile != "" {
		if f, err := os.Create(l.historyFile); err != nil {
			saveErr = fmt.Errorf("saving line history: %w", err)
		} else {
			if _, err := l.WriteHistory(f); err != nil {
				saveErr = fmt.Errorf("saving line history: %w", err)
			}
			_ = f.Close()
		}
	}
	if err := l.State.Close(); err != nil {
		return err
	}
	return saveErr
}

var completions = func() []string {
	words := append(token.Keywords(), evaluator.Builtins()...)
	slices.Sort(words)
	return words
}()

// complete offers the keywords and builtins that extend the word under the cursor.
func complete(line string) []string {
	start := 0
	if i := strings.LastIndexFunc(line, func(r rune) bool { return !isLetter(r) }); i >= 0 {
		_, size := utf8.DecodeRuneInString(line[i:])
		start = i + size
	}
	prefix := line[start:]
	if prefix == "" {
		return nil
	}

	var candidates []string
	for _, word := range completions {
		if strings.HasPrefix(word, prefix) && word != prefix {
			candidates = append(candidates, line[:start]+word)
		}
	}
	return candidates
}

func isLetter(r rune) bool {
	return r == '_' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z'
}
