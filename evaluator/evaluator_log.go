package evaluator

import (
	"fmt"
	"log/slog"
	"runtime"
)

// logc logs a message with the current call depth attached.
func (e *Evaluator) logc(level slog.Level, msg string, args ...any) {
	if !e.logger.Enabled(e.ctx, level) {
		return
	}

	// skip logc itself and newError
	if _, file, line, ok := runtime.Caller(2); ok {
		args = append([]any{slog.String("exec_pos", fmt.Sprintf("%s:%d", file, line))}, args...)
	}
	args = append([]any{slog.Int("depth", e.depth)}, args...)

	e.logger.Log(e.ctx, level, msg, args...)
}
