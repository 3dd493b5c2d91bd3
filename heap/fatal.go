package heap

import (
	"context"

	"golang.org/x/exp/slog"
)

// FatalHandler is called with the error that made an operating system memory grant fail. There is
// no recovery from a failed grant: the handler may log, flush or exit the process, and if it
// returns, the allocator panics with the same error.
type FatalHandler func(err error)

// die terminates the current operation when cond holds
func (a *Allocator) die(cond bool, err error) {
	if !cond {
		return
	}

	a.logger.LogAttrs(context.Background(), slog.LevelError, "[FATAL] operating system memory grant failed",
		slog.Any("error", err),
	)

	if a.fatalHandler != nil {
		a.fatalHandler(err)
	}

	panic(err)
}
