package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

func (a *App) getStatus() string {
	s := ""
	if sess := a.machine.Snapshot().Session; sess != nil && sess.Email != "" {
		s = sess.Email + " "
	}
	s += string(a.mode())
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root starts the session machine and the connectivity watcher, then
// blocks in the REPL until the user exits.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to Codifyr CLI (type 'help' for commands)")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.authService.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
	} else {
		a.setMode(ModeOnline)
	}

	if err := a.machine.Start(ctx); err != nil {
		a.logger.Error(ctx, "session start failed", "error", err)
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}
