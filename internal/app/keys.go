package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rbright/recast/internal/ipc"
)

// keyCommands maps single-key shortcuts onto owner commands.
var keyCommands = map[string]string{
	"r": "start",
	"s": "stop",
	"t": "translate",
	"y": "translate",
	"n": "skip",
	"a": "again",
	"d": "done",
	"p": "play",
	"q": "quit",
	"?": "status",
}

const (
	pendingRetry    = 20 * time.Millisecond
	pendingAttempts = 250
)

// keyCommand resolves one input line to an owner command.
func keyCommand(line string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(line))
	if key == "" {
		return "", false
	}
	if ipc.Known(key) {
		return key, true
	}
	cmd, ok := keyCommands[key]
	return cmd, ok
}

// readKeys feeds line-oriented keyboard input to handler until EOF or ctx
// ends. EOF requests quit.
func readKeys(ctx context.Context, in io.Reader, handler ipc.Handler, errOut io.Writer) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		cmd, ok := keyCommand(scanner.Text())
		if !ok {
			if strings.TrimSpace(scanner.Text()) != "" {
				fmt.Fprintf(errOut, "unknown key %q\n", strings.TrimSpace(scanner.Text()))
			}
			continue
		}

		resp := submit(ctx, handler, cmd)
		switch {
		case !resp.OK:
			fmt.Fprintf(errOut, "%s\n", resp.Error)
		case cmd == "status":
			fmt.Fprintf(errOut, "%s (%.2fs)\n", resp.State, resp.Elapsed)
		}
		if cmd == "quit" && resp.OK {
			return
		}
	}
	if ctx.Err() == nil {
		submit(ctx, handler, "quit")
	}
}

// submit sends cmd, waiting for the action queue while an earlier key is pending.
func submit(ctx context.Context, handler ipc.Handler, cmd string) ipc.Response {
	var resp ipc.Response
	for range pendingAttempts {
		resp = handler.Handle(ctx, ipc.Request{Command: cmd})
		if resp.OK || resp.Error != ipc.ErrorPending {
			return resp
		}
		select {
		case <-ctx.Done():
			return resp
		case <-time.After(pendingRetry):
		}
	}
	return resp
}
