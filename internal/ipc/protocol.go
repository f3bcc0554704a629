// Package ipc carries owner control requests over a unix socket as JSON lines.
package ipc

import "slices"

// Commands lists every request the owner understands.
var Commands = []string{"status", "start", "stop", "translate", "skip", "again", "done", "play", "quit"}

// ErrorPending is the Response.Error text returned while an earlier request is still queued.
const ErrorPending = "another request is pending"

type Request struct {
	Command string `json:"command"`
}

type Response struct {
	OK      bool    `json:"ok"`
	State   string  `json:"state,omitempty"`
	Elapsed float64 `json:"elapsed,omitempty"`
	Source  string  `json:"source,omitempty"`
	Session string  `json:"session,omitempty"`
	Message string  `json:"message,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Known reports whether command is part of the owner protocol.
func Known(command string) bool {
	return slices.Contains(Commands, command)
}
