// Package lifecycle holds the document ingestion state machine and the
// client-side controller that issues lifecycle commands to a server.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/jackzampolin/kbase/internal/types"
)

// ErrInvalidTransition is returned when a command is not allowed from the
// document's current status.
var ErrInvalidTransition = errors.New("invalid transition")

// Command is an input to the state machine.
type Command string

const (
	CommandProcess   Command = "process"
	CommandResume    Command = "resume"
	CommandRestart   Command = "restart"
	CommandTerminate Command = "terminate"

	// Reported by the worker.
	CommandStart   Command = "start"
	CommandSucceed Command = "succeed"
	CommandFail    Command = "fail"
	CommandCancel  Command = "cancel"
)

// Transition is the outcome of applying a command.
type Transition struct {
	From types.Status
	To   types.Status
	// Noop is set when the command is accepted but has no effect.
	Noop bool
}

type rule struct {
	to   types.Status
	noop bool
}

var table = map[Command]map[types.Status]rule{
	CommandProcess: {
		types.StatusNotStarted: {to: types.StatusPending},
		types.StatusProcessed:  {to: types.StatusPending},
		types.StatusFailed:     {to: types.StatusPending},
		types.StatusCancelled:  {to: types.StatusPending},
		types.StatusPending:    {noop: true},
		types.StatusProcessing: {noop: true},
	},
	CommandResume: {
		types.StatusPaused: {to: types.StatusPending},
	},
	CommandRestart: {
		types.StatusPaused: {to: types.StatusPending},
	},
	CommandTerminate: {
		types.StatusPending:    {to: types.StatusPaused},
		types.StatusProcessing: {to: types.StatusPaused},
		types.StatusNotStarted: {noop: true},
		types.StatusPaused:     {noop: true},
		types.StatusProcessed:  {noop: true},
		types.StatusFailed:     {noop: true},
		types.StatusCancelled:  {noop: true},
	},
	CommandStart: {
		types.StatusPending:    {to: types.StatusProcessing},
		types.StatusProcessing: {to: types.StatusProcessing},
	},
	CommandSucceed: {
		types.StatusPending:    {to: types.StatusProcessed},
		types.StatusProcessing: {to: types.StatusProcessed},
	},
	CommandFail: {
		types.StatusPending:    {to: types.StatusFailed},
		types.StatusProcessing: {to: types.StatusFailed},
	},
	CommandCancel: {
		types.StatusPending:    {to: types.StatusCancelled},
		types.StatusProcessing: {to: types.StatusCancelled},
	},
}

// Apply computes the transition for cmd issued against a document in
// status from. Disallowed commands return ErrInvalidTransition and the
// status is left untouched.
func Apply(from types.Status, cmd Command) (Transition, error) {
	rules, ok := table[cmd]
	if !ok {
		return Transition{From: from, To: from}, fmt.Errorf("%w: unknown command %q", ErrInvalidTransition, cmd)
	}
	r, ok := rules[from]
	if !ok {
		return Transition{From: from, To: from}, fmt.Errorf("%w: cannot %s a %s document", ErrInvalidTransition, cmd, from)
	}
	if r.noop {
		return Transition{From: from, To: from, Noop: true}, nil
	}
	return Transition{From: from, To: r.to}, nil
}

// Allowed reports whether cmd would change a document in status from.
func Allowed(from types.Status, cmd Command) bool {
	t, err := Apply(from, cmd)
	return err == nil && !t.Noop
}

// Available lists the user commands that would change a document in
// status from, in the order a user would usually reach for them.
func Available(from types.Status) []Command {
	var out []Command
	for _, cmd := range []Command{CommandProcess, CommandResume, CommandRestart, CommandTerminate} {
		if Allowed(from, cmd) {
			out = append(out, cmd)
		}
	}
	return out
}

// CommandForReport maps a worker-reported status to the command it implies.
func CommandForReport(status types.Status) (Command, error) {
	switch status {
	case types.StatusProcessing:
		return CommandStart, nil
	case types.StatusProcessed:
		return CommandSucceed, nil
	case types.StatusFailed:
		return CommandFail, nil
	case types.StatusCancelled:
		return CommandCancel, nil
	}
	return "", fmt.Errorf("%w: worker cannot report status %q", ErrInvalidTransition, status)
}
