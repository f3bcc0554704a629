// Package cli parses recast command lines.
package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

type Command string

const (
	CommandRecord    Command = "record"
	CommandStart     Command = "start"
	CommandStop      Command = "stop"
	CommandTranslate Command = "translate"
	CommandSkip      Command = "skip"
	CommandAgain     Command = "again"
	CommandDone      Command = "done"
	CommandPlay      Command = "play"
	CommandQuit      Command = "quit"
	CommandStatus    Command = "status"
	CommandDevices   Command = "devices"
	CommandDoctor    Command = "doctor"
	CommandVersion   Command = "version"
	CommandHelp      Command = "help"
)

var validCommands = []Command{
	CommandRecord,
	CommandStart,
	CommandStop,
	CommandTranslate,
	CommandSkip,
	CommandAgain,
	CommandDone,
	CommandPlay,
	CommandQuit,
	CommandStatus,
	CommandDevices,
	CommandDoctor,
	CommandVersion,
	CommandHelp,
}

// Forwarded reports whether the command is relayed to a running owner.
func (c Command) Forwarded() bool {
	switch c {
	case CommandStart, CommandStop, CommandTranslate, CommandSkip, CommandAgain, CommandDone, CommandPlay, CommandQuit:
		return true
	default:
		return false
	}
}

type Parsed struct {
	Command    Command
	ConfigPath string
	Debug      bool
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--debug":
			parsed.Debug = true
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if path, ok := strings.CutPrefix(arg, "--config="); ok {
				if path == "" {
					return Parsed{}, errors.New("--config requires a path")
				}
				parsed.ConfigPath = path
				continue
			}
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if !slices.Contains(validCommands, cmd) {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			if i != len(args)-1 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [--debug] <command>

Session:
  record     Run the interactive recorder (owns the session)

Remote control (sent to a running recorder):
  start      Start recording
  stop       Stop recording
  translate  Send the last recording to the transformation service
  skip       Skip translation
  again      Record again
  done       Finish the session
  play       Replay the current audio
  quit       Stop the recorder
  status     Print current state and elapsed time

Tools:
  devices    List available input devices
  doctor     Run configuration and environment checks
  version    Print version information
  help       Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/recast/config.jsonc)
  --debug         Enable debug logging
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
