package config

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// test seams for the terminal
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// NeedsOperatorPrompt reports whether no simulation account is configured
// and stdin is an interactive terminal.
func (c *Config) NeedsOperatorPrompt() bool {
	return c.OperatorKey == "" && c.OperatorAddress == "" && isTerminal(int(os.Stdin.Fd()))
}

// PromptOperatorKey reads the operational private key from the terminal
// without echo. The caller must wipe the returned slice.
func PromptOperatorKey(w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, "Operational account private key (hex): "); err != nil {
		return nil, err
	}
	key, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return key, nil
}
