package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNoToken is returned when no access token can be found.
var ErrNoToken = errors.New("no zenodo access token")

// PromptFunc asks the user for a secret and returns it without echo.
type PromptFunc func(prompt string) (string, error)

// TerminalPrompt reads a secret from the controlling terminal without echo.
// Prompts are written to stderr.
func TerminalPrompt(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("cannot prompt for %q: stdin is not a terminal", strings.TrimSpace(prompt))
	}
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading from terminal: %w", err)
	}
	return string(secret), nil
}

// ReaderPrompt returns a PromptFunc that reads one line per prompt from r.
// It is used when stdin is piped.
func ReaderPrompt(r io.Reader) PromptFunc {
	br := bufio.NewReader(r)
	return func(string) (string, error) {
		line, err := br.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}
