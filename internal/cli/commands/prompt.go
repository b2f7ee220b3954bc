package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var errNonInteractive = errors.New("stdin is not a terminal")

// prompter asks the user for a value
type prompter interface {
	Prompt(label string, secret bool) (string, error)
}

// terminalPrompter reads answers from an interactive terminal
type terminalPrompter struct {
	in  *os.File
	out io.Writer
}

func newTerminalPrompter() prompter {
	return &terminalPrompter{in: os.Stdin, out: os.Stdout}
}

func (p *terminalPrompter) Prompt(label string, secret bool) (string, error) {
	fd := int(p.in.Fd())
	if !term.IsTerminal(fd) {
		return "", errNonInteractive
	}

	fmt.Fprint(p.out, label)

	if secret {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(p.out) // New line after hidden input
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
