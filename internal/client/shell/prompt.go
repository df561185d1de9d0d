package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/atinyakov/telecombase/internal/client/api"
)

// errInputClosed is returned when stdin ends in the middle of a prompt.
var errInputClosed = errors.New("input closed")

// prompter reads answers line by line from the shell's input.
type prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
	// tty is set when input is an interactive terminal.
	tty *os.File
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{scanner: bufio.NewScanner(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.tty = f
	}
	return p
}

// line prints label and returns the next trimmed input line.
func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", errInputClosed
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// text asks for a value; an empty answer keeps current.
func (p *prompter) text(label, current string) (string, error) {
	if current != "" {
		label = fmt.Sprintf("%s [%s]", label, current)
	}
	v, err := p.line(label + ": ")
	if err != nil {
		return "", err
	}
	if v == "" {
		return current, nil
	}
	return v, nil
}

// required asks until a non-empty answer is given.
func (p *prompter) required(label string) (string, error) {
	for {
		v, err := p.line(label + ": ")
		if err != nil {
			return "", err
		}
		if v != "" {
			return v, nil
		}
		fmt.Fprintf(p.out, "%s is required\n", strings.ToLower(label))
	}
}

// id asks for a positive integer; current > 0 is offered as the default.
func (p *prompter) id(label string, current int64) (int64, error) {
	def := ""
	if current > 0 {
		def = strconv.FormatInt(current, 10)
	}
	for {
		v, err := p.text(label, def)
		if err != nil {
			return 0, err
		}
		n, err := parseID(v)
		if err == nil {
			return n, nil
		}
		fmt.Fprintln(p.out, err)
	}
}

// optionalID asks for an id that may be cleared with "-". An empty answer
// keeps current.
func (p *prompter) optionalID(label string, current api.OptionalID) (api.OptionalID, error) {
	def := ""
	if id, ok := current.Get(); ok {
		def = strconv.FormatInt(id, 10)
	}
	for {
		v, err := p.line(fmt.Sprintf("%s [%s] (- for none): ", label, def))
		if err != nil {
			return api.None(), err
		}
		switch v {
		case "":
			return current, nil
		case "-":
			return api.None(), nil
		}
		n, err := parseID(v)
		if err == nil {
			return api.Some(n), nil
		}
		fmt.Fprintln(p.out, err)
	}
}

// password asks until a non-empty secret is given. On a terminal the
// input is not echoed.
func (p *prompter) password(label string) (string, error) {
	if p.tty == nil {
		return p.required(label)
	}
	for {
		fmt.Fprint(p.out, label+": ")
		b, err := term.ReadPassword(int(p.tty.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", err
		}
		if v := strings.TrimSpace(string(b)); v != "" {
			return v, nil
		}
		fmt.Fprintf(p.out, "%s is required\n", strings.ToLower(label))
	}
}

// confirm asks a yes/no question; only "y" and "yes" count as yes.
func (p *prompter) confirm(question string) (bool, error) {
	v, err := p.line(question + " [y/N]: ")
	if err != nil {
		return false, err
	}
	v = strings.ToLower(v)
	return v == "y" || v == "yes", nil
}

func parseID(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", s)
	}
	return n, nil
}
