package executor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the operator a yes/no question.
type Prompter interface {
	Confirm(question string) (bool, error)
}

var affirmatives = map[string]bool{
	"":    true,
	"y":   true,
	"yes": true,
	"o":   true,
	"oui": true,
}

// IsAffirmative reports whether answer confirms. An empty answer does.
func IsAffirmative(answer string) bool {
	return affirmatives[strings.ToLower(strings.TrimSpace(answer))]
}

// LinePrompter reads one line per question. It waits indefinitely.
type LinePrompter struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{In: in, Out: out}
}

func (p *LinePrompter) Confirm(question string) (bool, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	fmt.Fprintf(p.Out, "%s [Y/n] ", question)

	line, err := p.reader.ReadString('\n')
	if errors.Is(err, io.EOF) {
		if line == "" {
			// Closed input is not consent.
			fmt.Fprintln(p.Out)
			return false, nil
		}
	} else if err != nil {
		return false, err
	}
	return IsAffirmative(line), nil
}

// AssumeYes confirms every question without reading input.
type AssumeYes struct {
	Out io.Writer
}

func (a AssumeYes) Confirm(question string) (bool, error) {
	if a.Out != nil {
		fmt.Fprintf(a.Out, "%s [Y/n] y\n", question)
	}
	return true, nil
}
