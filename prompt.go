package geoweather

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Prompter is the resolver's view of the user.
type Prompter interface {
	// Prompt shows label and returns one line of input without its line
	// terminator. It returns io.EOF once input is exhausted.
	Prompt(label string) (string, error)
	// ShowCandidates lists the ranked candidates followed by MenuOptions.
	ShowCandidates(candidates []MatchCandidate)
	// Notice shows an informational message.
	Notice(msg string)
}

// TerminalPrompter is a Prompter over a line-oriented reader and writer.
type TerminalPrompter struct {
	in      *bufio.Reader
	out     io.Writer
	heading *color.Color
	option  *color.Color
	notice  *color.Color
}

// NewTerminalPrompter returns a prompter reading lines from in and writing
// to out. Colors follow fatih/color's global NoColor setting.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{
		in:      bufio.NewReader(in),
		out:     out,
		heading: color.New(color.FgCyan, color.Bold),
		option:  color.New(color.FgHiBlack),
		notice:  color.New(color.FgYellow),
	}
}

func (p *TerminalPrompter) Prompt(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil {
		// A final line without a terminator is still input.
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p *TerminalPrompter) ShowCandidates(candidates []MatchCandidate) {
	fmt.Fprintln(p.out)
	p.heading.Fprintln(p.out, "Ambiguous location. Here are some possible matches:")
	for i, c := range candidates {
		fmt.Fprintf(p.out, "%d. %s (Score: %.2f)\n", i+1, c.Name, c.Score)
	}
	for i, label := range MenuOptions {
		p.option.Fprintf(p.out, "%d. %s\n", len(candidates)+i+1, label)
	}
}

func (p *TerminalPrompter) Notice(msg string) {
	p.notice.Fprintln(p.out, msg)
}
