package approvals

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	log "github.com/sirupsen/logrus"
)

// Approver - asks the operator before anything destructive happens
type Approver interface {
	// Approve - true only on an explicit yes
	Approve(prompt string) (bool, error)
}

// ErrNoAnswer - input closed before an answer was given
var ErrNoAnswer = errors.New("no answer")

// TerminalApprover - writes the prompt to out and waits for a line on in.
// There is no timeout, an unattended run waits forever.
type TerminalApprover struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalApprover - approver reading answers from in
func NewTerminalApprover(in io.Reader, out io.Writer) *TerminalApprover {
	if f, ok := in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		log.Warn("approvals: stdin is not a terminal, waiting for an answer on it anyway")
	}
	return &TerminalApprover{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Approve - asks prompt, only "y" and "yes" approve
func (a *TerminalApprover) Approve(prompt string) (bool, error) {
	fmt.Fprintf(a.out, "%s [y/N]: ", prompt)

	line, err := a.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return false, err
		}
		if line == "" {
			return false, ErrNoAnswer
		}
	}

	return IsYes(line), nil
}

// IsYes - parses an operator answer
func IsYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
