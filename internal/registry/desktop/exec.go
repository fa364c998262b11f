package desktop

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Starter starts a process for a launch intent.
type Starter interface {
	Start(argv []string, dir string) error
}

// ExecStarter starts detached child processes with os/exec.
type ExecStarter struct{}

// Start runs argv in dir without waiting for it to exit. The child does not
// inherit the bridge's stdio.
func (ExecStarter) Start(argv []string, dir string) error {
	if len(argv) == 0 {
		return errors.New("empty command line")
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait() //nolint:errcheck
	return nil
}

// commandLine expands the Exec key of e into an argument vector.
//
// File and URL field codes are dropped since nothing is being opened. %i
// expands to "--icon <Icon>", %c to the name, %k to the entry file path and
// %% to a literal percent sign.
func commandLine(e Entry, entryPath string) ([]string, error) {
	tokens, err := splitExec(e.Exec)
	if err != nil {
		return nil, err
	}

	var argv []string
	for _, tok := range tokens {
		switch tok {
		case "%f", "%F", "%u", "%U", "%d", "%D", "%n", "%N", "%v", "%m":
			continue
		case "%i":
			if e.Icon != "" {
				argv = append(argv, "--icon", e.Icon)
			}
			continue
		}
		argv = append(argv, expandCodes(tok, e, entryPath))
	}
	if len(argv) == 0 {
		return nil, errors.New("exec line has no program")
	}
	return argv, nil
}

// expandCodes replaces field codes embedded inside a larger argument.
func expandCodes(tok string, e Entry, entryPath string) string {
	if !strings.Contains(tok, "%") {
		return tok
	}
	var b strings.Builder
	for i := 0; i < len(tok); i++ {
		if tok[i] != '%' || i+1 == len(tok) {
			b.WriteByte(tok[i])
			continue
		}
		i++
		switch tok[i] {
		case '%':
			b.WriteByte('%')
		case 'c':
			b.WriteString(e.Name)
		case 'k':
			b.WriteString(entryPath)
		}
	}
	return b.String()
}

// splitExec tokenizes an Exec value following the desktop entry quoting rules.
func splitExec(s string) ([]string, error) {
	s = unescape(s)

	var (
		tokens  []string
		cur     strings.Builder
		started bool
		quoted  bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quoted && c == '\\' && i+1 < len(s) && strings.IndexByte("\"`$\\", s[i+1]) >= 0:
			i++
			cur.WriteByte(s[i])
		case quoted && c == '"':
			quoted = false
		case quoted:
			cur.WriteByte(c)
		case c == '"':
			quoted = true
			started = true
		case c == ' ' || c == '\t':
			if started {
				tokens = append(tokens, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteByte(c)
			started = true
		}
	}
	if quoted {
		return nil, fmt.Errorf("unterminated quote in Exec %q", s)
	}
	if started {
		tokens = append(tokens, cur.String())
	}
	return tokens, nil
}
