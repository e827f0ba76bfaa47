package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const (
	prompt = "> "

	// historyLimit caps the lines kept for .history.
	historyLimit = 1000
)

// shell reads one command per line and runs it against the loaded graphs.
// A failing or panicking command is reported and the shell keeps going.
type shell struct {
	app     *app
	in      io.Reader
	out     io.Writer
	history io.Writer // nil when history is disabled
	past    []string  // earlier lines, oldest first

	// interactive enables the prompt; piped input runs silently.
	interactive bool
}

func runShell(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	sh := &shell{
		app:         a,
		in:          cmd.InOrStdin(),
		out:         cmd.OutOrStdout(),
		interactive: isTerminal(cmd.InOrStdin()),
	}

	if p := a.cfg.HistoryPath(); p != "" {
		past, err := loadHistory(p)
		if err != nil {
			a.log.Warn("reading history", "path", p, "error", err)
		}
		sh.past = past

		f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			a.log.Warn("history disabled", "path", p, "error", err)
		} else {
			defer f.Close()
			sh.history = f
		}
	}

	return sh.run()
}

// loadHistory returns the last historyLimit lines of the history file. A
// missing file is an empty history.
func loadHistory(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > historyLimit {
		lines = lines[len(lines)-historyLimit:]
	}
	return lines, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// run reads lines until EOF or .exit.
func (sh *shell) run() error {
	scanner := bufio.NewScanner(sh.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if sh.interactive {
			fmt.Fprint(sh.out, prompt)
		}
		if !scanner.Scan() {
			if sh.interactive {
				fmt.Fprintln(sh.out)
			}
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		sh.record(line)
		if !sh.exec(line) {
			return nil
		}
	}
}

func (sh *shell) record(line string) {
	sh.past = append(sh.past, line)
	if len(sh.past) > historyLimit {
		sh.past = sh.past[len(sh.past)-historyLimit:]
	}

	if sh.history == nil {
		return
	}
	if _, err := fmt.Fprintln(sh.history, line); err != nil {
		sh.app.log.Warn("writing history", "error", err)
		sh.history = nil
	}
}

// exec runs one line and reports whether the shell should keep reading.
func (sh *shell) exec(line string) bool {
	name, rest, _ := strings.Cut(line, " ")
	name = strings.TrimPrefix(name, ".")

	switch name {
	case "exit":
		return false
	case "help":
		sh.help()
		return true
	case "history":
		for i, past := range sh.past {
			fmt.Fprintf(sh.out, "%4d  %s\n", i+1, past)
		}
		return true
	}

	c, ok := lookupCommand(name)
	if !ok {
		fmt.Fprintf(sh.out, "Unknown command %q. Type .help for a list.\n", name)
		return true
	}

	args, err := c.parseArgs(rest)
	if err == nil {
		err = sh.call(c, args)
	}
	if err != nil {
		sh.app.log.Warn("command failed", "command", c.name, "error", err)
		fmt.Fprintf(sh.out, "Error: %v\n", err)
	}
	return true
}

// call runs c, turning a panic into an error.
func (sh *shell) call(c *command, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			sh.app.log.Error("command panicked", "command", c.name, "panic", r)
			err = fmt.Errorf("%s: internal error: %v", c.name, r)
		}
	}()
	return c.run(sh.app, sh.out, args)
}

func (sh *shell) help() {
	fmt.Fprintln(sh.out, "Commands (camelCase names work too, a leading dot is optional):")
	for i := range commands {
		fmt.Fprintf(sh.out, "  %-52s %s\n", commands[i].usage(), commands[i].short)
	}
	fmt.Fprintf(sh.out, "  %-52s %s\n", ".help", "Show this list")
	fmt.Fprintf(sh.out, "  %-52s %s\n", ".history", "List earlier lines, including past sessions")
	fmt.Fprintf(sh.out, "  %-52s %s\n", ".exit", "Leave the shell")
}
