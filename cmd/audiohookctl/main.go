// Command audiohookctl is an interactive debug shell for exercising the
// capture hook's façade by hand: start/stop/allow-skip/status commands
// typed at a pseudo terminal, the same console role serial_port.go and
// kiss.go's pseudo-terminal setup play for the KISS TNC.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/creack/pty"
	"github.com/pkg/term"

	charmlog "github.com/charmbracelet/log"

	"github.com/doismellburning/audiohook/clock"
	"github.com/doismellburning/audiohook/hook"
	"github.com/doismellburning/audiohook/transport"
)

var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{Prefix: "audiohookctl"})

func main() {
	ptmx, pts, err := pty.Open()
	if err != nil {
		logger.Fatal("could not create pseudo terminal", "err", err)
	}
	defer ptmx.Close()
	defer pts.Close()

	fmt.Fprintf(os.Stderr, "audiohookctl: slave pty available at %s\n", pts.Name())
	fmt.Fprintf(os.Stderr, "commands: start | stop | allow-skip on|off | status | quit\n")

	h := hook.New(clock.NewMonotonic(), clock.NewAudioState())
	to := transport.NewBuffer()
	if err := h.SetTransport(to); err != nil {
		logger.Fatal("binding transport", "err", err)
	}

	t, err := term.Open(pts.Name(), term.RawMode)
	if err != nil {
		logger.Warn("could not put pty into raw mode, falling back to line mode", "err", err)
		runShell(h, os.Stdin, os.Stdout)
		return
	}
	defer t.Close()
	runShell(h, t, t)
}

func runShell(h *hook.Hook, r io.Reader, w io.Writer) {
	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprint(w, "audiohook> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "start":
			if err := h.Start(); err != nil {
				fmt.Fprintf(w, "error: %v\n", err)
			}
		case "stop":
			if err := h.Stop(); err != nil {
				fmt.Fprintf(w, "error: %v\n", err)
			}
		case "allow-skip":
			if len(fields) < 2 {
				fmt.Fprintln(w, "usage: allow-skip on|off")
				continue
			}
			h.AllowSkip(fields[1] == "on")
		case "status":
			fmt.Fprintf(w, "capturing=%v\n", h.IsCapturing())
		case "quit", "exit":
			return
		default:
			fmt.Fprintf(w, "unknown command: %s\n", fields[0])
		}
	}
}
