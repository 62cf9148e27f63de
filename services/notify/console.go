// Package notifysvc holds the sinks for user-visible notifications.
package notifysvc

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/trezcool/campus/core"
)

// ConsoleNotifier prints notifications for a terminal user.
type ConsoleNotifier struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

var _ core.Notifier = (*ConsoleNotifier)(nil)

func NewConsoleNotifier(out, err io.Writer, useColors bool) *ConsoleNotifier {
	return &ConsoleNotifier{out: out, err: err, useColors: useColors}
}

// ColorsEnabled honours NO_COLOR and dumb terminals.
func ColorsEnabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return os.Getenv("TERM") != "dumb" && !color.NoColor
}

func (n *ConsoleNotifier) Success(msg string) {
	n.print(n.out, color.FgGreen, "✓ ", "[OK] ", msg)
}

func (n *ConsoleNotifier) Error(msg string) {
	n.print(n.err, color.FgRed, "✗ ", "[ERROR] ", msg)
}

func (n *ConsoleNotifier) Info(msg string) {
	n.print(n.out, color.FgCyan, "", "", msg)
}

func (n *ConsoleNotifier) print(w io.Writer, attr color.Attribute, icon, tag, msg string) {
	if n.useColors {
		c := color.New(attr)
		c.EnableColor()
		_, _ = c.Fprintf(w, "%s%s\n", icon, msg)
		return
	}
	_, _ = fmt.Fprintf(w, "%s%s\n", tag, msg)
}
