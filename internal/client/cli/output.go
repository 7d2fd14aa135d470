package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

var (
	successMark = color.New(color.FgGreen).Sprint("✓")
	failureMark = color.New(color.FgRed).Sprint("✗")
	hintMark    = color.New(color.FgCyan).Sprint("→")
	highlight   = color.New(color.FgYellow).SprintFunc()
	muted       = color.New(color.FgHiBlack).SprintFunc()
)

func (a *App) success(format string, args ...any) {
	fmt.Fprintln(a.out, successMark, fmt.Sprintf(format, args...))
}

func (a *App) failure(format string, args ...any) {
	fmt.Fprintln(a.out, failureMark, fmt.Sprintf(format, args...))
}

func (a *App) hint(format string, args ...any) {
	fmt.Fprintln(a.out, hintMark, fmt.Sprintf(format, args...))
}

// startSpinner shows message with a spinner until the returned function is
// called. Nothing is drawn when the output is not a terminal.
func (a *App) startSpinner(ctx context.Context, message string) func() {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(a.out))
	s.Suffix = " " + message
	if err := s.Color("cyan"); err != nil {
		a.log.Debug(ctx, "spinner color", "error", err)
	}
	s.Start()
	return s.Stop
}
