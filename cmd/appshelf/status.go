package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type severity int

const (
	severityInfo severity = iota
	severityOK
	severityWarn
	severityError
)

var severityStyles = map[severity]struct {
	tag    string
	colors text.Colors
}{
	severityInfo:  {"INFO", text.Colors{text.FgBlue}},
	severityOK:    {"OK", text.Colors{text.FgGreen}},
	severityWarn:  {"WARN", text.Colors{text.FgYellow}},
	severityError: {"ERROR", text.Colors{text.FgRed}},
}

// statusWriter prints aligned "label: [TAG] message" lines, colored when
// the destination is a terminal and NO_COLOR is unset.
type statusWriter struct {
	out   io.Writer
	color bool
}

func newStatusWriter(out io.Writer) statusWriter {
	return statusWriter{out: out, color: isTerminal(out)}
}

func (s statusWriter) print(label string, sev severity, message string) {
	fmt.Fprintln(s.out, s.format(label, sev, message))
}

func (s statusWriter) format(label string, sev severity, message string) string {
	style := severityStyles[sev]
	line := fmt.Sprintf("  %-20s [%s]", label+":", style.tag)
	if message != "" {
		line += " " + message
	}
	if s.color {
		return style.colors.Sprint(line)
	}
	return line
}

func isTerminal(w io.Writer) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
