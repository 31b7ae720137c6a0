// Package report renders check results as text, JSON or YAML, plus a
// human summary table.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/importonly/pkg/checker"
	"github.com/Sumatoshi-tech/importonly/pkg/runner"
)

// Format selects the output encoding.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ColorMode controls ANSI colors in text output.
type ColorMode string

// Color modes. Auto follows fatih/color's terminal detection.
const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ErrUnknownFormat indicates an unsupported Format.
var ErrUnknownFormat = errors.New("unknown report format")

// Options tunes rendering.
type Options struct {
	Color ColorMode
}

// ParseFormat validates name.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if f == "" {
		return FormatText, nil
	}

	if !slices.Contains([]Format{FormatText, FormatJSON, FormatYAML}, f) {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}

	return f, nil
}

// Write renders res to w.
func Write(w io.Writer, res *runner.Result, format Format, opts Options) error {
	switch format {
	case FormatText, "":
		return writeText(w, res, newPalette(opts.Color))
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(NewDocument(res)); err != nil {
			return fmt.Errorf("encode json report: %w", err)
		}

		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(NewDocument(res)); err != nil {
			return fmt.Errorf("encode yaml report: %w", err)
		}

		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// palette holds the colors used by text output.
type palette struct {
	path *color.Color
	code *color.Color
	rule *color.Color
	err  *color.Color
	ok   *color.Color
}

func newPalette(mode ColorMode) palette {
	p := palette{
		path: color.New(color.Bold),
		code: color.New(color.FgYellow),
		rule: color.New(color.FgCyan),
		err:  color.New(color.FgRed),
		ok:   color.New(color.FgGreen),
	}

	all := []*color.Color{p.path, p.code, p.rule, p.err, p.ok}

	switch mode {
	case ColorAlways:
		for _, c := range all {
			c.EnableColor()
		}
	case ColorNever:
		for _, c := range all {
			c.DisableColor()
		}
	case ColorAuto:
		// fatih/color decides from the terminal.
	}

	return p
}

// FormatDiagnostic renders d as "path:line:col: CODE rule-id: message"
// without colors.
func FormatDiagnostic(d checker.Diagnostic) string {
	return fmt.Sprintf("%s:%d:%d: %s %s: %s", d.Path, d.Pos.Line, d.Pos.Col, d.Code, d.Rule, d.Message)
}

func writeText(w io.Writer, res *runner.Result, p palette) error {
	for _, d := range res.Diagnostics {
		_, err := fmt.Fprintf(w, "%s: %s %s: %s\n",
			p.path.Sprintf("%s:%d:%d", d.Path, d.Pos.Line, d.Pos.Col),
			p.code.Sprint(d.Code),
			p.rule.Sprint(string(d.Rule)),
			d.Message,
		)
		if err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	for _, fe := range res.Errors {
		_, err := fmt.Fprintf(w, "%s: %s %s\n", p.path.Sprint(fe.Path), p.err.Sprint("error:"), fe.Err)
		if err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	return nil
}

// WriteSummary writes a per-rule table followed by a one-line footer such as
// "Checked 1,204 files (3.1 MB) in 420ms".
func WriteSummary(w io.Writer, res *runner.Result, opts Options) error {
	p := newPalette(opts.Color)
	doc := summarize(res)

	if doc.Diagnostics > 0 {
		tbl := table.NewWriter()
		tbl.SetStyle(table.StyleLight)
		tbl.AppendHeader(table.Row{"Rule", "Code", "Count"})

		for _, rule := range checker.Rules() {
			if n := doc.ByRule[string(rule.ID)]; n > 0 {
				tbl.AppendRow(table.Row{string(rule.ID), rule.Code, n})
			}
		}

		tbl.AppendFooter(table.Row{"Total", "", doc.Diagnostics})

		if _, err := fmt.Fprintln(w, tbl.Render()); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}

	status := p.ok.Sprint("no problems")

	switch {
	case doc.Diagnostics > 0:
		status = p.code.Sprintf("%s found", plural(doc.Diagnostics, "problem"))
	case doc.Errors > 0:
		status = p.err.Sprintf("%s not checked", plural(doc.Errors, "file"))
	}

	_, err := fmt.Fprintf(w, "Checked %s (%s) in %s: %s\n",
		plural(doc.Files, "file"),
		humanize.Bytes(uint64(max(doc.Bytes, 0))),
		res.Duration.Round(time.Millisecond),
		status,
	)
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return nil
}

func plural(n int, noun string) string {
	if n != 1 {
		noun += "s"
	}

	return humanize.Comma(int64(n)) + " " + noun
}
