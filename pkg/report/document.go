package report

import (
	"github.com/Sumatoshi-tech/importonly/pkg/checker"
	"github.com/Sumatoshi-tech/importonly/pkg/runner"
)

// Document is the machine-readable form of a run.
type Document struct {
	Files       int         `json:"files" yaml:"files"`
	Diagnostics []Entry     `json:"diagnostics" yaml:"diagnostics"`
	Errors      []FileError `json:"errors" yaml:"errors"`
	Summary     Summary     `json:"summary" yaml:"summary"`
}

// Entry is one diagnostic.
type Entry struct {
	Path      string   `json:"path" yaml:"path"`
	Line      uint     `json:"line" yaml:"line"`
	Column    uint     `json:"column" yaml:"column"`
	EndLine   uint     `json:"end_line" yaml:"end_line"`
	EndColumn uint     `json:"end_column" yaml:"end_column"`
	Rule      string   `json:"rule" yaml:"rule"`
	Code      string   `json:"code" yaml:"code"`
	Message   string   `json:"message" yaml:"message"`
	Args      []string `json:"args" yaml:"args"`
}

// FileError is a file that could not be checked.
type FileError struct {
	Path  string `json:"path" yaml:"path"`
	Error string `json:"error" yaml:"error"`
}

// Summary holds run totals.
type Summary struct {
	Files       int            `json:"files" yaml:"files"`
	Bytes       int64          `json:"bytes" yaml:"bytes"`
	DurationMS  int64          `json:"duration_ms" yaml:"duration_ms"`
	Diagnostics int            `json:"diagnostics" yaml:"diagnostics"`
	Errors      int            `json:"errors" yaml:"errors"`
	ByRule      map[string]int `json:"by_rule" yaml:"by_rule"`
}

// NewEntry converts a diagnostic.
func NewEntry(d checker.Diagnostic) Entry {
	return Entry{
		Path:      d.Path,
		Line:      d.Pos.Line,
		Column:    d.Pos.Col,
		EndLine:   d.End.Line,
		EndColumn: d.End.Col,
		Rule:      string(d.Rule),
		Code:      d.Code,
		Message:   d.Message,
		Args:      d.Args,
	}
}

// NewEntries converts diagnostics, never returning nil.
func NewEntries(diags []checker.Diagnostic) []Entry {
	entries := make([]Entry, 0, len(diags))

	for _, d := range diags {
		entries = append(entries, NewEntry(d))
	}

	return entries
}

// NewDocument builds the Document for res.
func NewDocument(res *runner.Result) Document {
	errs := make([]FileError, 0, len(res.Errors))

	for _, fe := range res.Errors {
		errs = append(errs, FileError{Path: fe.Path, Error: fe.Err.Error()})
	}

	return Document{
		Files:       res.Files,
		Diagnostics: NewEntries(res.Diagnostics),
		Errors:      errs,
		Summary:     summarize(res),
	}
}

func summarize(res *runner.Result) Summary {
	byRule := make(map[string]int)

	for _, d := range res.Diagnostics {
		byRule[string(d.Rule)]++
	}

	return Summary{
		Files:       res.Files,
		Bytes:       res.Bytes,
		DurationMS:  res.Duration.Milliseconds(),
		Diagnostics: len(res.Diagnostics),
		Errors:      len(res.Errors),
		ByRule:      byRule,
	}
}
