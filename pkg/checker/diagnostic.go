package checker

import (
	"cmp"
	"slices"
	"sync"

	"github.com/Sumatoshi-tech/importonly/pkg/pytree"
)

// Diagnostic is one reported violation.
type Diagnostic struct {
	Rule    RuleID       `json:"rule"    yaml:"rule"`
	Code    string       `json:"code"    yaml:"code"`
	Path    string       `json:"path"    yaml:"path"`
	Pos     pytree.Point `json:"pos"     yaml:"pos"`
	End     pytree.Point `json:"end"     yaml:"end"`
	Args    []string     `json:"args"    yaml:"args"`
	Message string       `json:"message" yaml:"message"`
}

// Sink receives diagnostics as they are found.
type Sink interface {
	Report(d Diagnostic)
}

// SinkFunc adapts a function to [Sink].
type SinkFunc func(Diagnostic)

// Report implements [Sink].
func (f SinkFunc) Report(d Diagnostic) { f(d) }

// Collector is a [Sink] that keeps every diagnostic. It is safe for
// concurrent use.
type Collector struct {
	mu    sync.Mutex
	diags []Diagnostic
}

// Report implements [Sink].
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	c.diags = append(c.diags, d)
	c.mu.Unlock()
}

// Diagnostics returns a copy of the collected diagnostics in report order.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.diags)
}

// Len returns the number of collected diagnostics.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.diags)
}

// Compare orders diagnostics by path, line, column, then rule.
func Compare(a, b Diagnostic) int {
	return cmp.Or(
		cmp.Compare(a.Path, b.Path),
		cmp.Compare(a.Pos.Line, b.Pos.Line),
		cmp.Compare(a.Pos.Col, b.Pos.Col),
		cmp.Compare(a.Rule, b.Rule),
	)
}

// Sort orders diags in place with [Compare]. Equal diagnostics keep their
// report order.
func Sort(diags []Diagnostic) {
	slices.SortStableFunc(diags, Compare)
}
