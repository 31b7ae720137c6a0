package checker

import (
	"context"
	"fmt"
	"sync"

	"github.com/Sumatoshi-tech/importonly/pkg/pytree"
	"github.com/Sumatoshi-tech/importonly/pkg/resolve"
	"github.com/Sumatoshi-tech/importonly/pkg/rules"
)

// Lazy defers parsing of the allowed-direct-imports value until the first
// file is checked. The parsed RuleSet, or the parse error, is kept for the
// lifetime of the Lazy.
type Lazy struct {
	config string
	load   func() (*Checker, error)
}

// NewLazy returns a Lazy for config.
func NewLazy(config string, r resolve.Resolver, opts ...Option) *Lazy {
	return &Lazy{
		config: config,
		load: sync.OnceValues(func() (*Checker, error) {
			rs, err := rules.Parse(config)
			if err != nil {
				return nil, fmt.Errorf("allowed-direct-imports: %w", err)
			}

			return New(rs, r, opts...), nil
		}),
	}
}

// Config returns the unparsed option value.
func (l *Lazy) Config() string {
	return l.config
}

// Checker parses the configuration on first call and returns the cached result afterwards.
func (l *Lazy) Checker() (*Checker, error) {
	return l.load()
}

// CheckFile checks file, failing only when the configuration is malformed.
func (l *Lazy) CheckFile(ctx context.Context, file *pytree.File, sink Sink) error {
	c, err := l.load()
	if err != nil {
		return err
	}

	c.CheckFile(ctx, file, sink)

	return nil
}
