// Package checker enforces the import-only-modules and
// import-direct-attributes rules on a parsed Python file.
//
// A from-import must bring in modules, except for members the RuleSet
// lists. Listed members must not then be reached through an attribute of a
// module import; they are to be imported directly.
package checker

import (
	"context"
	"log/slog"

	"github.com/Sumatoshi-tech/importonly/pkg/pytree"
	"github.com/Sumatoshi-tech/importonly/pkg/resolve"
	"github.com/Sumatoshi-tech/importonly/pkg/rules"
)

const wildcardName = "*"

// Checker applies both rules. It holds no per-file state and may check many
// files concurrently.
type Checker struct {
	rules        *rules.RuleSet
	resolver     resolve.Resolver
	logger       *slog.Logger
	disabled     map[RuleID]bool
	suppressions bool
}

// New returns a Checker over rs, resolving modules with r.
func New(rs *rules.RuleSet, r resolve.Resolver, opts ...Option) *Checker {
	if rs == nil {
		rs = rules.Empty()
	}

	c := &Checker{
		rules:        rs,
		resolver:     r,
		logger:       slog.Default(),
		disabled:     make(map[RuleID]bool),
		suppressions: true,
	}

	Options(opts).apply(c)

	c.logger.Debug("checker configured",
		slog.Int("modules", rs.Len()),
		Options(opts).LogAttr(),
	)

	return c
}

// RuleSet returns the configured exceptions.
func (c *Checker) RuleSet() *rules.RuleSet {
	return c.rules
}

// Enabled reports whether id may report.
func (c *Checker) Enabled(id RuleID) bool {
	return !c.disabled[id]
}

// CheckFile walks file once in source order and reports violations to sink.
// Resolution failures are skipped silently.
func (c *Checker) CheckFile(ctx context.Context, file *pytree.File, sink Sink) {
	if file == nil || file.Root == nil || ctx.Err() != nil {
		return
	}

	fc := &fileCheck{Checker: c, ctx: ctx, file: file, sink: sink, bindings: NewBindings()}

	pytree.Walk(file.Root, func(n *pytree.Node) bool {
		switch n.Kind {
		case pytree.KindImport:
			fc.visitImport(n)
		case pytree.KindImportFrom:
			fc.visitImportFrom(n)
		case pytree.KindAttribute:
			fc.visitAttribute(n)
		}

		return true
	})
}

// fileCheck is the state of one CheckFile call.
type fileCheck struct {
	*Checker

	ctx      context.Context //nolint:containedctx // lives for one CheckFile call.
	file     *pytree.File
	sink     Sink
	bindings *Bindings
}

// visitImport binds `import m [as a]` when m has an entry.
func (fc *fileCheck) visitImport(n *pytree.Node) {
	for _, alias := range n.Names {
		if fc.rules.Has(alias.Name) {
			fc.bindings.Bind(alias.Bound(), alias.Name)
		}
	}
}

func (fc *fileCheck) visitImportFrom(n *pytree.Node) {
	base := fc.resolver.ImportModule(fc.file.Path, n.Module, n.Level)
	if base.Outcome != resolve.Resolved {
		fc.logger.DebugContext(fc.ctx, "skipping unresolved import",
			slog.String("path", fc.file.Path),
			slog.Uint64("line", uint64(n.Pos.Line)),
			slog.String("module", n.EffectiveModule()),
			slog.Any("error", base.Err),
		)

		return
	}

	modname := n.EffectiveModule()

	for _, alias := range n.Names {
		if alias.Name == wildcardName {
			continue
		}

		sub := fc.resolver.Submodule(base.Module, alias.Name)

		switch sub.Outcome {
		case resolve.Resolved:
			full := resolve.JoinName(modname, alias.Name)
			if fc.rules.Has(full) {
				fc.bindings.Bind(alias.Bound(), full)
			}
		case resolve.NotAModule:
			if fc.rules.Exempts(modname, alias.Name) {
				continue
			}

			fc.report(ImportOnlyModules, n, alias.Name, modname)
		default:
			// Lookup errors are left to other checks.
		}
	}
}

func (fc *fileCheck) visitAttribute(n *pytree.Node) {
	if n.Store || n.Object == nil || n.Object.Kind != pytree.KindName {
		return
	}

	module, ok := fc.bindings.Lookup(n.Object.Ident)
	if !ok {
		return
	}

	if fc.rules.Exempts(module, n.Attr) {
		fc.report(ImportDirectAttributes, n, n.Attr, module)
	}
}

func (fc *fileCheck) report(id RuleID, n *pytree.Node, name, module string) {
	if fc.disabled[id] {
		return
	}

	rule, _ := Lookup(id)

	if fc.suppressions && suppressed(fc.file, n.Pos.Line, rule) {
		return
	}

	fc.sink.Report(Diagnostic{
		Rule:    id,
		Code:    rule.Code,
		Path:    fc.file.Path,
		Pos:     n.Pos,
		End:     n.End,
		Args:    []string{name, module},
		Message: rule.Format(name, module),
	})
}
