package checker

import (
	"log/slog"
)

// Option configures a [Checker].
type Option interface {
	apply(c *Checker)
	LogAttr() slog.Attr
}

// Options is a list of [Option] values that itself satisfies [Option].
type Options []Option

// LogValue implements [slog.LogValuer].
func (o Options) LogValue() slog.Value {
	as := make([]slog.Attr, 0, len(o))

	for _, opt := range o {
		if opt != nil {
			as = append(as, opt.LogAttr())
		}
	}

	return slog.GroupValue(as...)
}

func (o Options) apply(c *Checker) {
	for _, opt := range o {
		if opt != nil {
			opt.apply(c)
		}
	}
}

// LogAttr is for logging with [slog.Logger.LogAttrs].
func (o Options) LogAttr() slog.Attr {
	return slog.Any("options", o)
}

// WithDisabled turns rules off. Disabled rules never report, while bindings
// are still tracked.
func WithDisabled(ids ...RuleID) Option { return disabledOption{ids: ids} }

type disabledOption struct{ ids []RuleID }

func (o disabledOption) apply(c *Checker) {
	for _, id := range o.ids {
		c.disabled[id] = true
	}
}

func (o disabledOption) LogAttr() slog.Attr {
	names := make([]string, 0, len(o.ids))
	for _, id := range o.ids {
		names = append(names, string(id))
	}

	return slog.Any("disabled", names)
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option { return loggerOption{logger: logger} }

type loggerOption struct{ logger *slog.Logger }

func (o loggerOption) apply(c *Checker) {
	if o.logger != nil {
		c.logger = o.logger
	}
}

func (o loggerOption) LogAttr() slog.Attr {
	return slog.Bool("logger", o.logger != nil)
}

// WithSuppressions controls whether `disable=` comments are honoured.
func WithSuppressions(enabled bool) Option { return suppressionOption{enabled: enabled} }

type suppressionOption struct{ enabled bool }

func (o suppressionOption) apply(c *Checker) {
	c.suppressions = o.enabled
}

func (o suppressionOption) LogAttr() slog.Attr {
	return slog.Bool("suppressions", o.enabled)
}
