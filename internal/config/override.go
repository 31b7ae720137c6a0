package config

// Overrides carries command-line values. Zero values mean "not given" and
// leave the loaded configuration untouched.
type Overrides struct {
	AllowedDirectImports []string
	SearchPaths          []string
	Exclude              []string
	Disable              []string
	Workers              int
	Format               string
	Color                string
	LogLevel             string
	LogJSON              bool
	MetricsTextfile      string
}

// positive constrains types eligible for skip-on-zero application.
type positive interface {
	~int | ~float64
}

func applyPositive[T positive](dst *T, value T) {
	if value > 0 {
		*dst = value
	}
}

func applyNonEmpty(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func applySlice(dst *[]string, value []string) {
	if len(value) > 0 {
		*dst = value
	}
}

// Apply merges o into c and re-validates. Exclude and Disable extend the
// configured lists; every other value replaces it.
func (c *Config) Apply(o Overrides) error {
	applySlice(&c.AllowedDirectImports, o.AllowedDirectImports)
	applySlice(&c.SearchPaths, o.SearchPaths)
	applyPositive(&c.Workers, o.Workers)
	applyNonEmpty(&c.Format, o.Format)
	applyNonEmpty(&c.Color, o.Color)
	applyNonEmpty(&c.Log.Level, o.LogLevel)
	applyNonEmpty(&c.Telemetry.MetricsTextfile, o.MetricsTextfile)

	c.Exclude = append(c.Exclude, o.Exclude...)
	c.Disable = append(c.Disable, o.Disable...)

	if o.LogJSON {
		c.Log.JSON = true
	}

	return c.Validate()
}
