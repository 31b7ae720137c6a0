package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/importonly/internal/config"
	"github.com/Sumatoshi-tech/importonly/pkg/rules"
)

func newRulesCommand(g *globalOptions) *cobra.Command {
	var allowed string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the parsed allowed_direct_imports configuration",
		Long: `Parse allowed_direct_imports from the configuration (or the flag) and print
its canonical form followed by a module/member table. Malformed values fail
with the offending entry and offset.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o := config.Overrides{}
			if allowed != "" {
				o.AllowedDirectImports = []string{allowed}
			}

			cfg, err := g.loadConfig(o)
			if err != nil {
				return err
			}

			rs, err := rules.Parse(cfg.RuleConfig())
			if err != nil {
				return fmt.Errorf("allowed_direct_imports: %w", err)
			}

			out := cmd.OutOrStdout()

			if rs.Len() == 0 {
				_, err = fmt.Fprintln(out, "no modules configured")

				return err
			}

			if _, err := fmt.Fprintln(out, rs.String()); err != nil {
				return err
			}

			if g.quiet {
				return nil
			}

			tbl := table.NewWriter()
			tbl.SetStyle(table.StyleLight)
			tbl.AppendHeader(table.Row{"Module", "Members"})

			for _, module := range rs.Modules() {
				tbl.AppendRow(table.Row{module, strings.Join(rs.Members(module).Sorted(), ", ")})
			}

			_, err = fmt.Fprintln(out, tbl.Render())

			return err
		},
	}

	cmd.Flags().StringVar(&allowed, "allowed-direct-imports", "", "value to parse instead of the configured one")

	return cmd
}
