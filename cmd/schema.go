package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/engagement-advisor/internal/bootstrap"
	"github.com/jonesrussell/engagement-advisor/internal/schema"
)

func schemaCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the feature columns in model order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bootstrap.LoadConfig(root.configPath)
			if err != nil {
				return err
			}
			s, err := schema.Resolve(cfg.Model.SchemaPath)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "schema %s, %d columns\n", s.Version(), s.Len())

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"#", "Column", "Kind", "Dimension", "Value"})
			for i, col := range s.Columns() {
				t.AppendRow(columnRow(s, i, col))
			}
			t.Render()
			return nil
		},
	}
}

// columnRow describes one column. Indicator columns name their dimension and value.
func columnRow(s *schema.Schema, i int, col string) table.Row {
	for _, d := range s.Dimensions() {
		for _, v := range d.Values {
			if schema.IndicatorName(d.Name, v) == col {
				return table.Row{i, col, "indicator", d.Name, v}
			}
		}
	}
	return table.Row{i, col, "numeric", "", ""}
}
