package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ggvfx/precision-color-auditor/pkg/chart"
	"github.com/ggvfx/precision-color-auditor/pkg/ecolor"
)

func NewChartsCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "charts [name]",
		Short: "list the known charts and color spaces",
		Long:  "Lists the known chart types; with a name, prints its layout and reference values.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, name := range chart.Names() {
					c, _ := chart.Lookup(name)
					fmt.Printf("%s (%s)\n", c.Layout, c.Reference.Source)
				}
				fmt.Printf("color spaces: %s\n", ecolor.ListSpaces())
				return nil
			}

			c, err := chart.Lookup(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", c.Layout)
			for i, p := range c.Layout.Patches {
				lab := c.Reference.Lab[i]
				neutral := ""
				if c.Layout.IsNeutral(i) {
					neutral = "neutral"
				}
				fmt.Printf("%-3d %-16s r%d c%d  L*a*b*(%s) = %7.3f %8.3f %8.3f  %s\n",
					i+1, p.Name, p.Row, p.Col, c.Reference.Illuminant, lab[0], lab[1], lab[2], neutral)
			}
			return nil
		},
	}
	return cmd
}
