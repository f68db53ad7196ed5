package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmeshcher/marketdash/internal/pricing"
)

func newProductivityCmd(opts *options) *cobra.Command {
	var in pricing.ProductivityInput

	cmd := &cobra.Command{
		Use:     "productivity",
		Short:   "Break-even price for per-unit material and electricity costs",
		Example: `  pricecalc productivity --stack 4 --material 2 --electricity 0.5 --commission 20`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res := pricing.Productivity(in)
			if opts.output == "json" {
				return writeJSON(cmd.OutOrStdout(), res)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Cost per unit\t%s\n", pricing.FormatAmount(res.CostPerUnit, 2))
			fmt.Fprintf(w, "Stack cost\t%s\n", pricing.FormatAmount(res.TotalStackCost, 2))
			fmt.Fprintf(w, "Min price per unit\t%s\n", pricing.FormatAmount(res.MinPricePerUnit, 2))
			fmt.Fprintf(w, "Min price per stack\t%s\n", pricing.FormatAmount(res.MinPriceStack, 2))
			fmt.Fprintf(w, "Profit per unit\t%s\n", pricing.FormatAmount(res.ProfitPerUnit, 2))
			fmt.Fprintf(w, "Margin\t%s%%\n", pricing.FormatAmount(res.ProfitMargin, 1))
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&in.ProductName, "name", "", "product name")
	cmd.Flags().Float64Var(&in.PrintTime, "time", 0, "print time of the stack, minutes")
	cmd.Flags().Float64Var(&in.StackSize, "stack", 1, "units per stack")
	cmd.Flags().Float64Var(&in.CostMaterial, "material", 0, "material cost per unit")
	cmd.Flags().Float64Var(&in.CostElectricity, "electricity", 0, "electricity cost per unit")
	cmd.Flags().Float64Var(&in.CommissionShop, "commission", 0, "shop commission, percent")
	return cmd
}
