package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmeshcher/marketdash/internal/pricing"
)

func newPriceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "price <file|->",
		Short: "Evaluate every product of a calculator document",
		Example: `  pricecalc price calculator.json
  cat product.json | pricecalc price - --channel margin --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readCalculator(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			calc, err := opts.calculator(data.ElectricitySettings)
			if err != nil {
				return err
			}

			products := append(data.Products, data.ManualProducts...)
			rows := calc.PriceTable(products, data.MarketplaceSettings)

			if opts.output == "json" {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			return printPriceTable(cmd, rows)
		},
	}
}

func printPriceTable(cmd *cobra.Command, rows []pricing.PriceRow) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tPRODUCT\tUNITS/H\tCOST/UNIT\tBEST PRICE\tCHANNELS")
	for _, row := range rows {
		b := row.Breakdown
		cost := b.MaterialPerUnit + b.ElectricityPerUnit + b.PackagingCost

		channels := ""
		for i, ch := range row.Channels {
			if i > 0 {
				channels += ", "
			}
			if !ch.Valid {
				channels += ch.Name + " n/a"
				continue
			}
			channels += fmt.Sprintf("%s %s %s", ch.Name, pricing.FormatAmount(ch.DisplayPrice, 2), ch.Currency)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Key,
			row.ProductName,
			pricing.FormatAmount(b.UnitsPerHour, 2),
			pricing.FormatAmount(cost, 2),
			pricing.FormatAmount(b.BestPrice, 2),
			channels,
		)
	}
	return w.Flush()
}
