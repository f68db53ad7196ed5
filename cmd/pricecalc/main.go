// Package main: консольный калькулятор цен изделий, напечатанных на 3D-принтере.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmeshcher/marketdash/internal/model"
	"github.com/mmeshcher/marketdash/internal/pricing"
)

type options struct {
	unitRate  string
	bestPrice string
	channel   string
	output    string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "pricecalc",
		Short: "Offline price calculator for 3D-printed products",
		Long: `Computes cost breakdown, minimum price and marketplace channel prices
for calculator documents exported from the dashboard, without touching the backend.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.unitRate, "unit-rate", "", "unit rate rule: sequential or bottleneck")
	root.PersistentFlags().StringVar(&opts.bestPrice, "best-price", "", "best price rule: commission-in-channel or commission-in-best-price")
	root.PersistentFlags().StringVar(&opts.channel, "channel", "", "channel rule: surcharge or margin")
	root.PersistentFlags().StringVar(&opts.output, "output", "table", "output format: table or json")

	root.AddCommand(newPriceCmd(opts), newProductivityCmd(opts))
	return root
}

// readCalculator читает документ калькулятора из файла или stdin ("-").
// Принимается как документ целиком, так и одно изделие.
func readCalculator(path string, stdin io.Reader) (model.CalculatorData, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return model.CalculatorData{}, fmt.Errorf("read input: %w", err)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return model.CalculatorData{}, fmt.Errorf("parse input: %w", err)
	}

	var data model.CalculatorData
	if _, ok := probe["products"]; ok {
		err = json.Unmarshal(raw, &data)
	} else {
		var p model.Product
		err = json.Unmarshal(raw, &p)
		data.Products = []model.Product{p}
	}
	if err != nil {
		return model.CalculatorData{}, fmt.Errorf("parse input: %w", err)
	}
	return data, nil
}

func (o *options) calculator(settings model.ElectricitySettings) (*pricing.Calculator, error) {
	rules, err := pricing.ParseRules(o.unitRate, o.bestPrice, o.channel)
	if err != nil {
		return nil, err
	}
	return pricing.NewCalculator(settings, pricing.WithRules(rules)), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
