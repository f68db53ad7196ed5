// Package pricing реализует расчёт себестоимости и цен изделий, напечатанных на 3D-принтере.
//
// Все функции пакета чистые: результат зависит только от аргументов, ошибки не возвращаются,
// отсутствующие и некорректные числа заменяются нулём (размер стека заменяется единицей),
// деление на ноль даёт ноль.
package pricing

import (
	"math"

	"github.com/mmeshcher/marketdash/internal/model"
)

const epsilon = 1e-9

// Calculator считает цены по заданным настройкам электроэнергии, правилам и курсам валют.
// Значение неизменяемо и безопасно для одновременного использования.
type Calculator struct {
	settings model.ElectricitySettings
	rules    Rules
	rates    ExchangeRates
}

// Option настраивает Calculator.
type Option func(*Calculator)

// WithRules задаёт набор правил расчёта.
func WithRules(r Rules) Option {
	return func(c *Calculator) {
		if r.UnitRate != nil {
			c.rules.UnitRate = r.UnitRate
		}
		if r.BestPrice != nil {
			c.rules.BestPrice = r.BestPrice
		}
		if r.Channel != nil {
			c.rules.Channel = r.Channel
		}
	}
}

// WithRates задаёт курсы пересчёта из RON в валюты отображения.
func WithRates(r ExchangeRates) Option {
	return func(c *Calculator) {
		c.rates = r
	}
}

// NewCalculator создаёт калькулятор. Неположительные параметры электроэнергии заменяются значениями по умолчанию.
func NewCalculator(settings model.ElectricitySettings, opts ...Option) *Calculator {
	defaults := model.DefaultElectricitySettings()
	if !(finite(settings.PrinterConsumptionKw) > 0) {
		settings.PrinterConsumptionKw = defaults.PrinterConsumptionKw
	}
	if !(finite(settings.ElectricityCostPerKwh) > 0) {
		settings.ElectricityCostPerKwh = defaults.ElectricityCostPerKwh
	}
	if !(finite(settings.TargetPrintRateDefault) > 0) {
		settings.TargetPrintRateDefault = defaults.TargetPrintRateDefault
	}

	c := &Calculator{
		settings: settings,
		rules:    DefaultRules(),
		rates:    DefaultRates(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Settings возвращает нормализованные настройки электроэнергии.
func (c *Calculator) Settings() model.ElectricitySettings {
	return c.settings
}

// PartBreakdown содержит промежуточные величины одной детали.
type PartBreakdown struct {
	PartName           string  `json:"partName"`
	TimePerUnit        float64 `json:"timePerUnit"`
	UnitsPerHour       float64 `json:"unitsPerHour"`
	MaterialPerUnit    float64 `json:"materialPerUnit"`
	ElectricityPerUnit float64 `json:"electricityPerUnit"`
	TargetPerUnit      float64 `json:"targetPerUnit"`
	BestPrice          float64 `json:"bestPrice"`
}

// Breakdown содержит все промежуточные величины расчёта изделия.
type Breakdown struct {
	Electricity        float64         `json:"electricity"`
	ElectricityPerUnit float64         `json:"electricityPerUnit"`
	MaterialPerUnit    float64         `json:"materialPerUnit"`
	TimePerUnit        float64         `json:"timePerUnit"`
	UnitsPerHour       float64         `json:"unitsPerHour"`
	TargetPerHour      float64         `json:"targetPerHour"`
	TargetPerUnit      float64         `json:"targetPerUnit"`
	PackagingCost      float64         `json:"packagingCost"`
	BestPrice          float64         `json:"bestPrice"`
	Parts              []PartBreakdown `json:"parts,omitempty"`
}

// Profit: фактическая прибыль при наблюдаемой цене продажи.
type Profit struct {
	Price   float64 `json:"price"`
	PerUnit float64 `json:"perUnit"`
	PerHour float64 `json:"perHour"`
}

// Electricity возвращает стоимость электроэнергии на задание печати длительностью minutes минут.
func (c *Calculator) Electricity(minutes float64) float64 {
	minutes = finite(minutes)
	if minutes <= 0 {
		return 0
	}
	return (minutes / 60) * c.settings.PrinterConsumptionKw * c.settings.ElectricityCostPerKwh
}

// TargetPerHour возвращает целевой доход в час изделия или глобальное значение по умолчанию.
func (c *Calculator) TargetPerHour(p model.Product) float64 {
	if p.TargetPerHour != nil {
		return nonNegative(*p.TargetPerHour)
	}
	return c.settings.TargetPrintRateDefault
}

// Breakdown рассчитывает себестоимость и минимальную цену изделия.
func (c *Calculator) Breakdown(p model.Product) Breakdown {
	target := c.TargetPerHour(p)
	packaging := nonNegative(p.PackagingCost)

	if p.IsMultipleParts && len(p.Parts) > 0 {
		return c.multiPart(p, target, packaging)
	}

	job := c.job("", p.PrintTime, stack(p.StackSize), p.CostMaterial, target)
	b := Breakdown{
		Electricity:        c.Electricity(p.PrintTime),
		ElectricityPerUnit: job.ElectricityPerUnit,
		MaterialPerUnit:    job.MaterialPerUnit,
		TimePerUnit:        job.TimePerUnit,
		UnitsPerHour:       job.UnitsPerHour,
		TargetPerHour:      target,
		TargetPerUnit:      job.TargetPerUnit,
		PackagingCost:      packaging,
	}
	b.BestPrice = c.rules.BestPrice.BestPrice(b.costs(), nonNegative(p.CommissionShop))
	return b
}

func (c *Calculator) multiPart(p model.Product, target, packaging float64) Breakdown {
	b := Breakdown{
		TargetPerHour: target,
		PackagingCost: packaging,
		Parts:         make([]PartBreakdown, 0, len(p.Parts)),
	}

	hasValidParts := false
	for _, part := range p.Parts {
		if finite(part.PrintTime) > 0 || finite(part.CostMaterial) > 0 {
			hasValidParts = true
		}

		pb := c.job(part.PartName, part.PrintTime, stack(part.StackSize), part.CostMaterial, target)
		b.Parts = append(b.Parts, pb)

		b.Electricity += c.Electricity(part.PrintTime)
		b.ElectricityPerUnit += pb.ElectricityPerUnit
		b.MaterialPerUnit += pb.MaterialPerUnit
		b.TimePerUnit += pb.TimePerUnit
		b.TargetPerUnit += pb.TargetPerUnit
	}

	b.UnitsPerHour = c.rules.UnitRate.UnitsPerHour(b.Parts)
	if hasValidParts {
		b.BestPrice = c.rules.BestPrice.BestPrice(b.costs(), nonNegative(p.CommissionShop))
	}
	return b
}

// job считает одно задание печати: время minutes, стек size единиц, материал material на весь стек.
func (c *Calculator) job(name string, minutes, size, material, target float64) PartBreakdown {
	minutes = nonNegative(minutes)
	material = nonNegative(material)

	pb := PartBreakdown{
		PartName:           name,
		TimePerUnit:        div(minutes, size),
		MaterialPerUnit:    div(material, size),
		ElectricityPerUnit: div(c.Electricity(minutes), size),
	}
	if minutes > 0 && size > 0 {
		pb.UnitsPerHour = size * 60 / minutes
	}
	pb.TargetPerUnit = div(target, pb.UnitsPerHour)
	pb.BestPrice = pb.TargetPerUnit + pb.MaterialPerUnit + pb.ElectricityPerUnit
	return pb
}

func (b Breakdown) costs() Costs {
	return Costs{
		TargetPerUnit:      b.TargetPerUnit,
		MaterialPerUnit:    b.MaterialPerUnit,
		ElectricityPerUnit: b.ElectricityPerUnit,
		PackagingCost:      b.PackagingCost,
	}
}

// Profit рассчитывает прибыль на единицу и в час при наблюдаемой цене price.
// При цене не больше нуля прибыль равна нулю.
func (c *Calculator) Profit(p model.Product, price float64) Profit {
	return c.profit(p, c.Breakdown(p), price)
}

func (c *Calculator) profit(p model.Product, b Breakdown, price float64) Profit {
	price = finite(price)
	if price <= 0 {
		return Profit{}
	}

	revenue := c.rules.BestPrice.NetRevenue(price, nonNegative(p.CommissionShop))
	perUnit := revenue - b.MaterialPerUnit - b.ElectricityPerUnit - b.PackagingCost
	return Profit{
		Price:   price,
		PerUnit: perUnit,
		PerHour: perUnit * b.UnitsPerHour,
	}
}

func stack(v *float64) float64 {
	if v == nil {
		return 1
	}
	return finite(*v)
}

func div(a, b float64) float64 {
	a, b = finite(a), finite(b)
	if b < epsilon {
		return 0
	}
	return a / b
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func nonNegative(v float64) float64 {
	v = finite(v)
	if v < 0 {
		return 0
	}
	return v
}
