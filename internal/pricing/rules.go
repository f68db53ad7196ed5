package pricing

import (
	"fmt"
	"math"
)

// UnitRateRule вычисляет производительность (штук в час) составного изделия по его деталям.
type UnitRateRule interface {
	Name() string
	UnitsPerHour(parts []PartBreakdown) float64
}

// BestPriceRule определяет, входит ли комиссия в минимальную цену и в выручку при расчёте прибыли.
type BestPriceRule interface {
	Name() string
	BestPrice(c Costs, commissionPercent float64) float64
	NetRevenue(price, commissionPercent float64) float64
}

// ChannelRule переводит минимальную цену в итоговую цену канала в базовой валюте.
// Второе значение false означает, что параметры канала некорректны.
type ChannelRule interface {
	Name() string
	FinalPrice(bestPrice, commissionPercent, transportCost float64) (float64, bool)
}

// Costs: составляющие минимальной цены одной единицы.
type Costs struct {
	TargetPerUnit      float64
	MaterialPerUnit    float64
	ElectricityPerUnit float64
	PackagingCost      float64
}

// Rules: набор правил, по которым считает калькулятор.
type Rules struct {
	UnitRate  UnitRateRule
	BestPrice BestPriceRule
	Channel   ChannelRule
}

// Имена правил, используемые в конфигурации.
const (
	RuleSequential            = "sequential"
	RuleBottleneck            = "bottleneck"
	RuleCommissionInChannel   = "commission-in-channel"
	RuleCommissionInBestPrice = "commission-in-best-price"
	RuleSurcharge             = "surcharge"
	RuleMargin                = "margin"
)

var (
	// SequentialRate: детали печатаются последовательно, время на единицу суммируется.
	SequentialRate UnitRateRule = sequentialRate{}
	// BottleneckRate: производительность равна минимальной производительности среди деталей.
	BottleneckRate UnitRateRule = bottleneckRate{}

	// CommissionInChannel: минимальная цена без комиссии, комиссия применяется в канале.
	CommissionInChannel BestPriceRule = commissionInChannel{}
	// CommissionInBestPrice: минимальная цена уже покрывает комиссию магазина.
	CommissionInBestPrice BestPriceRule = commissionInBestPrice{}

	// SurchargeChannel: комиссия добавляется к цене как надбавка.
	SurchargeChannel ChannelRule = surchargeChannel{}
	// MarginChannel: цена подбирается так, чтобы после вычета комиссии осталась минимальная цена плюс доставка.
	MarginChannel ChannelRule = marginChannel{}
)

// DefaultRules возвращает правила последней редакции калькулятора.
func DefaultRules() Rules {
	return Rules{
		UnitRate:  SequentialRate,
		BestPrice: CommissionInChannel,
		Channel:   SurchargeChannel,
	}
}

// ParseRules собирает набор правил по именам. Пустое имя означает правило по умолчанию.
func ParseRules(unitRate, bestPrice, channel string) (Rules, error) {
	rules := DefaultRules()

	switch unitRate {
	case "", RuleSequential:
	case RuleBottleneck:
		rules.UnitRate = BottleneckRate
	default:
		return Rules{}, fmt.Errorf("unknown unit rate rule %q", unitRate)
	}

	switch bestPrice {
	case "", RuleCommissionInChannel:
	case RuleCommissionInBestPrice:
		rules.BestPrice = CommissionInBestPrice
	default:
		return Rules{}, fmt.Errorf("unknown best price rule %q", bestPrice)
	}

	switch channel {
	case "", RuleSurcharge:
	case RuleMargin:
		rules.Channel = MarginChannel
	default:
		return Rules{}, fmt.Errorf("unknown channel rule %q", channel)
	}

	return rules, nil
}

type sequentialRate struct{}

func (sequentialRate) Name() string { return RuleSequential }

func (sequentialRate) UnitsPerHour(parts []PartBreakdown) float64 {
	total := 0.0
	for _, p := range parts {
		total += p.TimePerUnit
	}
	return div(60, total)
}

type bottleneckRate struct{}

func (bottleneckRate) Name() string { return RuleBottleneck }

func (bottleneckRate) UnitsPerHour(parts []PartBreakdown) float64 {
	rate := math.Inf(1)
	for _, p := range parts {
		if p.UnitsPerHour > 0 && p.UnitsPerHour < rate {
			rate = p.UnitsPerHour
		}
	}
	if math.IsInf(rate, 1) {
		return 0
	}
	return rate
}

type commissionInChannel struct{}

func (commissionInChannel) Name() string { return RuleCommissionInChannel }

func (commissionInChannel) BestPrice(c Costs, _ float64) float64 {
	return c.TargetPerUnit + c.MaterialPerUnit + c.ElectricityPerUnit + c.PackagingCost
}

func (commissionInChannel) NetRevenue(price, _ float64) float64 {
	return price
}

type commissionInBestPrice struct{}

func (commissionInBestPrice) Name() string { return RuleCommissionInBestPrice }

// Упаковка не делится на (1 - комиссия): она оплачивается за готовое изделие, а не за печать.
func (commissionInBestPrice) BestPrice(c Costs, commissionPercent float64) float64 {
	keep := 1 - commissionPercent/100
	if keep <= 0 {
		return 0
	}
	return div(c.TargetPerUnit+c.MaterialPerUnit+c.ElectricityPerUnit, keep) + c.PackagingCost
}

func (commissionInBestPrice) NetRevenue(price, commissionPercent float64) float64 {
	keep := 1 - commissionPercent/100
	if keep <= 0 {
		return 0
	}
	return price * keep
}

type surchargeChannel struct{}

func (surchargeChannel) Name() string { return RuleSurcharge }

func (surchargeChannel) FinalPrice(bestPrice, commissionPercent, transportCost float64) (float64, bool) {
	if bestPrice <= 0 {
		return 0, true
	}
	return bestPrice + bestPrice*(commissionPercent/100) + transportCost, true
}

type marginChannel struct{}

func (marginChannel) Name() string { return RuleMargin }

func (marginChannel) FinalPrice(bestPrice, commissionPercent, transportCost float64) (float64, bool) {
	if bestPrice <= 0 {
		return 0, true
	}
	keep := 1 - commissionPercent/100
	if keep <= 0 {
		return 0, false
	}
	return (bestPrice + transportCost) / keep, true
}
