package pricing

import "github.com/mmeshcher/marketdash/internal/model"

// ExchangeRates содержит курсы пересчёта из RON в валюту отображения.
type ExchangeRates map[model.Currency]float64

// DefaultRates возвращает статические курсы по умолчанию.
func DefaultRates() ExchangeRates {
	return ExchangeRates{
		model.CurrencyRON: 1,
		model.CurrencyEUR: 0.2,
		model.CurrencyHUF: 79,
	}
}

// Rate возвращает курс валюты. Для RON, неизвестной валюты и некорректного курса возвращается 1 и RON.
func (r ExchangeRates) Rate(cur model.Currency) (float64, model.Currency) {
	if cur == model.CurrencyRON || cur == "" {
		return 1, model.CurrencyRON
	}
	v, ok := r[cur]
	if !ok || !(finite(v) > 0) {
		return 1, model.CurrencyRON
	}
	return v, cur
}

// ChannelPrice: итоговая цена изделия в одном канале.
type ChannelPrice struct {
	ChannelID    string         `json:"channelId"`
	Name         string         `json:"name"`
	Commission   float64        `json:"commission"`
	Transport    float64        `json:"transportCost"`
	BasePrice    float64        `json:"basePrice"`
	DisplayPrice float64        `json:"displayPrice"`
	Currency     model.Currency `json:"currency"`
	Valid        bool           `json:"valid"`
}

// ChannelPrice применяет комиссию, доставку и валюту канала к минимальной цене bestPrice.
func (c *Calculator) ChannelPrice(bestPrice float64, ch model.MarketplaceChannel) ChannelPrice {
	commission := nonNegative(ch.CommissionPercent)
	transport := nonNegative(ch.TransportCost)

	base, ok := c.rules.Channel.FinalPrice(nonNegative(bestPrice), commission, transport)
	rate, cur := c.rates.Rate(ch.DisplayCurrency)

	res := ChannelPrice{
		ChannelID:  ch.ID,
		Name:       ch.Name,
		Commission: commission,
		Transport:  transport,
		Currency:   cur,
		Valid:      ok,
	}
	if !ok {
		return res
	}
	res.BasePrice = base
	res.DisplayPrice = base * rate
	return res
}

// PriceRow: строка таблицы цен по маркетплейсам.
type PriceRow struct {
	Key         string         `json:"key"`
	ProductName string         `json:"productName"`
	SKU         string         `json:"sku,omitempty"`
	Breakdown   Breakdown      `json:"breakdown"`
	Profit      Profit         `json:"profit"`
	Channels    []ChannelPrice `json:"channels"`
}

// Evaluate рассчитывает изделие целиком: разбивку, прибыль при цене eMAG и цены во всех каналах.
func (c *Calculator) Evaluate(p model.Product, settings model.MarketplaceSettings) PriceRow {
	b := c.Breakdown(p)
	row := PriceRow{
		Key:         p.Key,
		ProductName: p.ProductName,
		SKU:         p.SKU,
		Breakdown:   b,
		Profit:      c.profit(p, b, p.PretEmag),
		Channels:    make([]ChannelPrice, 0, len(settings.Channels)),
	}

	overrides := settings.Overrides[p.Key]
	for _, ch := range settings.Channels {
		if o, ok := overrides[ch.ID]; ok {
			if o.CommissionPercent != nil {
				ch.CommissionPercent = *o.CommissionPercent
			}
			if o.TransportCost != nil {
				ch.TransportCost = *o.TransportCost
			}
		}
		row.Channels = append(row.Channels, c.ChannelPrice(b.BestPrice, ch))
	}
	return row
}

// PriceTable рассчитывает строки для всех изделий в исходном порядке.
func (c *Calculator) PriceTable(products []model.Product, settings model.MarketplaceSettings) []PriceRow {
	rows := make([]PriceRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, c.Evaluate(p, settings))
	}
	return rows
}
