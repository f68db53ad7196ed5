package model

// Currency: валюта отображения цены канала.
type Currency string

const (
	CurrencyRON Currency = "RON"
	CurrencyEUR Currency = "EUR"
	CurrencyHUF Currency = "HUF"
)

// Part описывает одну деталь составного изделия.
type Part struct {
	PartName     string   `json:"partName"`
	PrintTime    float64  `json:"printTime"`
	StackSize    *float64 `json:"stackSize,omitempty"`
	CostMaterial float64  `json:"costMaterial"`
}

// Product описывает изделие калькулятора. CostMaterial: стоимость материала на весь стек.
type Product struct {
	Key             string   `json:"key"`
	ProductName     string   `json:"productName"`
	SKU             string   `json:"sku,omitempty"`
	IsMultipleParts bool     `json:"isMultipleParts"`
	PrintTime       float64  `json:"printTime"`
	StackSize       *float64 `json:"stackSize,omitempty"`
	CostMaterial    float64  `json:"costMaterial"`
	Parts           []Part   `json:"parts,omitempty"`
	PackagingCost   float64  `json:"packagingCost"`
	TargetPerHour   *float64 `json:"targetPerHour,omitempty"`
	CommissionEmag  float64  `json:"commissionEmag"`
	CommissionShop  float64  `json:"commissionShop"`
	PretEmag        float64  `json:"pretEmag"`
}

// ElectricitySettings содержит глобальные параметры себестоимости печати.
type ElectricitySettings struct {
	PrinterConsumptionKw   float64 `json:"printerConsumption"`
	ElectricityCostPerKwh  float64 `json:"electricityCost"`
	TargetPrintRateDefault float64 `json:"targetPrintRate"`
}

// DefaultElectricitySettings возвращает значения, используемые при отсутствии сохранённых настроек.
func DefaultElectricitySettings() ElectricitySettings {
	return ElectricitySettings{
		PrinterConsumptionKw:   0.12,
		ElectricityCostPerKwh:  1.11,
		TargetPrintRateDefault: 22,
	}
}

// MarketplaceChannel описывает пользовательский ценовой канал (комиссия, доставка, валюта).
type MarketplaceChannel struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	CommissionPercent float64  `json:"commission"`
	TransportCost     float64  `json:"transportCost"`
	DisplayCurrency   Currency `json:"currency"`
}

// ChannelOverride переопределяет комиссию или доставку канала для конкретного изделия.
type ChannelOverride struct {
	CommissionPercent *float64 `json:"commission,omitempty"`
	TransportCost     *float64 `json:"transportCost,omitempty"`
}

// MarketplaceSettings содержит каналы и их переопределения по ключу изделия и идентификатору канала.
type MarketplaceSettings struct {
	Channels  []MarketplaceChannel                  `json:"channels"`
	Overrides map[string]map[string]ChannelOverride `json:"overrides,omitempty"`
}

// CalculatorData: документ калькулятора, который бэкенд хранит целиком.
type CalculatorData struct {
	Products            []Product           `json:"products"`
	ManualProducts      []Product           `json:"manual_products"`
	MarketplaceSettings MarketplaceSettings `json:"marketplace_settings"`
	ElectricitySettings ElectricitySettings `json:"electricity_settings"`
}

// FindProduct возвращает указатель на изделие с ключом key среди обычных и ручных изделий.
func (d *CalculatorData) FindProduct(key string) *Product {
	for i := range d.Products {
		if d.Products[i].Key == key {
			return &d.Products[i]
		}
	}
	for i := range d.ManualProducts {
		if d.ManualProducts[i].Key == key {
			return &d.ManualProducts[i]
		}
	}
	return nil
}
