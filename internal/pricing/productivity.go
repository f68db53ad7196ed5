package pricing

// ProductivityInput: входные данные быстрого калькулятора: затраты уже указаны на единицу.
type ProductivityInput struct {
	ProductName     string  `json:"productName,omitempty"`
	PrintTime       float64 `json:"printTime"`
	StackSize       float64 `json:"stackSize"`
	CostMaterial    float64 `json:"costMaterial"`
	CostElectricity float64 `json:"costElectricity"`
	CommissionShop  float64 `json:"commissionShop"`
}

// ProductivityResult: результат быстрого калькулятора.
type ProductivityResult struct {
	ProductName     string  `json:"productName,omitempty"`
	PrintTime       float64 `json:"printTime"`
	StackSize       float64 `json:"stackSize"`
	CostPerUnit     float64 `json:"costPerUnit"`
	TotalStackCost  float64 `json:"totalStackCost"`
	MinPricePerUnit float64 `json:"minPricePerUnit"`
	MinPriceStack   float64 `json:"minPriceStack"`
	ProfitPerUnit   float64 `json:"profitPerUnit"`
	ProfitStack     float64 `json:"profitStack"`
	ProfitMargin    float64 `json:"profitMargin"`
}

// Productivity считает цену безубыточности с учётом комиссии магазина: цена = затраты / (1 - комиссия).
// При комиссии от 100% цены и прибыль равны нулю.
func Productivity(in ProductivityInput) ProductivityResult {
	size := nonNegative(in.StackSize)
	cost := nonNegative(in.CostMaterial) + nonNegative(in.CostElectricity)

	res := ProductivityResult{
		ProductName:    in.ProductName,
		PrintTime:      nonNegative(in.PrintTime),
		StackSize:      size,
		CostPerUnit:    cost,
		TotalStackCost: cost * size,
	}

	keep := 1 - nonNegative(in.CommissionShop)/100
	if keep <= 0 {
		return res
	}

	res.MinPricePerUnit = cost / keep
	res.MinPriceStack = res.MinPricePerUnit * size
	res.ProfitPerUnit = res.MinPricePerUnit - cost
	res.ProfitStack = res.ProfitPerUnit * size
	res.ProfitMargin = div(res.ProfitPerUnit, cost) * 100
	return res
}
