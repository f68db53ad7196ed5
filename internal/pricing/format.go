package pricing

import (
	"math"
	"strconv"
)

// Round округляет v до decimals знаков. Используется только для отображения.
func Round(v float64, decimals int) float64 {
	v = finite(v)
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// FormatAmount форматирует сумму с округлением до decimals знаков без хвостовых нулей: "12", "12.5", "34.85".
func FormatAmount(v float64, decimals int) string {
	r := Round(v, decimals)
	if r == 0 {
		return "0"
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
