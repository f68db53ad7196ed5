package reconcile

import "github.com/mmeshcher/marketdash/internal/model"

// Visibility содержит переключатели видимости. Отсутствующий переключатель считается включённым.
type Visibility struct {
	Credentials       map[int64]bool  `json:"credentials"`
	TrendyolCountries map[string]bool `json:"trendyol_countries"`
}

// CredentialOn сообщает, включены ли заказы учётных данных id.
func (v Visibility) CredentialOn(id int64) bool {
	on, ok := v.Credentials[id]
	return !ok || on
}

// CountryOn сообщает, включены ли заказы Trendyol страны country.
func (v Visibility) CountryOn(country string) bool {
	on, ok := v.TrendyolCountries[country]
	return !ok || on
}

// Visible сообщает, нужно ли показывать заказ. Для Trendyol решает переключатель страны,
// для остальных платформ решает переключатель учётных данных.
func (v Visibility) Visible(o model.Order) bool {
	if IsTrendyol(o.Marketplace) {
		return v.CountryOn(TrendyolCountry(o.Marketplace))
	}
	return v.CredentialOn(o.CredentialID)
}

// Filter возвращает видимые заказы, сохраняя порядок.
func (v Visibility) Filter(orders []model.Order) []model.Order {
	res := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if v.Visible(o) {
			res = append(res, o)
		}
	}
	return res
}
