// Package reconcile сводит заказы нескольких учётных записей в один список:
// определяет маркетплейс, убирает дубликаты, сортирует, фильтрует и считает артикулы к подготовке.
package reconcile

import (
	"strings"

	"github.com/mmeshcher/marketdash/internal/model"
)

// Метки маркетплейсов.
const (
	LabelEmagRO     = "EMAG RO"
	LabelEmagHU     = "EMAG HU"
	LabelEmagBG     = "EMAG BG"
	LabelTrendyolRO = "TRENDYOL RO"
	LabelTrendyolGR = "TRENDYOL GR"
	LabelTrendyolBG = "TRENDYOL BG"
	LabelEtsy       = "ETSY"
	LabelOblio      = "OBLIO"

	emagPrefix     = "EMAG"
	trendyolPrefix = "TRENDYOL"
)

// Страны Trendyol.
const (
	CountryRO = "RO"
	CountryGR = "GR"
	CountryBG = "BG"
)

// TrendyolCountries перечисляет страны Trendyol в порядке отображения.
var TrendyolCountries = []string{CountryRO, CountryGR, CountryBG}

var (
	hungaryHints  = []string{"HUNGARY", "UNGARIA", "EMAG.HU", "HU"}
	bulgariaHints = []string{"BULGARIA", "EMAG.BG", "BG"}
	greeceHints   = []string{"GREECE", "GRECIA", "GR"}
)

// Label определяет метку маркетплейса заказа order, полученного по учётным данным cred.
func Label(cred model.Credential, order model.Order) string {
	switch cred.Platform {
	case model.PlatformEmag:
		return "EMAG " + emagCountry(cred.AccountLabel)
	case model.PlatformTrendyol:
		return "TRENDYOL " + trendyolCountry(cred.AccountLabel, order.VendorCode)
	case model.PlatformEtsy:
		return LabelEtsy
	default:
		return LabelOblio
	}
}

func emagCountry(accountLabel string) string {
	label := strings.ToUpper(accountLabel)
	switch {
	case containsAny(label, hungaryHints):
		return "HU"
	case containsAny(label, bulgariaHints):
		return "BG"
	default:
		return "RO"
	}
}

func trendyolCountry(accountLabel, vendorCode string) string {
	vc := strings.ToLower(vendorCode)
	switch {
	case strings.Contains(vc, "trendyol_gr"):
		return CountryGR
	case strings.Contains(vc, "trendyol_bg"):
		return CountryBG
	case strings.Contains(vc, "trendyol_ro"):
		return CountryRO
	}

	label := strings.ToUpper(accountLabel)
	switch {
	case containsAny(label, greeceHints):
		return CountryGR
	case containsAny(label, bulgariaHints):
		return CountryBG
	default:
		return CountryRO
	}
}

func containsAny(s string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(s, h) {
			return true
		}
	}
	return false
}

// IsTrendyol сообщает, относится ли метка к Trendyol.
func IsTrendyol(label string) bool {
	return strings.HasPrefix(label, trendyolPrefix)
}

// IsEmag сообщает, относится ли метка к eMAG.
func IsEmag(label string) bool {
	return strings.HasPrefix(label, emagPrefix)
}

// TrendyolCountry возвращает страну из метки Trendyol или пустую строку.
func TrendyolCountry(label string) string {
	if !IsTrendyol(label) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(label, trendyolPrefix))
}
