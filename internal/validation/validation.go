// Package validation проверяет данные форм до обращения к бэкенду.
package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/mmeshcher/marketdash/internal/model"
	"github.com/mmeshcher/marketdash/internal/reconcile"
)

// FieldError описывает ошибку одного поля формы.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors: список ошибок формы. Пустой список означает, что форма корректна.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err возвращает nil для пустого списка, иначе сам список.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e *Errors) add(field, format string, args ...any) {
	*e = append(*e, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *Errors) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.add(field, "is required")
	}
}

func (e *Errors) nonNegative(field string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		e.add(field, "must be a non-negative number")
	}
}

func (e *Errors) percent(field string, v float64) {
	if math.IsNaN(v) || v < 0 || v >= 100 {
		e.add(field, "must be in [0, 100)")
	}
}

// Credential проверяет форму учётных данных.
func Credential(in model.CredentialInput) error {
	var errs Errors
	errs.required("account_label", in.AccountLabel)
	if !in.PlatformID.Valid() {
		errs.add("platform_id", "unknown platform %d", in.PlatformID)
	}
	errs.required("vendor_code", in.VendorCode)
	errs.required("client_id", in.ClientID)
	errs.required("client_secret", in.ClientSecret)
	return errs.Err()
}

// Product проверяет изделие калькулятора.
func Product(p model.Product) error {
	var errs Errors
	errs.required("productName", p.ProductName)
	errs.nonNegative("packagingCost", p.PackagingCost)
	errs.percent("commissionEmag", p.CommissionEmag)
	errs.percent("commissionShop", p.CommissionShop)
	errs.nonNegative("pretEmag", p.PretEmag)
	if p.TargetPerHour != nil && *p.TargetPerHour <= 0 {
		errs.add("targetPerHour", "must be positive")
	}

	if !p.IsMultipleParts {
		errs.nonNegative("printTime", p.PrintTime)
		errs.nonNegative("costMaterial", p.CostMaterial)
		stackSize(&errs, "stackSize", p.StackSize)
		return errs.Err()
	}

	if len(p.Parts) == 0 {
		errs.add("parts", "at least one part is required")
	}
	for i, part := range p.Parts {
		prefix := fmt.Sprintf("parts[%d].", i)
		errs.required(prefix+"partName", part.PartName)
		errs.nonNegative(prefix+"printTime", part.PrintTime)
		errs.nonNegative(prefix+"costMaterial", part.CostMaterial)
		stackSize(&errs, prefix+"stackSize", part.StackSize)
	}
	return errs.Err()
}

func stackSize(errs *Errors, field string, v *float64) {
	if v != nil && *v < 1 {
		errs.add(field, "must be at least 1")
	}
}

// ElectricitySettings проверяет глобальные параметры себестоимости.
func ElectricitySettings(s model.ElectricitySettings) error {
	var errs Errors
	if !(s.PrinterConsumptionKw > 0) {
		errs.add("printerConsumption", "must be positive")
	}
	if !(s.ElectricityCostPerKwh > 0) {
		errs.add("electricityCost", "must be positive")
	}
	if !(s.TargetPrintRateDefault > 0) {
		errs.add("targetPrintRate", "must be positive")
	}
	return errs.Err()
}

// Channel проверяет ценовой канал.
func Channel(ch model.MarketplaceChannel) error {
	var errs Errors
	errs.required("id", ch.ID)
	errs.required("name", ch.Name)
	errs.percent("commission", ch.CommissionPercent)
	errs.nonNegative("transportCost", ch.TransportCost)
	switch ch.DisplayCurrency {
	case model.CurrencyRON, model.CurrencyEUR, model.CurrencyHUF, "":
	default:
		errs.add("currency", "unsupported currency %q", ch.DisplayCurrency)
	}
	return errs.Err()
}

// Calculator проверяет документ калькулятора целиком.
func Calculator(d model.CalculatorData) error {
	var errs Errors
	collect := func(prefix string, err error) {
		if fe, ok := err.(Errors); ok {
			for _, e := range fe {
				errs = append(errs, FieldError{Field: prefix + e.Field, Message: e.Message})
			}
		}
	}

	collect("electricity_settings.", ElectricitySettings(d.ElectricitySettings))
	seen := make(map[string]bool)
	for i, p := range append(append([]model.Product(nil), d.Products...), d.ManualProducts...) {
		prefix := fmt.Sprintf("products[%d].", i)
		if p.Key == "" {
			errs.add(prefix+"key", "is required")
		} else if seen[p.Key] {
			errs.add(prefix+"key", "duplicate key %q", p.Key)
		}
		seen[p.Key] = true
		collect(prefix, Product(p))
	}
	for i, ch := range d.MarketplaceSettings.Channels {
		collect(fmt.Sprintf("channels[%d].", i), Channel(ch))
	}
	return errs.Err()
}

// TrendyolCountry проверяет код страны Trendyol.
func TrendyolCountry(country string) error {
	for _, c := range reconcile.TrendyolCountries {
		if c == country {
			return nil
		}
	}
	return Errors{{Field: "country", Message: fmt.Sprintf("unknown Trendyol country %q", country)}}
}

type awbPayload struct {
	ParcelNumber   *float64 `json:"parcel_number"`
	EnvelopeNumber *float64 `json:"envelope_number"`
	Weight         *float64 `json:"weight"`
	Cod            *float64 `json:"cod"`
}

// AWB выполняет минимальную проверку запроса на создание накладной.
// Остальное содержимое передаётся бэкенду без изменений.
func AWB(payload json.RawMessage) error {
	var p awbPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Errors{{Field: "body", Message: "must be a JSON object"}}
	}

	var errs Errors
	parcels, envelopes := value(p.ParcelNumber), value(p.EnvelopeNumber)
	if parcels < 1 && envelopes < 1 {
		errs.add("parcel_number", "at least one parcel or envelope is required")
	}
	errs.nonNegative("parcel_number", parcels)
	errs.nonNegative("envelope_number", envelopes)
	errs.nonNegative("weight", value(p.Weight))
	errs.nonNegative("cod", value(p.Cod))
	return errs.Err()
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
