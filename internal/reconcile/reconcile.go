package reconcile

import (
	"sort"
	"strings"

	"github.com/mmeshcher/marketdash/internal/model"
)

// activeStatuses: статусы заказов, которые ещё нужно подготовить.
var activeStatuses = map[string]struct{}{
	"new":         {},
	"in progress": {},
	"prepared":    {},
	"picking":     {},
	"processing":  {},
	"invoiced":    {},
}

// IsActive сообщает, находится ли заказ в одном из рабочих статусов. Заказ без статуса считается активным.
func IsActive(status string) bool {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return true
	}
	_, ok := activeStatuses[status]
	return ok
}

// Batch: заказы, полученные по одним учётным данным.
type Batch struct {
	Credential model.Credential
	Orders     []model.Order
}

// Result: итог сверки.
type Result struct {
	Orders  []model.Order
	Summary []model.SKUSummary
}

// Reconcile размечает, очищает от дубликатов, сортирует и фильтрует заказы, затем считает сводку по артикулам.
// Входные данные не изменяются; повторный вызов на тех же данных даёт тот же результат.
func Reconcile(batches []Batch, vis Visibility) Result {
	orders := Dedupe(Labeled(batches))
	SortByCreatedDesc(orders)
	visible := vis.Filter(orders)
	return Result{
		Orders:  visible,
		Summary: Summarize(visible),
	}
}

// Labeled проставляет заказам метку маркетплейса и идентификатор учётных данных, отбрасывая неактивные заказы.
func Labeled(batches []Batch) []model.Order {
	var res []model.Order
	for _, b := range batches {
		for _, o := range b.Orders {
			if !IsActive(o.Status) {
				continue
			}
			o.Items = append([]model.OrderItem(nil), o.Items...)
			o.CredentialID = b.Credential.ID
			o.Marketplace = Label(b.Credential, o)
			res = append(res, o)
		}
	}
	return res
}

type dedupKey struct {
	orderID     string
	marketplace string
}

// Dedupe оставляет по одному заказу на пару (номер заказа, маркетплейс).
// Побеждает более поздний created_at, при равенстве побеждает меньший идентификатор учётных данных.
func Dedupe(orders []model.Order) []model.Order {
	index := make(map[dedupKey]int, len(orders))
	res := make([]model.Order, 0, len(orders))

	for _, o := range orders {
		key := dedupKey{orderID: o.PlatformOrderID, marketplace: o.Marketplace}
		i, seen := index[key]
		if !seen {
			index[key] = len(res)
			res = append(res, o)
			continue
		}
		if wins(o, res[i]) {
			res[i] = o
		}
	}
	return res
}

func wins(candidate, current model.Order) bool {
	if !candidate.CreatedAt.Equal(current.CreatedAt.Time) {
		return candidate.CreatedAt.After(current.CreatedAt.Time)
	}
	return candidate.CredentialID < current.CredentialID
}

// SortByCreatedDesc сортирует заказы от новых к старым.
// Заказы с одинаковым временем упорядочиваются по маркетплейсу и номеру, чтобы порядок был воспроизводим.
func SortByCreatedDesc(orders []model.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if !a.CreatedAt.Equal(b.CreatedAt.Time) {
			return a.CreatedAt.After(b.CreatedAt.Time)
		}
		if a.Marketplace != b.Marketplace {
			return a.Marketplace < b.Marketplace
		}
		return a.PlatformOrderID < b.PlatformOrderID
	})
}

// Summarize суммирует количество по артикулам отдельно для eMAG и Trendyol.
// Заказы Etsy и Oblio в сводку не попадают. Результат отсортирован по убыванию общего количества.
func Summarize(orders []model.Order) []model.SKUSummary {
	bySKU := make(map[string]*model.SKUSummary)

	for _, o := range orders {
		emag := IsEmag(o.Marketplace)
		trendyol := IsTrendyol(o.Marketplace)
		if !emag && !trendyol {
			continue
		}

		for _, item := range o.Items {
			s, ok := bySKU[item.SKU]
			if !ok {
				s = &model.SKUSummary{SKU: item.SKU}
				bySKU[item.SKU] = s
			}
			qty := item.Units()
			if emag {
				s.Emag += qty
			} else {
				s.Trendyol += qty
			}
			s.Total = s.Emag + s.Trendyol
		}
	}

	res := make([]model.SKUSummary, 0, len(bySKU))
	for _, s := range bySKU {
		res = append(res, *s)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Total != res[j].Total {
			return res[i].Total > res[j].Total
		}
		return res[i].SKU < res[j].SKU
	})
	return res
}

// SKUs возвращает артикулы сводки в её порядке.
func SKUs(summary []model.SKUSummary) []string {
	res := make([]string, 0, len(summary))
	for _, s := range summary {
		res = append(res, s.SKU)
	}
	return res
}
