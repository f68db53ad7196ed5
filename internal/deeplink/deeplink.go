// Package deeplink строит ссылки на страницы заказов в кабинетах маркетплейсов.
package deeplink

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmeshcher/marketdash/internal/model"
	"github.com/mmeshcher/marketdash/internal/reconcile"
)

const defaultEmagOrderType = 3

var emagHosts = map[string]string{
	reconcile.LabelEmagRO: "marketplace.emag.ro",
	reconcile.LabelEmagHU: "marketplace.emag.hu",
	reconcile.LabelEmagBG: "marketplace.emag.bg",
}

// Order возвращает ссылку на заказ в кабинете продавца.
// Для заказов без номера и для платформ без кабинета возвращает false.
func Order(o model.Order) (string, bool) {
	id := strings.TrimSpace(o.PlatformOrderID)
	if id == "" {
		id = strings.TrimSpace(o.ID)
	}
	if id == "" {
		return "", false
	}

	switch {
	case reconcile.IsEmag(o.Marketplace):
		return emag(o, id), true
	case reconcile.IsTrendyol(o.Marketplace):
		q := url.Values{"orderNumber": {id}}
		return "https://partner.trendyol.com/orders/shipment-packages/all?" + q.Encode(), true
	case o.Marketplace == reconcile.LabelEtsy:
		q := url.Values{"order_id": {id}}
		return "https://www.etsy.com/your/orders/sold?" + q.Encode(), true
	default:
		return "", false
	}
}

func emag(o model.Order, id string) string {
	host, ok := emagHosts[o.Marketplace]
	if !ok {
		host = emagHosts[reconcile.LabelEmagRO]
	}
	orderType := o.OrderType
	if orderType == 0 {
		orderType = defaultEmagOrderType
	}
	return fmt.Sprintf("https://%s/order/vendor_details/%s/%s/%s?openAwbModal=0",
		host, url.PathEscape(id), url.PathEscape(o.VendorCode), strconv.Itoa(orderType))
}
