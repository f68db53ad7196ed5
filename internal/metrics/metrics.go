// Package metrics описывает метрики Prometheus панели продавца.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// reconcileDuration: длительность сверки заказов, включая загрузку с бэкенда.
	reconcileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "marketdash_reconcile_duration_seconds",
		Help:    "Time taken to load and reconcile orders of all credentials",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	reconciledOrders = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "marketdash_reconciled_orders",
		Help: "Number of visible orders after the last reconciliation",
	})

	// sourceFailures считает частичные отказы по одной учётной записи.
	sourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketdash_source_failures_total",
		Help: "Total number of per-credential failures by operation",
	}, []string{"operation"}) // operation: orders, refresh, price, stock

	refreshPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketdash_refresh_passes_total",
		Help: "Total number of bulk refresh passes by outcome",
	}, []string{"outcome"}) // outcome: completed, skipped

	refreshedOrders = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketdash_refreshed_orders_total",
		Help: "Total number of orders fetched by bulk refresh passes",
	})

	stockLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketdash_stock_lookups_total",
		Help: "Total number of stock lookups by provider and result",
	}, []string{"provider", "result"})

	calculatorSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketdash_calculator_saves_total",
		Help: "Total number of calculator persistence writes by result",
	}, []string{"result"})
)

// Операции для ObserveSourceFailure.
const (
	OpOrders  = "orders"
	OpRefresh = "refresh"
	OpPrice   = "price"
	OpStock   = "stock"
)

// ObserveReconcile записывает длительность сверки и число видимых заказов.
func ObserveReconcile(started time.Time, visible int) {
	reconcileDuration.Observe(time.Since(started).Seconds())
	reconciledOrders.Set(float64(visible))
}

// ObserveSourceFailure учитывает отказ одного источника.
func ObserveSourceFailure(operation string) {
	sourceFailures.WithLabelValues(operation).Inc()
}

// ObserveRefresh учитывает проход массового обновления.
func ObserveRefresh(skipped bool, ordersFetched int) {
	if skipped {
		refreshPasses.WithLabelValues("skipped").Inc()
		return
	}
	refreshPasses.WithLabelValues("completed").Inc()
	refreshedOrders.Add(float64(ordersFetched))
}

// ObserveStock учитывает запрос остатков провайдера.
func ObserveStock(provider string, err error) {
	stockLookups.WithLabelValues(provider, result(err)).Inc()
}

// ObserveCalculatorSave учитывает запись документа калькулятора.
func ObserveCalculatorSave(err error) {
	calculatorSaves.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
