// Package stock параллельно запрашивает остатки у всех провайдеров.
package stock

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/marketdash/internal/backend"
	"github.com/mmeshcher/marketdash/internal/metrics"
	"github.com/mmeshcher/marketdash/internal/model"
)

// Fetcher запрашивает остатки у одного провайдера.
type Fetcher interface {
	Stock(ctx context.Context, p backend.Provider, skus []string) (map[string]float64, error)
}

// Result содержит остатки по провайдерам и ошибки тех, кто не ответил.
type Result struct {
	Levels map[backend.Provider]map[string]float64 `json:"levels"`
	Errors map[backend.Provider]string             `json:"errors,omitempty"`
}

// Level возвращает остаток sku у провайдера p.
func (r Result) Level(p backend.Provider, sku string) (float64, bool) {
	v, ok := r.Levels[p][sku]
	return v, ok
}

// Lookup опрашивает провайдеров одновременно и возвращается только после ответа всех.
// Отказ одного провайдера не прерывает остальных и записывается в Result.Errors.
func Lookup(ctx context.Context, f Fetcher, providers []backend.Provider, skus []string, logger *zap.Logger) Result {
	res := Result{
		Levels: make(map[backend.Provider]map[string]float64, len(providers)),
		Errors: make(map[backend.Provider]string),
	}
	if len(skus) == 0 {
		return res
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, p := range providers {
		g.Go(func() error {
			levels, err := f.Stock(ctx, p, skus)
			metrics.ObserveStock(string(p), err)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("stock lookup failed", zap.String("provider", string(p)), zap.Error(err))
				metrics.ObserveSourceFailure(metrics.OpStock)
				res.Errors[p] = err.Error()
				return nil
			}
			res.Levels[p] = levels
			return nil
		})
	}
	_ = g.Wait()

	return res
}

// Row объединяет строку сводки по артикулу с остатками провайдеров.
type Row struct {
	model.SKUSummary
	StockEmag     *float64 `json:"stock_emag"`
	StockTrendyol *float64 `json:"stock_trendyol"`
	StockOblio    *float64 `json:"stock_oblio"`
}

// Rows сопоставляет сводку с остатками. Отсутствующий остаток остаётся nil.
func Rows(summary []model.SKUSummary, r Result) []Row {
	rows := make([]Row, 0, len(summary))
	for _, s := range summary {
		rows = append(rows, Row{
			SKUSummary:    s,
			StockEmag:     level(r, backend.ProviderEmag, s.SKU),
			StockTrendyol: level(r, backend.ProviderTrendyol, s.SKU),
			StockOblio:    level(r, backend.ProviderOblio, s.SKU),
		})
	}
	return rows
}

func level(r Result, p backend.Provider, sku string) *float64 {
	v, ok := r.Level(p, sku)
	if !ok {
		return nil
	}
	return &v
}
