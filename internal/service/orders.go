package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/marketdash/internal/backend"
	"github.com/mmeshcher/marketdash/internal/deeplink"
	"github.com/mmeshcher/marketdash/internal/export"
	"github.com/mmeshcher/marketdash/internal/metrics"
	"github.com/mmeshcher/marketdash/internal/model"
	"github.com/mmeshcher/marketdash/internal/reconcile"
	"github.com/mmeshcher/marketdash/internal/stock"
	"github.com/mmeshcher/marketdash/internal/validation"
)

// OrderRow: заказ сводного списка со ссылкой на кабинет маркетплейса.
type OrderRow struct {
	model.Order
	Link string `json:"link,omitempty"`
}

// OrdersView: сводный список заказов всех учётных записей пользователя.
type OrdersView struct {
	Orders            []OrderRow           `json:"orders"`
	Summary           []model.SKUSummary   `json:"summary"`
	Credentials       []model.Credential   `json:"credentials"`
	Visibility        reconcile.Visibility `json:"visibility"`
	FailedCredentials []int64              `json:"failed_credentials,omitempty"`
}

// LoadOrders загружает заказы всех учётных данных параллельно и сводит их после того,
// как ответят все. Учётные данные, загрузка по которым не удалась, пропускаются.
func (s *Service) LoadOrders(ctx context.Context, sess model.Session) (*OrdersView, error) {
	started := time.Now()
	bctx := backendCtx(ctx, sess)

	creds, err := s.backend.Credentials(bctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	vis, err := s.repo.GetVisibility(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("load visibility: %w", err)
	}

	batches, failed := s.fetchOrders(bctx, sess.UserID, creds)
	res := reconcile.Reconcile(batches, vis)

	rows := make([]OrderRow, 0, len(res.Orders))
	for _, o := range res.Orders {
		link, _ := deeplink.Order(o)
		rows = append(rows, OrderRow{Order: o, Link: link})
	}
	for i := range creds {
		creds[i].ClientSecret = ""
	}

	metrics.ObserveReconcile(started, len(rows))
	s.logger.Debug("orders reconciled",
		zap.Int64("userID", sess.UserID),
		zap.Int("credentials", len(creds)),
		zap.Int("failed", len(failed)),
		zap.Int("orders", len(rows)),
	)

	return &OrdersView{
		Orders:            rows,
		Summary:           res.Summary,
		Credentials:       creds,
		Visibility:        vis,
		FailedCredentials: failed,
	}, nil
}

func (s *Service) fetchOrders(ctx context.Context, userID int64, creds []model.Credential) ([]reconcile.Batch, []int64) {
	results := make([]*reconcile.Batch, len(creds))

	var g errgroup.Group
	for i, c := range creds {
		g.Go(func() error {
			orders, err := s.backend.Orders(ctx, userID, c.ID)
			if err != nil {
				s.logger.Warn("failed to load orders", zap.Int64("credentialID", c.ID), zap.Error(err))
				metrics.ObserveSourceFailure(metrics.OpOrders)
				return nil
			}
			results[i] = &reconcile.Batch{Credential: c, Orders: orders}
			return nil
		})
	}
	_ = g.Wait()

	batches := make([]reconcile.Batch, 0, len(results))
	var failed []int64
	for i, b := range results {
		if b == nil {
			failed = append(failed, creds[i].ID)
			continue
		}
		batches = append(batches, *b)
	}
	return batches, failed
}

// RefreshReport: итог массового обновления заказов.
type RefreshReport struct {
	Refreshed         int       `json:"refreshed"`
	Failed            int       `json:"failed"`
	OrdersFetched     int       `json:"orders_fetched"`
	Skipped           bool      `json:"skipped"`
	FailedCredentials []int64   `json:"failed_credentials,omitempty"`
	Message           string    `json:"message"`
	At                time.Time `json:"at"`
}

// RefreshAll просит бэкенд обновить заказы по всем учётным данным параллельно.
// Если обновление уже идёт, возвращает отчёт с Skipped и ErrRefreshInProgress.
func (s *Service) RefreshAll(ctx context.Context, sess model.Session) (RefreshReport, error) {
	ws := s.workspace(sess)
	if !ws.refreshing.CompareAndSwap(false, true) {
		metrics.ObserveRefresh(true, 0)
		return RefreshReport{Skipped: true, Message: "refresh already in progress"}, ErrRefreshInProgress
	}
	defer ws.refreshing.Store(false)

	bctx := backendCtx(ctx, sess)
	creds, err := s.backend.Credentials(bctx, sess.UserID)
	if err != nil {
		return RefreshReport{}, fmt.Errorf("load credentials: %w", err)
	}

	fetched := make([]int, len(creds))
	failed := make([]bool, len(creds))

	var g errgroup.Group
	for i, c := range creds {
		g.Go(func() error {
			res, err := s.backend.RefreshOrders(bctx, sess.UserID, c.ID)
			if err != nil {
				s.logger.Warn("failed to refresh orders", zap.Int64("credentialID", c.ID), zap.Error(err))
				metrics.ObserveSourceFailure(metrics.OpRefresh)
				failed[i] = true
				return nil
			}
			fetched[i] = res.OrdersFetched
			return nil
		})
	}
	_ = g.Wait()

	report := RefreshReport{At: s.clock.Now()}
	for i, c := range creds {
		if failed[i] {
			report.Failed++
			report.FailedCredentials = append(report.FailedCredentials, c.ID)
			continue
		}
		report.Refreshed++
		report.OrdersFetched += fetched[i]
	}
	report.Message = fmt.Sprintf("refreshed %d, %d failed", report.Refreshed, report.Failed)

	ws.mu.Lock()
	ws.lastRefresh = &report
	ws.mu.Unlock()

	metrics.ObserveRefresh(false, report.OrdersFetched)
	s.logger.Info("orders refreshed",
		zap.Int64("userID", sess.UserID),
		zap.Int("refreshed", report.Refreshed),
		zap.Int("failed", report.Failed),
		zap.Int("ordersFetched", report.OrdersFetched),
	)
	return report, nil
}

// Stock запрашивает остатки артикулов у всех провайдеров.
func (s *Service) Stock(ctx context.Context, sess model.Session, skus []string) stock.Result {
	return stock.Lookup(backendCtx(ctx, sess), s.backend, backend.Providers, skus, s.logger)
}

// PrepList возвращает сводку по артикулам с остатками вместе со сведёнными заказами.
func (s *Service) PrepList(ctx context.Context, sess model.Session) ([]stock.Row, *OrdersView, error) {
	view, err := s.LoadOrders(ctx, sess)
	if err != nil {
		return nil, nil, err
	}
	levels := s.Stock(ctx, sess, reconcile.SKUs(view.Summary))
	return stock.Rows(view.Summary, levels), view, nil
}

// ExportPrepList записывает список подготовки в формате XLSX.
func (s *Service) ExportPrepList(ctx context.Context, sess model.Session, w io.Writer) error {
	rows, view, err := s.PrepList(ctx, sess)
	if err != nil {
		return err
	}

	orders := make([]model.Order, 0, len(view.Orders))
	for _, o := range view.Orders {
		orders = append(orders, o.Order)
	}
	return export.PrepList(w, rows, orders)
}

// CourierAccounts возвращает курьерские аккаунты eMAG.
func (s *Service) CourierAccounts(ctx context.Context, sess model.Session, credentialID int64) (json.RawMessage, error) {
	return s.backend.CourierAccounts(backendCtx(ctx, sess), credentialID)
}

// Addresses возвращает адреса отправителя eMAG.
func (s *Service) Addresses(ctx context.Context, sess model.Session, credentialID int64) (json.RawMessage, error) {
	return s.backend.Addresses(backendCtx(ctx, sess), credentialID)
}

// OrderDetails возвращает подробности заказа eMAG.
func (s *Service) OrderDetails(ctx context.Context, sess model.Session, in backend.OrderDetailsRequest) (json.RawMessage, error) {
	if in.OrderID == "" {
		return nil, validation.Errors{{Field: "order_id", Message: "is required"}}
	}
	return s.backend.OrderDetails(backendCtx(ctx, sess), in)
}

// GenerateAWB проверяет запрос и передаёт его бэкенду для создания накладной.
func (s *Service) GenerateAWB(ctx context.Context, sess model.Session, payload json.RawMessage) (json.RawMessage, error) {
	if err := validation.AWB(payload); err != nil {
		return nil, err
	}
	return s.backend.GenerateAWB(backendCtx(ctx, sess), payload)
}
