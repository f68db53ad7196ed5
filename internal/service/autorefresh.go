package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/marketdash/internal/model"
)

// AutoRefreshStatus описывает состояние автообновления и обратный отсчёт до следующего прохода.
type AutoRefreshStatus struct {
	Enabled          bool           `json:"enabled"`
	IntervalSeconds  int64          `json:"interval_seconds"`
	NextRunInSeconds int64          `json:"next_run_in_seconds"`
	LastReport       *RefreshReport `json:"last_report,omitempty"`
}

type autoRefresh struct {
	cancel context.CancelFunc
	done   chan struct{}
	next   time.Time
}

// SetAutoRefresh включает или выключает периодическое обновление заказов пользователя.
// Выключение останавливает таймер и дожидается завершения фонового цикла.
func (s *Service) SetAutoRefresh(sess model.Session, enabled bool) AutoRefreshStatus {
	ws := s.workspace(sess)
	if !enabled {
		s.stopAutoRefresh(ws)
		return s.AutoRefresh(sess)
	}

	ws.mu.Lock()
	if ws.auto == nil && s.ctx.Err() == nil {
		s.startAutoRefreshLocked(ws)
	}
	ws.mu.Unlock()
	return s.AutoRefresh(sess)
}

// AutoRefresh возвращает состояние автообновления пользователя.
func (s *Service) AutoRefresh(sess model.Session) AutoRefreshStatus {
	ws := s.workspace(sess)
	ws.mu.Lock()
	defer ws.mu.Unlock()

	status := AutoRefreshStatus{
		Enabled:         ws.auto != nil,
		IntervalSeconds: int64(s.refreshInterval / time.Second),
		LastReport:      ws.lastRefresh,
	}
	if ws.auto != nil {
		left := ws.auto.next.Sub(s.clock.Now())
		if left < 0 {
			left = 0
		}
		status.NextRunInSeconds = int64((left + time.Second - 1) / time.Second)
	}
	return status
}

func (s *Service) startAutoRefreshLocked(ws *workspace) {
	ctx, cancel := context.WithCancel(s.ctx)
	a := &autoRefresh{
		cancel: cancel,
		done:   make(chan struct{}),
		next:   s.clock.Now().Add(s.refreshInterval),
	}
	ws.auto = a

	ticker := s.clock.Ticker(s.refreshInterval)
	go func() {
		defer close(a.done)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ws.mu.Lock()
				a.next = s.clock.Now().Add(s.refreshInterval)
				sess := model.Session{UserID: ws.userID, Token: ws.token}
				ws.mu.Unlock()

				if _, err := s.RefreshAll(ctx, sess); err != nil && !errors.Is(err, ErrRefreshInProgress) {
					s.logger.Warn("auto refresh failed", zap.Int64("userID", ws.userID), zap.Error(err))
				}
			}
		}
	}()
}

func (s *Service) stopAutoRefresh(ws *workspace) {
	ws.mu.Lock()
	a := ws.auto
	ws.auto = nil
	ws.mu.Unlock()

	if a == nil {
		return
	}
	a.cancel()
	<-a.done
}
