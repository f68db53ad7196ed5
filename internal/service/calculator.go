package service

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/marketdash/internal/debounce"
	"github.com/mmeshcher/marketdash/internal/editbuffer"
	"github.com/mmeshcher/marketdash/internal/metrics"
	"github.com/mmeshcher/marketdash/internal/model"
	"github.com/mmeshcher/marketdash/internal/pricing"
	"github.com/mmeshcher/marketdash/internal/validation"
)

const priceFetchConcurrency = 4

// workspace: состояние пользователя, живущее между запросами: документ калькулятора,
// несохранённые правки строк, отложенное сохранение и автообновление.
type workspace struct {
	userID int64

	mu          sync.Mutex
	token       string
	data        *model.CalculatorData
	saveErr     error
	lastRefresh *RefreshReport
	auto        *autoRefresh

	edits      *editbuffer.Buffer[string, model.Product]
	saver      *debounce.Debouncer
	refreshing atomic.Bool
}

func (s *Service) workspace(sess model.Session) *workspace {
	s.mu.Lock()
	ws, ok := s.workspaces[sess.UserID]
	if !ok {
		ws = &workspace{
			userID: sess.UserID,
			edits:  editbuffer.New[string, model.Product](),
			saver:  debounce.New(s.saveDelay, debounce.WithClock(s.clock)),
		}
		s.workspaces[sess.UserID] = ws
	}
	s.mu.Unlock()

	if sess.Token != "" {
		ws.mu.Lock()
		ws.token = sess.Token
		ws.mu.Unlock()
	}
	return ws
}

// Calculator возвращает документ калькулятора, загружая его с бэкенда при первом обращении.
func (s *Service) Calculator(ctx context.Context, sess model.Session) (*model.CalculatorData, error) {
	return s.loadCalculator(ctx, sess, s.workspace(sess))
}

func (s *Service) loadCalculator(ctx context.Context, sess model.Session, ws *workspace) (*model.CalculatorData, error) {
	ws.mu.Lock()
	if ws.data != nil {
		data := cloneCalculator(*ws.data)
		ws.mu.Unlock()
		return &data, nil
	}
	ws.mu.Unlock()

	loaded, err := s.backend.Calculator(backendCtx(ctx, sess))
	if err != nil {
		return nil, err
	}
	normalizeCalculator(loaded)

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.data == nil {
		ws.data = loaded
	}
	data := cloneCalculator(*ws.data)
	return &data, nil
}

// SaveCalculator заменяет документ калькулятора и планирует его сохранение после периода тишины.
// Повторный вызов в течение периода откладывает сохранение, так что на бэкенд уходит только последнее состояние.
func (s *Service) SaveCalculator(ctx context.Context, sess model.Session, data model.CalculatorData) error {
	if err := validation.Calculator(data); err != nil {
		return err
	}

	ws := s.workspace(sess)
	data = cloneCalculator(data)
	normalizeCalculator(&data)

	ws.mu.Lock()
	ws.data = &data
	ws.mu.Unlock()

	s.scheduleSave(ws)
	return nil
}

// FlushCalculator немедленно выполняет отложенное сохранение и возвращает результат последнего сохранения.
func (s *Service) FlushCalculator(ctx context.Context, sess model.Session) error {
	ws := s.workspace(sess)
	ws.saver.Flush()
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.saveErr
}

// SavePending сообщает, ожидает ли документ калькулятора сохранения.
func (s *Service) SavePending(sess model.Session) bool {
	return s.workspace(sess).saver.Pending()
}

func (s *Service) scheduleSave(ws *workspace) {
	ws.saver.Schedule(func() {
		s.persist(ws)
	})
}

func (s *Service) persist(ws *workspace) {
	ws.mu.Lock()
	if ws.data == nil {
		ws.mu.Unlock()
		return
	}
	data := cloneCalculator(*ws.data)
	sess := model.Session{UserID: ws.userID, Token: ws.token}
	ws.mu.Unlock()

	ctx, cancel := context.WithTimeout(backendCtx(context.Background(), sess), s.saveTimeout)
	defer cancel()

	err := s.backend.SaveCalculator(ctx, data)
	metrics.ObserveCalculatorSave(err)
	if err != nil {
		s.logger.Warn("failed to save calculator", zap.Int64("userID", ws.userID), zap.Error(err))
	}

	ws.mu.Lock()
	ws.saveErr = err
	ws.mu.Unlock()
}

// StageProduct применяет частичную правку patch к строке key и сохраняет результат в буфере правок.
// Повторные правки накладываются на предыдущую несохранённую версию строки.
func (s *Service) StageProduct(ctx context.Context, sess model.Session, key string, patch json.RawMessage) (*model.Product, error) {
	ws := s.workspace(sess)
	data, err := s.loadCalculator(ctx, sess, ws)
	if err != nil {
		return nil, err
	}

	base, ok := ws.edits.Get(key)
	if ok {
		base = cloneProduct(base)
	} else {
		p := data.FindProduct(key)
		if p == nil {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, key)
		}
		base = cloneProduct(*p)
	}

	if err := json.Unmarshal(patch, &base); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	base.Key = key

	ws.edits.Stage(key, base)
	return &base, nil
}

// PendingEdits возвращает несохранённые версии строк, упорядоченные по ключу.
func (s *Service) PendingEdits(sess model.Session) []model.Product {
	ws := s.workspace(sess)
	keys := ws.edits.Keys()
	slices.Sort(keys)

	res := make([]model.Product, 0, len(keys))
	for _, key := range keys {
		if p, ok := ws.edits.Get(key); ok {
			res = append(res, cloneProduct(p))
		}
	}
	return res
}

// CommitProduct проверяет несохранённую версию строки key, переносит её в документ и планирует сохранение.
func (s *Service) CommitProduct(ctx context.Context, sess model.Session, key string) (*model.Product, error) {
	ws := s.workspace(sess)
	if _, err := s.loadCalculator(ctx, sess, ws); err != nil {
		return nil, err
	}

	var committed model.Product
	found, err := ws.edits.Commit(key, func(p model.Product) error {
		if err := validation.Product(p); err != nil {
			return err
		}

		ws.mu.Lock()
		defer ws.mu.Unlock()
		target := ws.data.FindProduct(key)
		if target == nil {
			return fmt.Errorf("%w: %s", ErrProductNotFound, key)
		}
		*target = cloneProduct(p)
		committed = p
		return nil
	})
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNoPendingEdit, key)
	}
	if err != nil {
		return nil, err
	}

	s.scheduleSave(ws)
	return &committed, nil
}

// CancelProductEdit отбрасывает несохранённую версию строки key.
func (s *Service) CancelProductEdit(sess model.Session, key string) bool {
	return s.workspace(sess).edits.Cancel(key)
}

// PriceTable рассчитывает разбивку себестоимости, прибыль и цены каналов для всех изделий.
func (s *Service) PriceTable(ctx context.Context, sess model.Session) ([]pricing.PriceRow, error) {
	data, err := s.Calculator(ctx, sess)
	if err != nil {
		return nil, err
	}
	calc := s.calculator(data.ElectricitySettings)
	return calc.PriceTable(allProducts(data), data.MarketplaceSettings), nil
}

// PriceFetchReport: итог запроса цен eMAG для всех изделий.
type PriceFetchReport struct {
	Fetched      int      `json:"fetched"`
	Failed       int      `json:"failed"`
	FailedSKUs   []string `json:"failed_skus,omitempty"`
	CredentialID int64    `json:"credential_id"`
	Message      string   `json:"message"`
}

// FetchAllPrices запрашивает текущие цены eMAG для всех артикулов калькулятора и записывает их
// в изделия. Если credentialID равен нулю, используются первые учётные данные eMAG пользователя.
func (s *Service) FetchAllPrices(ctx context.Context, sess model.Session, credentialID int64) (PriceFetchReport, error) {
	ws := s.workspace(sess)
	data, err := s.loadCalculator(ctx, sess, ws)
	if err != nil {
		return PriceFetchReport{}, err
	}

	bctx := backendCtx(ctx, sess)
	if credentialID == 0 {
		if credentialID, err = s.emagCredential(bctx, sess.UserID); err != nil {
			return PriceFetchReport{}, err
		}
	}

	var skus []string
	seen := make(map[string]bool)
	for _, p := range allProducts(data) {
		if p.SKU != "" && !seen[p.SKU] {
			seen[p.SKU] = true
			skus = append(skus, p.SKU)
		}
	}

	var (
		mu     sync.Mutex
		prices = make(map[string]float64, len(skus))
		failed []string
		g      errgroup.Group
	)
	g.SetLimit(priceFetchConcurrency)
	for _, sku := range skus {
		g.Go(func() error {
			price, err := s.backend.ProductPrice(bctx, sku, credentialID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("failed to fetch price", zap.String("sku", sku), zap.Error(err))
				metrics.ObserveSourceFailure(metrics.OpPrice)
				failed = append(failed, sku)
				return nil
			}
			prices[sku] = price
			return nil
		})
	}
	_ = g.Wait()

	if len(prices) > 0 {
		ws.mu.Lock()
		for _, list := range [][]model.Product{ws.data.Products, ws.data.ManualProducts} {
			for i := range list {
				if price, ok := prices[list[i].SKU]; ok {
					list[i].PretEmag = price
				}
			}
		}
		ws.mu.Unlock()
		s.scheduleSave(ws)
	}

	return PriceFetchReport{
		Fetched:      len(prices),
		Failed:       len(failed),
		FailedSKUs:   failed,
		CredentialID: credentialID,
		Message:      fmt.Sprintf("fetched %d, %d failed", len(prices), len(failed)),
	}, nil
}

func (s *Service) emagCredential(ctx context.Context, userID int64) (int64, error) {
	creds, err := s.backend.Credentials(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load credentials: %w", err)
	}
	for _, c := range creds {
		if c.Platform == model.PlatformEmag {
			return c.ID, nil
		}
	}
	return 0, ErrNoEmagCredential
}

func allProducts(d *model.CalculatorData) []model.Product {
	res := make([]model.Product, 0, len(d.Products)+len(d.ManualProducts))
	res = append(res, d.Products...)
	return append(res, d.ManualProducts...)
}

func normalizeCalculator(d *model.CalculatorData) {
	if d.Products == nil {
		d.Products = []model.Product{}
	}
	if d.ManualProducts == nil {
		d.ManualProducts = []model.Product{}
	}
	if d.MarketplaceSettings.Channels == nil {
		d.MarketplaceSettings.Channels = []model.MarketplaceChannel{}
	}
	d.ElectricitySettings = pricing.NewCalculator(d.ElectricitySettings).Settings()
}

func cloneCalculator(d model.CalculatorData) model.CalculatorData {
	res := d
	res.Products = cloneProducts(d.Products)
	res.ManualProducts = cloneProducts(d.ManualProducts)
	res.MarketplaceSettings.Channels = append([]model.MarketplaceChannel(nil), d.MarketplaceSettings.Channels...)
	if d.MarketplaceSettings.Channels != nil && res.MarketplaceSettings.Channels == nil {
		res.MarketplaceSettings.Channels = []model.MarketplaceChannel{}
	}
	if d.MarketplaceSettings.Overrides != nil {
		res.MarketplaceSettings.Overrides = make(map[string]map[string]model.ChannelOverride, len(d.MarketplaceSettings.Overrides))
		for key, byChannel := range d.MarketplaceSettings.Overrides {
			res.MarketplaceSettings.Overrides[key] = maps.Clone(byChannel)
		}
	}
	return res
}

func cloneProducts(src []model.Product) []model.Product {
	if src == nil {
		return nil
	}
	res := make([]model.Product, len(src))
	for i, p := range src {
		res[i] = cloneProduct(p)
	}
	return res
}

func cloneProduct(p model.Product) model.Product {
	p.StackSize = clonePtr(p.StackSize)
	p.TargetPerHour = clonePtr(p.TargetPerHour)
	if p.Parts != nil {
		parts := make([]model.Part, len(p.Parts))
		for i, part := range p.Parts {
			part.StackSize = clonePtr(part.StackSize)
			parts[i] = part
		}
		p.Parts = parts
	}
	return p
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
