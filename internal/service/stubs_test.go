package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/mmeshcher/marketdash/internal/backend"
	"github.com/mmeshcher/marketdash/internal/model"
	"github.com/mmeshcher/marketdash/internal/reconcile"
)

type stubRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]model.Session
	vis      reconcile.Visibility
	visErr   error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		sessions: make(map[uuid.UUID]model.Session),
		vis: reconcile.Visibility{
			Credentials:       map[int64]bool{},
			TrendyolCountries: map[string]bool{},
		},
	}
}

func (r *stubRepo) Close() error { return nil }

func (r *stubRepo) CreateSession(ctx context.Context, s model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return nil
}

func (r *stubRepo) GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, errors.New("session not found")
	}
	return &s, nil
}

func (r *stubRepo) DeleteSession(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *stubRepo) SetCredentialVisibility(ctx context.Context, userID, credentialID int64, visible bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vis.Credentials[credentialID] = visible
	return nil
}

func (r *stubRepo) SetTrendyolVisibility(ctx context.Context, userID int64, country string, visible bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vis.TrendyolCountries[country] = visible
	return nil
}

func (r *stubRepo) GetVisibility(ctx context.Context, userID int64) (reconcile.Visibility, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vis, r.visErr
}

type stubBackend struct {
	mu sync.Mutex

	creds      []model.Credential
	orders     map[int64][]model.Order
	ordersErr  map[int64]error
	refreshed  map[int64]int
	refreshErr map[int64]error
	// refreshGate, если задан, задерживает RefreshOrders до закрытия канала.
	refreshGate  chan struct{}
	refreshCalls chan int64

	prices   map[string]float64
	priceErr map[string]error

	calc      *model.CalculatorData
	saves     []model.CalculatorData
	saveErr   error
	saveCalls chan model.CalculatorData

	created   []model.CredentialInput
	tokens    []string
	stockSeen []backend.Provider
}

func (b *stubBackend) record(ctx context.Context) {
	token, _ := backend.TokenFromContext(ctx)
	b.mu.Lock()
	b.tokens = append(b.tokens, token)
	b.mu.Unlock()
}

func (b *stubBackend) Login(ctx context.Context, email, password string) (*backend.LoginResult, error) {
	if password != "secret" {
		return nil, backend.ErrUnauthorized
	}
	return &backend.LoginResult{AccessToken: "tok-" + email, UserID: 7, Name: "Ana"}, nil
}

func (b *stubBackend) Logout(ctx context.Context) error { return nil }

func (b *stubBackend) Platforms(ctx context.Context) ([]model.PlatformInfo, error) {
	return []model.PlatformInfo{{ID: model.PlatformEmag, Name: "emag"}}, nil
}

func (b *stubBackend) Credentials(ctx context.Context, userID int64) ([]model.Credential, error) {
	b.record(ctx)
	return append([]model.Credential(nil), b.creds...), nil
}

func (b *stubBackend) CreateCredential(ctx context.Context, in model.CredentialInput) (*model.Credential, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created = append(b.created, in)
	return &model.Credential{ID: 99, AccountLabel: in.AccountLabel, Platform: in.PlatformID}, nil
}

func (b *stubBackend) UpdateCredential(ctx context.Context, id int64, in model.CredentialInput) (*model.Credential, error) {
	return &model.Credential{ID: id, AccountLabel: in.AccountLabel, Platform: in.PlatformID}, nil
}

func (b *stubBackend) DeleteCredential(ctx context.Context, id int64) error { return nil }

func (b *stubBackend) Orders(ctx context.Context, userID, credentialID int64) ([]model.Order, error) {
	if err := b.ordersErr[credentialID]; err != nil {
		return nil, err
	}
	return b.orders[credentialID], nil
}

func (b *stubBackend) RefreshOrders(ctx context.Context, userID, credentialID int64) (*model.RefreshResult, error) {
	if b.refreshCalls != nil {
		b.refreshCalls <- credentialID
	}
	if b.refreshGate != nil {
		<-b.refreshGate
	}
	if err := b.refreshErr[credentialID]; err != nil {
		return nil, err
	}
	return &model.RefreshResult{OrdersFetched: b.refreshed[credentialID]}, nil
}

func (b *stubBackend) ProductPrice(ctx context.Context, sku string, credentialID int64) (float64, error) {
	if err := b.priceErr[sku]; err != nil {
		return 0, err
	}
	return b.prices[sku], nil
}

func (b *stubBackend) OrderDetails(ctx context.Context, in backend.OrderDetailsRequest) (json.RawMessage, error) {
	return json.RawMessage(`{"id":"` + in.OrderID + `"}`), nil
}

func (b *stubBackend) CourierAccounts(ctx context.Context, credentialID int64) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

func (b *stubBackend) Addresses(ctx context.Context, credentialID int64) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

func (b *stubBackend) GenerateAWB(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	return json.RawMessage(`{"awb":"1"}`), nil
}

func (b *stubBackend) Stock(ctx context.Context, p backend.Provider, skus []string) (map[string]float64, error) {
	b.mu.Lock()
	b.stockSeen = append(b.stockSeen, p)
	b.mu.Unlock()
	if p == backend.ProviderTrendyol {
		return nil, errors.New("trendyol down")
	}
	res := make(map[string]float64, len(skus))
	for i, sku := range skus {
		res[sku] = float64(i + 1)
	}
	return res, nil
}

func (b *stubBackend) Calculator(ctx context.Context) (*model.CalculatorData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.calc == nil {
		return &model.CalculatorData{}, nil
	}
	c := cloneCalculator(*b.calc)
	return &c, nil
}

func (b *stubBackend) SaveCalculator(ctx context.Context, data model.CalculatorData) error {
	b.record(ctx)
	b.mu.Lock()
	b.saves = append(b.saves, data)
	err := b.saveErr
	b.mu.Unlock()
	if b.saveCalls != nil {
		b.saveCalls <- data
	}
	return err
}

func (b *stubBackend) saveCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.saves)
}
