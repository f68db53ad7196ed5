// Package service реализует бизнес-логику панели продавца: сверку заказов, обновление,
// остатки, калькулятор цен и автообновление.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/marketdash/internal/backend"
	"github.com/mmeshcher/marketdash/internal/model"
	"github.com/mmeshcher/marketdash/internal/pricing"
	"github.com/mmeshcher/marketdash/internal/reconcile"
	"github.com/mmeshcher/marketdash/internal/validation"
)

var (
	// ErrRefreshInProgress возвращается, если массовое обновление уже выполняется.
	ErrRefreshInProgress = errors.New("refresh already in progress")
	// ErrProductNotFound возвращается, если изделия с таким ключом нет в калькуляторе.
	ErrProductNotFound = errors.New("product not found")
	// ErrNoPendingEdit возвращается при подтверждении строки без несохранённых правок.
	ErrNoPendingEdit = errors.New("no pending edit")
	// ErrInvalidPatch возвращается, если правку строки не удалось применить.
	ErrInvalidPatch = errors.New("invalid product patch")
	// ErrNoEmagCredential возвращается, если у пользователя нет учётных данных eMAG для запроса цен.
	ErrNoEmagCredential = errors.New("no eMAG credential configured")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateSession(ctx context.Context, s model.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	SetCredentialVisibility(ctx context.Context, userID, credentialID int64, visible bool) error
	SetTrendyolVisibility(ctx context.Context, userID int64, country string, visible bool) error
	GetVisibility(ctx context.Context, userID int64) (reconcile.Visibility, error)
}

// Backend описывает операции REST-бэкенда, используемые сервисом.
type Backend interface {
	Login(ctx context.Context, email, password string) (*backend.LoginResult, error)
	Logout(ctx context.Context) error
	Platforms(ctx context.Context) ([]model.PlatformInfo, error)
	Credentials(ctx context.Context, userID int64) ([]model.Credential, error)
	CreateCredential(ctx context.Context, in model.CredentialInput) (*model.Credential, error)
	UpdateCredential(ctx context.Context, id int64, in model.CredentialInput) (*model.Credential, error)
	DeleteCredential(ctx context.Context, id int64) error
	Orders(ctx context.Context, userID, credentialID int64) ([]model.Order, error)
	RefreshOrders(ctx context.Context, userID, credentialID int64) (*model.RefreshResult, error)
	ProductPrice(ctx context.Context, sku string, credentialID int64) (float64, error)
	OrderDetails(ctx context.Context, in backend.OrderDetailsRequest) (json.RawMessage, error)
	CourierAccounts(ctx context.Context, credentialID int64) (json.RawMessage, error)
	Addresses(ctx context.Context, credentialID int64) (json.RawMessage, error)
	GenerateAWB(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)
	Stock(ctx context.Context, p backend.Provider, skus []string) (map[string]float64, error)
	Calculator(ctx context.Context) (*model.CalculatorData, error)
	SaveCalculator(ctx context.Context, data model.CalculatorData) error
}

// Service содержит бизнес-логику панели продавца.
type Service struct {
	repo    Repository
	backend Backend
	logger  *zap.Logger
	clock   clock.Clock

	rules           pricing.Rules
	rates           pricing.ExchangeRates
	saveDelay       time.Duration
	saveTimeout     time.Duration
	refreshInterval time.Duration

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once

	mu         sync.Mutex
	workspaces map[int64]*workspace
}

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт логгер сервиса.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock подменяет часы, по которым работают отложенное сохранение и автообновление.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// WithPricing задаёт правила расчёта цен и курсы валют.
func WithPricing(rules pricing.Rules, rates pricing.ExchangeRates) Option {
	return func(s *Service) {
		s.rules = rules
		if rates != nil {
			s.rates = rates
		}
	}
}

// WithSaveDelay задаёт период тишины перед сохранением калькулятора.
func WithSaveDelay(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.saveDelay = d
		}
	}
}

// WithRefreshInterval задаёт интервал автообновления заказов.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.refreshInterval = d
		}
	}
}

// NewService создаёт новый сервис с указанным репозиторием и клиентом бэкенда.
func NewService(repo Repository, b Backend, opts ...Option) *Service {
	s := &Service{
		repo:            repo,
		backend:         b,
		logger:          zap.NewNop(),
		clock:           clock.New(),
		rules:           pricing.DefaultRules(),
		rates:           pricing.DefaultRates(),
		saveDelay:       time.Second,
		saveTimeout:     15 * time.Second,
		refreshInterval: 5 * time.Minute,
		workspaces:      make(map[int64]*workspace),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Run блокируется до отмены ctx, после чего останавливает таймеры и сохраняет отложенные изменения.
func (s *Service) Run(ctx context.Context) error {
	<-ctx.Done()
	s.shutdown()
	return nil
}

// Close останавливает фоновые процессы и закрывает ресурсы сервиса.
func (s *Service) Close() error {
	s.shutdown()
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

func (s *Service) shutdown() {
	s.stopOnce.Do(func() {
		s.cancel()

		s.mu.Lock()
		wss := make([]*workspace, 0, len(s.workspaces))
		for _, ws := range s.workspaces {
			wss = append(wss, ws)
		}
		s.mu.Unlock()

		for _, ws := range wss {
			s.stopAutoRefresh(ws)
			if ws.saver.Flush() {
				s.logger.Info("pending calculator changes saved on shutdown", zap.Int64("userID", ws.userID))
			}
			ws.saver.Stop()
		}
	})
}

// backendCtx возвращает контекст, запросы с которым уходят бэкенду от имени сессии.
func backendCtx(ctx context.Context, sess model.Session) context.Context {
	return backend.WithToken(ctx, sess.Token)
}

func (s *Service) calculator(settings model.ElectricitySettings) *pricing.Calculator {
	return pricing.NewCalculator(settings, pricing.WithRules(s.rules), pricing.WithRates(s.rates))
}

// Login выполняет вход на бэкенде и открывает сессию панели.
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, error) {
	var errs validation.Errors
	if strings.TrimSpace(email) == "" {
		errs = append(errs, validation.FieldError{Field: "email", Message: "is required"})
	}
	if password == "" {
		errs = append(errs, validation.FieldError{Field: "password", Message: "is required"})
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	res, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	sess := model.Session{
		ID:        uuid.New(),
		UserID:    res.UserID,
		Name:      res.Name,
		Token:     res.AccessToken,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &sess, nil
}

// Logout завершает сессию. Отложенные изменения калькулятора сохраняются сразу, правки строк отбрасываются.
func (s *Service) Logout(ctx context.Context, sess model.Session) error {
	s.mu.Lock()
	ws := s.workspaces[sess.UserID]
	s.mu.Unlock()
	if ws != nil {
		ws.saver.Flush()
		ws.edits.Reset()
	}

	if err := s.backend.Logout(backendCtx(ctx, sess)); err != nil {
		s.logger.Warn("backend logout failed", zap.Int64("userID", sess.UserID), zap.Error(err))
	}
	return s.repo.DeleteSession(ctx, sess.ID)
}

// Session возвращает сессию по идентификатору.
func (s *Service) Session(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	return s.repo.GetSession(ctx, id)
}

// Platforms возвращает поддерживаемые платформы.
func (s *Service) Platforms(ctx context.Context, sess model.Session) ([]model.PlatformInfo, error) {
	return s.backend.Platforms(backendCtx(ctx, sess))
}

// Credentials возвращает учётные данные пользователя без секретов.
func (s *Service) Credentials(ctx context.Context, sess model.Session) ([]model.Credential, error) {
	creds, err := s.backend.Credentials(backendCtx(ctx, sess), sess.UserID)
	if err != nil {
		return nil, err
	}
	for i := range creds {
		creds[i].ClientSecret = ""
	}
	return creds, nil
}

// CreateCredential проверяет форму и создаёт учётные данные.
func (s *Service) CreateCredential(ctx context.Context, sess model.Session, in model.CredentialInput) (*model.Credential, error) {
	in = trimCredential(in)
	if err := validation.Credential(in); err != nil {
		return nil, err
	}
	return s.backend.CreateCredential(backendCtx(ctx, sess), in)
}

// UpdateCredential проверяет форму и изменяет учётные данные id.
func (s *Service) UpdateCredential(ctx context.Context, sess model.Session, id int64, in model.CredentialInput) (*model.Credential, error) {
	in = trimCredential(in)
	if err := validation.Credential(in); err != nil {
		return nil, err
	}
	return s.backend.UpdateCredential(backendCtx(ctx, sess), id, in)
}

// DeleteCredential удаляет учётные данные id.
func (s *Service) DeleteCredential(ctx context.Context, sess model.Session, id int64) error {
	return s.backend.DeleteCredential(backendCtx(ctx, sess), id)
}

func trimCredential(in model.CredentialInput) model.CredentialInput {
	in.AccountLabel = strings.TrimSpace(in.AccountLabel)
	in.ClientID = strings.TrimSpace(in.ClientID)
	in.ClientSecret = strings.TrimSpace(in.ClientSecret)
	in.VendorCode = strings.TrimSpace(in.VendorCode)
	return in
}

// SetCredentialVisibility включает или скрывает заказы учётных данных.
func (s *Service) SetCredentialVisibility(ctx context.Context, sess model.Session, credentialID int64, visible bool) error {
	return s.repo.SetCredentialVisibility(ctx, sess.UserID, credentialID, visible)
}

// SetTrendyolVisibility включает или скрывает заказы Trendyol страны country.
func (s *Service) SetTrendyolVisibility(ctx context.Context, sess model.Session, country string, visible bool) error {
	country = strings.ToUpper(strings.TrimSpace(country))
	if err := validation.TrendyolCountry(country); err != nil {
		return err
	}
	return s.repo.SetTrendyolVisibility(ctx, sess.UserID, country, visible)
}
