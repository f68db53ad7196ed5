package handler

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/marketdash/internal/backend"
	"github.com/mmeshcher/marketdash/internal/middleware"
	"github.com/mmeshcher/marketdash/internal/model"
	"github.com/mmeshcher/marketdash/internal/pricing"
	"github.com/mmeshcher/marketdash/internal/repository"
	"github.com/mmeshcher/marketdash/internal/service"
	"github.com/mmeshcher/marketdash/internal/stock"
	"github.com/mmeshcher/marketdash/internal/validation"
)

var testSession = model.Session{ID: uuid.MustParse("5b0e2c1e-8c55-4a43-9a55-6c3b1f3a0b11"), UserID: 7, Name: "Ana", Token: "tok"}

type stubService struct {
	loginErr  error
	loggedOut bool

	credErr     error
	createdWith model.CredentialInput
	visibility  map[string]bool

	view       *service.OrdersView
	ordersErr  error
	report     service.RefreshReport
	refreshErr error
	stockRes   stock.Result
	stockSKUs  []string

	calc       *model.CalculatorData
	saved      *model.CalculatorData
	saveErr    error
	flushErr   error
	stageErr   error
	staged     json.RawMessage
	commitErr  error
	cancelled  bool
	fetchedFor int64

	auto service.AutoRefreshStatus

	awbErr error
}

func (s *stubService) Session(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	if id != testSession.ID {
		return nil, repository.ErrSessionNotFound
	}
	sess := testSession
	return &sess, nil
}

func (s *stubService) Login(ctx context.Context, email, password string) (*model.Session, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	sess := testSession
	return &sess, nil
}

func (s *stubService) Logout(ctx context.Context, sess model.Session) error {
	s.loggedOut = sess.ID == testSession.ID
	return nil
}

func (s *stubService) Platforms(ctx context.Context, sess model.Session) ([]model.PlatformInfo, error) {
	return []model.PlatformInfo{{ID: model.PlatformEmag, Name: "emag"}}, nil
}

func (s *stubService) Credentials(ctx context.Context, sess model.Session) ([]model.Credential, error) {
	return []model.Credential{{ID: 1, AccountLabel: "eMAG RO"}}, s.credErr
}

func (s *stubService) CreateCredential(ctx context.Context, sess model.Session, in model.CredentialInput) (*model.Credential, error) {
	s.createdWith = in
	if err := validation.Credential(in); err != nil {
		return nil, err
	}
	return &model.Credential{ID: 5, AccountLabel: in.AccountLabel}, nil
}

func (s *stubService) UpdateCredential(ctx context.Context, sess model.Session, id int64, in model.CredentialInput) (*model.Credential, error) {
	return &model.Credential{ID: id, AccountLabel: in.AccountLabel}, nil
}

func (s *stubService) DeleteCredential(ctx context.Context, sess model.Session, id int64) error {
	return nil
}

func (s *stubService) SetCredentialVisibility(ctx context.Context, sess model.Session, credentialID int64, visible bool) error {
	s.visibility = map[string]bool{fmt.Sprint(credentialID): visible}
	return nil
}

func (s *stubService) SetTrendyolVisibility(ctx context.Context, sess model.Session, country string, visible bool) error {
	if err := validation.TrendyolCountry(strings.ToUpper(country)); err != nil {
		return err
	}
	s.visibility = map[string]bool{country: visible}
	return nil
}

func (s *stubService) LoadOrders(ctx context.Context, sess model.Session) (*service.OrdersView, error) {
	return s.view, s.ordersErr
}

func (s *stubService) RefreshAll(ctx context.Context, sess model.Session) (service.RefreshReport, error) {
	return s.report, s.refreshErr
}

func (s *stubService) Stock(ctx context.Context, sess model.Session, skus []string) stock.Result {
	s.stockSKUs = skus
	return s.stockRes
}

func (s *stubService) ExportPrepList(ctx context.Context, sess model.Session, w io.Writer) error {
	_, err := io.WriteString(w, "PK-xlsx")
	return err
}

func (s *stubService) Calculator(ctx context.Context, sess model.Session) (*model.CalculatorData, error) {
	return s.calc, nil
}

func (s *stubService) SaveCalculator(ctx context.Context, sess model.Session, data model.CalculatorData) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = &data
	return nil
}

func (s *stubService) FlushCalculator(ctx context.Context, sess model.Session) error {
	return s.flushErr
}

func (s *stubService) SavePending(sess model.Session) bool { return s.saved != nil }

func (s *stubService) StageProduct(ctx context.Context, sess model.Session, key string, patch json.RawMessage) (*model.Product, error) {
	if s.stageErr != nil {
		return nil, s.stageErr
	}
	s.staged = patch
	return &model.Product{Key: key}, nil
}

func (s *stubService) CommitProduct(ctx context.Context, sess model.Session, key string) (*model.Product, error) {
	if s.commitErr != nil {
		return nil, s.commitErr
	}
	return &model.Product{Key: key}, nil
}

func (s *stubService) CancelProductEdit(sess model.Session, key string) bool {
	s.cancelled = key == "p1"
	return s.cancelled
}

func (s *stubService) PendingEdits(sess model.Session) []model.Product {
	return []model.Product{{Key: "p1", PretEmag: 50}}
}

func (s *stubService) PriceTable(ctx context.Context, sess model.Session) ([]pricing.PriceRow, error) {
	return []pricing.PriceRow{{Key: "p1"}}, nil
}

func (s *stubService) FetchAllPrices(ctx context.Context, sess model.Session, credentialID int64) (service.PriceFetchReport, error) {
	s.fetchedFor = credentialID
	return service.PriceFetchReport{Fetched: 2, Message: "fetched 2, 0 failed"}, nil
}

func (s *stubService) SetAutoRefresh(sess model.Session, enabled bool) service.AutoRefreshStatus {
	s.auto.Enabled = enabled
	return s.auto
}

func (s *stubService) AutoRefresh(sess model.Session) service.AutoRefreshStatus { return s.auto }

func (s *stubService) CourierAccounts(ctx context.Context, sess model.Session, credentialID int64) (json.RawMessage, error) {
	return json.RawMessage(`[{"account_id":1}]`), nil
}

func (s *stubService) Addresses(ctx context.Context, sess model.Session, credentialID int64) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

func (s *stubService) OrderDetails(ctx context.Context, sess model.Session, in backend.OrderDetailsRequest) (json.RawMessage, error) {
	return json.RawMessage(`{"id":"` + in.OrderID + `"}`), nil
}

func (s *stubService) GenerateAWB(ctx context.Context, sess model.Session, payload json.RawMessage) (json.RawMessage, error) {
	if s.awbErr != nil {
		return nil, s.awbErr
	}
	return json.RawMessage(`{"awb":"1"}`), nil
}

type testServer struct {
	svc    *stubService
	auth   *middleware.AuthMiddleware
	router http.Handler
}

func newTestServer(t *testing.T, svc *stubService) *testServer {
	t.Helper()

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	auth := middleware.NewAuthMiddleware("test-secret", svc)
	h := NewHandler(svc, logger, auth)
	return &testServer{svc: svc, auth: auth, router: h.SetupRouter()}
}

func (s *testServer) do(t *testing.T, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if authed {
		rec := httptest.NewRecorder()
		s.auth.SetAuthCookie(rec, testSession.ID)
		req.AddCookie(rec.Result().Cookies()[0])
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(v))
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		loginErr   error
		wantStatus int
		wantCookie bool
	}{
		{name: "success", body: `{"email":"a@b.c","password":"secret"}`, wantStatus: http.StatusOK, wantCookie: true},
		{name: "bad json", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "wrong password", body: `{"email":"a@b.c","password":"x"}`, loginErr: fmt.Errorf("login: %w", backend.ErrUnauthorized), wantStatus: http.StatusUnauthorized},
		{
			name:       "missing fields",
			body:       `{}`,
			loginErr:   validation.Errors{{Field: "email", Message: "is required"}},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{name: "backend down", body: `{"email":"a@b.c","password":"secret"}`, loginErr: fmt.Errorf("login: %w", backend.ErrUnavailable), wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &stubService{loginErr: tt.loginErr})

			rec := srv.do(t, http.MethodPost, "/api/auth/login", tt.body, false)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCookie, len(rec.Result().Cookies()) > 0)
		})
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	for _, path := range []string{"/api/orders", "/api/calculator", "/api/auto-refresh", "/api/platforms"} {
		rec := srv.do(t, http.MethodGet, path, "", false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestLogout(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	rec := srv.do(t, http.MethodPost, "/api/auth/logout", "", true)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, srv.svc.loggedOut)
	require.NotEmpty(t, rec.Result().Cookies())
	assert.Less(t, rec.Result().Cookies()[0].MaxAge, 0)
}

func TestCreateCredential_ValidationErrors(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	rec := srv.do(t, http.MethodPost, "/api/credentials", `{"account_label":"","platform_id":9}`, true)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp errorResponse
	decodeBody(t, rec, &resp)
	assert.NotEmpty(t, resp.Fields)

	rec = srv.do(t, http.MethodPost, "/api/credentials",
		`{"account_label":"Shop","platform_id":1,"client_id":"id","client_secret":"s","vendor_code":"v"}`, true)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Shop", srv.svc.createdWith.AccountLabel)
}

func TestCredentialRoutes_BadID(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodPut, "/api/credentials/abc", `{}`, true).Code)
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodDelete, "/api/credentials/0", "", true).Code)
	assert.Equal(t, http.StatusNoContent, srv.do(t, http.MethodDelete, "/api/credentials/3", "", true).Code)
}

func TestCredentials_BackendErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "expired token", err: fmt.Errorf("credentials: %w", backend.ErrUnauthorized), want: http.StatusUnauthorized},
		{name: "backend 500", err: fmt.Errorf("credentials: %w", &backend.StatusError{Code: 500}), want: http.StatusBadGateway},
		{name: "backend 404", err: &backend.StatusError{Code: 404, Body: "user not found"}, want: http.StatusNotFound},
		{name: "internal", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &stubService{credErr: tt.err})
			rec := srv.do(t, http.MethodGet, "/api/credentials", "", true)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestVisibility(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	rec := srv.do(t, http.MethodPut, "/api/visibility/credentials/4", `{"visible":false}`, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, map[string]bool{"4": false}, srv.svc.visibility)

	rec = srv.do(t, http.MethodPut, "/api/visibility/trendyol/gr", `{"visible":true}`, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = srv.do(t, http.MethodPut, "/api/visibility/trendyol/xx", `{"visible":true}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestOrders(t *testing.T) {
	view := &service.OrdersView{
		Orders:  []service.OrderRow{{Order: model.Order{PlatformOrderID: "123", Marketplace: "EMAG RO"}, Link: "https://x"}},
		Summary: []model.SKUSummary{{SKU: "A", Emag: 2, Total: 2}},
	}
	srv := newTestServer(t, &stubService{view: view})

	rec := srv.do(t, http.MethodGet, "/api/orders", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	var got service.OrdersView
	decodeBody(t, rec, &got)
	require.Len(t, got.Orders, 1)
	assert.Equal(t, "https://x", got.Orders[0].Link)
	assert.Equal(t, view.Summary, got.Summary)
}

func TestRefreshOrders_SkippedIsOK(t *testing.T) {
	srv := newTestServer(t, &stubService{
		report:     service.RefreshReport{Skipped: true, Message: "refresh already in progress"},
		refreshErr: service.ErrRefreshInProgress,
	})

	rec := srv.do(t, http.MethodPost, "/api/orders/refresh", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	var got service.RefreshReport
	decodeBody(t, rec, &got)
	assert.True(t, got.Skipped)
}

func TestExportSummary(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	rec := srv.do(t, http.MethodGet, "/api/orders/summary.xlsx", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "prep-list.xlsx")
	assert.Equal(t, "PK-xlsx", rec.Body.String())
}

func TestStock(t *testing.T) {
	srv := newTestServer(t, &stubService{stockRes: stock.Result{
		Levels: map[backend.Provider]map[string]float64{backend.ProviderEmag: {"A": 3}},
		Errors: map[backend.Provider]string{backend.ProviderTrendyol: "timeout"},
	}})

	rec := srv.do(t, http.MethodPost, "/api/stock", `{"skus":["A"," ",""]}`, true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"A"}, srv.svc.stockSKUs)

	var got stockResponse
	decodeBody(t, rec, &got)
	assert.Equal(t, 3.0, got.Stock["emag"]["A"])
	assert.Empty(t, got.Stock["oblio"])
	assert.Equal(t, "timeout", got.Errors["trendyol"])
}

func TestCalculatorRoutes(t *testing.T) {
	srv := newTestServer(t, &stubService{calc: &model.CalculatorData{Products: []model.Product{{Key: "p1"}}}})

	rec := srv.do(t, http.MethodPut, "/api/calculator", `{"products":[{"key":"p1","productName":"Vase"}]}`, true)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.NotNil(t, srv.svc.saved)
	assert.Equal(t, "Vase", srv.svc.saved.Products[0].ProductName)

	rec = srv.do(t, http.MethodGet, "/api/calculator", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Products    []model.Product `json:"products"`
		SavePending bool            `json:"save_pending"`
	}
	decodeBody(t, rec, &got)
	assert.Len(t, got.Products, 1)
	assert.True(t, got.SavePending)

	assert.Equal(t, http.StatusNoContent, srv.do(t, http.MethodPost, "/api/calculator/flush", "", true).Code)

	rec = srv.do(t, http.MethodPatch, "/api/calculator/products/p1", `{"pretEmag":50}`, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"pretEmag":50}`, string(srv.svc.staged))

	rec = srv.do(t, http.MethodGet, "/api/calculator/edits", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	var edits []model.Product
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&edits))
	require.Len(t, edits, 1)
	assert.Equal(t, "p1", edits[0].Key)

	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/calculator/products/p1/commit", "", true).Code)
	assert.Equal(t, http.StatusNoContent, srv.do(t, http.MethodDelete, "/api/calculator/products/p1/edit", "", true).Code)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodDelete, "/api/calculator/products/p2/edit", "", true).Code)

	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/calculator/prices", "", true).Code)

	rec = srv.do(t, http.MethodPost, "/api/calculator/fetch-prices?credential_id=5", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(5), srv.svc.fetchedFor)
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodPost, "/api/calculator/fetch-prices?credential_id=x", "", true).Code)
}

func TestCalculatorRoutes_Errors(t *testing.T) {
	tests := []struct {
		name   string
		svc    *stubService
		method string
		path   string
		body   string
		want   int
	}{
		{
			name:   "invalid document",
			svc:    &stubService{saveErr: validation.Errors{{Field: "electricity_settings.electricityCost", Message: "must be positive"}}},
			method: http.MethodPut,
			path:   "/api/calculator",
			body:   `{}`,
			want:   http.StatusUnprocessableEntity,
		},
		{
			name:   "flush failed",
			svc:    &stubService{flushErr: fmt.Errorf("save calculator: %w", &backend.StatusError{Code: 503})},
			method: http.MethodPost,
			path:   "/api/calculator/flush",
			want:   http.StatusBadGateway,
		},
		{
			name:   "unknown product",
			svc:    &stubService{stageErr: fmt.Errorf("%w: p9", service.ErrProductNotFound)},
			method: http.MethodPatch,
			path:   "/api/calculator/products/p9",
			body:   `{}`,
			want:   http.StatusNotFound,
		},
		{
			name:   "bad patch",
			svc:    &stubService{stageErr: service.ErrInvalidPatch},
			method: http.MethodPatch,
			path:   "/api/calculator/products/p1",
			body:   `{"printTime":"x"}`,
			want:   http.StatusBadRequest,
		},
		{
			name:   "nothing to commit",
			svc:    &stubService{commitErr: service.ErrNoPendingEdit},
			method: http.MethodPost,
			path:   "/api/calculator/products/p1/commit",
			want:   http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.svc)
			rec := srv.do(t, tt.method, tt.path, tt.body, true)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestProductivity(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	rec := srv.do(t, http.MethodPost, "/api/calculator/productivity",
		`{"stackSize":4,"costMaterial":2,"costElectricity":0.5,"commissionShop":20}`, true)

	require.Equal(t, http.StatusOK, rec.Code)
	var got pricing.ProductivityResult
	decodeBody(t, rec, &got)
	assert.InDelta(t, 2.5, got.CostPerUnit, 1e-9)
	assert.InDelta(t, 3.125, got.MinPricePerUnit, 1e-9)
	assert.InDelta(t, 12.5, got.MinPriceStack, 1e-9)
}

func TestAutoRefreshRoutes(t *testing.T) {
	srv := newTestServer(t, &stubService{auto: service.AutoRefreshStatus{IntervalSeconds: 300}})

	rec := srv.do(t, http.MethodPost, "/api/auto-refresh", `{"enabled":true}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/auto-refresh", "", true)
	var got service.AutoRefreshStatus
	decodeBody(t, rec, &got)
	assert.True(t, got.Enabled)
	assert.Equal(t, int64(300), got.IntervalSeconds)
}

func TestEmagRoutes(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	rec := srv.do(t, http.MethodGet, "/api/emag/courier-accounts?credential_id=1", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"account_id":1}]`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodGet, "/api/emag/addresses", "", true).Code)

	rec = srv.do(t, http.MethodPost, "/api/emag/order-details", `{"order_id":"42","credential_id":1}`, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"42"}`, rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/api/emag/awb", `{"parcel_number":1}`, true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGenerateAWB_Validation(t *testing.T) {
	srv := newTestServer(t, &stubService{awbErr: validation.Errors{{Field: "parcel_number", Message: "must be at least 1"}}})

	rec := srv.do(t, http.MethodPost, "/api/emag/awb", `{"parcel_number":0}`, true)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp errorResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, "parcel_number", resp.Fields[0].Field)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	rec := srv.do(t, http.MethodGet, "/metrics", "", false)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# HELP")
}

func TestMetricsEndpoint_GzipScrape(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "# HELP"), "metrics must be compressed once, got %q", body[:min(len(body), 16)])
}

func TestAPI_GzipResponse(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"ana@example.com","password":"secret"}`))
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.NewDecoder(zr).Decode(&got))
	assert.Equal(t, "Ana", got["name"])
}
