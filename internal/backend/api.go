package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mmeshcher/marketdash/internal/model"
)

// ErrNoPrice возвращается, когда бэкенд не знает цену товара.
var ErrNoPrice = errors.New("backend: price not available")

// LoginResult: ответ бэкенда на вход пользователя.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int64  `json:"user_id"`
	Name        string `json:"name"`
}

// Login выполняет вход по email и паролю.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var res LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &res); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &res, nil
}

// Logout завершает сессию на бэкенде.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Platforms возвращает список поддерживаемых платформ.
func (c *Client) Platforms(ctx context.Context) ([]model.PlatformInfo, error) {
	var res []model.PlatformInfo
	if err := c.do(ctx, http.MethodGet, "/platforms", nil, nil, &res); err != nil {
		return nil, fmt.Errorf("platforms: %w", err)
	}
	return res, nil
}

// Credentials возвращает учётные данные пользователя.
func (c *Client) Credentials(ctx context.Context, userID int64) ([]model.Credential, error) {
	var res []model.Credential
	if err := c.do(ctx, http.MethodGet, "/credentials", idQuery("user_id", userID), nil, &res); err != nil {
		return nil, fmt.Errorf("credentials: %w", err)
	}
	return res, nil
}

// CreateCredential создаёт учётные данные.
func (c *Client) CreateCredential(ctx context.Context, in model.CredentialInput) (*model.Credential, error) {
	var res model.Credential
	if err := c.do(ctx, http.MethodPost, "/credentials", nil, in, &res); err != nil {
		return nil, fmt.Errorf("create credential: %w", err)
	}
	return &res, nil
}

// UpdateCredential изменяет учётные данные id.
func (c *Client) UpdateCredential(ctx context.Context, id int64, in model.CredentialInput) (*model.Credential, error) {
	var res model.Credential
	if err := c.do(ctx, http.MethodPut, credentialPath(id), nil, in, &res); err != nil {
		return nil, fmt.Errorf("update credential %d: %w", id, err)
	}
	return &res, nil
}

// DeleteCredential удаляет учётные данные id.
func (c *Client) DeleteCredential(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, credentialPath(id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete credential %d: %w", id, err)
	}
	return nil
}

func credentialPath(id int64) string {
	return "/credentials/" + strconv.FormatInt(id, 10)
}

// Orders возвращает заказы пользователя по учётным данным credentialID.
func (c *Client) Orders(ctx context.Context, userID, credentialID int64) ([]model.Order, error) {
	q := idQuery("user_id", userID)
	if credentialID != 0 {
		q.Set("credential_id", strconv.FormatInt(credentialID, 10))
	}

	var res []model.Order
	if err := c.do(ctx, http.MethodGet, "/orders", q, nil, &res); err != nil {
		return nil, fmt.Errorf("orders for credential %d: %w", credentialID, err)
	}
	return res, nil
}

// RefreshOrders просит бэкенд загрузить свежие заказы с маркетплейса.
// Ответ с полем error считается ошибкой.
func (c *Client) RefreshOrders(ctx context.Context, userID, credentialID int64) (*model.RefreshResult, error) {
	body := map[string]int64{"user_id": userID, "credential_id": credentialID}
	var res model.RefreshResult
	if err := c.do(ctx, http.MethodPost, "/orders/refresh", nil, body, &res); err != nil {
		return nil, fmt.Errorf("refresh credential %d: %w", credentialID, err)
	}
	if res.Error != "" {
		return &res, fmt.Errorf("refresh credential %d: %s", credentialID, res.Error)
	}
	return &res, nil
}

// ProductPrice возвращает текущую цену товара sku на eMAG.
func (c *Client) ProductPrice(ctx context.Context, sku string, credentialID int64) (float64, error) {
	body := struct {
		SKU          string `json:"sku"`
		CredentialID int64  `json:"credential_id"`
	}{SKU: sku, CredentialID: credentialID}

	var res struct {
		Price *float64 `json:"price"`
	}
	if err := c.do(ctx, http.MethodPost, "/emag/product/price", nil, body, &res); err != nil {
		return 0, fmt.Errorf("price for %s: %w", sku, err)
	}
	if res.Price == nil {
		return 0, fmt.Errorf("price for %s: %w", sku, ErrNoPrice)
	}
	return *res.Price, nil
}

// OrderDetailsRequest идентифицирует заказ eMAG.
type OrderDetailsRequest struct {
	OrderID      string `json:"order_id"`
	CredentialID int64  `json:"credential_id"`
}

// OrderDetails возвращает подробности заказа eMAG в исходном виде.
func (c *Client) OrderDetails(ctx context.Context, in OrderDetailsRequest) (json.RawMessage, error) {
	var res json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/emag/order/details", nil, in, &res); err != nil {
		return nil, fmt.Errorf("order details %s: %w", in.OrderID, err)
	}
	return res, nil
}

// CourierAccounts возвращает курьерские аккаунты eMAG.
func (c *Client) CourierAccounts(ctx context.Context, credentialID int64) (json.RawMessage, error) {
	var res json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/emag/courier-accounts", idQuery("credential_id", credentialID), nil, &res); err != nil {
		return nil, fmt.Errorf("courier accounts: %w", err)
	}
	return res, nil
}

// Addresses возвращает адреса отправителя eMAG.
func (c *Client) Addresses(ctx context.Context, credentialID int64) (json.RawMessage, error) {
	var res json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/emag/addresses", idQuery("credential_id", credentialID), nil, &res); err != nil {
		return nil, fmt.Errorf("addresses: %w", err)
	}
	return res, nil
}

// GenerateAWB передаёт запрос на создание накладной без изменений и возвращает ответ как есть.
func (c *Client) GenerateAWB(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var res json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/emag/awb/generate", nil, payload, &res); err != nil {
		return nil, fmt.Errorf("generate awb: %w", err)
	}
	return res, nil
}

// Provider: внешний сервис остатков.
type Provider string

const (
	ProviderEmag     Provider = "emag"
	ProviderTrendyol Provider = "trendyol"
	ProviderOblio    Provider = "oblio"
)

// Providers перечисляет все сервисы остатков.
var Providers = []Provider{ProviderEmag, ProviderTrendyol, ProviderOblio}

// Stock возвращает остатки артикулов skus у провайдера p.
func (c *Client) Stock(ctx context.Context, p Provider, skus []string) (map[string]float64, error) {
	body := map[string][]string{"product_codes": skus}
	var res struct {
		Stock map[string]struct {
			Stock float64 `json:"stock"`
		} `json:"stock"`
		Error string `json:"error"`
	}
	path := "/" + url.PathEscape(string(p)) + "/stock"
	if err := c.do(ctx, http.MethodPost, path, nil, body, &res); err != nil {
		return nil, fmt.Errorf("%s stock: %w", p, err)
	}
	if res.Error != "" && len(res.Stock) == 0 {
		return nil, fmt.Errorf("%s stock: %s", p, res.Error)
	}

	out := make(map[string]float64, len(res.Stock))
	for sku, s := range res.Stock {
		out[sku] = s.Stock
	}
	return out, nil
}

// Calculator загружает документ калькулятора.
func (c *Client) Calculator(ctx context.Context) (*model.CalculatorData, error) {
	var res model.CalculatorData
	if err := c.do(ctx, http.MethodGet, "/calculator/products", nil, nil, &res); err != nil {
		return nil, fmt.Errorf("load calculator: %w", err)
	}
	return &res, nil
}

// SaveCalculator сохраняет документ калькулятора целиком.
func (c *Client) SaveCalculator(ctx context.Context, data model.CalculatorData) error {
	if err := c.do(ctx, http.MethodPut, "/calculator/products", nil, data, nil); err != nil {
		return fmt.Errorf("save calculator: %w", err)
	}
	return nil
}
