// Package model содержит доменные сущности панели управления продавца.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Platform идентифицирует маркетплейс или внешний сервис, к которому привязаны учётные данные.
type Platform int

const (
	PlatformEmag     Platform = 1
	PlatformTrendyol Platform = 2
	PlatformOblio    Platform = 3
	PlatformEtsy     Platform = 4
)

// Valid сообщает, известна ли платформа.
func (p Platform) Valid() bool {
	return p >= PlatformEmag && p <= PlatformEtsy
}

// PlatformInfo описывает платформу так, как её возвращает бэкенд.
type PlatformInfo struct {
	ID          Platform `json:"id"`
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	IsActive    bool     `json:"is_active"`
}

// Credential описывает учётные данные продавца на одной из платформ.
type Credential struct {
	ID           int64    `json:"id"`
	UserID       int64    `json:"user_id,omitempty"`
	AccountLabel string   `json:"account_label"`
	Platform     Platform `json:"platform"`
	VendorCode   string   `json:"vendor_code"`
	ClientID     string   `json:"client_id,omitempty"`
	ClientSecret string   `json:"client_secret,omitempty"`
	LastSync     *string  `json:"last_sync,omitempty"`
}

// CredentialInput содержит данные формы создания или изменения учётных данных.
type CredentialInput struct {
	AccountLabel string   `json:"account_label"`
	PlatformID   Platform `json:"platform_id"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	VendorCode   string   `json:"vendor_code"`
}

// Order описывает заказ маркетплейса. Поля Marketplace и CredentialID вычисляются локально.
type Order struct {
	ID              string      `json:"id,omitempty"`
	PlatformOrderID string      `json:"platform_order_id"`
	Status          string      `json:"status"`
	OrderType       int         `json:"order_type,omitempty"`
	VendorCode      string      `json:"vendor_code"`
	CreatedAt       Timestamp   `json:"created_at"`
	Items           []OrderItem `json:"items"`
	CredentialID    int64       `json:"credential_id"`
	Marketplace     string      `json:"marketplace,omitempty"`
}

// OrderItem описывает одну позицию заказа.
type OrderItem struct {
	SKU      string  `json:"sku"`
	Name     string  `json:"name,omitempty"`
	Qty      int     `json:"qty"`
	Quantity int     `json:"quantity,omitempty"`
	Price    float64 `json:"price,omitempty"`
}

// Units возвращает количество единиц в позиции: qty, а при его отсутствии quantity.
func (i OrderItem) Units() int {
	if i.Qty != 0 {
		return i.Qty
	}
	return i.Quantity
}

// SKUSummary содержит количество единиц артикула, которое нужно подготовить.
type SKUSummary struct {
	SKU      string `json:"sku"`
	Emag     int    `json:"emag"`
	Trendyol int    `json:"trendyol"`
	Total    int    `json:"total"`
}

// Session связывает сессию панели с токеном бэкенда и пользователем.
type Session struct {
	ID        uuid.UUID
	UserID    int64
	Name      string
	Token     string
	CreatedAt time.Time
}

// RefreshResult описывает ответ бэкенда на обновление заказов по одним учётным данным.
type RefreshResult struct {
	OrdersFetched int    `json:"orders_fetched"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
}
