// Package config содержит логику чтения конфигурации панели продавца.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mmeshcher/marketdash/internal/model"
	"github.com/mmeshcher/marketdash/internal/pricing"
)

// Config содержит параметры конфигурации панели продавца.
type Config struct {
	RunAddress  string `env:"RUN_ADDRESS"`
	DatabaseURI string `env:"DATABASE_URI"`
	BackendURL  string `env:"BACKEND_URL"`
	AuthSecret  string `env:"AUTH_SECRET"`

	BackendRPS     float64       `env:"BACKEND_RPS" envDefault:"10"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"15s"`

	SaveDebounce        time.Duration `env:"SAVE_DEBOUNCE" envDefault:"1s"`
	AutoRefreshInterval time.Duration `env:"AUTO_REFRESH_INTERVAL" envDefault:"5m"`

	PricingUnitRate  string `env:"PRICING_UNIT_RATE"`
	PricingBestPrice string `env:"PRICING_BEST_PRICE"`
	PricingChannel   string `env:"PRICING_CHANNEL"`

	RateEUR float64 `env:"RATE_EUR"`
	RateHUF float64 `env:"RATE_HUF"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envBackendURL := cfg.BackendURL

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.BackendURL, "b", "", "backend REST API address")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envBackendURL != "" {
		cfg.BackendURL = envBackendURL
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	return cfg, nil
}

// Pricing возвращает правила расчёта цен и курсы валют. Незаданные курсы берутся по умолчанию.
func (c *Config) Pricing() (pricing.Rules, pricing.ExchangeRates, error) {
	rules, err := pricing.ParseRules(c.PricingUnitRate, c.PricingBestPrice, c.PricingChannel)
	if err != nil {
		return pricing.Rules{}, nil, fmt.Errorf("pricing rules: %w", err)
	}

	rates := pricing.DefaultRates()
	if c.RateEUR > 0 {
		rates[model.CurrencyEUR] = c.RateEUR
	}
	if c.RateHUF > 0 {
		rates[model.CurrencyHUF] = c.RateHUF
	}
	return rules, rates, nil
}
