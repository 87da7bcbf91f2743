package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	Database    Database

	Google Google `envPrefix:"GOOGLE_"`
	TikTok TikTok `envPrefix:"TIKTOK_"`
	Order  Order  `envPrefix:"ORDER_"`
}

// Google holds the service account and the destination sheet.
type Google struct {
	ServiceAccountEmail string `env:"SERVICE_ACCOUNT_EMAIL,notEmpty"`
	PrivateKey          string `env:"PRIVATE_KEY,notEmpty"`
	SpreadsheetID       string `env:"SPREADSHEET_ID,notEmpty"`
	SheetName           string `env:"SHEET_NAME" envDefault:"Sheet1"`
	SheetColumnCount    int    `env:"SHEET_COLUMN_COUNT" envDefault:"18"`
	TokenURL            string `env:"TOKEN_URL" envDefault:"https://oauth2.googleapis.com/token"`
	Scope               string `env:"SCOPE" envDefault:"https://www.googleapis.com/auth/spreadsheets"`
	SheetsBaseURL       string `env:"SHEETS_BASE_URL" envDefault:"https://sheets.googleapis.com/v4"`
}

// TikTok is optional. Forwarding is skipped unless both AccessToken and PixelID are set.
type TikTok struct {
	AccessToken string `env:"ACCESS_TOKEN"`
	PixelID     string `env:"PIXEL_ID"`
	EventURL    string `env:"EVENT_URL" envDefault:"https://business-api.tiktok.com/open_api/v1.3/event/track/"`
	HashPhone   bool   `env:"HASH_PHONE" envDefault:"false"`
}

func (t TikTok) Enabled() bool {
	return t.AccessToken != "" && t.PixelID != ""
}

type Order struct {
	Timezone       string  `env:"TIMEZONE" envDefault:"Africa/Cairo"`
	DateLayout     string  `env:"DATE_LAYOUT" envDefault:"2/1/2006, 3:04:05 PM"`
	ProductName    string  `env:"PRODUCT_NAME" envDefault:"نظارة Steampunk الأصلية"`
	ProductID      string  `env:"PRODUCT_ID" envDefault:"steampunk-sunglasses"`
	Status         string  `env:"STATUS" envDefault:"جديد"`
	Source         string  `env:"SOURCE" envDefault:"Landing Page"`
	Currency       string  `env:"CURRENCY" envDefault:"EGP"`
	FallbackAmount float64 `env:"FALLBACK_AMOUNT" envDefault:"1199"`
}

type Database struct {
	Driver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	URL    string `env:"DATABASE_URL"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host          string        `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port          string        `env:"HTTP_PORT" envDefault:"8080"`
	ClientTimeout time.Duration `env:"HTTP_CLIENT_TIMEOUT" envDefault:"30s"`
	RateLimit     float64       `env:"RATE_LIMIT" envDefault:"10"`
	RateBurst     int           `env:"RATE_BURST" envDefault:"20"`
}

// Load parses the process environment. Tests pass opts.Environment to avoid touching os env.
func Load(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Google.SheetColumnCount <= 0 {
		return nil, fmt.Errorf("GOOGLE_SHEET_COLUMN_COUNT must be positive, got %d", cfg.Google.SheetColumnCount)
	}
	if _, err := time.LoadLocation(cfg.Order.Timezone); err != nil {
		return nil, fmt.Errorf("load ORDER_TIMEZONE %q: %w", cfg.Order.Timezone, err)
	}
	return cfg, nil
}
