package config

import (
	"log/slog"
	"time"
)

type LogLeveler string

func (l LogLeveler) Level() slog.Level {
	var level slog.Level

	_ = level.UnmarshalText([]byte(l))

	return level
}

// Transport selects which protocol front end the process runs.
type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportHTTP  Transport = "http"
)

// Config holds the server configuration.
type Config struct {
	LogLevel  LogLeveler `mapstructure:"LOG_LEVEL"`
	Transport Transport  `mapstructure:"MCP_TRANSPORT"`
	HTTP      HTTP       `mapstructure:",squash"`
	Navifare  Navifare   `mapstructure:",squash"`
	Polling   Polling    `mapstructure:",squash"`
	Gemini    Gemini     `mapstructure:",squash"`
	Redis     Redis      `mapstructure:",squash"`
	Offers    Offers     `mapstructure:",squash"`
	RateLimit RateLimit  `mapstructure:",squash"`
}

type HTTP struct {
	Port    int           `mapstructure:"HTTP_PORT"`
	Timeout time.Duration `mapstructure:"HTTP_TIMEOUT"`
}

// Navifare holds the price-discovery backend configuration.
type Navifare struct {
	BaseURL string        `mapstructure:"NAVIFARE_BASE_URL"`
	Timeout time.Duration `mapstructure:"NAVIFARE_TIMEOUT"`
}

// Polling budgets are transport-specific: the stdio framework side imposes a
// hard 60s ceiling on a request, so its budget stays below that. The HTTP
// transport has no such ceiling and can afford a longer window.
type Polling struct {
	Interval    time.Duration `mapstructure:"POLL_INTERVAL"`
	BudgetStdio time.Duration `mapstructure:"POLL_BUDGET_STDIO"`
	BudgetHTTP  time.Duration `mapstructure:"POLL_BUDGET_HTTP"`
}

type Gemini struct {
	APIKey  string        `mapstructure:"GEMINI_API_KEY"`
	Model   string        `mapstructure:"GEMINI_MODEL"`
	Timeout time.Duration `mapstructure:"GEMINI_TIMEOUT"`
}

type Redis struct {
	Addr     string `mapstructure:"REDIS_ADDR"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

// Offers configures the per-session offer snapshot store.
type Offers struct {
	CacheTTL time.Duration `mapstructure:"OFFER_CACHE_TTL"`
}

type RateLimit struct {
	HTTPRPS  int `mapstructure:"MCP_RATE_LIMIT_RPS"`
	StdioRPS int `mapstructure:"STDIO_RATE_LIMIT_RPS"`
}

// Budget returns the polling budget for the transport this process runs.
func (c Config) Budget() time.Duration {
	if c.Transport == TransportHTTP {
		return c.Polling.BudgetHTTP
	}

	return c.Polling.BudgetStdio
}
