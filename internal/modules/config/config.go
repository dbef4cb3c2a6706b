package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	"webhook_bot/internal/runner/blackout"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

const (
	configFilePathENV = "CONFIG_FILE"
	envPrefix         = "WEBHOOK_BOT"
)

// Secrets только из окружения (.env подхватывается, если есть).
type Secrets struct {
	TinkoffToken   string `envconfig:"TINKOFF_TOKEN" required:"true"`
	TelegramToken  string `envconfig:"TELEGRAM_TOKEN"`
	TelegramChatID int64  `envconfig:"TELEGRAM_CHAT_ID"`
	JournalDSN     string `envconfig:"JOURNAL_DSN"`
}

type Service struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	CertPath    string   `mapstructure:"cert_path"`
	KeyPath     string   `mapstructure:"key_path"`
	IPWhitelist []string `mapstructure:"ip_whitelist"`
	OpenHealth  bool     `mapstructure:"open_health"`
}

type Broker struct {
	BaseURL      string        `mapstructure:"base_url"`
	AccountName  string        `mapstructure:"account_name"`
	Currency     string        `mapstructure:"currency"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RateLimitRPS float64       `mapstructure:"rate_limit_rps"`
	RateBurst    int           `mapstructure:"rate_burst"`
}

type Executor struct {
	QueueSize           int           `mapstructure:"queue_size"`
	MinMoneyCoefficient float64       `mapstructure:"min_money_coefficient"`
	MaxVerifyAttempts   int           `mapstructure:"max_verify_attempts"`
	VerifyDelay         time.Duration `mapstructure:"verify_delay"`
	BlackoutWindows     []string      `mapstructure:"blackout_windows"`
}

type Catalog struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

type MarginMonitor struct {
	Enabled      bool          `mapstructure:"enabled"`
	FeedURL      string        `mapstructure:"feed_url"`
	Interval     time.Duration `mapstructure:"interval"`
	StepPercent  float64       `mapstructure:"step_percent"`
	StatsHour    int           `mapstructure:"stats_hour"`
	BaselinePath string        `mapstructure:"baseline_path"`
	InlineLimit  int           `mapstructure:"inline_limit"`
}

type Tickers struct {
	Path string `mapstructure:"path"`
}

type Journal struct {
	Driver string `mapstructure:"driver"` // none | postgres | sqlite
	DSN    string `mapstructure:"dsn"`
}

type Tracing struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type Log struct {
	Level string `mapstructure:"level"`
}

// Config ...
type Config struct {
	Service       Service       `mapstructure:"service"`
	Broker        Broker        `mapstructure:"broker"`
	Executor      Executor      `mapstructure:"executor"`
	Catalog       Catalog       `mapstructure:"catalog"`
	MarginMonitor MarginMonitor `mapstructure:"margin_monitor"`
	Tickers       Tickers       `mapstructure:"tickers"`
	Journal       Journal       `mapstructure:"journal"`
	Tracing       Tracing       `mapstructure:"tracing"`
	Log           Log           `mapstructure:"log"`

	Secrets Secrets `mapstructure:"-"`
}

// TradingView шлёт вебхуки только с этих адресов.
var tradingViewIPs = []string{
	"52.89.214.238",
	"34.212.75.30",
	"54.218.53.128",
	"52.32.178.7",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.host", "0.0.0.0")
	v.SetDefault("service.port", 443)
	v.SetDefault("service.cert_path", "cert.pem")
	v.SetDefault("service.key_path", "key.pem")
	v.SetDefault("service.ip_whitelist", tradingViewIPs)
	v.SetDefault("service.open_health", false)

	v.SetDefault("broker.account_name", "")
	v.SetDefault("broker.base_url", "https://invest-public-api.tinkoff.ru/rest")
	v.SetDefault("broker.currency", "rub")
	v.SetDefault("broker.timeout", "10s")
	v.SetDefault("broker.rate_limit_rps", 5.0)
	v.SetDefault("broker.rate_burst", 10)

	v.SetDefault("executor.queue_size", 1024)
	v.SetDefault("executor.min_money_coefficient", 2.0)
	v.SetDefault("executor.max_verify_attempts", 10)
	v.SetDefault("executor.verify_delay", "500ms")
	v.SetDefault("executor.blackout_windows", []string{"22:36-22:39"})

	v.SetDefault("catalog.refresh_interval", "60s")

	v.SetDefault("margin_monitor.enabled", true)
	v.SetDefault("margin_monitor.feed_url", "https://iss.moex.com/iss/engines/futures/markets/forts/securities.xml")
	v.SetDefault("margin_monitor.interval", "60s")
	v.SetDefault("margin_monitor.step_percent", 5.0)
	v.SetDefault("margin_monitor.stats_hour", 19)
	v.SetDefault("margin_monitor.baseline_path", "margin_baseline.yaml")
	v.SetDefault("margin_monitor.inline_limit", 5)

	v.SetDefault("tickers.path", "tickers.txt")
	v.SetDefault("journal.driver", "none")
	v.SetDefault("journal.dsn", "")
	v.SetDefault("tracing.host", "")
	v.SetDefault("tracing.port", 6831)
	v.SetDefault("log.level", "info")
}

// NewConfig читает yaml (CONFIG_FILE или configs/values_local.yaml),
// ключи перекрываются env WEBHOOK_BOT_<SECTION>_<KEY>.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "configs/values_local.yaml"
	}
	v.SetConfigFile(configFileName)
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(configFileName); statErr == nil {
			return nil, fmt.Errorf("read config %s: %w", configFileName, err)
		}
		// файла нет — работаем на дефолтах и env
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Secrets); err != nil {
		return nil, fmt.Errorf("process env secrets: %w", err)
	}
	if cfg.Journal.DSN == "" {
		cfg.Journal.DSN = cfg.Secrets.JournalDSN
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate проверяет значения, которые нельзя молча исправить.
func (c *Config) Validate() error {
	if c.Executor.MinMoneyCoefficient <= 0 {
		return fmt.Errorf("executor.min_money_coefficient must be > 0")
	}
	if c.Executor.MaxVerifyAttempts < 1 {
		return fmt.Errorf("executor.max_verify_attempts must be >= 1")
	}
	if c.Executor.VerifyDelay < 0 {
		return fmt.Errorf("executor.verify_delay must be >= 0")
	}
	if _, err := blackout.ParseAll(c.Executor.BlackoutWindows); err != nil {
		return err
	}
	if c.MarginMonitor.StatsHour < 0 || c.MarginMonitor.StatsHour > 23 {
		return fmt.Errorf("margin_monitor.stats_hour must be in 0..23")
	}
	if c.MarginMonitor.StepPercent <= 0 {
		return fmt.Errorf("margin_monitor.step_percent must be > 0")
	}
	switch c.Journal.Driver {
	case "", "none", "postgres", "sqlite":
	default:
		return fmt.Errorf("journal.driver %q is unknown", c.Journal.Driver)
	}
	if (c.Journal.Driver == "postgres" || c.Journal.Driver == "sqlite") && c.Journal.DSN == "" {
		return fmt.Errorf("journal.dsn is required for driver %s", c.Journal.Driver)
	}
	if c.Broker.AccountName == "" {
		return fmt.Errorf("broker.account_name is required")
	}
	return nil
}
