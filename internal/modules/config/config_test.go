package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Broker: Broker{AccountName: "main"},
		Executor: Executor{
			MinMoneyCoefficient: 2,
			MaxVerifyAttempts:   10,
			VerifyDelay:         500 * time.Millisecond,
			BlackoutWindows:     []string{"22:36-22:39"},
		},
		MarginMonitor: MarginMonitor{StepPercent: 5, StatsHour: 19},
		Journal:       Journal{Driver: "none"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "zero coefficient", mutate: func(c *Config) { c.Executor.MinMoneyCoefficient = 0 }, wantErr: true},
		{name: "no attempts", mutate: func(c *Config) { c.Executor.MaxVerifyAttempts = 0 }, wantErr: true},
		{name: "negative delay", mutate: func(c *Config) { c.Executor.VerifyDelay = -time.Second }, wantErr: true},
		{name: "bad window", mutate: func(c *Config) { c.Executor.BlackoutWindows = []string{"22:36"} }, wantErr: true},
		{name: "bad window clock", mutate: func(c *Config) { c.Executor.BlackoutWindows = []string{"25:00-26:00"} }, wantErr: true},
		{name: "stats hour", mutate: func(c *Config) { c.MarginMonitor.StatsHour = 24 }, wantErr: true},
		{name: "step", mutate: func(c *Config) { c.MarginMonitor.StepPercent = 0 }, wantErr: true},
		{name: "journal driver", mutate: func(c *Config) { c.Journal.Driver = "mysql" }, wantErr: true},
		{name: "account", mutate: func(c *Config) { c.Broker.AccountName = "" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// Validate принимает ровно те окна, что потом разберёт runner.
func TestValidateBlackoutWindows(t *testing.T) {
	c := validConfig()
	c.Executor.BlackoutWindows = []string{"23:50-00:10", " 10:00-10:05 "}
	require.NoError(t, c.Validate())

	c.Executor.BlackoutWindows = []string{"10:00-10:05", "10:00-1O:05"}
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `blackout window "10:00-1O:05"`)
}

func TestNewConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "values.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
broker:
  account_name: "Main"
executor:
  max_verify_attempts: 3
  blackout_windows: ["10:00-10:05", "23:50-00:10"]
`), 0o644))

	t.Setenv(configFilePathENV, path)
	t.Setenv("TINKOFF_TOKEN", "t.secret")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("WEBHOOK_BOT_EXECUTOR_MIN_MONEY_COEFFICIENT", "3")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "Main", cfg.Broker.AccountName)
	assert.Equal(t, 3, cfg.Executor.MaxVerifyAttempts)
	assert.Equal(t, 3.0, cfg.Executor.MinMoneyCoefficient)
	assert.Equal(t, []string{"10:00-10:05", "23:50-00:10"}, cfg.Executor.BlackoutWindows)
	assert.Equal(t, 500*time.Millisecond, cfg.Executor.VerifyDelay)
	assert.Equal(t, 60*time.Second, cfg.Catalog.RefreshInterval)
	assert.Equal(t, "rub", cfg.Broker.Currency)
	assert.Len(t, cfg.Service.IPWhitelist, 4)
	assert.Equal(t, "t.secret", cfg.Secrets.TinkoffToken)
	assert.Equal(t, int64(42), cfg.Secrets.TelegramChatID)
}

func TestNewConfig_MissingToken(t *testing.T) {
	t.Setenv(configFilePathENV, filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("TINKOFF_TOKEN", "placeholder")
	require.NoError(t, os.Unsetenv("TINKOFF_TOKEN"))
	t.Setenv("WEBHOOK_BOT_BROKER_ACCOUNT_NAME", "Main")

	_, err := NewConfig()
	assert.Error(t, err)
}
