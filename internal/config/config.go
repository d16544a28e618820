package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"ad-report-bot/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Data      DataConfig      `mapstructure:"data"`
	Report    ReportConfig    `mapstructure:"report"`
	Narrative NarrativeConfig `mapstructure:"narrative"`
	Slack     SlackConfig     `mapstructure:"slack"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DataConfig locates the ledger and the incoming batch.
type DataConfig struct {
	Dir        string `mapstructure:"dir"`
	LedgerFile string `mapstructure:"ledger_file"`
	BatchFile  string `mapstructure:"batch_file"`
}

// LedgerPath resolves the ledger CSV location.
func (d DataConfig) LedgerPath() string { return filepath.Join(d.Dir, d.LedgerFile) }

// BatchPath resolves the incoming batch CSV location.
func (d DataConfig) BatchPath() string { return filepath.Join(d.Dir, d.BatchFile) }

// ReportConfig governs report shape and weekly gating.
type ReportConfig struct {
	DailyTopN      int    `mapstructure:"daily_top_n"`
	WeeklyTopN     int    `mapstructure:"weekly_top_n"`
	WeekEndWeekday string `mapstructure:"week_end_weekday"`
}

// WeekEnd parses the configured week-end weekday.
func (r ReportConfig) WeekEnd() (time.Weekday, error) {
	return parseWeekday(r.WeekEndWeekday)
}

// NarrativeConfig covers the commentary model endpoint.
type NarrativeConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// SlackConfig captures the message sink webhook.
type SlackConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig encapsulates the optional PostgreSQL run archive.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// WatchConfig governs the polling cadence of watch mode.
type WatchConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	AlignToBucket bool          `mapstructure:"align_to_bucket"`
	StartupDelay  time.Duration `mapstructure:"startup_delay"`
	NotifyMissing bool          `mapstructure:"notify_missing"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ADREPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ad-report-bot")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("data.dir", "data")
	v.SetDefault("data.ledger_file", "history.csv")
	v.SetDefault("data.batch_file", "today.csv")

	v.SetDefault("report.daily_top_n", 10)
	v.SetDefault("report.weekly_top_n", 5)
	v.SetDefault("report.week_end_weekday", "sunday")

	v.SetDefault("narrative.base_url", "https://router.huggingface.co/v1")
	v.SetDefault("narrative.model", "moonshotai/Kimi-K2-Instruct-0905")
	v.SetDefault("narrative.temperature", 0.3)
	v.SetDefault("narrative.timeout", "60s")

	v.SetDefault("slack.timeout", "10s")

	v.SetDefault("watch.interval", "1h")
	v.SetDefault("watch.align_to_bucket", true)
	v.SetDefault("watch.startup_delay", "0s")
	v.SetDefault("watch.notify_missing", false)

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Data.LedgerFile == "" {
		return fmt.Errorf("data.ledger_file must be set")
	}
	if c.Data.BatchFile == "" {
		return fmt.Errorf("data.batch_file must be set")
	}
	if c.Report.DailyTopN <= 0 {
		return fmt.Errorf("report.daily_top_n must be greater than zero")
	}
	if c.Report.WeeklyTopN <= 0 {
		return fmt.Errorf("report.weekly_top_n must be greater than zero")
	}
	if _, err := c.Report.WeekEnd(); err != nil {
		return err
	}
	if c.Narrative.Timeout <= 0 {
		return fmt.Errorf("narrative.timeout must be greater than zero")
	}
	if c.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}

func parseWeekday(v string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	}
	return time.Sunday, fmt.Errorf("report.week_end_weekday %q is not a weekday name", v)
}
