package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Keys understood by Load. Each one is read from the environment under its
// upper-case name, from the config file under the lower-case name, and from
// a command-line flag of the same name with dashes instead of underscores.
const (
	KeyPort                     = "port"
	KeyDataBackend              = "data_backend"
	KeyDataFile                 = "data_file"
	KeySQLiteDBPath             = "sqlite_db_path"
	KeyPostgresDSN              = "postgres_dsn"
	KeyAMQPURL                  = "amqp_url"
	KeyAMQPExchange             = "amqp_exchange"
	KeyAMQPQueue                = "amqp_queue"
	KeyMirrorBackend            = "mirror_backend"
	KeyGoogleSpreadsheetID      = "google_spreadsheet_id"
	KeyGoogleSheetName          = "google_sheet_name"
	KeyGoogleServiceAccountFile = "google_service_account_file"
	KeyGoogleServiceAccountJSON = "google_service_account_json"
	KeyCurrencySymbol           = "currency_symbol"
	KeyLogLevel                 = "log_level"
	KeyLogFormat                = "log_format"
	KeyRateLimitPerMinute       = "rate_limit_per_minute"
	KeyHeartbeatInterval        = "heartbeat_interval"
)

// ConfigFileEnv names the variable pointing at an optional config file.
const ConfigFileEnv = "FINTRACK_CONFIG"

var (
	DataBackends   = []string{"csv", "memory", "sqlite", "postgres"}
	MirrorBackends = []string{"sqlite", "postgres", "sheets"}
)

type Config struct {
	// HTTP Server
	Port string

	// Record table
	DataBackend  string
	DataFile     string
	SQLiteDBPath string
	PostgresDSN  string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Mirror worker
	MirrorBackend     string
	HeartbeatInterval time.Duration

	// Google Sheets mirror
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Presentation
	CurrencySymbol string

	// Logging
	LogLevel  string
	LogFormat string

	RateLimitPerMinute int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyPort, "8501")
	v.SetDefault(KeyDataBackend, "csv")
	v.SetDefault(KeyDataFile, "my_finance_data.csv")
	v.SetDefault(KeySQLiteDBPath, "./data/fintrack.db")
	v.SetDefault(KeyPostgresDSN, "")
	v.SetDefault(KeyAMQPURL, "")
	v.SetDefault(KeyAMQPExchange, "fintrack")
	v.SetDefault(KeyAMQPQueue, "mirror_records")
	v.SetDefault(KeyMirrorBackend, "sqlite")
	v.SetDefault(KeyHeartbeatInterval, time.Minute)
	v.SetDefault(KeyGoogleSpreadsheetID, "")
	v.SetDefault(KeyGoogleSheetName, "Records")
	v.SetDefault(KeyGoogleServiceAccountFile, "")
	v.SetDefault(KeyGoogleServiceAccountJSON, "")
	v.SetDefault(KeyCurrencySymbol, core.DefaultCurrencySymbol)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, log.FormatText)
	v.SetDefault(KeyRateLimitPerMinute, 60)
}

// Load resolves the configuration from defaults, the optional config file
// named by FINTRACK_CONFIG (or the --config flag), the environment and
// flags, in increasing order of precedence. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	configFile := os.Getenv(ConfigFileEnv)
	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
			configFile = f.Value.String()
		}
		bindFlags(v, flags)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	return &Config{
		Port:                     v.GetString(KeyPort),
		DataBackend:              strings.ToLower(v.GetString(KeyDataBackend)),
		DataFile:                 v.GetString(KeyDataFile),
		SQLiteDBPath:             v.GetString(KeySQLiteDBPath),
		PostgresDSN:              v.GetString(KeyPostgresDSN),
		AMQPURL:                  v.GetString(KeyAMQPURL),
		AMQPExchange:             v.GetString(KeyAMQPExchange),
		AMQPQueue:                v.GetString(KeyAMQPQueue),
		MirrorBackend:            strings.ToLower(v.GetString(KeyMirrorBackend)),
		HeartbeatInterval:        v.GetDuration(KeyHeartbeatInterval),
		GoogleSpreadsheetID:      v.GetString(KeyGoogleSpreadsheetID),
		GoogleSheetName:          v.GetString(KeyGoogleSheetName),
		GoogleServiceAccountFile: v.GetString(KeyGoogleServiceAccountFile),
		GoogleServiceAccountJSON: v.GetString(KeyGoogleServiceAccountJSON),
		CurrencySymbol:           v.GetString(KeyCurrencySymbol),
		LogLevel:                 v.GetString(KeyLogLevel),
		LogFormat:                strings.ToLower(v.GetString(KeyLogFormat)),
		RateLimitPerMinute:       v.GetInt(KeyRateLimitPerMinute),
	}, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if key == "config" {
			return
		}
		_ = v.BindPFlag(key, f)
	})
}

// Validate validates the configuration and returns an error listing every problem
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !oneOf(c.DataBackend, DataBackends) {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, DataBackends))
	}
	switch c.DataBackend {
	case "csv":
		if c.DataFile == "" {
			errs = append(errs, "data file cannot be empty when using csv backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			errs = append(errs, "POSTGRES_DSN is required when using postgres backend")
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.LogLevel != "" {
		if _, err := log.ParseLevel(c.LogLevel); err != nil {
			errs = append(errs, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
		}
	}
	if c.LogFormat != "" && c.LogFormat != log.FormatText && c.LogFormat != log.FormatJSON {
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if c.RateLimitPerMinute < 0 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitPerMinute))
	} else if c.RateLimitPerMinute > 10000 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be at most 10000", c.RateLimitPerMinute))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// ValidateWorker checks the settings the mirror worker needs on top of Validate.
func (c *Config) ValidateWorker() error {
	var errs []string

	if c.AMQPURL == "" {
		errs = append(errs, "AMQP_URL is required to run the worker")
	}
	if !oneOf(c.MirrorBackend, MirrorBackends) {
		errs = append(errs, fmt.Sprintf("invalid mirror backend '%s': must be one of %v", c.MirrorBackend, MirrorBackends))
	}
	if c.HeartbeatInterval < time.Second {
		errs = append(errs, fmt.Sprintf("invalid heartbeat interval %v: must be at least 1 second", c.HeartbeatInterval))
	}

	switch c.MirrorBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite mirror")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			errs = append(errs, "POSTGRES_DSN is required when using postgres mirror")
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errs = append(errs, "Google Spreadsheet ID is required when using sheets mirror")
		}
		if c.GoogleSheetName == "" {
			errs = append(errs, "Google Sheet name is required when using sheets mirror")
		}
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasFile && c.GoogleServiceAccountJSON == "" {
			errs = append(errs, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets mirror")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("worker configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
