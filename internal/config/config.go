package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "SUCATA"

// Source kinds understood by the source factory.
const (
	SourceSheets = "sheets"
	SourceXLSX   = "xlsx"
	SourceCSV    = "csv"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Columns   ColumnsConfig   `yaml:"columns" envconfig:"COLUMNS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// SourceConfig describes where the cutting sheet is read from and how its
// cells are laid out.
type SourceConfig struct {
	Kind string `yaml:"kind" envconfig:"KIND"`

	// Google Sheets
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	CredentialsJSON string `yaml:"-" envconfig:"CREDENTIALS_JSON"`
	APIKey          string `yaml:"-" envconfig:"API_KEY"`
	Endpoint        string `yaml:"endpoint" envconfig:"ENDPOINT"`

	// Local files
	FilePath     string `yaml:"file_path" envconfig:"FILE_PATH"`
	CSVDelimiter string `yaml:"csv_delimiter" envconfig:"CSV_DELIMITER"`
	Encoding     string `yaml:"encoding" envconfig:"ENCODING"`

	// Sheet selection. SheetName wins over SheetIndex when both are set.
	SheetName  string `yaml:"sheet_name" envconfig:"SHEET_NAME"`
	SheetIndex int    `yaml:"sheet_index" envconfig:"SHEET_INDEX"`

	// Layout, zero-based.
	HeaderRow    int `yaml:"header_row" envconfig:"HEADER_ROW"`
	DataStartRow int `yaml:"data_start_row" envconfig:"DATA_START_ROW"`

	DateLayout         string `yaml:"date_layout" envconfig:"DATE_LAYOUT"`
	DecimalSeparator   string `yaml:"decimal_separator" envconfig:"DECIMAL_SEPARATOR"`
	ThousandsSeparator string `yaml:"thousands_separator" envconfig:"THOUSANDS_SEPARATOR"`

	CacheTTL     time.Duration `yaml:"cache_ttl" envconfig:"CACHE_TTL"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT"`
}

// ColumnsConfig names the header of each column the dashboard reads.
type ColumnsConfig struct {
	Date      string `yaml:"date" envconfig:"DATE"`
	PlateCode string `yaml:"plate_code" envconfig:"PLATE_CODE"`
	Scrap     string `yaml:"scrap" envconfig:"SCRAP"`
	Weight    string `yaml:"weight" envconfig:"WEIGHT"`
	Yield     string `yaml:"yield" envconfig:"YIELD"`
}

// TelemetryConfig controls OpenTelemetry exporters.
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// Load builds the configuration from defaults, the first config file found
// and SUCATA_* environment variables, in increasing order of precedence.
func Load(overrides ...func(*Config)) (*Config, error) {
	return LoadFrom(getConfigFilePath(), overrides...)
}

// LoadFrom is Load with an explicit config file. An empty path skips the file.
// Overrides run after the environment is applied and before validation.
func LoadFrom(configFile string, overrides ...func(*Config)) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, override := range overrides {
		override(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv copies KEY=value pairs from the given files, ".env" by default,
// into the process environment so that Load sees them. Variables already set
// win over the file. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// loadFromFile overlays a YAML file on cfg. Keys absent from the file keep
// their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return c.Source.validate()
}

func (s *SourceConfig) validate() error {
	s.Kind = strings.ToLower(strings.TrimSpace(s.Kind))
	switch s.Kind {
	case SourceSheets:
		if s.SpreadsheetID == "" {
			return fmt.Errorf("source.spreadsheet_id is required for the sheets source")
		}
	case SourceXLSX, SourceCSV:
		if s.FilePath == "" {
			return fmt.Errorf("source.file_path is required for the %s source", s.Kind)
		}
	default:
		return fmt.Errorf("unsupported source kind: %q", s.Kind)
	}

	if s.HeaderRow < 0 {
		return fmt.Errorf("source.header_row must not be negative")
	}
	if s.DataStartRow <= s.HeaderRow {
		return fmt.Errorf("source.data_start_row (%d) must be after header_row (%d)", s.DataStartRow, s.HeaderRow)
	}
	if s.SheetIndex < 0 {
		return fmt.Errorf("source.sheet_index must not be negative")
	}
	if s.DecimalSeparator == "" {
		return fmt.Errorf("source.decimal_separator must not be empty")
	}
	if s.DecimalSeparator == s.ThousandsSeparator {
		return fmt.Errorf("decimal and thousands separators must differ")
	}
	if s.CacheTTL < 0 {
		return fmt.Errorf("source.cache_ttl must not be negative")
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}

	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Source: SourceConfig{
			Kind:               SourceSheets,
			CredentialsFile:    "credentials.json",
			CSVDelimiter:       ";",
			Encoding:           "utf-8",
			SheetIndex:         4,
			HeaderRow:          4,
			DataStartRow:       5,
			DateLayout:         "2/1/2006",
			DecimalSeparator:   ",",
			ThousandsSeparator: ".",
			CacheTTL:           30 * time.Second,
			FetchTimeout:       20 * time.Second,
		},
		Columns: ColumnsConfig{
			Date:      "Data",
			PlateCode: "Código Chapa",
			Scrap:     "Sucata",
			Weight:    "Peso",
			Yield:     "Aprov.",
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
