package config

import (
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
// Secret Precedence Order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (WHITECARROT_SERVER_APIKEYS, etc.)
// 4. Default values - Lowest priority
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Store         StoreConfig         `mapstructure:"store"`
	Screening     ScreeningConfig     `mapstructure:"screening"`
	Proctoring    ProctoringConfig    `mapstructure:"proctoring"`
	Upload        UploadConfig        `mapstructure:"upload"`
	Notify        NotifyConfig        `mapstructure:"notify"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	// TLS Configuration
	TLS TLSConfig `mapstructure:"tls"`

	// API Authentication
	APIKeys []string `mapstructure:"apiKeys"` // Valid API keys for authentication

	// Origins allowed for browser clients; "*" allows any
	AllowedOrigins []string `mapstructure:"allowedOrigins"`

	// Rate Limiting Configuration
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds the certificate pair used when serving HTTPS
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"certFile"` // Server certificate file (PEM)
	KeyFile  string `mapstructure:"keyFile"`  // Server private key file (PEM)
	// Watch reloads the pair when either file changes on disk
	Watch bool `mapstructure:"watch"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`        // Enable/disable rate limiting
	RequestsPerMin int           `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstCapacity  int           `mapstructure:"burstCapacity"`  // Burst capacity for token bucket
	ByIP           bool          `mapstructure:"byIP"`           // Enable per-IP rate limiting
	ByAPIKey       bool          `mapstructure:"byAPIKey"`       // Enable per-API-key rate limiting
	Window         time.Duration `mapstructure:"window"`         // Rate limiting window duration
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxRequestSize   int64    `mapstructure:"maxRequestSize"` // Limit for JSON request bodies
}

// StoreConfig selects where the ATS document lives
type StoreConfig struct {
	Backend          string               `mapstructure:"backend"` // memory, file, redis, postgres, sqlite
	Key              string               `mapstructure:"key"`     // Document key inside the backend
	SeedOnEmpty      bool                 `mapstructure:"seedOnEmpty"`
	SimulatedLatency time.Duration        `mapstructure:"simulatedLatency"`
	File             FileStoreConfig      `mapstructure:"file"`
	Redis            RedisStoreConfig     `mapstructure:"redis"`
	Postgres         PostgresStoreConfig  `mapstructure:"postgres"`
	SQLite           SQLiteStoreConfig    `mapstructure:"sqlite"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// FileStoreConfig configures the JSON file backend
type FileStoreConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"` // Reload when the file is edited externally
}

// RedisStoreConfig configures the Redis backend
type RedisStoreConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PostgresStoreConfig configures the PostgreSQL backend
type PostgresStoreConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"maxConns"`
}

// SQLiteStoreConfig configures the SQLite backend
type SQLiteStoreConfig struct {
	Path  string `mapstructure:"path"`
	Table string `mapstructure:"table"`
}

// ScreeningConfig holds the thresholds of the automatic screening
type ScreeningConfig struct {
	RejectBelow       float64 `mapstructure:"rejectBelow"`       // Auto-reject when the match is below this percentage
	FastTrackAbove    float64 `mapstructure:"fastTrackAbove"`    // Fast-track when the match is above this percentage
	InterviewPassRate float64 `mapstructure:"interviewPassRate"` // Probability that a simulated interview passes
	OfferLetterURL    string  `mapstructure:"offerLetterURL"`
}

// ProctoringConfig holds the consecutive-frame thresholds of the proctoring heuristic
type ProctoringConfig struct {
	NoFaceFrames        int           `mapstructure:"noFaceFrames"`
	MultipleFacesFrames int           `mapstructure:"multipleFacesFrames"`
	LookingAwayFrames   int           `mapstructure:"lookingAwayFrames"`
	SpeakingFrames      int           `mapstructure:"speakingFrames"`
	CriticalLimit       int           `mapstructure:"criticalLimit"` // Critical alerts that terminate a session
	SessionTTL          time.Duration `mapstructure:"sessionTTL"`
	CleanupInterval     time.Duration `mapstructure:"cleanupInterval"`
}

// UploadConfig holds the upload endpoint limits
type UploadConfig struct {
	Dir              string   `mapstructure:"dir"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
	AllowedTypes     []string `mapstructure:"allowedTypes"`
	InspectDocuments bool     `mapstructure:"inspectDocuments"` // Open PDF/DOCX bodies before accepting them
}

// NotifyConfig selects how candidate emails are delivered
type NotifyConfig struct {
	Transport      string               `mapstructure:"transport"` // log or amqp
	Sender         string               `mapstructure:"sender"`
	AMQP           AMQPConfig           `mapstructure:"amqp"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// AMQPConfig holds the broker settings for the amqp transport
type AMQPConfig struct {
	URL        string `mapstructure:"url"`
	Exchange   string `mapstructure:"exchange"`
	RoutingKey string `mapstructure:"routingKey"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Tracing         TracingConfig       `mapstructure:"tracing"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Console         ConsoleConfig       `mapstructure:"console"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// CustomMetricsConfig holds fine-grained custom metrics configuration
type CustomMetricsConfig struct {
	BusinessMetrics BusinessMetricsConfig       `mapstructure:"businessMetrics"`
	Infrastructure  InfrastructureMetricsConfig `mapstructure:"infrastructure"`
}

// BusinessMetricsConfig holds business metrics configuration
type BusinessMetricsConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	TrackScreening   bool `mapstructure:"trackScreening"`
	TrackProctoring  bool `mapstructure:"trackProctoring"`
	TrackUploadSizes bool `mapstructure:"trackUploadSizes"`
}

// InfrastructureMetricsConfig holds infrastructure metrics configuration
type InfrastructureMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackRateLimits bool `mapstructure:"trackRateLimits"`
	TrackStore      bool `mapstructure:"trackStore"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from environment variables and a config file
func LoadConfig() (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := viper.New()

	// Set default values
	setDefaults(v)
	log.Println("[CONFIG] Applied default configuration values")

	// Set up environment variable handling
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	log.Printf("[CONFIG] Configured environment variable handling with prefix '%s'", EnvPrefix)

	// Set up config file handling
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/whitecarrot/")
	v.AddConfigPath("$HOME/.whitecarrot")
	v.AddConfigPath(".")
	log.Println("[CONFIG] Configured config file search paths: /etc/whitecarrot/, $HOME/.whitecarrot, .")

	return load(v)
}

// LoadConfigFile loads configuration from an explicit file path
func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	// Read the config file
	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	// Unmarshal the configuration into the Config struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	log.Println("[CONFIG] Successfully unmarshaled configuration")

	config.applyFallbacks()
	log.Println("[CONFIG] Applied configuration fallbacks and environment variable overrides")

	config.logConfigurationSources(configFileUsed)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Default returns the configuration produced by the defaults alone
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	// Defaults always decode; a failure here is a programming error.
	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	config.applyObservabilityDefaults()
	return &config
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if !slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat) {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if c.Server.TLS.Enabled && (c.Server.TLS.CertFile == "" || c.Server.TLS.KeyFile == "") {
		return fmt.Errorf("TLS certificate and key files are required when TLS is enabled")
	}

	if err := c.validateStore(); err != nil {
		return fmt.Errorf("store configuration error: %w", err)
	}

	if err := c.validateScreening(); err != nil {
		return fmt.Errorf("screening configuration error: %w", err)
	}

	if c.Proctoring.CriticalLimit < 1 {
		return fmt.Errorf("proctoring criticalLimit must be at least 1")
	}

	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("upload maxFileSize must be positive")
	}

	switch c.Notify.Transport {
	case "log":
	case "amqp":
		if c.Notify.AMQP.URL == "" {
			return fmt.Errorf("notify.amqp.url is required for the amqp transport")
		}
	default:
		return fmt.Errorf("invalid notify transport: %s (must be 'log' or 'amqp')", c.Notify.Transport)
	}

	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case "memory":
	case "file":
		if c.Store.File.Path == "" {
			return fmt.Errorf("store.file.path is required for the file backend")
		}
	case "redis":
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required for the redis backend")
		}
	case "postgres":
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("store.postgres.dsn is required for the postgres backend")
		}
	case "sqlite":
		if c.Store.SQLite.Path == "" {
			return fmt.Errorf("store.sqlite.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("invalid backend: %s (must be one of memory, file, redis, postgres, sqlite)", c.Store.Backend)
	}

	if c.Store.Key == "" {
		return fmt.Errorf("store.key is required")
	}
	return nil
}

func (c *Config) validateScreening() error {
	for name, value := range map[string]float64{
		"rejectBelow":    c.Screening.RejectBelow,
		"fastTrackAbove": c.Screening.FastTrackAbove,
	} {
		if value < 0 || value > 100 {
			return fmt.Errorf("%s must be between 0 and 100, got %v", name, value)
		}
	}
	if c.Screening.InterviewPassRate < 0 || c.Screening.InterviewPassRate > 1 {
		return fmt.Errorf("interviewPassRate must be between 0 and 1, got %v", c.Screening.InterviewPassRate)
	}
	return nil
}
