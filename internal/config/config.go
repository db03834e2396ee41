package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server       ServerConfig
	Storage      StorageConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	NewRelic     NewRelicConfig
	Cache        CacheConfig
	Remote       RemoteConfig
	Reachability ReachabilityConfig
	Logging      LoggingConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Storage backends.
const (
	StorageMemory   = "memory"
	StorageLevelDB  = "leveldb"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// StorageConfig selects the durable store.
type StorageConfig struct {
	Backend     string
	LevelDBPath string
	KeyPrefix   string // Redis only
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns   int
	ConnectTimeout time.Duration
	AppName        string // reported as application_name
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	PoolSize    int
	DialTimeout time.Duration
	IOTimeout   time.Duration // read and write deadline per command
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// CacheConfig holds cache lifetimes.
type CacheConfig struct {
	VolatileTTL        time.Duration
	OfflineTTL         time.Duration
	SweepInterval      time.Duration // volatile janitor; 0 disables
	PruneInterval      time.Duration // offline cache janitor; 0 disables
	AllowStaleFallback bool
}

// Remote providers.
const (
	ProviderMock = "mock"
	ProviderHTTP = "http"
)

// RemoteConfig configures the live schedule source.
type RemoteConfig struct {
	Provider      string
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	MockLatency   time.Duration
	FailureRate   float64
	RatePerSecond float64
	Burst         int
}

// ReachabilityConfig configures the connectivity prober.
type ReachabilityConfig struct {
	Enabled  bool
	Address  string
	Interval time.Duration
	Timeout  time.Duration
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level      string
	Console    bool
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Load loads configuration from environment variables. Values from a .env
// file in the working directory are used when the variable is not set.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
		},
		Storage: StorageConfig{
			Backend:     getEnv("STORAGE_BACKEND", StorageLevelDB),
			LevelDBPath: getEnv("STORAGE_LEVELDB_PATH", "data/gomate"),
			KeyPrefix:   getEnv("STORAGE_KEY_PREFIX", "gomate:"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "gomate"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 4),
			ConnectTimeout: getDurationEnv("DB_CONNECT_TIMEOUT", 5*time.Second),
			AppName:        getEnv("DB_APP_NAME", "gomate"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),

			PoolSize:    getIntEnv("REDIS_POOL_SIZE", 4),
			DialTimeout: getDurationEnv("REDIS_DIAL_TIMEOUT", 3*time.Second),
			IOTimeout:   getDurationEnv("REDIS_IO_TIMEOUT", time.Second),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "gomate"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Cache: CacheConfig{
			VolatileTTL:        getDurationEnv("CACHE_VOLATILE_TTL", 5*time.Minute),
			OfflineTTL:         getDurationEnv("CACHE_OFFLINE_TTL", 24*time.Hour),
			SweepInterval:      getDurationEnv("CACHE_SWEEP_INTERVAL", 10*time.Minute),
			PruneInterval:      getDurationEnv("CACHE_PRUNE_INTERVAL", time.Hour),
			AllowStaleFallback: getBoolEnv("CACHE_ALLOW_STALE_FALLBACK", true),
		},
		Remote: RemoteConfig{
			Provider:      getEnv("REMOTE_PROVIDER", ProviderMock),
			BaseURL:       getEnv("REMOTE_BASE_URL", ""),
			APIKey:        getEnv("REMOTE_API_KEY", ""),
			Timeout:       getDurationEnv("REMOTE_TIMEOUT", 10*time.Second),
			MockLatency:   getDurationEnv("REMOTE_MOCK_LATENCY", 800*time.Millisecond),
			FailureRate:   getFloatEnv("REMOTE_MOCK_FAILURE_RATE", 0),
			RatePerSecond: getFloatEnv("REMOTE_RATE_LIMIT", 5),
			Burst:         getIntEnv("REMOTE_RATE_BURST", 10),
		},
		Reachability: ReachabilityConfig{
			Enabled:  getBoolEnv("REACHABILITY_ENABLED", false),
			Address:  getEnv("REACHABILITY_ADDRESS", "1.1.1.1:443"),
			Interval: getDurationEnv("REACHABILITY_INTERVAL", 15*time.Second),
			Timeout:  getDurationEnv("REACHABILITY_TIMEOUT", 3*time.Second),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Console:    getBoolEnv("LOG_CONSOLE", true),
			FilePath:   getEnv("LOG_FILE", ""),
			MaxSizeMB:  getIntEnv("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getIntEnv("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: getIntEnv("LOG_MAX_AGE_DAYS", 28),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
