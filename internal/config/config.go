// forecast-go/internal/config/config.go
package config

import (
	"runtime"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Forecast ForecastConfig
	Storage  StorageConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	LogLevel       string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	Table    string
}

type AppConfig struct {
	MaxUploadBytes       int64
	DefaultDatasetSource string // file, postgres or none
	DefaultDatasetPath   string
}

// CacheConfig covers both the in-process caches and the optional redis store.
type CacheConfig struct {
	Enabled                 bool
	RedisURL                string
	RedisHost               string
	RedisPort               string
	RedisPassword           string
	RedisDB                 int
	ForecastStoreTTLSeconds int

	DatasetCacheSize        int
	ForecastCacheSize       int
	ForecastCacheTTLSeconds int
}

type ForecastConfig struct {
	FitTimeoutSeconds int
	FitWorkers        int
	MaxIterations     int
	FallbackEnabled   bool
	DashboardDays     int
	MaxHorizonDays    int
	BatchWorkers      int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// FitTimeout returns the per-fit deadline.
func (f ForecastConfig) FitTimeout() time.Duration {
	return time.Duration(f.FitTimeoutSeconds) * time.Second
}

var (
	once     sync.Once
	instance *Config
)

// Load reads the configuration once per process.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()
		instance = read()
	})

	return instance
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("LOG_LEVEL", "")
	viper.SetDefault("SERVER_READ_TIMEOUT", 30)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 120)
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "autopo")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_DEMAND_TABLE", "demand_inventory")
	viper.SetDefault("APP_MAX_UPLOAD_BYTES", 16*1024*1024)
	viper.SetDefault("APP_DEFAULT_DATASET_SOURCE", "file")
	viper.SetDefault("APP_DEFAULT_DATASET_PATH", "demand_inventory.csv")
	viper.SetDefault("CACHE_ENABLED", false)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_HOST", "127.0.0.1")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_FORECAST_TTL_SECONDS", 600)
	viper.SetDefault("DATASET_CACHE_SIZE", 5)
	viper.SetDefault("FORECAST_CACHE_SIZE", 50)
	viper.SetDefault("FORECAST_CACHE_TTL_SECONDS", 0)
	viper.SetDefault("FORECAST_FIT_TIMEOUT_SECONDS", 30)
	viper.SetDefault("FORECAST_FIT_WORKERS", runtime.NumCPU())
	viper.SetDefault("FORECAST_MAX_ITERATIONS", 1000)
	viper.SetDefault("FORECAST_FALLBACK_ENABLED", true)
	viper.SetDefault("FORECAST_DASHBOARD_DAYS", 30)
	viper.SetDefault("FORECAST_MAX_HORIZON_DAYS", 365)
	viper.SetDefault("FORECAST_BATCH_WORKERS", 4)
	viper.SetDefault("S3_ENDPOINT", "")
	viper.SetDefault("S3_ACCESS_KEY", "")
	viper.SetDefault("S3_SECRET_KEY", "")
	viper.SetDefault("S3_BUCKET", "")
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_USE_SSL", true)
}

func read() *Config {
	setDefaults()

	// Read from environment variables
	viper.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Mode:           viper.GetString("SERVER_MODE"),
			LogLevel:       viper.GetString("LOG_LEVEL"),
			ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
			Table:    viper.GetString("DB_DEMAND_TABLE"),
		},
		App: AppConfig{
			MaxUploadBytes:       viper.GetInt64("APP_MAX_UPLOAD_BYTES"),
			DefaultDatasetSource: viper.GetString("APP_DEFAULT_DATASET_SOURCE"),
			DefaultDatasetPath:   viper.GetString("APP_DEFAULT_DATASET_PATH"),
		},
		Cache: CacheConfig{
			Enabled:                 viper.GetBool("CACHE_ENABLED"),
			RedisURL:                viper.GetString("REDIS_URL"),
			RedisHost:               viper.GetString("REDIS_HOST"),
			RedisPort:               viper.GetString("REDIS_PORT"),
			RedisPassword:           viper.GetString("REDIS_PASSWORD"),
			RedisDB:                 viper.GetInt("REDIS_DB"),
			ForecastStoreTTLSeconds: viper.GetInt("CACHE_FORECAST_TTL_SECONDS"),
			DatasetCacheSize:        viper.GetInt("DATASET_CACHE_SIZE"),
			ForecastCacheSize:       viper.GetInt("FORECAST_CACHE_SIZE"),
			ForecastCacheTTLSeconds: viper.GetInt("FORECAST_CACHE_TTL_SECONDS"),
		},
		Forecast: ForecastConfig{
			FitTimeoutSeconds: viper.GetInt("FORECAST_FIT_TIMEOUT_SECONDS"),
			FitWorkers:        viper.GetInt("FORECAST_FIT_WORKERS"),
			MaxIterations:     viper.GetInt("FORECAST_MAX_ITERATIONS"),
			FallbackEnabled:   viper.GetBool("FORECAST_FALLBACK_ENABLED"),
			DashboardDays:     viper.GetInt("FORECAST_DASHBOARD_DAYS"),
			MaxHorizonDays:    viper.GetInt("FORECAST_MAX_HORIZON_DAYS"),
			BatchWorkers:      viper.GetInt("FORECAST_BATCH_WORKERS"),
		},
		Storage: StorageConfig{
			Endpoint:  viper.GetString("S3_ENDPOINT"),
			AccessKey: viper.GetString("S3_ACCESS_KEY"),
			SecretKey: viper.GetString("S3_SECRET_KEY"),
			Bucket:    viper.GetString("S3_BUCKET"),
			Region:    viper.GetString("S3_REGION"),
			UseSSL:    viper.GetBool("S3_USE_SSL"),
		},
	}

	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = cfg.Server.Mode
	}

	return cfg
}
