package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Drafts    DraftConfig
	Upload    UploadConfig
	Store     StoreConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	MigrationsDir  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

// DSN returns the pgx connection string.
func (c DatabaseConfig) DSN() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port + "/" + c.Database +
		"?sslmode=disable&search_path=" + c.Schema
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type JWTConfig struct {
	Secret string
}

// DraftConfig holds the defaults of new inventory drafts.
type DraftConfig struct {
	TTL                 time.Duration
	DefaultStock        int // stock given to newly added variant sizes
	DefaultReorderLevel int
}

type UploadConfig struct {
	MaxBytes      int64
	AllowedTypes  []string
	S3Region      string
	S3Bucket      string
	S3AccessKeyID string
	S3SecretKey   string
	S3BaseURL     string
	S3KeyPrefix   string
}

// StoreConfig brands receipts and emails.
type StoreConfig struct {
	Name          string
	LogoURL       string
	PrimaryColor  string
	AccentColor   string
	GotenbergURL  string
	LowStockEmail string
}

type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
}

func Load() *Config {
	// Values already present in the environment win over .env.
	_ = godotenv.Load()

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("MIGRATIONS_DIR", "migrations")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("DRAFT_TTL", "12h")
	viper.SetDefault("DRAFT_DEFAULT_STOCK", 0)
	viper.SetDefault("DRAFT_DEFAULT_REORDER_LEVEL", 10)
	viper.SetDefault("UPLOAD_MAX_BYTES", 5<<20)
	viper.SetDefault("UPLOAD_ALLOWED_TYPES", "image/jpeg,image/png,image/webp,image/gif")
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_KEY_PREFIX", "inventory")
	viper.SetDefault("GOTENBERG_URL", "http://127.0.0.1:3000")
	viper.SetDefault("STORE_NAME", "My Store")
	viper.SetDefault("BRAND_PRIMARY_COLOR", "#1f2937")
	viper.SetDefault("BRAND_ACCENT_COLOR", "#f59e0b")
	viper.SetDefault("LOW_STOCK_ALERT_EMAIL", "inventory@localhost")
	viper.SetDefault("RATE_LIMIT_REQUESTS", 120)
	viper.SetDefault("RATE_LIMIT_WINDOW", "1m")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			LogLevel:       viper.GetString("LOG_LEVEL"),
			AllowedOrigins: splitList(viper.GetString("ALLOWED_ORIGINS")),
			MigrationsDir:  viper.GetString("MIGRATIONS_DIR"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
		},
		Drafts: DraftConfig{
			TTL:                 viper.GetDuration("DRAFT_TTL"),
			DefaultStock:        viper.GetInt("DRAFT_DEFAULT_STOCK"),
			DefaultReorderLevel: viper.GetInt("DRAFT_DEFAULT_REORDER_LEVEL"),
		},
		Upload: UploadConfig{
			MaxBytes:      viper.GetInt64("UPLOAD_MAX_BYTES"),
			AllowedTypes:  splitList(viper.GetString("UPLOAD_ALLOWED_TYPES")),
			S3Region:      viper.GetString("S3_REGION"),
			S3Bucket:      viper.GetString("S3_BUCKET"),
			S3AccessKeyID: viper.GetString("S3_ACCESS_KEY_ID"),
			S3SecretKey:   viper.GetString("S3_SECRET_ACCESS_KEY"),
			S3BaseURL:     viper.GetString("S3_BASE_URL"),
			S3KeyPrefix:   viper.GetString("S3_KEY_PREFIX"),
		},
		Store: StoreConfig{
			Name:          viper.GetString("STORE_NAME"),
			LogoURL:       viper.GetString("STORE_LOGO_URL"),
			PrimaryColor:  viper.GetString("BRAND_PRIMARY_COLOR"),
			AccentColor:   viper.GetString("BRAND_ACCENT_COLOR"),
			GotenbergURL:  viper.GetString("GOTENBERG_URL"),
			LowStockEmail: viper.GetString("LOW_STOCK_ALERT_EMAIL"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Window:            viper.GetDuration("RATE_LIMIT_WINDOW"),
		},
	}
}

// IsDevelopment reports whether the server runs outside production.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env != "production"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
