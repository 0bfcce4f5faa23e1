package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Admin      AdminConfig
	Cloudinary CloudinaryConfig
	Paystack   PaystackConfig
	Redis      RedisConfig
	RabbitMQ   RabbitMQConfig
	Booking    BookingConfig
	Log        LogConfig
	RateLimit  RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// IsProduction reports whether internal error details must be hidden from clients.
func (s ServerConfig) IsProduction() bool { return s.Env == "production" }

type DatabaseConfig struct {
	Driver          string // mysql | sqlite
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
	Issuer       string
}

// AdminConfig seeds the first administrator on startup.
type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// PaystackConfig configures the payment gateway. When SecretKey is empty the
// stub provider is used (development only).
type PaystackConfig struct {
	BaseURL     string
	SecretKey   string
	CallbackURL string
	Currency    string
	Timeout     time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

type RabbitMQConfig struct {
	URL string
}

type BookingConfig struct {
	// EnforceTourCapacity makes booking creation consume tour capacity
	// (guests_booked < max_guests) instead of only checking existence.
	EnforceTourCapacity bool
}

type LogConfig struct {
	Level string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Load reads .env (if present) and the environment on top of defaults.
func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8080"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Driver:          getenv("DATABASE_DRIVER", "mysql"),
			DSN:             getenv("DATABASE_DSN", "tourbook:tourbook@tcp(localhost:3306)/tourbook?charset=utf8mb4&parseTime=True&loc=UTC"),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			AccessSecret: getenv("JWT_ACCESS_SECRET", "change-me-in-production"),
			AccessExpiry: getDuration("JWT_ACCESS_EXPIRY", 24*time.Hour),
			Issuer:       getenv("JWT_ISSUER", "tourbook"),
		},
		Admin: AdminConfig{
			Email:    getenv("ADMIN_EMAIL", "admin@tourbook.local"),
			Password: getenv("ADMIN_PASSWORD", ""),
			Name:     getenv("ADMIN_NAME", "Administrator"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
			Folder:    getenv("CLOUDINARY_FOLDER", "tourbook"),
		},
		Paystack: PaystackConfig{
			BaseURL:     getenv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			SecretKey:   os.Getenv("PAYSTACK_SECRET_KEY"),
			CallbackURL: getenv("PAYSTACK_CALLBACK_URL", "http://localhost:3000/payments/callback"),
			Currency:    getenv("PAYSTACK_CURRENCY", "NGN"),
			Timeout:     getDuration("PAYSTACK_TIMEOUT", 15*time.Second),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
			LockTTL:  getDuration("REDIS_LOCK_TTL", 30*time.Second),
		},
		RabbitMQ: RabbitMQConfig{
			URL: os.Getenv("RABBITMQ_URL"),
		},
		Booking: BookingConfig{
			EnforceTourCapacity: getBool("BOOKING_ENFORCE_TOUR_CAPACITY", false),
		},
		Log: LogConfig{
			Level: getenv("LOG_LEVEL", "info"),
		},
		RateLimit: RateLimitConfig{
			Requests: getInt("RATE_LIMIT_REQUESTS", 100),
			Window:   getDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return strings.EqualFold(v, "true") || v == "1"
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
