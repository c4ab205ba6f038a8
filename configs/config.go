package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Crypto   CryptoConfig
	Email    EmailConfig
	Account  AccountConfig
	Redis    RedisConfig
	Log      LogConfig
}

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins []string
	Version        string
}

type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	DSN            string
	MigrationsPath string
	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type JWTConfig struct {
	Secret               string
	VerificationTokenTTL time.Duration
	AccessTokenTTL       time.Duration
}

// CryptoConfig configures verification code encryption at rest.
// Vector is hex text and must decode to 16 bytes.
type CryptoConfig struct {
	SecretKey string
	Vector    string
	Algorithm string
}

type EmailConfig struct {
	User           string
	Password       string
	From           string
	FromName       string
	Host           string
	Port           int
	Secure         bool
	SendTimeout    time.Duration
	SendGridAPIKey string
	// AppName is appended to email subjects when set.
	AppName        string
}

type AccountConfig struct {
	PasswordCost      int
	ResetTokenTTL     time.Duration
	ResetURL          string
	EmailMaxAttempts  int
	EmailRetryDelay   time.Duration
	CacheTTL          time.Duration
	CacheKeyNamespace string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	// Pool and timeout settings
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
	IdleTimeout  time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	var missing []string
	required := func(key string) string {
		v := os.Getenv(key)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnv("PORT", "5000"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 90*time.Second),
			IdleTimeout:    getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			TLSCertFile:    getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:     getEnv("TLS_KEY_FILE", ""),
			AllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
			Version:        getEnv("APP_VERSION", "1.0.0"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "accounts"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		JWT: JWTConfig{
			Secret:               required("JWT_SECRET"),
			VerificationTokenTTL: getDurationEnv("JWT_VERIFICATION_TTL", 5*time.Minute),
			AccessTokenTTL:       getDurationEnv("JWT_ACCESS_TTL", time.Hour),
		},
		Crypto: CryptoConfig{
			SecretKey: required("VERIFICATION_SECRET_KEY"),
			Vector:    required("VERIFICATION_VECTOR"),
			Algorithm: getEnv("VERIFICATION_ALGORITHM", "aes-256-cbc"),
		},
		Email: EmailConfig{
			User:           getEnv("EMAIL_USER", ""),
			Password:       getEnv("EMAIL_PASS", ""),
			From:           getEnv("EMAIL_FROM", os.Getenv("EMAIL_USER")),
			FromName:       getEnv("EMAIL_FROM_NAME", ""),
			Host:           getEnv("EMAIL_HOST", "localhost"),
			Port:           getIntEnv("EMAIL_PORT", 587),
			Secure:         getBoolEnv("EMAIL_SECURE", false),
			SendTimeout:    getDurationEnv("EMAIL_SEND_TIMEOUT", 15*time.Second),
			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			AppName:        getEnv("APP_NAME", ""),
		},
		Account: AccountConfig{
			PasswordCost:      getIntEnv("BCRYPT_COST", 10),
			ResetTokenTTL:     getDurationEnv("RESET_TOKEN_TTL", time.Hour),
			ResetURL:          getEnv("RESET_PASSWORD_URL", getEnv("FRONTEND_URL", "http://localhost:3000")+"/reset-password"),
			EmailMaxAttempts:  getIntEnv("EMAIL_MAX_ATTEMPTS", 3),
			EmailRetryDelay:   getDurationEnv("EMAIL_RETRY_DELAY", 0),
			CacheTTL:          getDurationEnv("ACCOUNT_CACHE_TTL", time.Minute),
			CacheKeyNamespace: getEnv("ACCOUNT_CACHE_NAMESPACE", "accounts"),
		},
		Redis: RedisConfig{
			Enabled:      getBoolEnv("REDIS_ENABLED", true),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:  getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Database.DSN = dsn
	} else {
		cfg.Database.DSN = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.DBName,
			cfg.Database.SSLMode,
		)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
