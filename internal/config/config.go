package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config структура конфигурации приложения
type Config struct {
	Environment string

	Server struct {
		Port int
		Host string
	}
	GRPC struct {
		Port int
	}
	Detector struct {
		BaseURL        string
		Timeout        time.Duration // 0 = без таймаута
		HealthInterval time.Duration
	}
	Database struct {
		Driver   string // postgres или sqlite
		Host     string
		Port     string
		Name     string
		User     string
		Password string
		SSLMode  string
		Path     string // путь к файлу SQLite
	}
	Storage struct {
		StaticDir     string
		MaxUploadSize int64
	}
	Logging struct {
		Level  string
		Format string // json или text
	}
}

// LoadConfig загружает конфигурацию из переменных окружения.
// Если рядом лежит .env, его значения подхватываются, но не перекрывают окружение.
func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Environment = getEnv("ENVIRONMENT", "development")

	// Конфигурация сервера
	cfg.Server.Port = getEnvInt("SERVER_PORT", 8080)
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.GRPC.Port = getEnvInt("GRPC_PORT", 9090)

	// Конфигурация сервиса инференса
	cfg.Detector.BaseURL = getEnv("DETECTOR_BASE_URL", "http://192.168.0.163:8000")
	cfg.Detector.Timeout = time.Duration(getEnvInt("DETECTOR_TIMEOUT_SECONDS", 0)) * time.Second
	cfg.Detector.HealthInterval = time.Duration(getEnvInt("HEALTH_INTERVAL_SECONDS", 30)) * time.Second

	// Конфигурация базы данных
	cfg.Database.Driver = getEnv("DB_DRIVER", "postgres")
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnv("DB_PORT", "5432")
	cfg.Database.Name = getEnv("DB_NAME", "road_damage")
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres123")
	cfg.Database.SSLMode = getEnv("DB_SSL_MODE", "disable")
	cfg.Database.Path = getEnv("DB_PATH", "road_damage.db")

	// Хранилище изображений
	cfg.Storage.StaticDir = getEnv("STATIC_DIR", "./static")
	cfg.Storage.MaxUploadSize = int64(getEnvInt("MAX_UPLOAD_MB", 32)) << 20

	// Конфигурация логирования
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")
	cfg.Logging.Format = getEnv("LOG_FORMAT", "json")

	return cfg
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает int значение переменной окружения или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := cast.ToIntE(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
