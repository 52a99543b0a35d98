// Пакет config — загрузка и валидация конфигурации магазина
// из переменных окружения и необязательного .env файла.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/bigkaa/goartstore/retail-store/internal/domain/model"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации магазина.
// Пути к файлам уже разрешены относительно DataDir.
type Config struct {
	// Каталог с файлами данных
	DataDir string
	// Пути к файлам сущностей
	ProductFile    string
	CustomerFile   string
	SaleFile       string
	SaleDetailFile string
	// Пути к журналам изменений
	ProductLogFile  string
	CustomerLogFile string
	// Путь к текстовому отчёту
	ReportFile string
	// Пользователь по умолчанию для записей журналов
	User string
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Файл для выгрузки метрик (textfile collector); пусто — не выгружать
	MetricsFile string
	// .env файл, из которого прочитаны переменные
	EnvFile string
}

// Load читает .env (RETAIL_ENV_FILE, по умолчанию ".env"), затем переменные
// окружения RETAIL_*, валидирует их и возвращает Config.
// Отсутствующий .env не считается ошибкой; уже заданные переменные окружения
// имеют приоритет над значениями из файла.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.EnvFile = getEnvDefault("RETAIL_ENV_FILE", ".env")
	if err := godotenv.Load(cfg.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("RETAIL_ENV_FILE: ошибка чтения %s: %w", cfg.EnvFile, err)
	}

	// RETAIL_DATA_DIR — каталог данных (по умолчанию текущий)
	cfg.DataDir = getEnvDefault("RETAIL_DATA_DIR", ".")

	files := []struct {
		key  string
		def  string
		dest *string
	}{
		{"RETAIL_PRODUCT_FILE", "product.dat", &cfg.ProductFile},
		{"RETAIL_CUSTOMER_FILE", "customer.dat", &cfg.CustomerFile},
		{"RETAIL_SALE_FILE", "sale.dat", &cfg.SaleFile},
		{"RETAIL_SALE_DETAIL_FILE", "sale_detail.dat", &cfg.SaleDetailFile},
		{"RETAIL_PRODUCT_LOG_FILE", "product_change.bin", &cfg.ProductLogFile},
		{"RETAIL_CUSTOMER_LOG_FILE", "customer_change.bin", &cfg.CustomerLogFile},
		{"RETAIL_REPORT_FILE", "Generate_report.txt", &cfg.ReportFile},
	}
	for _, f := range files {
		*f.dest = resolve(cfg.DataDir, getEnvDefault(f.key, f.def))
	}

	// RETAIL_USER — пользователь журналов (по умолчанию admin)
	cfg.User = strings.TrimSpace(getEnvDefault("RETAIL_USER", "admin"))
	if cfg.User == "" {
		return nil, fmt.Errorf("RETAIL_USER: значение не может быть пустым")
	}
	if len(cfg.User) > model.UserWidth {
		return nil, fmt.Errorf("RETAIL_USER: %q длиннее %d байт", cfg.User, model.UserWidth)
	}

	var err error
	// RETAIL_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("RETAIL_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("RETAIL_LOG_LEVEL: %w", err)
	}

	// RETAIL_LOG_FORMAT — формат логов (по умолчанию text: утилита интерактивная)
	cfg.LogFormat = getEnvDefault("RETAIL_LOG_FORMAT", "text")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("RETAIL_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// RETAIL_METRICS_FILE — необязательный
	if m := getEnvDefault("RETAIL_METRICS_FILE", ""); m != "" {
		cfg.MetricsFile = resolve(cfg.DataDir, m)
	}

	return cfg, nil
}

// SetupLogger создаёт slog-логгер в stderr (stdout занят выводом команд)
// и делает его логгером по умолчанию.
func SetupLogger(cfg *Config) *slog.Logger {
	return setupLogger(cfg, os.Stderr)
}

func setupLogger(cfg *Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// resolve разрешает относительный путь относительно каталога данных.
func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
