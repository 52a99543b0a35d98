package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// allKeys — все переменные RETAIL_*, которые читает Load.
var allKeys = []string{
	"RETAIL_ENV_FILE", "RETAIL_DATA_DIR",
	"RETAIL_PRODUCT_FILE", "RETAIL_CUSTOMER_FILE", "RETAIL_SALE_FILE", "RETAIL_SALE_DETAIL_FILE",
	"RETAIL_PRODUCT_LOG_FILE", "RETAIL_CUSTOMER_LOG_FILE", "RETAIL_REPORT_FILE",
	"RETAIL_USER", "RETAIL_LOG_LEVEL", "RETAIL_LOG_FORMAT", "RETAIL_METRICS_FILE",
}

// clearEnv снимает все переменные RETAIL_* на время теста.
// Исходные значения восстанавливаются через t.Setenv.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	// .env из рабочего каталога теста не должен влиять на результат
	t.Setenv("RETAIL_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if cfg.DataDir != "." {
		t.Errorf("DataDir: ожидалось %q, получено %q", ".", cfg.DataDir)
	}
	if cfg.ProductFile != "product.dat" {
		t.Errorf("ProductFile: ожидалось product.dat, получено %q", cfg.ProductFile)
	}
	if cfg.SaleDetailFile != "sale_detail.dat" {
		t.Errorf("SaleDetailFile: ожидалось sale_detail.dat, получено %q", cfg.SaleDetailFile)
	}
	if cfg.CustomerLogFile != "customer_change.bin" {
		t.Errorf("CustomerLogFile: ожидалось customer_change.bin, получено %q", cfg.CustomerLogFile)
	}
	if cfg.ReportFile != "Generate_report.txt" {
		t.Errorf("ReportFile: ожидалось Generate_report.txt, получено %q", cfg.ReportFile)
	}
	if cfg.User != "admin" {
		t.Errorf("User: ожидалось admin, получено %q", cfg.User)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel: ожидалось info, получено %v", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat: ожидалось text, получено %q", cfg.LogFormat)
	}
	if cfg.MetricsFile != "" {
		t.Errorf("MetricsFile: ожидалась пустая строка, получено %q", cfg.MetricsFile)
	}
}

func TestLoad_DataDirResolution(t *testing.T) {
	clearEnv(t)
	abs := filepath.Join(t.TempDir(), "elsewhere.dat")
	t.Setenv("RETAIL_DATA_DIR", "/var/lib/retail")
	t.Setenv("RETAIL_SALE_FILE", "bills.dat")
	t.Setenv("RETAIL_CUSTOMER_FILE", abs)
	t.Setenv("RETAIL_METRICS_FILE", "retail.prom")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if want := filepath.Join("/var/lib/retail", "bills.dat"); cfg.SaleFile != want {
		t.Errorf("SaleFile: ожидалось %q, получено %q", want, cfg.SaleFile)
	}
	if cfg.CustomerFile != abs {
		t.Errorf("абсолютный путь не должен меняться: ожидалось %q, получено %q", abs, cfg.CustomerFile)
	}
	if want := filepath.Join("/var/lib/retail", "retail.prom"); cfg.MetricsFile != want {
		t.Errorf("MetricsFile: ожидалось %q, получено %q", want, cfg.MetricsFile)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), "retail.env")
	content := "RETAIL_USER=cashier\nRETAIL_LOG_LEVEL=debug\nRETAIL_LOG_FORMAT=json\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatalf("ошибка записи .env: %v", err)
	}
	t.Setenv("RETAIL_ENV_FILE", envFile)
	// Переменная окружения важнее значения из файла
	t.Setenv("RETAIL_LOG_FORMAT", "text")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if cfg.User != "cashier" {
		t.Errorf("User: ожидалось cashier, получено %q", cfg.User)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel: ожидалось debug, получено %v", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat: ожидалось text, получено %q", cfg.LogFormat)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"уровень логирования", "RETAIL_LOG_LEVEL", "verbose"},
		{"формат логов", "RETAIL_LOG_FORMAT", "xml"},
		{"пустой пользователь", "RETAIL_USER", "   "},
		{"длинный пользователь", "RETAIL_USER", "warehouse_supervisor_1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			if err == nil {
				t.Fatal("ожидалась ошибка")
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("ошибка должна называть переменную %s: %v", tt.key, err)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := parseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLogLevel(%q): ошибка %v, ожидалась ошибка: %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("parseLogLevel(%q): ожидалось %v, получено %v", tt.in, tt.want, got)
		}
	}
}

func TestSetupLogger_Format(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := setupLogger(&Config{LogLevel: slog.LevelWarn, LogFormat: "json"}, &buf)

	logger.Info("скрыто")
	logger.Warn("видно", slog.String("component", "test"))

	out := buf.String()
	if strings.Contains(out, "скрыто") {
		t.Errorf("сообщение ниже уровня не должно попадать в лог: %s", out)
	}
	if !strings.Contains(out, `"component":"test"`) {
		t.Errorf("ожидался JSON с атрибутом component, получено: %s", out)
	}
}
