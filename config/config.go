package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"

	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	HTTPAddr      string `yaml:"http_addr"`
	TelegramToken string `yaml:"telegram_token"`

	ModelPath           string  `yaml:"model_path"`
	LabelsPath          string  `yaml:"labels_path"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	NMSThreshold        float64 `yaml:"nms_threshold"`
	InferenceWorkers    int     `yaml:"inference_workers"`

	FontPath    string  `yaml:"font_path"`
	FontSize    float64 `yaml:"font_size"`
	JPEGQuality int     `yaml:"jpeg_quality"`

	StoreBackend string `yaml:"store_backend"`
	DBPath       string `yaml:"db_path"`
	MediaDir     string `yaml:"media_dir"`

	LLMProvider       string `yaml:"llm_provider"`
	GeminiAPIKey      string `yaml:"gemini_api_key"`
	AnthropicAPIKey   string `yaml:"anthropic_api_key"`
	LLMFastModel      string `yaml:"llm_fast_model"`
	LLMCapableModel   string `yaml:"llm_capable_model"`
	LLMTextModel      string `yaml:"llm_text_model"`
	LLMTimeoutSeconds int    `yaml:"llm_timeout_seconds"`

	LogDir string `yaml:"log_dir"`
}

// LLMTimeout возвращает ограничение времени на один внешний вызов модели.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

// Load собирает конфигурацию: .env, затем YAML-файл, затем переменные окружения и значения по умолчанию.
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{}

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	envOverride(&cfg.HTTPAddr, "HTTP_ADDR")
	envOverride(&cfg.TelegramToken, "TELEGRAM_TOKEN")
	envOverride(&cfg.ModelPath, "MODEL_PATH")
	envOverride(&cfg.LabelsPath, "LABELS_PATH")
	envOverride(&cfg.FontPath, "FONT_PATH")
	envOverride(&cfg.StoreBackend, "STORE_BACKEND")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.MediaDir, "MEDIA_DIR")
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.GeminiAPIKey, "GEMINI_API_KEY")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.LLMFastModel, "LLM_FAST_MODEL")
	envOverride(&cfg.LLMCapableModel, "LLM_CAPABLE_MODEL")
	envOverride(&cfg.LLMTextModel, "LLM_TEXT_MODEL")
	envOverride(&cfg.LogDir, "LOG_DIR")

	if err := envOverrideInt(&cfg.LLMTimeoutSeconds, "LLM_TIMEOUT_SECONDS"); err != nil {
		return err
	}
	if err := envOverrideInt(&cfg.InferenceWorkers, "INFERENCE_WORKERS"); err != nil {
		return err
	}
	if err := envOverrideInt(&cfg.JPEGQuality, "JPEG_QUALITY"); err != nil {
		return err
	}
	if err := envOverrideFloat(&cfg.ConfidenceThreshold, "CONFIDENCE_THRESHOLD"); err != nil {
		return err
	}
	if err := envOverrideFloat(&cfg.NMSThreshold, "NMS_THRESHOLD"); err != nil {
		return err
	}
	return envOverrideFloat(&cfg.FontSize, "FONT_SIZE")
}

func applyDefaults(cfg *Config) {
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.ModelPath == "" {
		cfg.ModelPath = "./models/yolov8n.onnx"
	}
	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = 0.25
	}
	if cfg.NMSThreshold == 0 {
		cfg.NMSThreshold = 0.45
	}
	if cfg.InferenceWorkers == 0 {
		cfg.InferenceWorkers = 2
	}
	if cfg.FontPath == "" {
		cfg.FontPath = "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf"
	}
	if cfg.FontSize == 0 {
		cfg.FontSize = 14
	}
	if cfg.JPEGQuality == 0 {
		cfg.JPEGQuality = 90
	}
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = BackendSQLite
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./vision-chat.db"
	}
	if cfg.MediaDir == "" {
		cfg.MediaDir = "./media"
	}
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = ProviderGemini
	}
	if cfg.LLMTimeoutSeconds == 0 {
		cfg.LLMTimeoutSeconds = 60
	}

	switch cfg.LLMProvider {
	case ProviderAnthropic:
		setDefault(&cfg.LLMFastModel, "claude-haiku-4-5")
		setDefault(&cfg.LLMCapableModel, "claude-sonnet-4-5-20250929")
		setDefault(&cfg.LLMTextModel, "claude-haiku-4-5")
	default:
		setDefault(&cfg.LLMFastModel, "gemini-2.5-flash")
		setDefault(&cfg.LLMCapableModel, "gemini-2.5-pro")
		setDefault(&cfg.LLMTextModel, "gemini-2.0-flash")
	}
}

// Validate проверяет согласованность значений.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("gemini_api_key is required when llm_provider=gemini")
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("anthropic_api_key is required when llm_provider=anthropic")
		}
	default:
		return fmt.Errorf("llm_provider must be 'gemini' or 'anthropic', got '%s'", c.LLMProvider)
	}

	switch c.StoreBackend {
	case BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("store_backend must be 'sqlite' or 'memory', got '%s'", c.StoreBackend)
	}

	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("invalid confidence_threshold '%f': must be between 0 and 1", c.ConfidenceThreshold)
	}
	if c.NMSThreshold < 0 || c.NMSThreshold > 1 {
		return fmt.Errorf("invalid nms_threshold '%f': must be between 0 and 1", c.NMSThreshold)
	}
	if c.InferenceWorkers < 1 {
		return fmt.Errorf("invalid inference_workers '%d': must be >= 1", c.InferenceWorkers)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("invalid jpeg_quality '%d': must be between 1 and 100", c.JPEGQuality)
	}
	if c.LLMTimeoutSeconds < 1 {
		return fmt.Errorf("invalid llm_timeout_seconds '%d': must be >= 1", c.LLMTimeoutSeconds)
	}
	return nil
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideFloat(field *float64, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}
