package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"notable/notable/utils/validate"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr          string   `yaml:"addr" validate:"required"`
	AppEnv        string   `yaml:"app_env" validate:"oneof=development test production"`
	BaseURL       string   `yaml:"base_url" validate:"required,url"`
	SessionSecret string   `yaml:"session_secret" validate:"required"`
	LogDir        string   `yaml:"log_dir"`
	CORSOrigins   []string `yaml:"cors_origins"`

	StoreDriver     string `yaml:"store_driver" validate:"oneof=supabase postgres memory"`
	SupabaseURL     string `yaml:"supabase_url" validate:"required_if=StoreDriver supabase"`
	SupabaseAnonKey string `yaml:"supabase_anon_key" validate:"required_if=StoreDriver supabase"`
	DevUsers        string `yaml:"dev_users"`

	// OAuthProviders are offered on the sign-in page (supabase driver only).
	OAuthProviders []string `yaml:"oauth_providers"`

	DBUser     string `yaml:"db_user" validate:"required_if=StoreDriver postgres"`
	DBPassword string `yaml:"db_password"`
	DBHost     string `yaml:"db_host" validate:"required_if=StoreDriver postgres"`
	DBPort     string `yaml:"db_port"`
	DBName     string `yaml:"db_name" validate:"required_if=StoreDriver postgres"`

	LLMProvider      string `yaml:"llm_provider" validate:"oneof=groq openai ollama"`
	LLMModel         string `yaml:"llm_model"`
	GroqAPIKey       string `yaml:"groq_api_key"`
	OpenAIAPIKey     string `yaml:"openai_api_key"`
	OllamaURL        string `yaml:"ollama_url"`
	SummarizePrompts string `yaml:"summarize_prompts"`
	SummarizeURL     string `yaml:"summarize_url"`

	MinIOEndpoint  string `yaml:"minio_endpoint"`
	MinIOAccessKey string `yaml:"minio_access_key"`
	MinIOSecretKey string `yaml:"minio_secret_key"`
	MinIOBucket    string `yaml:"minio_bucket"`
	MinIOSecure    bool   `yaml:"minio_secure"`
}

func defaults() Config {
	return Config{
		Addr:        ":8000",
		AppEnv:      "development",
		BaseURL:     "http://localhost:8000",
		LogDir:      "./logs",
		StoreDriver: "supabase",
		DBPort:      "5432",
		LLMProvider: "groq",
		OllamaURL:   "http://localhost:11434",
		MinIOBucket: "notable-archive",

		OAuthProviders: []string{"google"},
	}
}

// LoadConfig layers defaults, an optional YAML file (CONFIG_FILE), a .env
// file and the process environment, in that order of precedence, then
// validates the result.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)

	if cfg.SessionSecret == "" && cfg.AppEnv != "production" {
		// Development sessions do not survive restarts without a configured secret.
		cfg.SessionSecret = "notable-development-session-secret"
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Addr = getEnv("ADDR", cfg.Addr)
	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.BaseURL = strings.TrimRight(getEnv("BASE_URL", cfg.BaseURL), "/")
	cfg.SessionSecret = getEnv("SESSION_SECRET", cfg.SessionSecret)
	cfg.LogDir = getEnv("LOG_DIR", cfg.LogDir)
	if origins := getEnv("CORS_ORIGINS", ""); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	cfg.StoreDriver = getEnv("STORE_DRIVER", cfg.StoreDriver)
	cfg.SupabaseURL = strings.TrimRight(getEnv("SUPABASE_URL", cfg.SupabaseURL), "/")
	cfg.SupabaseAnonKey = getEnv("SUPABASE_ANON_KEY", cfg.SupabaseAnonKey)
	cfg.DevUsers = getEnv("DEV_USERS", cfg.DevUsers)
	if providers := getEnv("OAUTH_PROVIDERS", ""); providers != "" {
		cfg.OAuthProviders = splitList(providers)
	}

	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)

	cfg.LLMProvider = getEnv("LLM_PROVIDER", cfg.LLMProvider)
	cfg.LLMModel = getEnv("LLM_MODEL", cfg.LLMModel)
	cfg.GroqAPIKey = getEnv("GROQ_API_KEY", cfg.GroqAPIKey)
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OllamaURL = getEnv("OLLAMA_URL", cfg.OllamaURL)
	cfg.SummarizePrompts = getEnv("SUMMARIZE_PROMPTS", cfg.SummarizePrompts)
	cfg.SummarizeURL = getEnv("SUMMARIZE_URL", cfg.SummarizeURL)

	cfg.MinIOEndpoint = getEnv("MINIO_ENDPOINT", cfg.MinIOEndpoint)
	cfg.MinIOAccessKey = getEnv("MINIO_ACCESS_KEY", cfg.MinIOAccessKey)
	cfg.MinIOSecretKey = getEnv("MINIO_SECRET_KEY", cfg.MinIOSecretKey)
	cfg.MinIOBucket = getEnv("MINIO_BUCKET", cfg.MinIOBucket)
	if v := getEnv("MINIO_SECURE", ""); v != "" {
		cfg.MinIOSecure = v == "true" || v == "1"
	}
}

// Validate checks field tags plus the rules that depend on the environment.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.AppEnv == "production" && len(c.SessionSecret) < 32 {
		return errors.New("invalid configuration: session_secret must be at least 32 characters in production")
	}
	return nil
}

// Secure reports whether cookies should carry the Secure attribute.
func (c Config) Secure() bool {
	return strings.HasPrefix(c.BaseURL, "https://")
}

// ArchiveEnabled reports whether MinIO archiving is configured.
func (c Config) ArchiveEnabled() bool {
	return c.MinIOEndpoint != ""
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
