package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName     string
	AppEnv      string
	AppPort     string
	DatabaseURL string
	RedisURL    string
	NATSURL     string
	JWTSecret   string

	// Evaluation pipeline knobs.
	EvaluationCooldown time.Duration
	SweepInterval      time.Duration
	AITimeout          time.Duration
	ResultsCacheTTL    time.Duration

	AIProvider   string
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SKILLFORGE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "SkillForge API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("evaluation.cooldown", "20m")
	v.SetDefault("evaluation.sweep_interval", "5m")
	v.SetDefault("evaluation.ai_timeout", "30s")
	v.SetDefault("results.cache_ttl", "5m")
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("gemini.model", "gemini-pro")
	v.SetDefault("openai.model", "gpt-4o-mini")

	cooldown, err := parseDuration(v, "evaluation.cooldown", 20*time.Minute)
	if err != nil {
		return Config{}, err
	}

	sweepInterval, err := parseDuration(v, "evaluation.sweep_interval", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}

	aiTimeout, err := parseDuration(v, "evaluation.ai_timeout", 30*time.Second)
	if err != nil {
		return Config{}, err
	}

	cacheTTL, err := parseDuration(v, "results.cache_ttl", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		DatabaseURL:        v.GetString("database.url"),
		RedisURL:           v.GetString("redis.url"),
		NATSURL:            v.GetString("nats.url"),
		JWTSecret:          v.GetString("jwt.secret"),
		EvaluationCooldown: cooldown,
		SweepInterval:      sweepInterval,
		AITimeout:          aiTimeout,
		ResultsCacheTTL:    cacheTTL,
		AIProvider:         strings.ToLower(v.GetString("ai.provider")),
		GeminiAPIKey:       v.GetString("gemini.api_key"),
		GeminiModel:        v.GetString("gemini.model"),
		OpenAIAPIKey:       v.GetString("openai.api_key"),
		OpenAIModel:        v.GetString("openai.model"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.EvaluationCooldown <= 0 {
		cfg.EvaluationCooldown = 20 * time.Minute
	}

	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := v.GetString(key)
	if raw == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return d, nil
}
