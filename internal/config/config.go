package config

import (
	"os"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicURL       string
}

type VideoGenConfig struct {
	BaseURL string
	APIKey  string
}

type Config struct {
	Port        string
	MetricsAddr string
	R2          R2Config
	VideoGen    VideoGenConfig
	RedisAddr   string
	RedisPass   string
}

func LoadConfig() *Config {
	cfg := &Config{}

	cfg.Port = getenv("PORT", "8080")
	cfg.MetricsAddr = getenv("METRICS_ADDR", ":9090")

	// R2 config
	cfg.R2.AccountID = os.Getenv("R2_ACCOUNT_ID")
	cfg.R2.AccessKeyID = os.Getenv("R2_ACCESS_KEY_ID")
	cfg.R2.SecretAccessKey = os.Getenv("R2_SECRET_ACCESS_KEY")
	cfg.R2.Bucket = os.Getenv("R2_BUCKET")
	cfg.R2.PublicURL = os.Getenv("R2_PUBLIC_URL")

	// Video generation provider
	cfg.VideoGen.BaseURL = getenv("VIDEOGEN_BASE_URL", "https://api.runwayml.com/v1")
	cfg.VideoGen.APIKey = os.Getenv("VIDEOGEN_API_KEY")

	// Redis (optional, polling cache degrades gracefully without it)
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPass = os.Getenv("REDIS_PASSWORD")

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
