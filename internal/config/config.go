package config

import (
	"os"
	"strconv"
	"time"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicURL       string
}

type OpenAIConfig struct {
	APIKey         string
	Model          string
	RequestTimeout time.Duration
}

type Config struct {
	R2                R2Config
	OpenAI            OpenAIConfig
	FineTuneThreshold int
}

func LoadConfig() *Config {
	cfg := &Config{}

	// R2 config
	cfg.R2.AccountID = os.Getenv("R2_ACCOUNT_ID")
	cfg.R2.AccessKeyID = os.Getenv("R2_ACCESS_KEY_ID")
	cfg.R2.SecretAccessKey = os.Getenv("R2_SECRET_ACCESS_KEY")
	cfg.R2.Bucket = os.Getenv("R2_BUCKET")
	cfg.R2.PublicURL = os.Getenv("R2_PUBLIC_URL")

	// OpenAI config
	cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAI.Model = os.Getenv("OPENAI_MODEL")
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4o"
	}

	// Uzun dokümanlar için çok dakikalı tavan
	timeoutMin := 3
	if v := os.Getenv("EXTRACTION_TIMEOUT_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeoutMin = n
		}
	}
	cfg.OpenAI.RequestTimeout = time.Duration(timeoutMin) * time.Minute

	cfg.FineTuneThreshold = 50
	if v := os.Getenv("FINE_TUNE_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FineTuneThreshold = n
		}
	}

	return cfg
}
