package config

import (
	"errors"
	"os"
	"strings"
)

type Config struct {
	Env      string
	Addr     string
	DBDSN    string
	LogLevel string

	// ProjectID is the hosted project backing auth, push and storage. It is
	// both the FCM target and the expected audience of caller ID tokens.
	ProjectID string
	// CredentialsPath points at the service-account JSON used by the FCM,
	// identity and object-store clients.
	CredentialsPath string
	StorageBucket   string
	PlacesAPIKey    string
}

func Load() (Config, error) {
	return LoadFromEnv(os.Getenv)
}

func LoadFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:             getenv("APP_ENV"),
		Addr:            getenv("APP_ADDR"),
		DBDSN:           getenv("APP_DB_DSN"),
		LogLevel:        getenv("APP_LOG_LEVEL"),
		ProjectID:       strings.TrimSpace(getenv("APP_PROJECT_ID")),
		CredentialsPath: strings.TrimSpace(getenv("APP_GOOGLE_CREDENTIALS")),
		StorageBucket:   strings.TrimSpace(getenv("APP_STORAGE_BUCKET")),
		PlacesAPIKey:    strings.TrimSpace(getenv("APP_PLACES_API_KEY")),
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}

	switch cfg.Env {
	case "dev", "prod", "test":
	default:
		return Config{}, errors.New("APP_ENV: must be one of dev, test, prod")
	}

	if cfg.StorageBucket == "" && cfg.ProjectID != "" {
		cfg.StorageBucket = cfg.ProjectID + ".appspot.com"
	}

	if cfg.IsProd() {
		if cfg.DBDSN == "" {
			return Config{}, errors.New("APP_DB_DSN: required in prod")
		}
		if cfg.ProjectID == "" {
			return Config{}, errors.New("APP_PROJECT_ID: required in prod")
		}
		if cfg.CredentialsPath == "" {
			return Config{}, errors.New("APP_GOOGLE_CREDENTIALS: required in prod")
		}
	}

	return cfg, nil
}

func (c Config) IsProd() bool { return c.Env == "prod" }
