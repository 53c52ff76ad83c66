package findmy

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joshp123/findmy/internal/config"
)

const (
	defaultBaseURL = "https://fmipmobile.icloud.com"
	defaultTimeout = 15 * time.Second
)

// Config defines runtime configuration for the Find My connection.
type Config struct {
	AccountID  string
	Password   string
	BaseURL    string
	RootCAFile string
	Timeout    time.Duration
	WithFamily bool
}

// ConfigFromFile resolves the findmy section of the YAML config, reading the
// password from its secret file.
func ConfigFromFile(cfg *config.FindMyConfig) (Config, error) {
	if cfg == nil {
		return Config{}, fmt.Errorf("findmy config is required")
	}
	accountID := strings.TrimSpace(cfg.AccountID)
	if accountID == "" {
		return Config{}, fmt.Errorf("findmy account_id is required")
	}
	if strings.TrimSpace(cfg.PasswordFile) == "" {
		return Config{}, fmt.Errorf("findmy password_file is required")
	}

	data, err := os.ReadFile(cfg.PasswordFile)
	if err != nil {
		return Config{}, fmt.Errorf("read findmy password file: %w", err)
	}
	password := strings.TrimSpace(string(data))
	if password == "" {
		return Config{}, fmt.Errorf("findmy password is empty")
	}

	if cfg.TimeoutSeconds < 0 {
		return Config{}, fmt.Errorf("findmy timeout_seconds must not be negative")
	}

	return Config{
		AccountID:  accountID,
		Password:   password,
		BaseURL:    strings.TrimSpace(cfg.BaseURL),
		RootCAFile: strings.TrimSpace(cfg.RootCAFile),
		Timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
		WithFamily: cfg.WithFamily,
	}, nil
}
