package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	SchemaVersion     = 1
	DefaultPath       = "/etc/findmy/config.yaml"
	DefaultGRPCAddr   = "0.0.0.0:9000"
	DefaultHTTPAddr   = "0.0.0.0:8080"
	DefaultMQTTPort   = 1883
	DefaultMQTTPrefix = "findmy"
	DefaultMQTTClient = "findmy"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"
	DefaultLogOutput  = "stdout"
	maxMQTTQoS        = 2
	maxTimeoutSeconds = 300
)

// Config is the root configuration loaded from YAML.
type Config struct {
	SchemaVersion int           `yaml:"schema_version"`
	Core          CoreConfig    `yaml:"core"`
	Logging       LoggingConfig `yaml:"logging"`
	FindMy        *FindMyConfig `yaml:"findmy"`
	MQTT          *MQTTConfig   `yaml:"mqtt"`
}

// CoreConfig holds daemon listen addresses.
type CoreConfig struct {
	GRPCAddr string `yaml:"grpc_addr"`
	HTTPAddr string `yaml:"http_addr"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// FindMyConfig configures the Find My account connection.
type FindMyConfig struct {
	AccountID      string `yaml:"account_id"`
	PasswordFile   string `yaml:"password_file"`
	WithFamily     bool   `yaml:"with_family"`
	BaseURL        string `yaml:"base_url"`
	RootCAFile     string `yaml:"root_ca_file"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker      MQTTBrokerConfig `yaml:"broker"`
	Auth        MQTTAuthConfig   `yaml:"auth"`
	QoS         int              `yaml:"qos"`
	TopicPrefix string           `yaml:"topic_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT credentials. The password is read from a file.
type MQTTAuthConfig struct {
	Username     string `yaml:"username"`
	PasswordFile string `yaml:"password_file"`
}

// Load parses the YAML config file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes, applies defaults, and validates.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Core.GRPCAddr == "" {
		cfg.Core.GRPCAddr = DefaultGRPCAddr
	}
	if cfg.Core.HTTPAddr == "" {
		cfg.Core.HTTPAddr = DefaultHTTPAddr
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = DefaultLogOutput
	}

	if cfg.MQTT != nil {
		if cfg.MQTT.Broker.Port == 0 {
			cfg.MQTT.Broker.Port = DefaultMQTTPort
		}
		if cfg.MQTT.Broker.ClientID == "" {
			cfg.MQTT.Broker.ClientID = DefaultMQTTClient
		}
		if cfg.MQTT.TopicPrefix == "" {
			cfg.MQTT.TopicPrefix = DefaultMQTTPrefix
		}
	}
}

// Validate enforces required invariants beyond YAML typing.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if cfg.SchemaVersion != SchemaVersion {
		return fmt.Errorf("schema_version must be %d", SchemaVersion)
	}

	if cfg.Core.GRPCAddr == "" {
		return fmt.Errorf("core.grpc_addr is required")
	}
	if cfg.Core.HTTPAddr == "" {
		return fmt.Errorf("core.http_addr is required")
	}

	if cfg.FindMy != nil {
		if cfg.FindMy.AccountID == "" {
			return fmt.Errorf("findmy.account_id is required")
		}
		if cfg.FindMy.PasswordFile == "" {
			return fmt.Errorf("findmy.password_file is required")
		}
		if cfg.FindMy.TimeoutSeconds < 0 || cfg.FindMy.TimeoutSeconds > maxTimeoutSeconds {
			return fmt.Errorf("findmy.timeout_seconds must be between 0 and %d", maxTimeoutSeconds)
		}
	}

	if cfg.MQTT != nil {
		if cfg.MQTT.Broker.Host == "" {
			return fmt.Errorf("mqtt.broker.host is required")
		}
		if cfg.MQTT.Broker.Port < 1 || cfg.MQTT.Broker.Port > 65535 {
			return fmt.Errorf("mqtt.broker.port must be between 1 and 65535")
		}
		if cfg.MQTT.QoS < 0 || cfg.MQTT.QoS > maxMQTTQoS {
			return fmt.Errorf("mqtt.qos must be 0, 1, or 2")
		}
		if cfg.MQTT.Auth.Username != "" && cfg.MQTT.Auth.PasswordFile == "" {
			return fmt.Errorf("mqtt.auth.password_file is required when username is set")
		}
	}

	return nil
}

// EnabledPlugins maps enabled plugin IDs based on config presence.
func EnabledPlugins(cfg *Config) map[string]bool {
	enabled := make(map[string]bool)
	if cfg == nil {
		return enabled
	}
	if cfg.FindMy != nil {
		enabled["findmy"] = true
	}
	return enabled
}
