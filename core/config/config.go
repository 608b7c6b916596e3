package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Env        string
	Port       string
	OTel       OTelConfig
	ServiceNow ServiceNowConfig
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

// ServiceNowConfig holds every configured instance. Default names the
// instance used when a tool call does not pick one.
type ServiceNowConfig struct {
	Default   string
	Instances map[string]Instance
}

// Instance is one ServiceNow instance's connection settings. The JSON tags
// match the SERVICENOW_INSTANCES payload.
type Instance struct {
	URL            string `json:"url"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// Load reads configuration from environment variables. In development a .env
// file is loaded first.
//
// Instances come from two sources that can be combined:
//   - SERVICENOW_INSTANCE_URL / _USERNAME / _PASSWORD define an instance
//     named "default"
//   - SERVICENOW_INSTANCES holds a JSON object of named instances, e.g.
//     {"prod":{"url":"https://acme.service-now.com","username":"u","password":"p"}}
//
// SERVICENOW_DEFAULT_INSTANCE picks which name is the default.
func Load() (Config, error) {
	if getEnv("BRIDGE_ENV", "development") == "development" {
		_ = godotenv.Load(".env")
	}

	cfg := Config{
		Env:  getEnv("BRIDGE_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "snowbridge"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
	}

	instances := make(map[string]Instance)

	if raw := getEnv("SERVICENOW_INSTANCES", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &instances); err != nil {
			return Config{}, fmt.Errorf("parsing SERVICENOW_INSTANCES: %w", err)
		}
		for name, inst := range instances {
			if inst.URL == "" {
				return Config{}, fmt.Errorf("instance %q has no url", name)
			}
		}
	}

	if url := getEnv("SERVICENOW_INSTANCE_URL", ""); url != "" {
		instances["default"] = Instance{
			URL:            url,
			Username:       getEnv("SERVICENOW_USERNAME", ""),
			Password:       getEnv("SERVICENOW_PASSWORD", ""),
			TimeoutSeconds: getEnvInt("SERVICENOW_TIMEOUT_SECONDS", 30),
		}
	}

	if len(instances) == 0 {
		return Config{}, fmt.Errorf("no instances configured: set SERVICENOW_INSTANCE_URL or SERVICENOW_INSTANCES")
	}

	defaultName := getEnv("SERVICENOW_DEFAULT_INSTANCE", "")
	if defaultName == "" {
		if _, ok := instances["default"]; ok {
			defaultName = "default"
		} else if len(instances) == 1 {
			for name := range instances {
				defaultName = name
			}
		} else {
			return Config{}, fmt.Errorf("multiple instances configured: set SERVICENOW_DEFAULT_INSTANCE")
		}
	}
	if _, ok := instances[defaultName]; !ok {
		return Config{}, fmt.Errorf("default instance %q is not configured", defaultName)
	}

	cfg.ServiceNow = ServiceNowConfig{
		Default:   defaultName,
		Instances: instances,
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}
