// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/feedloom/config.yaml",
	"/etc/feedloom/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

const (
	defaultRefreshInterval = 5 * time.Minute
	defaultCacheTTL        = 24 * time.Hour
)

func defaultService(baseURL string) ServiceConfig {
	return ServiceConfig{
		Enabled:           false,
		BaseURL:           baseURL,
		RefreshInterval:   defaultRefreshInterval,
		CacheTTL:          defaultCacheTTL,
		RequestsPerSecond: 1,
		Burst:             2,
	}
}

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	sina := defaultService("http://api.t.sina.com.cn/")
	sina.Mode = ModeBoth

	youtube := defaultService("http://gdata.youtube.com/feeds/api/")
	youtube.AuthURL = "https://accounts.google.com/o/oauth2/token"

	return &Config{
		Server: ServerConfig{
			Port:    3858,
			Host:    "0.0.0.0",
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Storage: StorageConfig{
			CachePath:   "/data/cache",
			SecretsPath: "/data/secrets",
			BanlistPath: "/data/banlist.db",
			AvatarDir:   "/data/avatars",
		},
		Security: SecurityConfig{
			SecretKey:         "",
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Connectivity: ConnectivityConfig{
			CheckURL: "",
			Interval: 30 * time.Second,
			Timeout:  10 * time.Second,
		},
		Services: ServicesConfig{
			Digg:    defaultService("http://services.digg.com/"),
			MySpace: defaultService("http://api.myspace.com/"),
			Sina:    sina,
			Plurk:   defaultService("http://www.plurk.com/API/"),
			YouTube: youtube,
		},
	}
}

// Load reads configuration from defaults, the config file and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadFrom(findConfigFile())
}

// LoadFrom is Load with an explicit file path. An empty path skips the
// file layer.
func LoadFrom(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// FindConfigFile returns the config file Load would use, or "".
func FindConfigFile() string {
	return findConfigFile()
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// serviceEnvFields maps env suffixes to ServiceConfig keys.
var serviceEnvFields = map[string]string{
	"enabled":             "enabled",
	"base_url":            "base_url",
	"auth_url":            "auth_url",
	"api_key":             "api_key",
	"api_secret":          "api_secret",
	"username":            "username",
	"password":            "password",
	"mode":                "mode",
	"refresh_interval":    "refresh_interval",
	"cache_ttl":           "cache_ttl",
	"requests_per_second": "requests_per_second",
	"burst":               "burst",
}

var envMappings = buildEnvMappings()

func buildEnvMappings() map[string]string {
	m := map[string]string{
		// Server mappings
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Storage mappings
		"cache_path":   "storage.cache_path",
		"secrets_path": "storage.secrets_path",
		"banlist_path": "storage.banlist_path",
		"avatar_dir":   "storage.avatar_dir",

		// Security mappings
		"secret_key":          "security.secret_key",
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",

		// Connectivity mappings
		"connectivity_check_url": "connectivity.check_url",
		"connectivity_interval":  "connectivity.interval",
		"connectivity_timeout":   "connectivity.timeout",
	}

	for _, name := range ServiceNames {
		for suffix, key := range serviceEnvFields {
			m[name+"_"+suffix] = "services." + name + "." + key
		}
	}
	return m
}

// envTransformFunc transforms environment variable names to koanf keys.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}
