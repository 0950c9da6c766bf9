// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package config

import (
	"sort"
	"time"
)

// Service names.
const (
	ServiceDigg    = "digg"
	ServiceMySpace = "myspace"
	ServiceSina    = "sina"
	ServicePlurk   = "plurk"
	ServiceYouTube = "youtube"
)

// ServiceNames lists every supported service.
var ServiceNames = []string{ServiceDigg, ServiceMySpace, ServicePlurk, ServiceSina, ServiceYouTube}

// Timeline modes for services that can show the user's own posts,
// their friends' posts, or both.
const (
	ModeOwn     = "own"
	ModeFriends = "friends"
	ModeBoth    = "both"
)

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Logging      LoggingConfig      `koanf:"logging"`
	Storage      StorageConfig      `koanf:"storage"`
	Security     SecurityConfig     `koanf:"security"`
	Connectivity ConnectivityConfig `koanf:"connectivity"`
	Services     ServicesConfig     `koanf:"services"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// StorageConfig holds on-disk locations.
type StorageConfig struct {
	// CachePath is the badger directory for cached item sets. Empty keeps
	// the cache in memory.
	CachePath string `koanf:"cache_path"`

	// SecretsPath is the badger directory for encrypted credentials.
	SecretsPath string `koanf:"secrets_path"`

	// BanlistPath is the sqlite file for permanently hidden items.
	BanlistPath string `koanf:"banlist_path"`

	// AvatarDir receives downloaded avatars and item images.
	AvatarDir string `koanf:"avatar_dir"`
}

// SecurityConfig holds secret-store and API protection settings.
type SecurityConfig struct {
	// SecretKey derives the AES key of the secret store.
	SecretKey string `koanf:"secret_key"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// ConnectivityConfig configures the reachability probe.
type ConnectivityConfig struct {
	// CheckURL is probed with HEAD. Empty means always online.
	CheckURL string        `koanf:"check_url"`
	Interval time.Duration `koanf:"interval"`
	Timeout  time.Duration `koanf:"timeout"`
}

// ServiceConfig configures one social service.
type ServiceConfig struct {
	Enabled bool   `koanf:"enabled"`
	BaseURL string `koanf:"base_url"`

	// AuthURL is the token endpoint for services that authenticate
	// separately from their API host.
	AuthURL string `koanf:"auth_url"`

	APIKey    string `koanf:"api_key"`
	APISecret string `koanf:"api_secret"`

	// Username and Password seed the secret store and are watched for
	// changes.
	Username string `koanf:"username"`
	Password string `koanf:"password"`

	Mode string `koanf:"mode"`

	RefreshInterval time.Duration `koanf:"refresh_interval"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`

	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

// ServicesConfig holds per-service settings.
type ServicesConfig struct {
	Digg    ServiceConfig `koanf:"digg"`
	MySpace ServiceConfig `koanf:"myspace"`
	Sina    ServiceConfig `koanf:"sina"`
	Plurk   ServiceConfig `koanf:"plurk"`
	YouTube ServiceConfig `koanf:"youtube"`
}

// Get returns the settings of the named service.
func (s *ServicesConfig) Get(name string) (ServiceConfig, bool) {
	switch name {
	case ServiceDigg:
		return s.Digg, true
	case ServiceMySpace:
		return s.MySpace, true
	case ServiceSina:
		return s.Sina, true
	case ServicePlurk:
		return s.Plurk, true
	case ServiceYouTube:
		return s.YouTube, true
	}
	return ServiceConfig{}, false
}

// All returns every service keyed by name.
func (s *ServicesConfig) All() map[string]ServiceConfig {
	out := make(map[string]ServiceConfig, len(ServiceNames))
	for _, name := range ServiceNames {
		svc, _ := s.Get(name)
		out[name] = svc
	}
	return out
}

// Enabled returns the names of enabled services, sorted.
func (s *ServicesConfig) Enabled() []string {
	var out []string
	for name, svc := range s.All() {
		if svc.Enabled {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
