// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package config

import (
	"fmt"
	"net/url"
)

var (
	validLogLevels = map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true,
	}
	validLogFormats = map[string]bool{"json": true, "console": true}
	validModes      = map[string]bool{"": true, ModeOwn: true, ModeFriends: true, ModeBoth: true}
)

// Validate checks that configuration values are well formed.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateConnectivity(); err != nil {
		return err
	}
	return c.validateServices()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

func (c *Config) validateConnectivity() error {
	if c.Connectivity.CheckURL != "" {
		if err := validateBaseURL(c.Connectivity.CheckURL, "CONNECTIVITY_CHECK_URL"); err != nil {
			return err
		}
	}
	if c.Connectivity.Interval <= 0 {
		return fmt.Errorf("CONNECTIVITY_INTERVAL must be positive")
	}
	return nil
}

// validateServices checks every service, including disabled ones, so a
// typo is reported before the service is switched on. URLs are only
// checked for enabled services.
func (c *Config) validateServices() error {
	for _, name := range ServiceNames {
		svc, _ := c.Services.Get(name)
		if err := validateService(name, svc); err != nil {
			return err
		}
	}
	return nil
}

func validateService(name string, svc ServiceConfig) error {
	if !validModes[svc.Mode] {
		return fmt.Errorf("services.%s.mode must be one of: own, friends, both (got %q)", name, svc.Mode)
	}
	if svc.RefreshInterval <= 0 {
		return fmt.Errorf("services.%s.refresh_interval must be positive", name)
	}
	if svc.RequestsPerSecond < 0 {
		return fmt.Errorf("services.%s.requests_per_second must not be negative", name)
	}
	if !svc.Enabled {
		return nil
	}
	if err := validateBaseURL(svc.BaseURL, "services."+name+".base_url"); err != nil {
		return err
	}
	if svc.AuthURL != "" {
		if err := validateBaseURL(svc.AuthURL, "services."+name+".auth_url"); err != nil {
			return err
		}
	}
	return nil
}

// validateBaseURL requires an absolute http(s) URL with a host. Paths are
// allowed because several APIs are rooted below the host.
func validateBaseURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %q", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}

	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}

	return nil
}
