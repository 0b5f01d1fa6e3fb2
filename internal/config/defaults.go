package config

import (
	"strings"
	"time"

	"cad-auth/internal/services"
)

const (
	DefaultTokenDuration  = 6 * time.Hour
	DefaultDiscordTimeout = 10 * time.Second
	DefaultStateTTL       = 5 * time.Minute
)

// ApplyDefaults заповнює необов'язкові поля, яких немає у файлі
func (c *Config) ApplyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Environment == "" {
		c.Server.Environment = "production"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.LogFormat == "" {
		c.Server.LogFormat = "json"
	}

	if c.Database != nil {
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
		if c.Database.MaxOpenConnections == 0 {
			c.Database.MaxOpenConnections = 10
		}
		if c.Database.MaxIdleConnections == 0 {
			c.Database.MaxIdleConnections = 5
		}
		if c.Database.ConnectionMaxLifetime == "" {
			c.Database.ConnectionMaxLifetime = "5m"
		}
	}

	if c.Membership.Driver == "" {
		c.Membership.Driver = "postgres"
	}
	if c.Membership.OverseerKey == "" {
		c.Membership.OverseerKey = services.DefaultOverseerKey
	}
	if c.Membership.Sentinel == "" {
		c.Membership.Sentinel = services.DefaultSentinel
	}

	if c.Discord.AuthURL == "" {
		c.Discord.AuthURL = services.DefaultDiscordAuthURL
	}
	if c.Discord.TokenURL == "" {
		c.Discord.TokenURL = services.DefaultDiscordTokenURL
	}
	if c.Discord.UserURL == "" {
		c.Discord.UserURL = services.DefaultDiscordUserURL
	}
	if c.Discord.CDNURL == "" {
		c.Discord.CDNURL = services.DefaultDiscordCDNURL
	}

	c.Frontend.BaseURL = strings.TrimRight(c.Frontend.BaseURL, "/")

	if len(c.Security.CORS.AllowedMethods) == 0 {
		c.Security.CORS.AllowedMethods = []string{"GET", "OPTIONS"}
	}
	if len(c.Security.CORS.AllowedHeaders) == 0 {
		c.Security.CORS.AllowedHeaders = []string{"Authorization", "Content-Type", "X-Request-ID"}
	}
	if c.Security.RateLimit.RequestsPerMinute == 0 {
		c.Security.RateLimit.RequestsPerMinute = 30
	}
	if c.Security.RateLimit.Burst == 0 {
		c.Security.RateLimit.Burst = 10
	}
}
