package config

import (
	"fmt"
	"strings"
	"time"
)

// parseDuration розбирає рядок тривалості з HCL. Порожній рядок дає def.
func parseDuration(value string, def time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("duration %q: %w", value, err)
	}
	return d, nil
}

// TokenTTL повертає час життя CAD токена
func (c *Config) TokenTTL() (time.Duration, error) {
	return parseDuration(c.Tokens.TokenDuration, DefaultTokenDuration)
}

// ExpirySkew повертає допуск годинника, з яким перевіряється exp
func (c *Config) ExpirySkew() (time.Duration, error) {
	return parseDuration(c.Tokens.ExpirySkew, 0)
}

// DiscordTimeout повертає межу часу для кожного запиту до Discord
func (c *Config) DiscordTimeout() (time.Duration, error) {
	return parseDuration(c.Discord.Timeout, DefaultDiscordTimeout)
}

// StateTTL повертає час життя oauth_state cookie
func (c *Config) StateTTL() (time.Duration, error) {
	return parseDuration(c.Security.Session.StateTTL, DefaultStateTTL)
}

// serverTimeouts повертає read, write, idle таймаути HTTP сервера
func (c *Config) serverTimeouts() (read, write, idle time.Duration) {
	read, err := parseDuration(c.Server.ReadTimeout, 30*time.Second)
	if err != nil {
		read = 30 * time.Second
	}
	write, err = parseDuration(c.Server.WriteTimeout, 30*time.Second)
	if err != nil {
		write = 30 * time.Second
	}
	idle, err = parseDuration(c.Server.IdleTimeout, 120*time.Second)
	if err != nil {
		idle = 120 * time.Second
	}
	return read, write, idle
}
