// CAD auth server для Kubernetes - читає конфігурацію зі змінних середовища
package main

import (
	"log"
	"os"
	"strconv"
	"strings"

	"cad-auth/internal/config"
)

func main() {
	cfg := loadConfigFromEnv()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := config.StartServer(cfg); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func loadConfigFromEnv() *config.Config {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:         getEnv("HOST", "0.0.0.0"),
			Port:         getEnvInt("PORT", 8080),
			Environment:  getEnv("MODE", "production"),
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			LogFormat:    getEnv("LOG_FORMAT", "json"),
			ReadTimeout:  getEnv("READ_TIMEOUT", "30s"),
			WriteTimeout: getEnv("WRITE_TIMEOUT", "30s"),
			IdleTimeout:  getEnv("IDLE_TIMEOUT", "120s"),
		},

		Membership: config.MembershipConfig{
			Driver:      getEnv("MEMBERSHIP_DRIVER", "postgres"),
			OverseerKey: getEnv("MEMBERSHIP_OVERSEER_KEY", "01"),
			Sentinel:    getEnv("MEMBERSHIP_SENTINEL", "0"),
		},

		Discord: config.DiscordConfig{
			ClientID:     getEnv("DISCORD_CLIENT_ID", ""),
			ClientSecret: getEnv("DISCORD_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("DISCORD_REDIRECT_URL", ""),
			Timeout:      getEnv("DISCORD_TIMEOUT", "10s"),
		},

		Tokens: config.TokensConfig{
			SigningKey:    getEnv("JWT_SECRET", ""),
			TokenDuration: getEnv("TOKEN_DURATION", "6h"),
			ExpirySkew:    getEnv("TOKEN_EXPIRY_SKEW", "0s"),
		},

		Frontend: config.FrontendConfig{
			BaseURL:        getEnv("FRONTEND_BASE_URL", ""),
			AllowedOrigins: getEnvList("FRONTEND_ALLOWED_ORIGINS"),
		},

		Security: config.SecurityConfig{
			CORS: config.CORSConfig{
				AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
				AllowedMethods: []string{"GET", "OPTIONS"},
				AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
				MaxAge:         3600,
			},
			RateLimit: config.RateLimitConfig{
				Enabled:           getEnv("RATE_LIMIT_ENABLED", "true") == "true",
				RequestsPerMinute: getEnvInt("RATE_LIMIT_RPM", 30),
				Burst:             getEnvInt("RATE_LIMIT_BURST", 10),
			},
			Session: config.SessionConfig{
				CookieDomain: getEnv("COOKIE_DOMAIN", ""),
				StateTTL:     getEnv("STATE_TTL", "5m"),
			},
		},
	}

	if cfg.Membership.Driver == "postgres" {
		cfg.Database = &config.DatabaseConfig{
			Host:                  getEnv("DB_HOST", "postgres-service"),
			Port:                  getEnvInt("DB_PORT", 5432),
			Name:                  getEnv("DB_NAME", "cad_auth"),
			User:                  getEnv("DB_USER", "cad_auth"),
			Password:              getEnv("DB_PASSWORD", ""),
			SSLMode:               getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConnections:    10,
			MaxIdleConnections:    5,
			ConnectionMaxLifetime: getEnv("DB_CONN_MAX_LIFETIME", "5m"),
		}
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
