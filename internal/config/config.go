package config

import (
	"fmt"
	"os"
	"strings"

	"cad-auth/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Config представляє повну конфігурацію додатку
type Config struct {
	Server      ServerConfig       `hcl:"server,block"`
	Database    *DatabaseConfig    `hcl:"database,block"`
	Membership  MembershipConfig   `hcl:"membership,block"`
	Discord     DiscordConfig      `hcl:"discord,block"`
	Tokens      TokensConfig       `hcl:"tokens,block"`
	Frontend    FrontendConfig     `hcl:"frontend,block"`
	Security    SecurityConfig     `hcl:"security,block"`
	Departments []DepartmentConfig `hcl:"department,block" validate:"dive"`
}

// ServerConfig містить налаштування HTTP сервера
type ServerConfig struct {
	Host         string `hcl:"host,optional"`
	Port         int    `hcl:"port" validate:"min=1,max=65535"`
	Environment  string `hcl:"environment,optional" validate:"omitempty,oneof=local development staging production"`
	LogLevel     string `hcl:"log_level,optional"`
	LogFormat    string `hcl:"log_format,optional" validate:"omitempty,oneof=json text"`
	ReadTimeout  string `hcl:"read_timeout,optional"`
	WriteTimeout string `hcl:"write_timeout,optional"`
	IdleTimeout  string `hcl:"idle_timeout,optional"`
}

// DatabaseConfig містить налаштування бази даних
type DatabaseConfig struct {
	Host                  string `hcl:"host" validate:"required"`
	Port                  int    `hcl:"port,optional"`
	Name                  string `hcl:"name" validate:"required"`
	User                  string `hcl:"user" validate:"required"`
	Password              string `hcl:"password,optional"`
	SSLMode               string `hcl:"ssl_mode,optional"`
	MaxOpenConnections    int    `hcl:"max_open_connections,optional"`
	MaxIdleConnections    int    `hcl:"max_idle_connections,optional"`
	ConnectionMaxLifetime string `hcl:"connection_max_lifetime,optional"`
}

// MembershipConfig описує сховище списків членства
type MembershipConfig struct {
	Driver      string              `hcl:"driver" validate:"oneof=postgres memory"`
	OverseerKey string              `hcl:"overseer_key,optional"`
	Sentinel    string              `hcl:"sentinel,optional"`
	Seed        map[string][]string `hcl:"seed,optional"`
}

// DiscordConfig містить налаштування Discord OAuth застосунку
type DiscordConfig struct {
	ClientID     string `hcl:"client_id" validate:"required"`
	ClientSecret string `hcl:"client_secret" validate:"required"`
	RedirectURL  string `hcl:"redirect_url" validate:"required,url"`
	AuthURL      string `hcl:"auth_url,optional" validate:"omitempty,url"`
	TokenURL     string `hcl:"token_url,optional" validate:"omitempty,url"`
	UserURL      string `hcl:"user_url,optional" validate:"omitempty,url"`
	CDNURL       string `hcl:"cdn_url,optional" validate:"omitempty,url"`
	Timeout      string `hcl:"timeout,optional"`
}

// TokensConfig містить налаштування CAD токенів
type TokensConfig struct {
	SigningKey    string `hcl:"signing_key" validate:"required"`
	TokenDuration string `hcl:"token_duration,optional"`
	ExpirySkew    string `hcl:"expiry_skew,optional"`
}

// FrontendConfig описує портал, куди повертається користувач
type FrontendConfig struct {
	BaseURL        string   `hcl:"base_url" validate:"required,url"`
	AllowedOrigins []string `hcl:"allowed_origins,optional" validate:"dive,url"`
}

// SecurityConfig містить налаштування безпеки
type SecurityConfig struct {
	CORS      CORSConfig      `hcl:"cors,block"`
	RateLimit RateLimitConfig `hcl:"rate_limit,block"`
	Session   SessionConfig   `hcl:"session,block"`
}

// CORSConfig містить налаштування CORS
type CORSConfig struct {
	AllowedOrigins   []string `hcl:"allowed_origins,optional"`
	AllowedMethods   []string `hcl:"allowed_methods,optional"`
	AllowedHeaders   []string `hcl:"allowed_headers,optional"`
	AllowCredentials bool     `hcl:"allow_credentials,optional"`
	MaxAge           int      `hcl:"max_age,optional"`
}

// RateLimitConfig містить налаштування rate limiting для /login і /callback
type RateLimitConfig struct {
	Enabled           bool `hcl:"enabled,optional"`
	RequestsPerMinute int  `hcl:"requests_per_minute,optional" validate:"gte=0"`
	Burst             int  `hcl:"burst,optional" validate:"gte=0"`
}

// SessionConfig містить налаштування cookies OAuth flow
type SessionConfig struct {
	CookieDomain string `hcl:"cookie_domain,optional"`
	StateTTL     string `hcl:"state_ttl,optional"`
}

// DepartmentConfig - ресурси одного підрозділу для /resources
type DepartmentConfig struct {
	Code      string `hcl:"code,label" validate:"oneof=PBP PBF PSP DOT ACSO"`
	Name      string `hcl:"name" validate:"required"`
	MelonLink string `hcl:"melon_link,optional"`
	MelonCode string `hcl:"melon_code,optional"`
	Discord   string `hcl:"discord,optional"`
}

var validate = validator.New()

// envFunc дозволяє тримати секрети в оточенні: env("NAME") або env("NAME", "default")
var envFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
	},
	VarParam: &function.Parameter{Name: "default", Type: cty.String},
	Type:     function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		if value, ok := os.LookupEnv(args[0].AsString()); ok && value != "" {
			return cty.StringVal(value), nil
		}
		if len(args) > 1 {
			return args[1], nil
		}
		return cty.StringVal(""), nil
	},
})

// evalContext повертає функції, доступні у файлі конфігурації
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"env":       envFunc,
			"split":     stdlib.SplitFunc,
			"trimspace": stdlib.TrimSpaceFunc,
			"lower":     stdlib.LowerFunc,
			"upper":     stdlib.UpperFunc,
			"tonumber":  stdlib.MakeToFunc(cty.Number),
			"tobool":    stdlib.MakeToFunc(cty.Bool),
		},
	}
}

// LoadConfig завантажує конфігурацію з HCL файлу
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var config Config
	if err := hclsimple.DecodeFile(configPath, evalContext(), &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.ApplyDefaults()

	// Валідація конфігурації
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate перевіряє валідність конфігурації
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	// Postgres потребує блоку database
	if c.Membership.Driver == "postgres" && c.Database == nil {
		return fmt.Errorf("database block is required for membership driver postgres")
	}

	if strings.TrimSpace(c.Tokens.SigningKey) == "" {
		return fmt.Errorf("tokens signing key is required")
	}

	durations := map[string]string{
		"tokens.token_duration":      c.Tokens.TokenDuration,
		"tokens.expiry_skew":         c.Tokens.ExpirySkew,
		"discord.timeout":            c.Discord.Timeout,
		"security.session.state_ttl": c.Security.Session.StateTTL,
	}
	for field, value := range durations {
		if _, err := parseDuration(value, 0); err != nil {
			return fmt.Errorf("invalid %s: %w", field, err)
		}
	}

	ttl, _ := c.TokenTTL()
	if ttl <= 0 {
		return fmt.Errorf("tokens.token_duration must be positive")
	}
	skew, _ := c.ExpirySkew()
	if skew < 0 || skew >= ttl {
		return fmt.Errorf("tokens.expiry_skew must be in [0, token_duration)")
	}

	for key := range c.Membership.Seed {
		if key == c.Membership.OverseerKey {
			continue
		}
		if _, err := models.ParseDepartment(key); err != nil || key == models.DepartmentNON.Key() {
			return fmt.Errorf("membership seed key %q is not a department key", key)
		}
	}

	if c.Security.CORS.AllowCredentials {
		for _, origin := range c.Security.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf("security.cors: allow_credentials cannot be combined with allowed_origins \"*\"")
			}
		}
	}

	seen := make(map[string]bool, len(c.Departments))
	for _, d := range c.Departments {
		if seen[d.Code] {
			return fmt.Errorf("department %s is declared twice", d.Code)
		}
		seen[d.Code] = true
	}

	return nil
}

// GetAddress повертає адресу для прослуховування сервера
func (c *Config) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetDatabaseDSN повертає DSN для підключення до бази даних
func (c *Config) GetDatabaseDSN() string {
	if c.Database == nil {
		return ""
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// IsDevelopment перевіряє чи додаток працює в режимі розробки
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development" || c.Server.Environment == "local"
}

// IsProduction перевіряє чи додаток працює в продакшн режимі
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// DepartmentResources повертає ресурси підрозділів, проіндексовані за кодом
func (c *Config) DepartmentResources() map[models.Department]models.DepartmentResource {
	resources := make(map[models.Department]models.DepartmentResource, len(c.Departments))
	for _, d := range c.Departments {
		dept, err := models.ParseDepartment(d.Code)
		if err != nil {
			continue
		}
		resources[dept] = models.DepartmentResource{
			Code:      dept.String(),
			Name:      d.Name,
			MelonLink: d.MelonLink,
			MelonCode: d.MelonCode,
			Discord:   d.Discord,
		}
	}
	return resources
}
