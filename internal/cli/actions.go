package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"cad-auth/internal/build"
	"cad-auth/internal/config"
	"cad-auth/internal/services"
)

// loadEnvFile підвантажує .env; відсутній файл не є помилкою
func loadEnvFile(c *cli.Context) error {
	path := c.String("env-file")
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// configureAction генерує конфігурацію з шаблону
func configureAction(c *cli.Context) error {
	templatePath := c.String("template")
	outputPath := c.String("output")
	version := c.String("version")
	mode := c.String("mode")

	fmt.Printf("🔧 Configuring CAD auth server\n")
	fmt.Printf("Template: %s\n", templatePath)
	fmt.Printf("Output: %s\n", outputPath)
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Mode: %s\n", mode)

	templatePathAbs, err := absPath(templatePath)
	if err != nil {
		return err
	}
	outputPathAbs, err := absPath(outputPath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(templatePathAbs); os.IsNotExist(err) {
		return fmt.Errorf("template file does not exist: %s", templatePathAbs)
	}

	vars := getConfigVars(mode, version)

	if err := config.GenerateConfigFromTemplate(templatePathAbs, outputPathAbs, vars); err != nil {
		return fmt.Errorf("failed to generate config: %w", err)
	}

	fmt.Printf("✅ Configuration generated successfully: %s\n", outputPathAbs)
	return nil
}

// serverAction запускає сервер
func serverAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	fmt.Printf("🚀 Starting CAD auth server %s\n", build.Version)
	return config.StartServer(cfg)
}

// migrateAction виконує міграції бази членства
func migrateAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	return config.RunMigrations(cfg)
}

// tokenVerifyAction перевіряє токен і друкує його claims
func tokenVerifyAction(c *cli.Context) error {
	token := strings.TrimSpace(c.Args().First())
	if token == "" {
		return cli.Exit("token argument is required", 2)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	ttl, err := cfg.TokenTTL()
	if err != nil {
		return err
	}
	skew, err := cfg.ExpirySkew()
	if err != nil {
		return err
	}

	claims, err := services.NewTokenService(cfg.Tokens.SigningKey, ttl, skew).Verify(token)
	if err != nil {
		return cli.Exit(fmt.Sprintf("token rejected: %v", err), 1)
	}

	out, err := json.MarshalIndent(claims.Info(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(out))
	return nil
}

// versionAction показує інформацію про версію
func versionAction(c *cli.Context) error {
	info := build.Info()

	fmt.Fprintf(c.App.Writer, "CAD auth server\n")
	fmt.Fprintf(c.App.Writer, "Version: %s\n", info["version"])
	fmt.Fprintf(c.App.Writer, "Git Commit: %s\n", info["git_commit"])
	fmt.Fprintf(c.App.Writer, "Build Time: %s\n", info["build_time"])

	return nil
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s. Run 'configure' command first", configPath)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func absPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	workDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return filepath.Join(workDir, path), nil
}

// getConfigVars повертає мапу змінних для конфігурації
func getConfigVars(mode, version string) map[string]interface{} {
	vars := map[string]interface{}{
		"build_version": version,
		"environment":   mode,
	}

	// Загальні змінні
	setVarFromEnv(vars, "api_server_host", "API_SERVER_HOST", "0.0.0.0")
	setIntFromEnv(vars, "api_server_port", "API_SERVER_PORT", 8080)
	setVarFromEnv(vars, "log_level", "LOG_LEVEL", getLogLevelForMode(mode))
	setVarFromEnv(vars, "log_format", "LOG_FORMAT", getLogFormatForMode(mode))

	// Сховище членства
	setVarFromEnv(vars, "membership_driver", "MEMBERSHIP_DRIVER", "postgres")
	setVarFromEnv(vars, "db_host", "DB_HOST", "localhost")
	setIntFromEnv(vars, "db_port", "DB_PORT", 5432)
	setVarFromEnv(vars, "db_name", "DB_NAME", "cad_auth")
	setVarFromEnv(vars, "db_user", "DB_USER", "cad_auth")
	setVarFromEnv(vars, "db_ssl_mode", "DB_SSL_MODE", "disable")

	// Discord. client_secret залишається в env() у самому HCL
	if v := os.Getenv("DISCORD_CLIENT_ID"); v != "" {
		vars["discord_client_id"] = v
	}
	setVarFromEnv(vars, "discord_redirect_url", "DISCORD_REDIRECT_URL", "http://localhost:8080/callback")

	// Токени та портал
	setVarFromEnv(vars, "token_duration", "TOKEN_DURATION", "6h")
	setVarFromEnv(vars, "frontend_base_url", "FRONTEND_BASE_URL", "http://localhost:3000")
	setVarFromEnv(vars, "frontend_allowed_origins", "FRONTEND_ALLOWED_ORIGINS", "http://localhost:3000")
	setVarFromEnv(vars, "cookie_domain", "COOKIE_DOMAIN", "")
	vars["rate_limit_enabled"] = mode != "local"

	return vars
}

// setVarFromEnv встановлює змінну з оточення або дефолтне значення
func setVarFromEnv(vars map[string]interface{}, key, envKey string, defaultValue interface{}) {
	if envValue := os.Getenv(envKey); envValue != "" {
		vars[key] = envValue
	} else {
		vars[key] = defaultValue
	}
}

func setIntFromEnv(vars map[string]interface{}, key, envKey string, defaultValue int) {
	if n, err := strconv.Atoi(os.Getenv(envKey)); err == nil {
		vars[key] = n
		return
	}
	vars[key] = defaultValue
}

// getLogLevelForMode повертає рівень логування для режиму
func getLogLevelForMode(mode string) string {
	switch mode {
	case "production":
		return "warn"
	case "staging":
		return "info"
	default:
		return "debug"
	}
}

func getLogFormatForMode(mode string) string {
	if mode == "local" {
		return "text"
	}
	return "json"
}
