package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"cad-auth/internal/models"
	"cad-auth/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func newTestApp(out *bytes.Buffer) *cli.App {
	app := NewApp()
	app.Name = "cad-auth"
	app.Writer = out
	app.ErrWriter = out
	// не даємо cli.Exit завершити процес тестів
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app
}

func configure(t *testing.T) string {
	t.Helper()
	t.Setenv("DISCORD_CLIENT_ID", "client-123")
	t.Setenv("DISCORD_CLIENT_SECRET", "discord-secret")
	t.Setenv("JWT_SECRET", "cli-secret")

	output := filepath.Join(t.TempDir(), "_local.hcl")
	var out bytes.Buffer
	err := newTestApp(&out).Run([]string{
		"cad-auth", "--env-file", "",
		"configure",
		"--template", filepath.Join("..", "..", "configs", "cad-auth.hcl.tmpl"),
		"--output", output,
		"--mode", "staging",
	})
	require.NoError(t, err)
	return output
}

func TestConfigureThenVerifyToken(t *testing.T) {
	configPath := configure(t)

	token, _, err := services.NewTokenService("cli-secret", time.Hour, 0).Issue(
		models.Identity{ID: "111", Username: "alice"},
		models.DepartmentList{models.DepartmentPSP},
	)
	require.NoError(t, err)

	var out bytes.Buffer
	err = newTestApp(&out).Run([]string{"cad-auth", "--env-file", "", "token", "verify", "--config", configPath, token})
	require.NoError(t, err)

	var info models.TokenInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, "111", info.UID)
	assert.Equal(t, []string{"PSP"}, info.Departments)
}

func TestVerifyToken_WrongKey(t *testing.T) {
	configPath := configure(t)

	token, _, err := services.NewTokenService("another-secret", time.Hour, 0).Issue(
		models.Identity{ID: "111", Username: "alice"},
		models.NoDepartment(),
	)
	require.NoError(t, err)

	var out bytes.Buffer
	err = newTestApp(&out).Run([]string{"cad-auth", "--env-file", "", "token", "verify", "--config", configPath, token})
	require.Error(t, err)

	var exitErr cli.ExitCoder
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode())
}

func TestVerifyToken_MissingConfig(t *testing.T) {
	var out bytes.Buffer
	err := newTestApp(&out).Run([]string{
		"cad-auth", "--env-file", "",
		"token", "verify", "--config", filepath.Join(t.TempDir(), "missing.hcl"), "a.b.c",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Run 'configure' command first")
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, newTestApp(&out).Run([]string{"cad-auth", "--env-file", "", "version"}))
	assert.Contains(t, out.String(), "Version:")
}
