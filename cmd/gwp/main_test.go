package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swellcycle/surfboard-gwp/internal/auth"
	"github.com/swellcycle/surfboard-gwp/internal/config"
	"github.com/swellcycle/surfboard-gwp/internal/report"
	"golang.org/x/crypto/bcrypt"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(t.Context())
	return stdout.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, slogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, slogLevel("warn"))
	assert.Equal(t, slog.LevelError, slogLevel("error"))
	assert.Equal(t, slog.LevelInfo, slogLevel("unknown"))
}

func TestCalcDemo(t *testing.T) {
	out, err := execute(t, "", "calc", "--demo")
	require.NoError(t, err)

	assert.Contains(t, out, "PET foam core")
	assert.Contains(t, out, "Factory to shop (road)")
	assert.Contains(t, out, "20.292")
}

func TestCalcFile(t *testing.T) {
	path := writeFile(t, "board.yaml", `
materials:
  - name: PET
    quantity: 2
    emission_factor: 3.468
  - name: Epoxy
    quantity: abc
transport:
  - name: ship
    distance_miles: 100
    payload_kg: 5
    shares: {road: 50, rail: 40}
`)
	exportPath := filepath.Join(t.TempDir(), "board.csv")

	out, err := execute(t, "", "calc", path, "--export", exportPath)
	require.NoError(t, err)

	assert.Contains(t, out, "6.936")
	assert.Contains(t, out, "materials[1].quantity")
	assert.Contains(t, out, "transport total not computed")

	content, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.Equal(t, "Component,Total GWP (kg CO₂ eq)\n"+
		"Materials,6.936\n"+
		"Processes,0.000\n"+
		"Transportation,\n", string(content))
}

func TestCalcExportDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")

	_, err := execute(t, "", "calc", "--demo", "--export-dir", dir)
	require.NoError(t, err)

	for _, name := range []string{report.CSVName, report.XLSXName, report.PDFName} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.NotZero(t, info.Size(), name)
	}
}

func TestCalcArguments(t *testing.T) {
	_, err := execute(t, "", "calc")
	assert.ErrorContains(t, err, "either an assessment file or --demo is required")

	_, err = execute(t, "", "calc", "--demo", "board.yaml")
	assert.Error(t, err)

	_, err = execute(t, "", "calc", "--demo", "--export", filepath.Join(t.TempDir(), "board.docx"))
	assert.ErrorContains(t, err, "unsupported report extension")
}

func TestCalcFactorsFile(t *testing.T) {
	factors := writeFile(t, "factors.yaml", `
material_defaults:
  pet_foam: 10
`)

	out, err := execute(t, "", "--factors", factors, "calc", "--demo")
	require.NoError(t, err)
	// 2 kg of PET foam core at 10 kgCO2eq/kg
	assert.Contains(t, out, "20.000")
}

func TestHashPassword(t *testing.T) {
	out, err := execute(t, "wave-rider\n", "hash-password")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("wave-rider")))

	_, err = execute(t, "", "hash-password")
	assert.ErrorContains(t, err, "no password given on stdin")
}

func TestToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("wave-rider"), bcrypt.MinCost)
	require.NoError(t, err)
	secret := strings.Repeat("s", 32)
	path := writeFile(t, "gwp.yaml", "auth:\n  username: shaper\n  password_hash: "+string(hash)+"\n  jwt_secret: "+secret+"\n")

	out, err := execute(t, "", "--config", path, "token")
	require.NoError(t, err)

	username, err := auth.New(config.Auth{
		Username:     "shaper",
		PasswordHash: string(hash),
		JWTSecret:    secret,
		TokenTTL:     time.Hour,
	}).Validate(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "shaper", username)
}

func TestTokenNotConfigured(t *testing.T) {
	t.Setenv(config.EnvUsername, "")
	t.Setenv(config.EnvPasswordHash, "")
	t.Setenv(config.EnvJWTSecret, "")

	_, err := execute(t, "", "token")
	assert.ErrorIs(t, err, auth.ErrNotConfigured)
}

func TestInvalidConfig(t *testing.T) {
	_, err := execute(t, "", "--log.format", "xml", "calc", "--demo")
	assert.ErrorContains(t, err, `unsupported log format "xml"`)
}

func TestRunServeShutsDown(t *testing.T) {
	opts := &options{cfg: config.Default()}
	opts.cfg.Listen = "127.0.0.1:0"
	opts.cfg.Store.Path = filepath.Join(t.TempDir(), "history.db")
	opts.cfg.Archive.URL = "file://" + t.TempDir()

	ctx, cancel := context.WithTimeout(t.Context(), 200*time.Millisecond)
	defer cancel()

	assert.NoError(t, runServe(ctx, opts, true))
}
