package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600))
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := writeConfig(t, "jwt:\n  secret: s3cret\n")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, "medical_reports", cfg.Report.ArchiveDir)
	assert.Equal(t, 12, cfg.JWT.ExpiryHours)
	assert.False(t, cfg.SMTP.Enabled())
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: 9000
database:
  host: db.internal
  name: clinic
jwt:
  secret: from-file
report:
  clinic_name: Heart Center
`)
	t.Setenv("CARDIO_DATABASE_HOST", "db.override")
	t.Setenv("CARDIO_JWT_SECRET", "from-env")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "db.override", cfg.Database.Host)
	assert.Equal(t, "clinic", cfg.Database.Name)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "Heart Center", cfg.Report.ClinicName)
	assert.Contains(t, cfg.Database.DSN(), "host=db.override")
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	dir := writeConfig(t, "server:\n  port: 8080\n")

	_, err := LoadConfig(dir)
	assert.EqualError(t, err, "jwt.secret is required")
}

func TestLoadConfigRejectsUnknownSessionBackend(t *testing.T) {
	dir := writeConfig(t, "jwt:\n  secret: x\nsession:\n  backend: memcached\n")

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}
