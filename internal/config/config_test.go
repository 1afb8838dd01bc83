package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.toml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "datacopilot", cfg.App.Name)
	assert.Equal(t, 8000, cfg.App.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "dataset_rows", cfg.Dataset.Table)
	assert.Equal(t, 30, cfg.Dataset.RowLimit)
	assert.Equal(t, "img.png", cfg.Chart.ArtifactPath)
	assert.Equal(t, "chat.turn.persist", cfg.RabbitMQ.TurnPersistQueue)
}

func TestLoad_FileThenEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[app]
port = 9000

[dataset]
table = "from_file"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DATASET_TABLE", "from_env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.App.Port)
	// Environment wins over the file.
	assert.Equal(t, "from_env", cfg.Dataset.Table)
}

func TestValidate(t *testing.T) {
	csv := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(csv, []byte("a\n1\n"), 0o644))

	valid := func() *Config {
		cfg := defaultConfig()
		cfg.LLM.APIKey = "sk-test"
		cfg.Auth.JWTSecret = "secret"
		cfg.Dataset.CSVPath = csv
		return cfg
	}

	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.LLM.APIKey = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Auth.JWTSecret = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Dataset.CSVPath = filepath.Join(t.TempDir(), "missing.csv")
	assert.Error(t, cfg.Validate())
}

func TestHTTPAddr(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t, "0.0.0.0:8000", cfg.HTTPAddr())
}

func TestMySQLDSN(t *testing.T) {
	cfg := defaultConfig()
	cfg.Database.MySQL.Password = "pw"
	assert.Equal(t,
		"root:pw@tcp(127.0.0.1:3306)/datacopilot?parseTime=true&loc=Local&charset=utf8mb4",
		cfg.MySQLDSN())
}
