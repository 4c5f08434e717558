package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/nlsql/internal/config"
	"github.com/Rrens/nlsql/internal/csvexport"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, cfg.Database.ReadOnly)
	assert.True(t, cfg.Export.BOM)
	assert.Equal(t, 0, cfg.Export.MaxRows)
	assert.Equal(t, 30*time.Second, cfg.Security.QueryTimeout)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Auth.Enabled)
	require.NoError(t, cfg.Validate())

	opts, err := cfg.Export.Options()
	require.NoError(t, err)
	assert.Equal(t, csvexport.DefaultOptions(), opts)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
database:
  driver: postgres
  host: db
  port: 5433
  user: reader
  database: shop
export:
  bom: false
  line_terminator: lf
  max_rows: 1000
`), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("DB_PASSWORD", "s3cret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "postgres://reader:s3cret@db:5433/shop?sslmode=disable", cfg.Database.DSN())

	opts, err := cfg.Export.Options()
	require.NoError(t, err)
	assert.False(t, opts.BOM)
	assert.Equal(t, csvexport.LF, opts.LineTerminator)
	assert.Equal(t, 1000, cfg.Export.MaxRows)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			Database: config.DatabaseConfig{Driver: "sqlite", Path: "app.db"},
			Export:   config.ExportConfig{LineTerminator: "crlf", Escaping: "standard"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr bool
	}{
		{"valid", func(c *config.Config) {}, false},
		{"unknown driver", func(c *config.Config) { c.Database.Driver = "oracle" }, true},
		{"sqlite without path", func(c *config.Config) { c.Database.Path = "" }, true},
		{"bad terminator", func(c *config.Config) { c.Export.LineTerminator = "cr" }, true},
		{"bad escaping", func(c *config.Config) { c.Export.Escaping = "html" }, true},
		{"negative max rows", func(c *config.Config) { c.Export.MaxRows = -1 }, true},
		{"auth without secret", func(c *config.Config) { c.Auth.Enabled = true }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDatabaseConfig_MigrateURL(t *testing.T) {
	tests := []struct {
		cfg     config.DatabaseConfig
		want    string
		wantErr bool
	}{
		{config.DatabaseConfig{Driver: "sqlite", Path: "data/app.db"}, "sqlite://data/app.db", false},
		{config.DatabaseConfig{Driver: "mysql", User: "u", Password: "p", Host: "h", Port: 3306, Database: "d"}, "mysql://u:p@tcp(h:3306)/d?parseTime=true&multiStatements=true", false},
		{config.DatabaseConfig{Driver: "mongodb"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.cfg.Driver, func(t *testing.T) {
			got, err := tt.cfg.MigrateURL()
			if (err != nil) != tt.wantErr {
				t.Fatalf("MigrateURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
