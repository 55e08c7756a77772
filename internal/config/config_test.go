package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Index:    IndexConfig{Addrs: []string{"localhost:6379"}},
		Postgres: PostgresConfig{DSN: "postgres://localhost/mapsearch"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Index.Driver != "redis" {
		t.Errorf("Index.Driver = %q", cfg.Index.Driver)
	}
	if cfg.Index.Name != "playlists" || cfg.Index.KeyPrefix != "playlist:" {
		t.Errorf("Index = %+v", cfg.Index)
	}
	if cfg.Search.QueryTimeout() != 2*time.Second {
		t.Errorf("QueryTimeout = %v", cfg.Search.QueryTimeout())
	}
	if cfg.Reindex.BatchSize != 500 {
		t.Errorf("Reindex.BatchSize = %d", cfg.Reindex.BatchSize)
	}
	if cfg.Postgres.MigrationsPath != "file://migrations" {
		t.Errorf("MigrationsPath = %q", cfg.Postgres.MigrationsPath)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.HTTP.Port = 0 }, wantErr: "http.port"},
		{name: "unknown driver", mutate: func(c *Config) { c.Index.Driver = "valkey" }, wantErr: "index.driver"},
		{name: "no addrs", mutate: func(c *Config) { c.Index.Addrs = nil }, wantErr: "index.addrs"},
		{name: "no dsn", mutate: func(c *Config) { c.Postgres.DSN = "" }, wantErr: "postgres.dsn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("MAPSEARCH_TEST_DSN", "postgres://db/mapsearch")

	cfg, err := parse([]byte(`
http:
  port: 9000
index:
  addrs: ["${MAPSEARCH_TEST_REDIS:-redis:6379}"]
postgres:
  dsn: ${MAPSEARCH_TEST_DSN}
search:
  query_timeout_ms: 500
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Index.Addrs[0] != "redis:6379" {
		t.Errorf("Addrs = %v", cfg.Index.Addrs)
	}
	if cfg.Postgres.DSN != "postgres://db/mapsearch" {
		t.Errorf("DSN = %q", cfg.Postgres.DSN)
	}
	if cfg.Search.QueryTimeout() != 500*time.Millisecond {
		t.Errorf("QueryTimeout = %v", cfg.Search.QueryTimeout())
	}
}
