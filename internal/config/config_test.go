package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-watcher
api:
  rest_url: https://staging-api.polisight.io
  api_key: key-123
database:
  postgres:
    host: localhost
    port: 5432
    name: test_db
    user: testuser
    password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-watcher" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-watcher")
	}
	if cfg.API.RestURL != "https://staging-api.polisight.io" {
		t.Errorf("API.RestURL = %q, want %q", cfg.API.RestURL, "https://staging-api.polisight.io")
	}
	if cfg.Database.Postgres.Host != "localhost" {
		t.Errorf("Database.Postgres.Host = %q, want %q", cfg.Database.Postgres.Host, "localhost")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_API_KEY", "key-from-env")
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
instance:
  id: test-watcher
api:
  api_key: ${TEST_API_KEY}
database:
  postgres:
    host: localhost
    name: test_db
    user: testuser
    password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.APIKey != "key-from-env" {
		t.Errorf("API.APIKey = %q, want %q", cfg.API.APIKey, "key-from-env")
	}
	if cfg.Database.Postgres.Password != "secret123" {
		t.Errorf("Database.Postgres.Password = %q, want %q", cfg.Database.Postgres.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: test-watcher
api:
  api_key: key-123
database:
  postgres:
    host: localhost
    name: test_db
    user: testuser
    password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.API.RestURL != DefaultRestURL {
		t.Errorf("API.RestURL = %q, want default %q", cfg.API.RestURL, DefaultRestURL)
	}
	if cfg.Stream.HeartbeatInterval != DefaultHeartbeatInterval {
		t.Errorf("Stream.HeartbeatInterval = %v, want default %v", cfg.Stream.HeartbeatInterval, DefaultHeartbeatInterval)
	}
	if cfg.Stream.ReconnectBaseDelay != DefaultReconnectBaseDelay {
		t.Errorf("Stream.ReconnectBaseDelay = %v, want default %v", cfg.Stream.ReconnectBaseDelay, DefaultReconnectBaseDelay)
	}
	if cfg.Recorder.BatchSize != DefaultBatchSize {
		t.Errorf("Recorder.BatchSize = %d, want default %d", cfg.Recorder.BatchSize, DefaultBatchSize)
	}
	if cfg.Database.Postgres.Port != DefaultDBPort {
		t.Errorf("Database.Postgres.Port = %d, want default %d", cfg.Database.Postgres.Port, DefaultDBPort)
	}
	if cfg.Database.Postgres.MaxConns != DefaultMaxConns {
		t.Errorf("Database.Postgres.MaxConns = %d, want default %d", cfg.Database.Postgres.MaxConns, DefaultMaxConns)
	}
}

func TestValidate(t *testing.T) {
	validDB := DatabaseConfig{
		Postgres: DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 10, MinConns: 2},
	}

	tests := []struct {
		name    string
		cfg     WatcherConfig
		wantErr string
	}{
		{
			name:    "missing instance id",
			cfg:     WatcherConfig{},
			wantErr: "instance.id is required",
		},
		{
			name: "missing api key",
			cfg: WatcherConfig{
				Instance: InstanceConfig{ID: "test"},
			},
			wantErr: "api.api_key is required",
		},
		{
			name: "base delay exceeds max delay",
			cfg: WatcherConfig{
				Instance: InstanceConfig{ID: "test"},
				API:      APIConfig{APIKey: "k"},
				Stream:   StreamConfig{ReconnectBaseDelay: 10e9, ReconnectMaxDelay: 5e9},
				Recorder: RecorderConfig{BatchSize: 500, BufferSize: 1000},
				Database: validDB,
			},
			wantErr: "stream.reconnect_base_delay (10s) cannot exceed reconnect_max_delay (5s)",
		},
		{
			name: "missing postgres host",
			cfg: WatcherConfig{
				Instance: InstanceConfig{ID: "test"},
				API:      APIConfig{APIKey: "k"},
				Recorder: RecorderConfig{BatchSize: 500, BufferSize: 1000},
			},
			wantErr: "database.postgres.host is required",
		},
		{
			name: "min_conns exceeds max_conns",
			cfg: WatcherConfig{
				Instance: InstanceConfig{ID: "test"},
				API:      APIConfig{APIKey: "k"},
				Recorder: RecorderConfig{BatchSize: 500, BufferSize: 1000},
				Database: DatabaseConfig{
					Postgres: DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 5, MinConns: 10},
				},
			},
			wantErr: "database.postgres.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name: "valid config",
			cfg: WatcherConfig{
				Instance: InstanceConfig{ID: "test"},
				API:      APIConfig{APIKey: "k"},
				Recorder: RecorderConfig{BatchSize: 500, BufferSize: 1000},
				Database: validDB,
			},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
