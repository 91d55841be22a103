package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"APP_NAME", "APP_ENVIRONMENT", "APP_DEBUG",
		"SERVER_HOST", "SERVER_PORT", "SERVER_CORS_ORIGINS",
		"DATABASE_DRIVER", "DATABASE_HOST", "DATABASE_PORT", "DATABASE_DBNAME", "DATABASE_SQLITE_PATH",
		"REDIS_ENABLED", "REDIS_HOST", "REDIS_PORT",
		"KAFKA_ENABLED", "KAFKA_BROKERS",
		"JWT_SECRET",
		"SCHEDULE_HORIZON", "SCHEDULE_MAX_ISSUES",
	}
	for _, v := range envVars {
		if old, ok := os.LookupEnv(v); ok {
			os.Unsetenv(v)
			t.Cleanup(func() { os.Setenv(v, old) })
		}
	}
}

func TestLoad_WithDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.App.Name != "sponsorly" {
		t.Errorf("App.Name = %q, want %q", cfg.App.Name, "sponsorly")
	}

	if cfg.App.Environment != "development" {
		t.Errorf("App.Environment = %q, want %q", cfg.App.Environment, "development")
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}

	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, DriverPostgres)
	}

	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port = %d, want %d", cfg.Database.Port, 5432)
	}

	if cfg.Redis.Enabled {
		t.Error("Redis.Enabled = true, want false")
	}

	if cfg.Schedule.Horizon != 365*24*time.Hour {
		t.Errorf("Schedule.Horizon = %s, want %s", cfg.Schedule.Horizon, 365*24*time.Hour)
	}

	if cfg.Schedule.MaxIssues != 366 {
		t.Errorf("Schedule.MaxIssues = %d, want %d", cfg.Schedule.MaxIssues, 366)
	}
}

func TestLoad_WithEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_NAME", "test-app")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("DATABASE_SQLITE_PATH", "/tmp/test.db")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("SCHEDULE_MAX_ISSUES", "12")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.App.Name != "test-app" {
		t.Errorf("App.Name = %q, want %q", cfg.App.Name, "test-app")
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}

	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, DriverSQLite)
	}

	if cfg.Database.SQLitePath != "/tmp/test.db" {
		t.Errorf("Database.SQLitePath = %q, want %q", cfg.Database.SQLitePath, "/tmp/test.db")
	}

	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Kafka.Brokers = %v, want [k1:9092 k2:9092]", cfg.Kafka.Brokers)
	}

	if cfg.Schedule.MaxIssues != 12 {
		t.Errorf("Schedule.MaxIssues = %d, want %d", cfg.Schedule.MaxIssues, 12)
	}
}

func TestLoadWithPath(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	content := "APP_NAME=from-file\nDATABASE_DRIVER=sqlite\nDATABASE_SQLITE_PATH=file.db\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := LoadWithPath(path)
	if err != nil {
		t.Fatalf("LoadWithPath() failed: %v", err)
	}

	if cfg.App.Name != "from-file" {
		t.Errorf("App.Name = %q, want %q", cfg.App.Name, "from-file")
	}

	if cfg.Database.SQLitePath != "file.db" {
		t.Errorf("Database.SQLitePath = %q, want %q", cfg.Database.SQLitePath, "file.db")
	}
}

func TestLoadWithPath_MissingFile(t *testing.T) {
	if _, err := LoadWithPath(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("LoadWithPath() error = nil, want error")
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "secret",
		DBName:   "sponsorly",
		SSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=postgres password=secret dbname=sponsorly sslmode=disable"
	if got := cfg.DSN(); got != expected {
		t.Errorf("DSN() = %q, want %q", got, expected)
	}
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "localhost", Port: 6379}

	if got := cfg.Addr(); got != "localhost:6379" {
		t.Errorf("Addr() = %q, want %q", got, "localhost:6379")
	}
}

func TestServerConfig_Addr(t *testing.T) {
	cfg := ServerConfig{Host: "0.0.0.0", Port: 8080}

	if got := cfg.Addr(); got != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q, want %q", got, "0.0.0.0:8080")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			App:      AppConfig{Name: "sponsorly", Environment: "development"},
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: DriverPostgres, Host: "localhost", DBName: "sponsorly"},
			JWT:      JWTConfig{Secret: "secret"},
			Schedule: ScheduleConfig{Horizon: time.Hour, MaxIssues: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "missing app name", mutate: func(c *Config) { c.App.Name = "" }, wantErr: true},
		{name: "invalid port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "missing database host", mutate: func(c *Config) { c.Database.Host = "" }, wantErr: true},
		{name: "missing database name", mutate: func(c *Config) { c.Database.DBName = "" }, wantErr: true},
		{
			name:   "sqlite ignores postgres fields",
			mutate: func(c *Config) { c.Database = DatabaseConfig{Driver: DriverSQLite, SQLitePath: "x.db"} },
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Database = DatabaseConfig{Driver: DriverSQLite} },
			wantErr: true,
		},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "kafka without brokers", mutate: func(c *Config) { c.Kafka.Enabled = true }, wantErr: true},
		{name: "missing JWT secret", mutate: func(c *Config) { c.JWT.Secret = "" }, wantErr: true},
		{
			name: "default JWT secret in production",
			mutate: func(c *Config) {
				c.App.Environment = "production"
				c.JWT.Secret = defaultJWTSecret
			},
			wantErr: true,
		},
		{name: "zero horizon", mutate: func(c *Config) { c.Schedule.Horizon = 0 }, wantErr: true},
		{name: "zero max issues", mutate: func(c *Config) { c.Schedule.MaxIssues = 0 }, wantErr: true},
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

func TestConfig_IsProduction(t *testing.T) {
	cfg := &Config{
		App: AppConfig{Environment: "production"},
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction() = false, want true")
	}

	cfg.App.Environment = "development"
	if cfg.IsProduction() {
		t.Error("IsProduction() = true, want false")
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{
		App: AppConfig{Environment: "development"},
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true")
	}

	cfg.App.Environment = "production"
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true, want false")
	}
}
