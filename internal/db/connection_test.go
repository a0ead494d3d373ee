package db

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxConns != 5 || cfg.MinConns != 1 {
		t.Fatalf("unexpected pool bounds: %+v", cfg)
	}
	if cfg.StatementTimeout != 10*time.Second {
		t.Fatalf("expected 10s statement timeout, got %s", cfg.StatementTimeout)
	}
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 6543, User: "app", Password: "pw", DBName: "listings", SSLMode: "require"}
	want := "host=db port=6543 user=app password=pw dbname=listings sslmode=require"
	if got := cfg.DSN(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries)%2 != 0 || len(entries) == 0 {
		t.Fatalf("expected paired up/down migrations, got %d files", len(entries))
	}
}
