package database

import "testing"

func TestPoolConfigAppliesMaxConns(t *testing.T) {
	cfg, err := poolConfig("postgres://user:pw@localhost:5432/qrevent?sslmode=disable", 12)
	if err != nil {
		t.Fatalf("poolConfig: %v", err)
	}
	if cfg.MaxConns != 12 {
		t.Fatalf("MaxConns = %d, want 12", cfg.MaxConns)
	}
	if cfg.ConnConfig.Database != "qrevent" {
		t.Fatalf("database = %q, want qrevent", cfg.ConnConfig.Database)
	}
}

func TestPoolConfigKeepsDefaultWhenUnset(t *testing.T) {
	cfg, err := poolConfig("postgres://localhost:5432/qrevent", 0)
	if err != nil {
		t.Fatalf("poolConfig: %v", err)
	}
	if cfg.MaxConns < 1 {
		t.Fatalf("MaxConns = %d, want pgx default >= 1", cfg.MaxConns)
	}
}

func TestPoolConfigRejectsBadDSN(t *testing.T) {
	if _, err := poolConfig("://not-a-dsn", 4); err == nil {
		t.Fatal("poolConfig accepted malformed dsn")
	}
}
