package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/kjannette/maichez-backend/internal/db"
)

// SetupPool creates a pgxpool.Pool for integration tests and makes sure the
// schema exists. Connection details come from env vars or sensible defaults.
// The test is skipped when no database is reachable.
func SetupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	_ = godotenv.Load("../../.env")

	dsn := TestDSN()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("postgres not reachable, skipping: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := db.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return pool
}

// TestDSN builds the integration database DSN.
func TestDSN() string {
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		return dsn
	}
	host := EnvOr("DB_HOST", "localhost")
	port := EnvOr("DB_PORT", "5432")
	name := EnvOr("DB_NAME", "maichez")
	user := EnvOr("DB_USER", "postgres")
	pass := EnvOr("DB_PASSWORD", "")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

// NewUserID returns a fresh user id so tests never see each other's rows.
func NewUserID() string {
	return uuid.NewString()
}

func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
