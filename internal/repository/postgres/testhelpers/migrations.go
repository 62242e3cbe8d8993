package testhelpers

import (
	"testing"

	"github.com/streetmap-tiles/internal/repository/postgres"
)

// ApplyMigrations applies the embedded schema migrations to the test database
func ApplyMigrations(t *testing.T, tdb *TestDB) {
	t.Helper()

	if err := postgres.RunMigrations(tdb.URL, tdb.Logger); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}
}
