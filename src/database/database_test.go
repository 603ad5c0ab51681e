// backend/src/database/database_test.go
package database

import (
	"strings"
	"testing"
)

func TestMigrationsSourceDefaultsToWorkingDirectory(t *testing.T) {
	t.Setenv("MIGRATIONS_PATH", "")

	got, err := migrationsSource()
	if err != nil {
		t.Fatalf("migrationsSource() error: %v", err)
	}
	if !strings.HasPrefix(got, "file://") {
		t.Errorf("source %q is not a file URL", got)
	}
	if !strings.HasSuffix(got, "db/migrations") {
		t.Errorf("source %q should end in db/migrations", got)
	}
}

func TestMigrationsSourceHonorsOverride(t *testing.T) {
	t.Setenv("MIGRATIONS_PATH", "/opt/cartera/migrations")

	got, err := migrationsSource()
	if err != nil {
		t.Fatalf("migrationsSource() error: %v", err)
	}
	if got != "file:///opt/cartera/migrations" {
		t.Errorf("source = %q, want file:///opt/cartera/migrations", got)
	}
}
