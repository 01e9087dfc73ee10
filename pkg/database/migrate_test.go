package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/procurement-api/pkg/config"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	require.NotEmpty(t, ups)
	require.Equal(t, ups, downs)
}

func TestNotificationTriggersCoverEveryCollection(t *testing.T) {
	raw, err := fs.ReadFile(migrationsFS, "migrations/000002_change_notifications.up.sql")
	require.NoError(t, err)
	body := string(raw)
	for _, collection := range []string{"requests", "foodItems", "vendors", "categories", "users", "activities", "settings"} {
		require.Contains(t, body, "notify_store_change('"+collection+"')")
	}
	require.Contains(t, body, "pg_notify('store_changes'")
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"})
	require.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", dsn)
}
