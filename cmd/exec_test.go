package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"event-booking/config"
	"event-booking/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const testCatalog = `events:
  - id: jazz-1
    name: Late Jazz
    category: music
    date: "2024-09-01"
    venue:
      name: Blue Room
      city: Chicago
    tickets:
      - type: General
        price: $40
        availability: 10/80
`

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o600))
	return path
}

func TestOpenStorage_Memory(t *testing.T) {
	backend, err := openStorage(&config.Config{StorageBackend: "memory"})
	require.NoError(t, err)
	defer backend.Close()

	assert.Equal(t, "memory", backend.Name)
	assert.Nil(t, backend.Redis)
	assert.NoError(t, backend.Health(context.Background()))
}

func TestOpenStorage_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "booking.db")

	backend, err := openStorage(&config.Config{StorageBackend: "sqlite", SQLitePath: path})
	require.NoError(t, err)
	defer backend.Close()

	assert.Equal(t, "sqlite", backend.Name)
	assert.NoError(t, backend.Health(context.Background()))

	ctx := context.Background()
	require.NoError(t, backend.Store.Save(ctx, "probe", map[string]string{"ok": "yes"}))
	var got map[string]string
	found, err := backend.Store.Load(ctx, "probe", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "yes", got["ok"])
}

func TestOpenStorage_Unknown(t *testing.T) {
	_, err := openStorage(&config.Config{StorageBackend: "etcd"})
	assert.EqualError(t, err, `unknown storage backend "etcd"`)
}

func TestLoadCatalog(t *testing.T) {
	events, categories, err := loadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, services.DefaultEvents(), events)
	assert.Equal(t, services.DefaultCategories(), categories)

	events, categories, err = loadCatalog(writeCatalog(t))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Late Jazz", events[0].Name)
	assert.Equal(t, "Chicago", events[0].Venue.City)
	assert.Equal(t, services.DefaultCategories(), categories)

	_, _, err = loadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCatalogCommand(t *testing.T) {
	t.Run("built-in catalog", func(t *testing.T) {
		command := newCatalogCommand(&config.Config{})
		var out bytes.Buffer
		command.SetOut(&out)
		command.SetArgs([]string{})

		require.NoError(t, command.Execute())

		var file services.CatalogFile
		require.NoError(t, yaml.Unmarshal(out.Bytes(), &file))
		assert.Len(t, file.Events, len(services.DefaultEvents()))
		assert.Len(t, file.Categories, len(services.DefaultCategories()))
	})

	t.Run("file flag", func(t *testing.T) {
		command := newCatalogCommand(&config.Config{})
		var out bytes.Buffer
		command.SetOut(&out)
		command.SetArgs([]string{"--file", writeCatalog(t)})

		require.NoError(t, command.Execute())

		var file services.CatalogFile
		require.NoError(t, yaml.Unmarshal(out.Bytes(), &file))
		require.Len(t, file.Events, 1)
		assert.Equal(t, "jazz-1", file.Events[0].ID)
	})
}

func TestSetupLogger(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	var out bytes.Buffer
	setupLogger(&out, &config.Config{Environment: "production", LogLevel: "warn"})

	slog.Info("hidden")
	slog.Warn("shown", "key", "value")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), `"msg":"shown"`)
	assert.Contains(t, out.String(), `"key":"value"`)
}
