package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/haierkeys/folio-lifecycle-service/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  production: false
app:
  public-url-prefix: https://folio.example/p/
  operation-timeout: 3s
  conflict-retries: 0
`)

	c, realpath, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, realpath)
	assert.Equal(t, "debug", c.Log.Level)
	assert.False(t, c.Log.Production)
	assert.Equal(t, "sqlite", c.Database.Type)
	assert.True(t, c.Database.AutoMigrate)
	assert.Equal(t, "local", c.Lock.Driver)

	svc := c.GetServiceConfig()
	assert.Equal(t, "https://folio.example/p/", svc.PublicURLPrefix)
	assert.Equal(t, 3*time.Second, svc.OperationTimeout)
	assert.Equal(t, 0, svc.ConflictRetries)
	assert.Equal(t, 5, svc.SlugMaxAttempts)

	wq := c.GetWriteQueueConfig()
	assert.Equal(t, 100, wq.QueueCapacity)
	assert.Equal(t, 30*time.Second, wq.WriteTimeout)

	db := c.GetDatabaseConfig()
	assert.Equal(t, 30*time.Minute, db.ConnMaxLifetime)
}

func TestLoadConfigRejectsUnknownDrivers(t *testing.T) {
	_, _, err := LoadConfig(writeConfig(t, "database:\n  type: oracle\n"))
	assert.ErrorContains(t, err, "database.type")

	_, _, err = LoadConfig(writeConfig(t, "lock:\n  driver: zookeeper\n"))
	assert.ErrorContains(t, err, "lock.driver")

	_, _, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config file failed")
}

func TestConfigSave(t *testing.T) {
	path := writeConfig(t, "app:\n  slug-max-probe: 50\n")
	c, _, err := LoadConfig(path)
	require.NoError(t, err)

	c.App.PublicURLPrefix = "https://updated.example/p/"
	require.NoError(t, c.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var saved AppConfig
	require.NoError(t, yaml.Unmarshal(data, &saved))
	assert.Equal(t, "https://updated.example/p/", saved.App.PublicURLPrefix)
	assert.Equal(t, 50, saved.App.SlugMaxProbe)
}

func TestNewAppWithMemoryStore(t *testing.T) {
	c, _, err := LoadConfig(writeConfig(t, "database:\n  type: memory\n"))
	require.NoError(t, err)

	a, err := NewApp(c, zap.NewNop(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	require.NoError(t, a.Migrate())

	ctx := context.Background()
	tpl, err := a.TemplateService.Create(ctx, &dto.TemplateCreateRequest{Name: "Modern Minimalist"})
	require.NoError(t, err)
	p, err := a.PortfolioService.Create(ctx, &dto.PortfolioCreateRequest{OwnerID: "user-1", Title: "My Site", TemplateID: tpl.ID})
	require.NoError(t, err)
	assert.Equal(t, "my-site", p.Slug)

	_, err = NewApp(&AppConfig{Database: DatabaseConfig{Type: "sqlite"}}, zap.NewNop(), nil)
	assert.Error(t, err)
}

func TestNewAppWithSqlite(t *testing.T) {
	dir := t.TempDir()
	c, _, err := LoadConfig(writeConfig(t, "database:\n  type: sqlite\n  path: "+filepath.Join(dir, "folio.sqlite3")+"\n"))
	require.NoError(t, err)

	db, err := OpenDatabase(c)
	require.NoError(t, err)
	a, err := NewApp(c, zap.NewNop(), db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ctx := context.Background()
	p, err := a.PortfolioService.Create(ctx, &dto.PortfolioCreateRequest{OwnerID: "user-1", Title: "My Site"})
	require.NoError(t, err)
	_, err = a.PortfolioService.TogglePublish(ctx, p.ID, "user-1")
	require.NoError(t, err)

	got, err := a.PortfolioService.ViewPublic(ctx, "my-site")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)
	assert.Equal(t, "http://localhost:3000/p/my-site", got.PublicURL)
}
