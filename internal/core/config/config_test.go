package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDefaultsWhenFileMissing(t *testing.T) {
	c, err := Read(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.DB.Driver)
	assert.Equal(t, 5, c.JWT.AccessTokenTTLMin)
	assert.Equal(t, 24, c.JWT.RefreshTokenTTLHour)
	assert.Equal(t, "local", c.Storage.Driver)
	assert.Equal(t, 8080, c.App.HTTP.Port)
}

func TestReadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
app:
  name: blog-test
  http:
    port: 9090
jwt:
  secret: from-file
  access_token_ttl_min: 15
db:
  driver: postgres
  dsn: host=db user=blog
redis:
  addr: redis:6379
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("APP_JWT_SECRET", "from-env")

	c, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "blog-test", c.App.Name)
	assert.Equal(t, 9090, c.App.HTTP.Port)
	assert.Equal(t, "from-env", c.JWT.Secret)
	assert.Equal(t, 15, c.JWT.AccessTokenTTLMin)
	assert.Equal(t, "postgres", c.DB.Driver)
	assert.Equal(t, "redis:6379", c.Redis.Addr)
	assert.Equal(t, 60, c.Reset.TTLMin, "untouched keys keep defaults")
}

func TestReadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jwt: [unclosed"), 0o600))
	_, err := Read(path)
	assert.Error(t, err)
}
