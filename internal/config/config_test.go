package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	v.Set("jwt.secret", "s3cret")

	cfg, err := load(v)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "./data/avatars", cfg.Storage.Local.BasePath)
	assert.Equal(t, "https://reqres.in/api", cfg.Upstream.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, int64(5<<20), cfg.Upstream.MaxImageBytes)
	assert.Equal(t, "email_send_event", cfg.Notify.Topic)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expires)
	assert.False(t, cfg.JWT.RequireAuth)
	assert.Equal(t, "user-avatar-service", cfg.Log.ServiceName)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("AVATAR_DIR", "/srv/avatars")
	t.Setenv("DB_DRIVER", "mongo")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "/srv/avatars", cfg.Storage.Local.BasePath)
	assert.Equal(t, "mongo", cfg.Database.Driver)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		set  map[string]interface{}
	}{
		{name: "missing jwt secret", set: map[string]interface{}{}},
		{name: "unknown database driver", set: map[string]interface{}{"jwt.secret": "x", "database.driver": "oracle"}},
		{name: "unknown storage driver", set: map[string]interface{}{"jwt.secret": "x", "storage.driver": "ftp"}},
		{name: "empty storage root", set: map[string]interface{}{"jwt.secret": "x", "storage.local.base_path": ""}},
		{name: "s3 without bucket", set: map[string]interface{}{"jwt.secret": "x", "storage.driver": "s3", "storage.s3.bucket": ""}},
		{name: "empty upstream", set: map[string]interface{}{"jwt.secret": "x", "upstream.base_url": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			_, err := load(v)
			assert.Error(t, err)
		})
	}
}
