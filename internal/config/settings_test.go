package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/the-stock-must-flow/internal/common"
	"github.com/Veraticus/the-stock-must-flow/internal/storage"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	s, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, 7, s.Thresholds.LowDays)
	assert.Equal(t, 30, s.Thresholds.SafeDays)
	assert.Equal(t, "127.0.0.1:5000", s.Server.Addr())
	assert.Equal(t, storage.DriverMemory, s.Database.Driver)
	assert.Equal(t, "gemini", s.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", s.LLM.Model)
	assert.True(t, s.Sample.Preload)
	assert.Equal(t, "http://localhost:5000", s.Backend.URL)
	assert.Equal(t, 587, s.SMTP.Port)
	assert.False(t, s.SMTP.Configured())
	assert.Equal(t, 5*time.Minute, s.LLM.CacheTTL)
}

func TestLoad_EnvAliases(t *testing.T) {
	t.Setenv("THRESHOLD_SAFE_DAYS", "45")
	t.Setenv("THRESHOLD_LOW_DAYS", "10")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_USER", "bot@example.com")
	t.Setenv("SMTP_PASS", "secret")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("PORT", "8080")
	t.Setenv("BACKEND_URL", "http://backend:8080/")

	s, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, 45, s.Thresholds.SafeDays)
	assert.Equal(t, 10, s.Thresholds.LowDays)
	assert.True(t, s.SMTP.Configured())
	assert.Equal(t, "key", s.LLM.APIKey)
	assert.Equal(t, 8080, s.Server.Port)
	assert.Equal(t, "http://backend:8080", s.Backend.URL)
}

func TestLoad_PrefixedEnvWins(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("STOCK_SERVER_PORT", "9090")
	t.Setenv("STOCK_DATABASE_DRIVER", "sqlite")

	s, err := Load(newViper())
	require.NoError(t, err)
	assert.Equal(t, 9090, s.Server.Port)
	assert.Equal(t, storage.DriverSQLite, s.Database.Driver)
	assert.NotEmpty(t, s.Database.Path)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		set  func(v *viper.Viper)
		name string
	}{
		{name: "negative threshold", set: func(v *viper.Viper) { v.Set("thresholds.low_days", -1) }},
		{name: "port out of range", set: func(v *viper.Viper) { v.Set("server.port", 70000) }},
		{name: "unknown driver", set: func(v *viper.Viper) { v.Set("database.driver", "mongo") }},
		{name: "postgres without url", set: func(v *viper.Viper) { v.Set("database.driver", "postgres") }},
		{name: "bad log level", set: func(v *viper.Viper) { v.Set("logging.level", "loud") }},
		{name: "bad log format", set: func(v *viper.Viper) { v.Set("logging.format", "xml") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			tt.set(v)
			_, err := Load(v)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestLoad_InvertedThresholdsAllowed(t *testing.T) {
	v := newViper()
	v.Set("thresholds.low_days", 40)
	v.Set("thresholds.safe_days", 30)

	_, err := Load(v)
	assert.NoError(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("STOCK_TEST_DIR", "/data")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "stock.db"), ExpandPath("~/stock.db"))
	assert.Equal(t, "/data/stock.db", ExpandPath("$STOCK_TEST_DIR/stock.db"))
	assert.Equal(t, "relative/path", ExpandPath("relative/path"))
}
