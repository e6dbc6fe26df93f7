package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "ENV", "PROXY_PORT_MIN", "PROXY_PORT_MAX", "MULTILOGIN_TIMEOUT", "REDIS_URI", "MONGODB_URI", "MONGO_URI", "MONGODB_DB", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 10200, cfg.Ports.Min)
	assert.Equal(t, 10300, cfg.Ports.Max)
	assert.Equal(t, 30*time.Second, cfg.MultiloginTimeout)
	assert.Empty(t, cfg.RedisURI)
	assert.False(t, cfg.IsProduction())
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("ENV", " Production ")
	t.Setenv("PROXY_HOST", "proxy.example.com")
	t.Setenv("PROXY_USERNAME", "user")
	t.Setenv("PROXY_PASSWORD", "secret")
	t.Setenv("PROXY_PORT_MIN", "20000")
	t.Setenv("PROXY_PORT_MAX", "20010")
	t.Setenv("MULTILOGIN_APIv2", "http://localhost:35000/api/v2/")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.Proxy.Complete())
	assert.Equal(t, PortRange{Min: 20000, Max: 20010}, cfg.Ports)
	assert.Equal(t, "http://localhost:35000/api/v2", cfg.MultiloginAPIv2)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

func TestLoad_BadNumbersFallBack(t *testing.T) {
	t.Setenv("PROXY_PORT_MIN", "abc")
	t.Setenv("MULTILOGIN_TIMEOUT", "soon")

	cfg := Load()
	assert.Equal(t, 10200, cfg.Ports.Min)
	assert.Equal(t, 30*time.Second, cfg.MultiloginTimeout)
}

func TestValidate_InvertedPortRange(t *testing.T) {
	cfg := Load()
	cfg.Ports = PortRange{Min: 10300, Max: 10200}
	assert.Error(t, cfg.Validate())
}

func TestValidate_UnknownLogLevel(t *testing.T) {
	cfg := Load()
	cfg.LogLevel = "loud"
	assert.Error(t, cfg.Validate())
}

func TestProxyConfig_Complete(t *testing.T) {
	assert.False(t, ProxyConfig{Host: "h", Username: "u"}.Complete())
	assert.True(t, ProxyConfig{Host: "h", Username: "u", Password: "p"}.Complete())
}
