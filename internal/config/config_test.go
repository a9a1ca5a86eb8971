package config_test

import (
	"testing"

	"github.com/karloscodes/cartridge"
	"github.com/stretchr/testify/assert"

	"leadpilot/internal/config"
)

// The framework consumes the config through these interfaces; a dropped
// method breaks the whole build, so assert them at compile time.
var (
	_ cartridge.Config            = (*config.Config)(nil)
	_ cartridge.LogConfigProvider = (*config.Config)(nil)
)

func TestConfigInterfaceGetters(t *testing.T) {
	cfg := &config.Config{
		AppPort:                    "3000",
		Environment:                config.Test,
		PublicDirectory:            "public",
		PublicAssetsUrlPrefix:      "/",
		SessionTimeoutSeconds:      1800,
		LoginSessionTimeoutSeconds: 604800,
	}

	assert.Equal(t, "3000", cfg.GetPort())
	assert.Equal(t, "public", cfg.GetPublicDirectory())
	assert.Equal(t, "/", cfg.GetAssetsPrefix())
	assert.Equal(t, 1800, cfg.GetSessionTimeout())
	assert.Equal(t, 604800, cfg.GetLoginSessionTimeout())
	assert.True(t, cfg.IsTest())
	assert.False(t, cfg.IsProduction())
}

func TestMaxConnsDefaults(t *testing.T) {
	testCfg := &config.Config{Environment: config.Test}
	assert.Equal(t, 1, testCfg.GetMaxOpenConns())
	assert.Equal(t, 1, testCfg.GetMaxIdleConns())

	prodCfg := &config.Config{Environment: config.Production}
	assert.Equal(t, 10, prodCfg.GetMaxOpenConns())
	assert.Equal(t, 5, prodCfg.GetMaxIdleConns())

	explicit := &config.Config{Environment: config.Test, DatabaseMaxOpenConns: 7}
	assert.Equal(t, 7, explicit.GetMaxOpenConns())
}
