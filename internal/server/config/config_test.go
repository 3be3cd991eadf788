package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, ":8080", cfg.EndpointAddrHTTP)
	assert.NotEmpty(t, cfg.DatabaseDSN)
	assert.NotEmpty(t, cfg.SecretKey)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenValidityDuration)
	assert.Equal(t, 20*time.Minute, cfg.TempTokenValidityDuration)
	assert.NotEmpty(t, cfg.BaseURL)
	assert.NotEmpty(t, cfg.MailFromAddress)

	// Mail is disabled out of the box.
	assert.Empty(t, cfg.SMTPHost)
}
