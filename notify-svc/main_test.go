package main

import (
	"testing"

	"blockandjerrys/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings(t *testing.T) {
	cfg, err := loadSettings(config.FromMap(map[string]string{
		"KAFKA_BROKER":       "kafka:9092",
		"TWILIO_ACCOUNT_SID": "AC123",
		"TWILIO_AUTH_TOKEN":  "secret",
		"SMS_MAX_TRIES":      "3",
	}))
	require.NoError(t, err)

	assert.Equal(t, "notifications", cfg.Topic)
	assert.Equal(t, "notify-svc", cfg.GroupID)
	assert.Equal(t, "AC123", cfg.TwilioAccountSID)
	assert.Equal(t, 3, cfg.MaxTries)
	assert.Equal(t, "secret", cfg.TwilioAuthToken)
}

func TestLoadSettings_MissingCredentials(t *testing.T) {
	_, err := loadSettings(config.FromMap(map[string]string{"KAFKA_BROKER": "kafka:9092"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TWILIO_ACCOUNT_SID")
	assert.Contains(t, err.Error(), "TWILIO_AUTH_TOKEN")
}
