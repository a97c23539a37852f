package main

import (
	"blockandjerrys/config"
)

type settings struct {
	ServiceName string
	Env         string
	LogLevel    string

	Topic   string
	GroupID string

	TwilioAccountSID string
	TwilioAuthToken  string
	MaxTries         int
}

func loadSettings(src *config.Source) (settings, error) {
	src.Require("KAFKA_BROKER")
	src.Require("TWILIO_ACCOUNT_SID")
	src.Require("TWILIO_AUTH_TOKEN")
	s := settings{
		ServiceName: src.String("SERVICE_NAME", "notify-svc"),
		Env:         src.String("ENV", "dev"),
		LogLevel:    src.String("LOG_LEVEL", "info"),

		Topic:   src.String("NOTIFY_TOPIC", "notifications"),
		GroupID: src.String("NOTIFY_GROUP_ID", "notify-svc"),

		TwilioAccountSID: src.String("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  src.String("TWILIO_AUTH_TOKEN", ""),
		MaxTries:         src.Int("SMS_MAX_TRIES", 5),
	}
	return s, src.Err()
}
