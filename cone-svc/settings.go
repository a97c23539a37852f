package main

import (
	"net/url"
	"time"

	"blockandjerrys/cone-svc/internal/lightning"
	"blockandjerrys/cone-svc/internal/pricing"
	"blockandjerrys/config"
)

type settings struct {
	ServiceName string
	Env         string
	LogLevel    string

	HTTPAddr       string
	AllowedOrigins []string
	// OriginPatterns are the hosts of AllowedOrigins, as the websocket handshake expects.
	OriginPatterns []string

	LND           lightning.Config
	PriceURL      string
	PriceTimeout  time.Duration
	OperatorPhone string
	FromNumber    string
	NotifyTopic   string

	RegistryTTL       time.Duration
	SweepInterval     time.Duration
	MarkerTTL         time.Duration
	InvoiceRatePerMin int
	ShutdownTimeout   time.Duration
}

func loadSettings(src *config.Source) (settings, error) {
	src.Require("LND_REST_URL")
	s := settings{
		ServiceName: src.String("SERVICE_NAME", "cone-svc"),
		Env:         src.String("ENV", "dev"),
		LogLevel:    src.String("LOG_LEVEL", "info"),

		HTTPAddr:       src.String("HTTP_ADDR", ":5000"),
		AllowedOrigins: src.List("ALLOWED_ORIGINS"),

		LND: lightning.Config{
			BaseURL:      src.String("LND_REST_URL", ""),
			MacaroonPath: src.String("LND_MACAROON_PATH", ""),
			TLSCertPath:  src.String("LND_TLS_CERT_PATH", ""),
		},
		PriceURL:      src.String("PRICE_URL", pricing.DefaultURL),
		PriceTimeout:  src.Duration("PRICE_TIMEOUT", 10*time.Second),
		OperatorPhone: src.String("OPERATOR_PHONE", ""),
		FromNumber:    src.String("SMS_FROM_NUMBER", ""),
		NotifyTopic:   src.String("NOTIFY_TOPIC", "notifications"),

		RegistryTTL:       src.Duration("REGISTRY_TTL", 24*time.Hour),
		SweepInterval:     src.Duration("REGISTRY_SWEEP_INTERVAL", time.Minute),
		MarkerTTL:         src.Duration("SETTLED_MARKER_TTL", 7*24*time.Hour),
		InvoiceRatePerMin: src.Int("INVOICE_RATE_PER_MIN", 6),
		ShutdownTimeout:   src.Duration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	s.OriginPatterns = originHosts(s.AllowedOrigins)
	return s, src.Err()
}

func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, origin := range origins {
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
			continue
		}
		hosts = append(hosts, origin)
	}
	return hosts
}
