package bootstrap

import (
	"strings"
	"testing"
	"time"
)

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:           "mongodb://localhost:27017/?replicaSet=rs0",
		MongoDatabase:      "brewcircles",
		MongoMaxPoolSize:   100,
		MongoMinPoolSize:   10,
		SessionKey:         "0123456789abcdef0123456789abcdef",
		AuditLog:           "all",
		InviteCodeAttempts: 10,
		JoinRatePerMinute:  10,
		JoinRateBurst:      5,
		RepairInterval:     15 * time.Minute,
		RepairParallelism:  4,
	}
}

func TestValidateApp(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", "prod", func(*AppConfig) {}, ""},
		{"short key in dev", "dev", func(c *AppConfig) { c.SessionKey = "short" }, ""},
		{"short key in prod", "prod", func(c *AppConfig) { c.SessionKey = "short" }, "session_key"},
		{"missing database", "dev", func(c *AppConfig) { c.MongoDatabase = "" }, "mongo_database"},
		{"negative max pool", "dev", func(c *AppConfig) { c.MongoMaxPoolSize = -1 }, "must not be negative"},
		{"negative min pool", "dev", func(c *AppConfig) { c.MongoMinPoolSize = -1 }, "must not be negative"},
		{"pool sizes inverted", "dev", func(c *AppConfig) { c.MongoMinPoolSize = 200 }, "mongo_min_pool_size"},
		{"bad audit mode", "dev", func(c *AppConfig) { c.AuditLog = "loud" }, "audit_log"},
		{"zero attempts", "dev", func(c *AppConfig) { c.InviteCodeAttempts = 0 }, "invite_code_attempts"},
		{"zero join rate", "dev", func(c *AppConfig) { c.JoinRatePerMinute = 0 }, "join_rate"},
		{"negative repair interval", "dev", func(c *AppConfig) { c.RepairInterval = -time.Second }, "repair_interval"},
		{"repair disabled ignores parallelism", "dev", func(c *AppConfig) {
			c.RepairInterval = 0
			c.RepairParallelism = 0
		}, ""},
		{"zero parallelism", "dev", func(c *AppConfig) { c.RepairParallelism = 0 }, "repair_parallelism"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := validateApp(tt.env, cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateApp_ReportsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.MongoDatabase = ""
	cfg.AuditLog = "loud"

	err := validateApp("dev", cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"mongo_database", "audit_log"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}
