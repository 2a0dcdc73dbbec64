// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/brewcircles/internal/app/system/auditlog"
	"github.com/dalemusser/brewcircles/internal/app/system/codegen"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minProdSessionKey is the shortest session key accepted in prod.
const minProdSessionKey = 32

// appConfigKeys defines the configuration keys for BrewCircles.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: BREWCIRCLES_MONGO_URI, BREWCIRCLES_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017/?replicaSet=rs0", Desc: "MongoDB connection URI (replica set required for transactions)"},
	{Name: "mongo_database", Default: "brewcircles", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Identity
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key shared with the identity provider"},
	{Name: "session_name", Default: "brewcircles-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},
	{Name: "trust_identity_headers", Default: false, Desc: "Accept X-User-ID/X-User-Name and X-Forwarded-For from an authenticating proxy"},

	// Audit logging
	{Name: "audit_log", Default: "all", Desc: "Audit event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Invite codes and joins
	{Name: "invite_code_attempts", Default: codegen.DefaultMaxAttempts, Desc: "Attempts to allocate a unique invite code before giving up"},
	{Name: "join_rate_per_minute", Default: 10, Desc: "Join attempts allowed per user per minute"},
	{Name: "join_rate_burst", Default: 5, Desc: "Join attempts allowed in a burst"},

	// Counter repair
	{Name: "repair_interval", Default: "15m", Desc: "Counter repair interval (0 disables)"},
	{Name: "repair_parallelism", Default: 4, Desc: "Circles repaired concurrently"},

	// Timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document reads"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for membership mutations"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for circle create/delete and repairs"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// BREWCIRCLES_* environment variables and flags, with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "BREWCIRCLES", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: appValues.Int("mongo_max_pool_size"),
		MongoMinPoolSize: appValues.Int("mongo_min_pool_size"),

		SessionKey:           appValues.String("session_key"),
		SessionName:          appValues.String("session_name"),
		SessionDomain:        appValues.String("session_domain"),
		SessionMaxAge:        appValues.Duration("session_max_age", 720*time.Hour),
		TrustIdentityHeaders: appValues.Bool("trust_identity_headers"),

		AuditLog: appValues.String("audit_log"),

		InviteCodeAttempts: appValues.Int("invite_code_attempts"),
		JoinRatePerMinute:  appValues.Int("join_rate_per_minute"),
		JoinRateBurst:      appValues.Int("join_rate_burst"),

		RepairInterval:    appValues.Duration("repair_interval", 15*time.Minute),
		RepairParallelism: appValues.Int("repair_parallelism"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateApp(coreCfg.Env, appCfg)
}

// validateApp holds the checks that do not need WAFFLE's core config.
func validateApp(env string, appCfg AppConfig) error {
	var errs []error

	if appCfg.MongoDatabase == "" {
		errs = append(errs, errors.New("mongo_database is required"))
	}
	if appCfg.MongoMaxPoolSize < 0 || appCfg.MongoMinPoolSize < 0 {
		errs = append(errs, fmt.Errorf("mongo pool sizes must not be negative (max %d, min %d)",
			appCfg.MongoMaxPoolSize, appCfg.MongoMinPoolSize))
	} else if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		errs = append(errs, fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize))
	}
	if env == "prod" && len(appCfg.SessionKey) < minProdSessionKey {
		errs = append(errs, fmt.Errorf("session_key must be at least %d bytes in prod", minProdSessionKey))
	}

	switch appCfg.AuditLog {
	case "", auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
	default:
		errs = append(errs, fmt.Errorf("audit_log must be all, db, log, or off (got %q)", appCfg.AuditLog))
	}

	if appCfg.InviteCodeAttempts < 1 {
		errs = append(errs, errors.New("invite_code_attempts must be positive"))
	}
	if appCfg.JoinRatePerMinute < 1 || appCfg.JoinRateBurst < 1 {
		errs = append(errs, errors.New("join_rate_per_minute and join_rate_burst must be positive"))
	}
	if appCfg.RepairInterval < 0 {
		errs = append(errs, errors.New("repair_interval must not be negative"))
	}
	if appCfg.RepairInterval > 0 && appCfg.RepairParallelism < 1 {
		errs = append(errs, errors.New("repair_parallelism must be positive"))
	}

	return errors.Join(errs...)
}
