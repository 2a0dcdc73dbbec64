// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles ports, TLS, log level, CORS and body limits.
// Everything BrewCircles itself needs lives here, loaded in LoadConfig and
// passed to every lifecycle hook.
type AppConfig struct {
	// MongoDB connection configuration. Transactions require a replica set
	// or sharded cluster.
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize int
	MongoMinPoolSize int

	// Identity. The session cookie is written by the identity provider
	// with the shared key; this service only reads it.
	SessionKey           string
	SessionName          string
	SessionDomain        string
	SessionMaxAge        time.Duration
	TrustIdentityHeaders bool // accept X-User-ID / X-User-Name from a proxy

	// Audit logging mode: all, db, log, or off.
	AuditLog string

	// Invite codes
	InviteCodeAttempts int // bounded attempts when allocating a unique code
	JoinRatePerMinute  int
	JoinRateBurst      int

	// Counter repair worker. Zero interval disables it.
	RepairInterval    time.Duration
	RepairParallelism int

	// Operation timeouts. Zero keeps the built-in default.
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
