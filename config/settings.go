package config

import (
	"time"

	"github.com/kochabx/authguard/store/db"
	"github.com/kochabx/authguard/token"
)

// Settings is the full application configuration tree.
type Settings struct {
	Token    token.Config    `json:"token" mapstructure:"token"`
	Session  SessionSettings `json:"session" mapstructure:"session"`
	Store    StoreSettings   `json:"store" mapstructure:"store"`
	Redis    RedisSettings   `json:"redis" mapstructure:"redis"`
	Database db.Config       `json:"database" mapstructure:"database"`
	Log      LogSettings     `json:"log" mapstructure:"log"`
	Audit    AuditSettings   `json:"audit" mapstructure:"audit"`
}

// SessionSettings tunes the session registry.
type SessionSettings struct {
	MaxAge         time.Duration `json:"maxAge" mapstructure:"maxAge" default:"168h"`
	AccessTokenCap int           `json:"accessTokenCap" mapstructure:"accessTokenCap" default:"3" validate:"gt=0"`
	LedgerTTL      time.Duration `json:"ledgerTTL" mapstructure:"ledgerTTL" default:"168h"`
	SweepInterval  time.Duration `json:"sweepInterval" mapstructure:"sweepInterval" default:"15m"`
}

// StoreSettings selects the session store and revocation ledger backend.
type StoreSettings struct {
	Backend string `json:"backend" mapstructure:"backend" default:"memory" validate:"oneof=memory redis"`
}

// RedisSettings configures the shared Redis client.
type RedisSettings struct {
	Addr     string `json:"addr" mapstructure:"addr" default:"localhost:6379"`
	Password string `json:"password" mapstructure:"password"`
	DB       int    `json:"db" mapstructure:"db"`
	PoolSize int    `json:"poolSize" mapstructure:"poolSize" default:"10"`
}

// LogSettings configures the structured logger.
type LogSettings struct {
	Level    string `json:"level" mapstructure:"level" default:"info"`
	Filename string `json:"filename" mapstructure:"filename"`
}

// AuditSettings configures the security-event pipeline.
type AuditSettings struct {
	PoolSize int  `json:"poolSize" mapstructure:"poolSize" default:"4" validate:"gt=0"`
	Persist  bool `json:"persist" mapstructure:"persist"`
}

// Validate runs the fail-fast checks that must stop the process before it
// serves traffic.
func (s *Settings) Validate() error {
	return s.Token.Validate()
}
