// Package db opens the relational store shared by the user lookup and the
// persistent audit log.
package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds relational store settings.
type Config struct {
	Driver          string `json:"driver" mapstructure:"driver" validate:"omitempty,oneof=postgres sqlite"`
	DSN             string `json:"dsn" mapstructure:"dsn"`
	MaxOpenConns    int    `json:"maxOpenConns" mapstructure:"maxOpenConns"`
	MaxIdleConns    int    `json:"maxIdleConns" mapstructure:"maxIdleConns"`
	ConnMaxLifetime int    `json:"connMaxLifetime" mapstructure:"connMaxLifetime"` // seconds
}

// Open connects to the configured database.
func Open(c Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch c.Driver {
	case "postgres":
		dialector = postgres.Open(c.DSN)
	case "sqlite", "":
		dsn := c.DSN
		if dsn == "" {
			dsn = "authguard.db"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if c.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(c.ConnMaxLifetime) * time.Second)
	}

	return gdb, nil
}
