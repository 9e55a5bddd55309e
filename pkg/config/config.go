// Package config loads the transaction commit core's tunables via viper,
// grounded in the teacher's cmd/web/main.go initConfig() wiring.
package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds the runtime tunables for the commit core and its admin
// surface.
type Config struct {
	v *viper.Viper
}

// Load builds a Config with defaults set, then overlays a config file (if
// present) and environment variables. Missing config files are not an
// error — the defaults are meant to be usable standalone.
func Load() *Config {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")

	v.SetDefault("trans.sync_delay", "10s")
	v.SetDefault("trans.segment_byte_budget", 4<<20) // 4 MiB per segment

	v.SetDefault("controlplane.backend", "memory") // memory | redis | postgres
	v.SetDefault("controlplane.redis.addr", "localhost:6379")
	v.SetDefault("controlplane.redis.password", "")
	v.SetDefault("controlplane.redis.db", 0)
	v.SetDefault("controlplane.postgres.dsn", "")
	v.SetDefault("controlplane.retry.max_attempts", 5)
	v.SetDefault("controlplane.retry.initial_interval", "100ms")
	v.SetDefault("controlplane.circuit.failure_threshold", 5)
	v.SetDefault("controlplane.circuit.reset_timeout", "10s")

	v.SetDefault("segment.vault_enabled", false)
	v.SetDefault("segment.vault_addr", "")
	v.SetDefault("segment.vault_transit_key", "txncore-segments")

	v.SetConfigName("txncore")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Printf("txncore: no config file loaded, using defaults and environment: %v", err)
	}

	return &Config{v: v}
}

// ServerAddr is the admin HTTP surface's bind address.
func (c *Config) ServerAddr() string { return c.v.GetString("server.addr") }

// LogLevel is the logrus level name.
func (c *Config) LogLevel() string { return c.v.GetString("log.level") }

// SyncDelay is TRANS_SYNC_DELAY: how long the committer waits idle before
// the deadline timer forces a commit.
func (c *Config) SyncDelay() time.Duration { return c.v.GetDuration("trans.sync_delay") }

// SegmentByteBudget bounds how many value bytes a single segment may hold,
// consulted by ItemStore.FitsSingle.
func (c *Config) SegmentByteBudget() int64 { return c.v.GetInt64("trans.segment_byte_budget") }

// ControlPlaneBackend selects which ControlClient implementation to wire up.
func (c *Config) ControlPlaneBackend() string { return c.v.GetString("controlplane.backend") }

// RedisAddr, RedisPassword, RedisDB configure the Redis-backed ControlClient.
func (c *Config) RedisAddr() string     { return c.v.GetString("controlplane.redis.addr") }
func (c *Config) RedisPassword() string { return c.v.GetString("controlplane.redis.password") }
func (c *Config) RedisDB() int          { return c.v.GetInt("controlplane.redis.db") }

// PostgresDSN configures the Postgres-backed ControlClient.
func (c *Config) PostgresDSN() string { return c.v.GetString("controlplane.postgres.dsn") }

// RetryMaxAttempts and RetryInitialInterval configure the backoff wrapper
// around every ControlClient RPC.
func (c *Config) RetryMaxAttempts() int { return c.v.GetInt("controlplane.retry.max_attempts") }
func (c *Config) RetryInitialInterval() time.Duration {
	return c.v.GetDuration("controlplane.retry.initial_interval")
}

// CircuitFailureThreshold and CircuitResetTimeout configure the circuit
// breaker wrapping the composed ControlClient.
func (c *Config) CircuitFailureThreshold() int {
	return c.v.GetInt("controlplane.circuit.failure_threshold")
}
func (c *Config) CircuitResetTimeout() time.Duration {
	return c.v.GetDuration("controlplane.circuit.reset_timeout")
}

// VaultEnabled, VaultAddr, VaultTransitKey configure optional encryption of
// each segment's checksum via Vault's transit engine; segment data itself is
// not encrypted.
func (c *Config) VaultEnabled() bool       { return c.v.GetBool("segment.vault_enabled") }
func (c *Config) VaultAddr() string        { return c.v.GetString("segment.vault_addr") }
func (c *Config) VaultTransitKey() string  { return c.v.GetString("segment.vault_transit_key") }
