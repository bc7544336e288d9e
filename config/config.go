// Package config holds the resolved configuration consumed by the runtime:
// system-wide defaults, the named worker-pool map, and per-actor settings.
// Values can be loaded from the process environment (with optional .env
// support); the runtime itself only ever sees resolved values.
package config

import (
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// DefaultPoolName is the reserved pool used when an actor does not name one.
const DefaultPoolName = "default"

// Environment variables understood by Load.
const (
	envSystemName         = "STAGEHAND_SYSTEM_NAME"
	envDefaultMailboxSize = "STAGEHAND_DEFAULT_MAILBOX_SIZE"
	envDefaultThroughput  = "STAGEHAND_DEFAULT_THROUGHPUT"
	envDefaultRestart     = "STAGEHAND_DEFAULT_RESTART"
	envDefaultPoolThreads = "STAGEHAND_DEFAULT_POOL_THREADS"
)

// DefaultThroughput caps how many messages one activation may process before
// the actor yields its worker thread.
const DefaultThroughput = 300

// DefaultMailboxSize is the default mailbox capacity. Zero means unbounded.
const DefaultMailboxSize = 0

// ErrInvalidConfig is the root cause wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// GlobalConfig carries the system name and the per-actor defaults applied
// when an ActorConfig leaves a field unset.
type GlobalConfig struct {
	// Name is the actor system name, used in every actor address.
	Name string
	// DefaultMailboxSize is applied by DefaultActorConfig. Zero means unbounded.
	DefaultMailboxSize int
	// DefaultThroughput is the per-activation message limit.
	DefaultThroughput int
	// DefaultRestart names the restart policy applied when an ActorConfig
	// carries none. One of "always" or "never".
	DefaultRestart string
}

// PoolConfig sizes one named worker pool.
type PoolConfig struct {
	// Threads is the number of worker goroutines. Must be at least one.
	Threads int
}

// Config is the fully resolved configuration of an actor system.
type Config struct {
	Global GlobalConfig
	Pools  map[string]PoolConfig
}

// Default returns a working configuration: one "default" pool sized to the
// number of CPUs, unbounded mailboxes, and an always-restart policy.
func Default() Config {
	return Config{
		Global: GlobalConfig{
			Name:               "stagehand",
			DefaultMailboxSize: DefaultMailboxSize,
			DefaultThroughput:  DefaultThroughput,
			DefaultRestart:     RestartKindAlways,
		},
		Pools: map[string]PoolConfig{
			DefaultPoolName: {Threads: runtime.NumCPU()},
		},
	}
}

// Load builds a Config from the process environment, starting from Default.
// A .env file in the working directory is honored when present.
func Load() (Config, error) {
	// missing .env files are fine, the environment still applies
	_ = godotenv.Load()

	cfg := Default()
	if name := os.Getenv(envSystemName); name != "" {
		cfg.Global.Name = name
	}
	if kind := os.Getenv(envDefaultRestart); kind != "" {
		cfg.Global.DefaultRestart = kind
	}

	var err error
	if cfg.Global.DefaultMailboxSize, err = intFromEnv(envDefaultMailboxSize, cfg.Global.DefaultMailboxSize); err != nil {
		return Config{}, err
	}
	if cfg.Global.DefaultThroughput, err = intFromEnv(envDefaultThroughput, cfg.Global.DefaultThroughput); err != nil {
		return Config{}, err
	}
	threads, err := intFromEnv(envDefaultPoolThreads, cfg.Pools[DefaultPoolName].Threads)
	if err != nil {
		return Config{}, err
	}
	cfg.Pools[DefaultPoolName] = PoolConfig{Threads: threads}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// PoolConfig returns the configuration of the named pool, falling back to the
// reserved default pool when the name is unknown.
func (c Config) PoolConfig(name string) PoolConfig {
	if pool, ok := c.Pools[name]; ok {
		return pool
	}
	return c.Pools[DefaultPoolName]
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var err error
	if c.Global.Name == "" {
		err = multierr.Append(err, errors.Wrap(ErrInvalidConfig, "system name is empty"))
	}
	if c.Global.DefaultMailboxSize < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfig, "default mailbox size %d is negative", c.Global.DefaultMailboxSize))
	}
	if c.Global.DefaultThroughput <= 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfig, "default throughput %d must be positive", c.Global.DefaultThroughput))
	}
	if !validRestartKind(c.Global.DefaultRestart) {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfig, "unknown restart policy %q", c.Global.DefaultRestart))
	}
	if _, ok := c.Pools[DefaultPoolName]; !ok {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfig, "reserved pool %q is not configured", DefaultPoolName))
	}
	for name, pool := range c.Pools {
		if pool.Threads < 1 {
			err = multierr.Append(err, errors.Wrapf(ErrInvalidConfig, "pool %q has %d threads, need at least 1", name, pool.Threads))
		}
	}
	return err
}

func intFromEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidConfig, "%s=%q is not an integer", key, raw)
	}
	return value, nil
}
