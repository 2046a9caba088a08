// Package config loads wsm.toml.
//
// A missing file is not an error: every field has a default and CLI flags
// override whatever the file sets.
//
//	[solver]
//	timeout_ms = 5000
//	max_iterations = 0
//	weight_cap = 120
//	first_solution = false
//	seed = 1
//	max_path_length = 10
//	close_radius = 2
//
//	[cache]
//	backend = "file"      # file, redis, none
//	ttl = "24h"
//	redis_addr = "localhost:6379"
//	redis_db = 0
//
//	[store]
//	backend = "badger"    # file, badger, mongo
//	path = "~/.local/share/wsm/runs"
//	mongo_uri = "mongodb://localhost:27017"
//	mongo_database = "wsm"
//
//	[server]
//	addr = ":8080"
//	metrics = true
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/wsm/pkg/errors"
)

// FileName is the configuration file name looked up in the config dir.
const FileName = "wsm.toml"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Store backends.
const (
	StoreFile   = "file"
	StoreBadger = "badger"
	StoreMongo  = "mongo"
)

// Config is the full file configuration.
type Config struct {
	Solver Solver `toml:"solver"`
	Cache  Cache  `toml:"cache"`
	Store  Store  `toml:"store"`
	Server Server `toml:"server"`
}

// Solver holds solver defaults.
type Solver struct {
	TimeoutMS     int64   `toml:"timeout_ms"`
	MaxIterations uint64  `toml:"max_iterations"`
	WeightCap     *uint64 `toml:"weight_cap"`
	FirstSolution bool    `toml:"first_solution"`
	Seed          int64   `toml:"seed"`
	MaxPathLength int     `toml:"max_path_length"`
	CloseRadius   int     `toml:"close_radius"`
}

// Timeout returns TimeoutMS as a duration; zero means unlimited.
func (s Solver) Timeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

// Cache selects and configures the result cache.
type Cache struct {
	Backend   string   `toml:"backend"`
	TTL       Duration `toml:"ttl"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	RedisDB   int      `toml:"redis_db"`
}

// Store selects and configures the run record store.
type Store struct {
	Backend       string `toml:"backend"`
	Path          string `toml:"path"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// Server configures `wsm serve`.
type Server struct {
	Addr    string `toml:"addr"`
	Metrics bool   `toml:"metrics"`
}

// Duration is a time.Duration decoded from strings like "24h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Solver: Solver{
			Seed:          1,
			MaxPathLength: 10,
			CloseRadius:   2,
		},
		Cache: Cache{
			Backend:   CacheFile,
			TTL:       Duration{24 * time.Hour},
			Dir:       filepath.Join(cacheHome(), "wsm"),
			RedisAddr: "localhost:6379",
		},
		Store: Store{
			Backend:       StoreBadger,
			Path:          filepath.Join(dataHome(), "wsm", "runs"),
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "wsm",
		},
		Server: Server{
			Addr:    ":8080",
			Metrics: true,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/wsm/wsm.toml.
func DefaultPath() string {
	return filepath.Join(configHome(), "wsm", FileName)
}

// Load reads path on top of [Default] and validates the result. An empty
// path loads [DefaultPath] if it exists.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "config file %s not found", path)
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "read %s", path)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "%s: unknown key %s", path, undec[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and backend names.
func (c *Config) Validate() error {
	if c.Solver.TimeoutMS < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "solver.timeout_ms must not be negative")
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return errs.New(errs.ErrCodeInvalidConfig, "cache.backend %q: want file, redis or none", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
	}
	switch c.Store.Backend {
	case StoreFile, StoreBadger:
		if c.Store.Path == "" {
			return errs.New(errs.ErrCodeInvalidConfig, "store.path is required for the %s backend", c.Store.Backend)
		}
	case StoreMongo:
		if c.Store.MongoURI == "" || c.Store.MongoDatabase == "" {
			return errs.New(errs.ErrCodeInvalidConfig, "store.mongo_uri and store.mongo_database are required for the mongo backend")
		}
	default:
		return errs.New(errs.ErrCodeInvalidConfig, "store.backend %q: want file, badger or mongo", c.Store.Backend)
	}
	if c.Server.Addr == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "server.addr must not be empty")
	}
	return nil
}

func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return "."
}

func cacheHome() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return dir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	return os.TempDir()
}

func dataHome() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share")
	}
	return "."
}
