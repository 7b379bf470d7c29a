// Package config loads layerank settings from a TOML file and the
// environment.
//
// Values are layered: built-in defaults, then the config file, then
// LAYERANK_* environment variables. Command-line flags are applied last by
// the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/layerank/pkg/cache"
	"github.com/matzehuels/layerank/pkg/netsimplex"
	"github.com/matzehuels/layerank/pkg/pipeline"
)

const envPrefix = "LAYERANK_"

// Ranker names.
const (
	RankerNetworkSimplex = pipeline.RankerNetworkSimplex
	RankerLongestPath    = pipeline.RankerLongestPath
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete configuration.
type Config struct {
	Rank   RankConfig   `toml:"rank"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// RankConfig controls how graphs are ranked.
type RankConfig struct {
	Ranker        string `toml:"ranker"`
	Balance       string `toml:"balance"`
	Adjust        string `toml:"adjust"`
	MaxIterations int    `toml:"max_iterations"`
	SearchSize    int    `toml:"search_size"`
	BreakCycles   bool   `toml:"break_cycles"`
	Subdivide     bool   `toml:"subdivide"`
	Components    bool   `toml:"components"`
}

// CacheConfig selects the result cache backend.
type CacheConfig struct {
	Backend       string        `toml:"backend"`
	Dir           string        `toml:"dir"`
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
	Prefix        string        `toml:"prefix"`
	TTL           time.Duration `toml:"ttl"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr            string        `toml:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	MaxBodyBytes    int64         `toml:"max_body_bytes"`
	MaxNodes        int           `toml:"max_nodes"`
	MaxEdges        int           `toml:"max_edges"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Rank: RankConfig{
			Ranker:        RankerNetworkSimplex,
			Balance:       "none",
			Adjust:        "none",
			MaxIterations: math.MaxInt32,
			BreakCycles:   true,
			Components:    true,
		},
		Cache: CacheConfig{
			Backend: cache.BackendFile,
			Prefix:  "layerank:",
			TTL:     7 * 24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    8 << 20,
			MaxNodes:        50000,
			MaxEdges:        200000,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/layerank/config.toml, falling back to
// ~/.config/layerank/config.toml.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, cache.AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", cache.AppName, "config.toml"), nil
}

// Load reads the configuration. An explicit path must exist; with an empty
// path the default location is used when present.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := cfg.readFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config %s: unknown key %q: %w", path, undecoded[0].String(), ErrInvalid)
	}
	return nil
}

// Validate rejects unknown enum values and out-of-range numbers.
func (c *Config) Validate() error {
	switch c.Rank.Ranker {
	case RankerNetworkSimplex, RankerLongestPath:
	default:
		return fmt.Errorf("rank.ranker %q: %w", c.Rank.Ranker, ErrInvalid)
	}
	if _, err := netsimplex.ParseBalanceMode(c.Rank.Balance); err != nil {
		return fmt.Errorf("rank.balance: %w: %w", ErrInvalid, err)
	}
	if _, err := netsimplex.ParseAdjust(c.Rank.Adjust); err != nil {
		return fmt.Errorf("rank.adjust: %w: %w", ErrInvalid, err)
	}
	if c.Rank.MaxIterations < 0 {
		return fmt.Errorf("rank.max_iterations %d: %w", c.Rank.MaxIterations, ErrInvalid)
	}
	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendNone:
	case cache.BackendRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr required for redis backend: %w", ErrInvalid)
		}
	default:
		return fmt.Errorf("cache.backend %q: %w", c.Cache.Backend, ErrInvalid)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl %s: %w", c.Cache.TTL, ErrInvalid)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes %d: %w", c.Server.MaxBodyBytes, ErrInvalid)
	}
	return nil
}

// PipelineOptions converts the rank and cache sections into pipeline
// options. The config must have passed Validate.
func (c *Config) PipelineOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.Ranker = c.Rank.Ranker
	opts.Balance = c.Rank.Balance
	opts.Adjust = c.Rank.Adjust
	opts.MaxIterations = c.Rank.MaxIterations
	opts.SearchSize = c.Rank.SearchSize
	opts.BreakCycles = c.Rank.BreakCycles
	opts.Subdivide = c.Rank.Subdivide
	opts.Components = c.Rank.Components
	if c.Cache.TTL > 0 {
		opts.TTL = c.Cache.TTL
	}
	return opts
}

// Options converts the cache section for cache.Open.
func (c CacheConfig) Options() cache.Options {
	return cache.Options{
		Backend:       c.Backend,
		Dir:           c.Dir,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		Prefix:        c.Prefix,
	}
}

// =============================================================================
// Environment
// =============================================================================

type envBinding struct {
	name string
	set  func(c *Config, v string) error
}

var envBindings = []envBinding{
	{"RANKER", strVar(func(c *Config) *string { return &c.Rank.Ranker })},
	{"BALANCE", strVar(func(c *Config) *string { return &c.Rank.Balance })},
	{"ADJUST", strVar(func(c *Config) *string { return &c.Rank.Adjust })},
	{"MAX_ITERATIONS", intVar(func(c *Config) *int { return &c.Rank.MaxIterations })},
	{"SEARCH_SIZE", intVar(func(c *Config) *int { return &c.Rank.SearchSize })},
	{"BREAK_CYCLES", boolVar(func(c *Config) *bool { return &c.Rank.BreakCycles })},
	{"SUBDIVIDE", boolVar(func(c *Config) *bool { return &c.Rank.Subdivide })},
	{"COMPONENTS", boolVar(func(c *Config) *bool { return &c.Rank.Components })},
	{"CACHE_BACKEND", strVar(func(c *Config) *string { return &c.Cache.Backend })},
	{"CACHE_DIR", strVar(func(c *Config) *string { return &c.Cache.Dir })},
	{"CACHE_TTL", durationVar(func(c *Config) *time.Duration { return &c.Cache.TTL })},
	{"REDIS_ADDR", strVar(func(c *Config) *string { return &c.Cache.RedisAddr })},
	{"REDIS_PASSWORD", strVar(func(c *Config) *string { return &c.Cache.RedisPassword })},
	{"REDIS_DB", intVar(func(c *Config) *int { return &c.Cache.RedisDB })},
	{"SERVER_ADDR", strVar(func(c *Config) *string { return &c.Server.Addr })},
	{"MAX_NODES", intVar(func(c *Config) *int { return &c.Server.MaxNodes })},
	{"MAX_EDGES", intVar(func(c *Config) *int { return &c.Server.MaxEdges })},
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	for _, b := range envBindings {
		v, ok := lookup(envPrefix + b.name)
		if !ok {
			continue
		}
		if err := b.set(c, v); err != nil {
			return fmt.Errorf("%s%s: %w: %w", envPrefix, b.name, ErrInvalid, err)
		}
	}
	return nil
}

func strVar(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func intVar(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func boolVar(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func durationVar(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}
