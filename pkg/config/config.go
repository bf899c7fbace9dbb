// Package config loads the server configuration from a TOML or YAML file.
package config

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/natefinch/lumberjack"
	"gopkg.in/yaml.v3"
)

// Config is the top level of the TOML file.
//
//	[server]
//	addr = ":8080"
//	read_timeout = "10s"
//	max_concurrent = 100
//
//	[log]
//	logfile = "/var/log/ch_router.log"
//	max_log_size = 500
//	max_log_age = 30
type Config struct {
	Server ServerConfig `toml:"server" yaml:"server"`
	Log    LogConfig    `toml:"log" yaml:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `toml:"addr" yaml:"addr"`
	ReadTimeout    Duration `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout   Duration `toml:"write_timeout" yaml:"write_timeout"`
	IdleTimeout    Duration `toml:"idle_timeout" yaml:"idle_timeout"`
	RequestTimeout Duration `toml:"request_timeout" yaml:"request_timeout"`
	MaxConcurrent  int      `toml:"max_concurrent" yaml:"max_concurrent"`
	CORSOrigin     string   `toml:"cors_origin" yaml:"cors_origin"`
	// Workers bounds the goroutines one matrix request may use. 0 means one per CPU.
	Workers int `toml:"workers" yaml:"workers"`
	// MaxMatrixSize caps sources × targets per matrix request.
	MaxMatrixSize int `toml:"max_matrix_size" yaml:"max_matrix_size"`
	// CacheSize is the distance result cache in megabytes. 0 disables it.
	CacheSize int `toml:"cache_size" yaml:"cache_size"`
}

// LogConfig routes log output to a rotating file.
type LogConfig struct {
	Logfile string `toml:"logfile" yaml:"logfile"`
	MaxSize int    `toml:"max_log_size" yaml:"max_log_size"` // megabytes
	MaxAge  int    `toml:"max_log_age" yaml:"max_log_age"`  // days
}

// Duration is a time.Duration written as a string such as "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8080",
			ReadTimeout:    Duration{10 * time.Second},
			WriteTimeout:   Duration{30 * time.Second},
			IdleTimeout:    Duration{60 * time.Second},
			RequestTimeout: Duration{10 * time.Second},
			MaxConcurrent:  100,
			MaxMatrixSize:  10_000,
		},
		Log: LogConfig{
			MaxSize: 500,
			MaxAge:  30,
		},
	}
}

// Load reads path on top of Default. Files ending in .yaml or .yml are
// decoded as YAML, anything else as TOML. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	var err error
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = decodeYAML(path, &cfg)
	default:
		err = decodeTOML(path, &cfg)
	}
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func decodeTOML(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return fmt.Errorf("config %s: unknown keys %v", path, undec)
	}
	return nil
}

func decodeYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	s := c.Server
	switch {
	case s.Addr == "":
		return fmt.Errorf("server.addr is empty")
	case s.MaxConcurrent <= 0:
		return fmt.Errorf("server.max_concurrent must be positive, got %d", s.MaxConcurrent)
	case s.Workers < 0:
		return fmt.Errorf("server.workers must not be negative, got %d", s.Workers)
	case s.MaxMatrixSize <= 0:
		return fmt.Errorf("server.max_matrix_size must be positive, got %d", s.MaxMatrixSize)
	case s.CacheSize < 0:
		return fmt.Errorf("server.cache_size must not be negative, got %d", s.CacheSize)
	case s.RequestTimeout.Duration <= 0:
		return fmt.Errorf("server.request_timeout must be positive")
	}
	return nil
}

// Write encodes c as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// SetLogger sends the standard logger to a rotating log file. Without a
// logfile, output stays on stderr.
func (c *LogConfig) SetLogger() io.Writer {
	if c == nil || c.Logfile == "" {
		log.Printf("Sending log messages to stderr since no log file specified.")
		return os.Stderr
	}
	fmt.Printf("Sending log messages to: %s\n", c.Logfile)
	l := &lumberjack.Logger{
		Filename: c.Logfile,
		MaxSize:  c.MaxSize,
		MaxAge:   c.MaxAge,
	}
	log.SetOutput(l)
	return l
}
