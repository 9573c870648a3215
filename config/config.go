// Package config loads the server's single config.yaml into a
// package-level Config populated at init time, with safe defaults when the
// file is absent.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lovelydayss/goredis-kernel/internal/eventloop"
)

// ServerConfig controls the listening socket and frame limits.
type ServerConfig struct {
	Address string `yaml:"address"` // bind address, host:port
	MaxMsg  int    `yaml:"max_msg"` // largest accepted frame payload, bytes
}

// LogConfig controls the log package's output.
type LogConfig struct {
	Filename   string `yaml:"filename"` // empty means stderr only
	Level      string `yaml:"level"`    // debug|info|warn|error
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// RehashConfig exposes the hash table's incremental-rehash tuning so it
// can be adjusted without a rebuild. The hashtable package's own
// constants remain the defaults these fall back to.
type RehashConfig struct {
	MigrationBudget int     `yaml:"migration_budget"`
	LoadFactor      float64 `yaml:"load_factor"`
}

// GlobalConfig is the top-level shape of config.yaml.
type GlobalConfig struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Rehash RehashConfig `yaml:"rehash"`
}

// Config is populated from ./config.yaml at process start, or left at its
// defaults if the file does not exist.
var Config = &GlobalConfig{
	Server: ServerConfig{
		Address: "127.0.0.1:6379",
		MaxMsg:  eventloop.DefaultMaxMsg,
	},
	Log: LogConfig{
		Level:      "info",
		MaxSizeMB:  100,
		MaxBackups: 3,
		MaxAgeDays: 28,
	},
}

func init() {
	file, err := os.Open("./config.yaml")
	if err != nil {
		return
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(Config); err != nil {
		// Fields the decoder did not fill keep their defaults; the logger
		// isn't constructed yet at init time and the error is not reported.
		return
	}
}
