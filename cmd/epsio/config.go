package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the epsio configuration file (~/.config/epsio/config.yaml).
type Config struct {
	DataDir  string `yaml:"data_dir"`
	BasisDir string `yaml:"basis_dir"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "epsio", "config.yaml")
}

// applyServeConfig applies config file defaults to serve command
// variables when the corresponding CLI flag was not explicitly set.
func applyServeConfig(c *cli.Command, cfg Config, addr, dataDir *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.DataDir != "" && !c.IsSet("data-dir") {
		*dataDir = cfg.DataDir
	}
	applyLogConfig(c, cfg)
}

// applyBasisConfig resolves a basis file name against the configured
// basis directory when the flag value is not already a path.
func applyBasisConfig(cfg Config, basisPath *string) {
	if cfg.BasisDir == "" || *basisPath == "" {
		return
	}
	if filepath.Base(*basisPath) == *basisPath {
		*basisPath = filepath.Join(cfg.BasisDir, *basisPath)
	}
}

func applyLogConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file
// doesn't exist.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}
