// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const DefaultSidecarName = ".kambios_undo.json"

type Config struct {
	Server struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	} `json:"server"`

	Journal struct {
		Path            string `json:"path"`
		Enabled         bool   `json:"enabled"`
		CacheSize       int    `json:"cache_size"`
		CompressMinSize int    `json:"compress_min_size"`
	} `json:"journal"`

	SidecarName string `json:"sidecar_name"`
	NaturalSort bool   `json:"natural_sort"`
	Environment string `json:"environment"` // dev, prod
	LogLevel    string `json:"log_level"`   // debug, info, warn, error
}

func Default() *Config {
	var c Config
	c.Server.Host = "127.0.0.1"
	c.Server.Port = 7788
	c.Journal.Enabled = true
	c.Journal.Path = defaultJournalPath()
	c.Journal.CacheSize = 256
	c.Journal.CompressMinSize = 1024
	c.SidecarName = DefaultSidecarName
	c.Environment = "development"
	c.LogLevel = "warn"
	return &c
}

func defaultJournalPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "kambios", "journal")
}

func getConfigPath() string {
	if p := os.Getenv("KAMBIOS_CONFIG"); p != "" {
		return p
	}
	env := os.Getenv("KAMBIOS_ENV")
	if env == "" {
		env = "development"
	}
	return fmt.Sprintf("config/config.%s.json", env)
}

// Load reads a JSON config file over the defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := Default()
	if err := json.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}
	config.fill()

	return config, nil
}

// Resolve loads the explicit path when given. Otherwise it tries the
// environment-derived path and falls back to defaults when that file is absent.
func Resolve(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}

	path = getConfigPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

func (c *Config) fill() {
	d := Default()
	if c.SidecarName == "" {
		c.SidecarName = d.SidecarName
	}
	if c.Journal.Path == "" {
		c.Journal.Path = d.Journal.Path
	}
	if c.Journal.CacheSize <= 0 {
		c.Journal.CacheSize = d.Journal.CacheSize
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
