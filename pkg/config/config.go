package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/assetkit/assetkit/pkg/storage/dbconfig"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is the default path to the config file.
	DefaultConfigPath = "./config/assetkit.yml"
	// DefaultMaxRequestBodyBytes is the default maximum RPC request body size.
	DefaultMaxRequestBodyBytes = 5 * 1024 * 1024
	// DefaultMaxRequestHeaderBytes is the default maximum RPC request header size.
	DefaultMaxRequestHeaderBytes = 1024 * 1024
	// DefaultMaxWebSocketClients is the default number of simultaneous
	// websocket clients.
	DefaultMaxWebSocketClients = 64
	// DefaultRegulationCacheSize is the default number of cached MiCA
	// registry entries.
	DefaultRegulationCacheSize = 1024
)

// Version is the version of the node, set at build time.
var Version string

// Config top level struct representing the config for the node.
type Config struct {
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration"`
}

// Load attempts to load the config from the given path. Empty path means
// DefaultConfigPath.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}
	return LoadFile(path)
}

// LoadFile loads config from the provided path. Unknown fields are not
// allowed.
func LoadFile(configPath string) (Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config '%s' doesn't exist", configPath)
	}

	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	config, err := Decode(configData)
	if err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	return config, nil
}

// Decode parses YAML configuration data, fills in defaults and validates the
// result.
func Decode(data []byte) (Config, error) {
	config := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	err := decoder.Decode(&config)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Default returns the configuration used when no value is given.
func Default() Config {
	return Config{
		ApplicationConfiguration: ApplicationConfiguration{
			LogLevel: "info",
			RPC: RPC{
				MaxRequestBodyBytes:   DefaultMaxRequestBodyBytes,
				MaxRequestHeaderBytes: DefaultMaxRequestHeaderBytes,
				MaxWebSocketClients:   DefaultMaxWebSocketClients,
			},
			Regulation: Regulation{
				DBConfiguration: dbconfig.DBConfiguration{Type: dbconfig.InMemoryDB},
				CacheSize:       DefaultRegulationCacheSize,
			},
		},
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	return c.ApplicationConfiguration.Validate()
}
