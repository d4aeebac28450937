package config

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// ApplicationConfiguration config specific to the node.
type ApplicationConfiguration struct {
	LogLevel string `yaml:"LogLevel"`
	LogPath  string `yaml:"LogPath"`

	RPC        RPC          `yaml:"RPC"`
	Prometheus BasicService `yaml:"Prometheus"`
	Pprof      BasicService `yaml:"Pprof"`

	Features   Features   `yaml:"Features"`
	Regulation Regulation `yaml:"Regulation"`
	Snapshot   Snapshot   `yaml:"Snapshot"`
}

// Features toggles optional behavior.
type Features struct {
	// MiCA enables MiCA registry checks for assets that support them.
	MiCA bool `yaml:"MiCA"`
}

// Snapshot is the asset data source configuration.
type Snapshot struct {
	// Path is a YAML or JSON snapshot file, the format is chosen by
	// extension.
	Path string `yaml:"Path"`
}

// Validate checks ApplicationConfiguration for internal consistency and returns
// an error if any invalid settings are found.
func (a *ApplicationConfiguration) Validate() error {
	if a.LogLevel != "" {
		if _, err := zapcore.ParseLevel(a.LogLevel); err != nil {
			return fmt.Errorf("invalid LogLevel: %w", err)
		}
	}
	if err := a.RPC.Validate(); err != nil {
		return fmt.Errorf("invalid RPC config: %w", err)
	}
	if err := a.Regulation.Validate(); err != nil {
		return fmt.Errorf("invalid Regulation config: %w", err)
	}
	return nil
}

// EqualsButServices returns true when the o is the same as a except for
// services (Prometheus, Pprof and RPC) configuration.
func (a *ApplicationConfiguration) EqualsButServices(o *ApplicationConfiguration) bool {
	return a.LogLevel == o.LogLevel &&
		a.LogPath == o.LogPath &&
		a.Features == o.Features &&
		a.Regulation == o.Regulation &&
		a.Snapshot == o.Snapshot
}
