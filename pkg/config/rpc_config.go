package config

import (
	"errors"
)

// RPC is an RPC service configuration information.
type RPC struct {
	BasicService          `yaml:",inline"`
	EnableCORSWorkaround  bool `yaml:"EnableCORSWorkaround"`
	MaxRequestBodyBytes   int  `yaml:"MaxRequestBodyBytes"`
	MaxRequestHeaderBytes int  `yaml:"MaxRequestHeaderBytes"`
	MaxWebSocketClients   int  `yaml:"MaxWebSocketClients"`
	// ReadLimit is the maximum websocket message size, MaxRequestBodyBytes
	// is used when it's zero.
	ReadLimit int64 `yaml:"ReadLimit"`
}

// Validate checks RPC for internal consistency. It returns an error if the
// configuration is invalid.
func (cfg *RPC) Validate() error {
	if cfg.MaxRequestBodyBytes < 0 || cfg.MaxRequestHeaderBytes < 0 {
		return errors.New("negative request size limit")
	}
	if cfg.MaxWebSocketClients < 0 {
		return errors.New("negative MaxWebSocketClients")
	}
	if cfg.ReadLimit < 0 {
		return errors.New("negative ReadLimit")
	}
	return nil
}
