package config

import (
	"errors"
	"fmt"

	"github.com/assetkit/assetkit/pkg/storage/dbconfig"
)

// Regulation is the MiCA registry configuration.
type Regulation struct {
	DBConfiguration dbconfig.DBConfiguration `yaml:"DBConfiguration"`
	// CacheSize is the number of registry entries kept in memory, zero
	// disables caching.
	CacheSize int `yaml:"CacheSize"`
}

// Validate returns an error if Regulation configuration is not valid.
func (r Regulation) Validate() error {
	if r.CacheSize < 0 {
		return errors.New("negative CacheSize")
	}
	db := r.DBConfiguration
	switch db.Type {
	case dbconfig.InMemoryDB:
	case dbconfig.LevelDB:
		if db.LevelDBOptions.DataDirectoryPath == "" {
			return errors.New("empty LevelDB DataDirectoryPath")
		}
	case dbconfig.BoltDB:
		if db.BoltDBOptions.FilePath == "" {
			return errors.New("empty BoltDB FilePath")
		}
	default:
		return fmt.Errorf("unknown DB type %q", db.Type)
	}
	return nil
}
