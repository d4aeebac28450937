/*
Package options contains a set of common CLI options and helper functions to use them.
*/
package options

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/assetkit/assetkit/pkg/config"
	"github.com/assetkit/assetkit/pkg/regulation"
	"github.com/assetkit/assetkit/pkg/snapshot"
	"github.com/assetkit/assetkit/pkg/storage"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultTimeout is the default timeout used for evaluation requests.
const DefaultTimeout = 10 * time.Second

// ConfigFile is a flag for commands that use node configuration.
var ConfigFile = cli.StringFlag{
	Name:  "config-file, c",
	Usage: "path to the node configuration file (" + config.DefaultConfigPath + " by default)",
}

// Debug is a flag for commands that allow node in debug mode usage.
var Debug = cli.BoolFlag{
	Name:  "debug, d",
	Usage: "enable debug logging (LOTS of output, overrides configuration)",
}

// Timeout is a flag for commands performing evaluations.
var Timeout = cli.DurationFlag{
	Name:  "timeout, s",
	Value: DefaultTimeout,
	Usage: "Timeout for the operation",
}

// Snapshot is a flag overriding the configured snapshot path.
var Snapshot = cli.StringFlag{
	Name:  "snapshot",
	Usage: "path to the asset snapshot (overrides Snapshot.Path of the configuration)",
}

// GetTimeoutContext returns a context.Context with the default or a user-set timeout.
func GetTimeoutContext(ctx *cli.Context) (context.Context, func()) {
	dur := ctx.Duration("timeout")
	if dur == 0 {
		dur = DefaultTimeout
	}
	return context.WithTimeout(context.Background(), dur)
}

// GetConfigFromContext looks at the config-file flag and returns an
// appropriate config.
func GetConfigFromContext(ctx *cli.Context) (config.Config, error) {
	return config.Load(ctx.String("config-file"))
}

// GetSnapshotFromContext loads asset snapshot from the path given by the
// snapshot flag or from the configured one.
func GetSnapshotFromContext(ctx *cli.Context, cfg config.ApplicationConfiguration) (*snapshot.Snapshot, error) {
	path := ctx.String("snapshot")
	if path == "" {
		path = cfg.Snapshot.Path
	}
	if path == "" {
		return nil, fmt.Errorf("no snapshot specified, use --%s option or Snapshot.Path configuration", Snapshot.Name)
	}
	return snapshot.Load(path)
}

// OpenRegistry opens MiCA registry storage and wraps it into a cache of the
// configured size. The returned function closes the underlying store.
func OpenRegistry(cfg config.Regulation) (regulation.Backend, func() error, error) {
	store, err := storage.NewStore(cfg.DBConfiguration)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open regulation registry: %w", err)
	}
	return regulation.NewCached(regulation.NewRegistry(store), cfg.CacheSize), store.Close, nil
}

// HandleLoggingParams reads logging parameters.
// If a user selected debug level -- function enables it.
// If logPath is configured -- function creates a dir and a file for logging.
func HandleLoggingParams(debug bool, cfg config.ApplicationConfiguration) (*zap.Logger, *zap.AtomicLevel, error) {
	var (
		level = zapcore.InfoLevel
		err   error
	)
	if len(cfg.LogLevel) > 0 {
		level, err = zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("log setting: %w", err)
		}
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Encoding = "console"
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Sampling = nil

	if logPath := cfg.LogPath; logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			return nil, nil, fmt.Errorf("could not create dir for logger: %w", err)
		}
		cc.OutputPaths = []string{logPath}
	}

	log, err := cc.Build()
	return log, &cc.Level, err
}
