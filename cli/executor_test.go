package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/assetkit/assetkit/cli/app"
	"github.com/assetkit/assetkit/pkg/config"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

// executor runs CLI commands in-process capturing their output.
type executor struct {
	CLI *cli.App
	Out *bytes.Buffer
	Err *bytes.Buffer
	// ConfigFile is a configuration with a temporary registry and the
	// sample snapshot.
	ConfigFile string
}

const testConfigTemplate = `ApplicationConfiguration:
  LogLevel: error
  Features:
    MiCA: true
  Regulation:
    DBConfiguration:
      Type: boltdb
      BoltDBOptions:
        FilePath: %s
    CacheSize: 16
  Snapshot:
    Path: %s
`

func newExecutor(t *testing.T) *executor {
	config.Version = "0.1.0-test"
	e := &executor{
		CLI: app.New(),
		Out: bytes.NewBuffer(nil),
		Err: bytes.NewBuffer(nil),
	}
	e.CLI.Writer = e.Out
	e.CLI.ErrWriter = e.Err

	d := t.TempDir()
	snap, err := filepath.Abs(filepath.Join("..", "config", "snapshot.yml"))
	require.NoError(t, err)
	e.ConfigFile = filepath.Join(d, "assetkit.yml")
	cfg := fmt.Sprintf(testConfigTemplate, filepath.Join(d, "regulation.bolt"), snap)
	require.NoError(t, os.WriteFile(e.ConfigFile, []byte(cfg), 0o644))
	return e
}

func (e *executor) getNextLine(t *testing.T) string {
	line, err := e.Out.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimSuffix(line, "\n")
}

func (e *executor) checkNextLine(t *testing.T, expected string) {
	line := e.getNextLine(t)
	e.checkLine(t, line, expected)
}

func (e *executor) checkLine(t *testing.T, line, expected string) {
	require.Regexp(t, expected, line)
}

func (e *executor) checkEOF(t *testing.T) {
	_, err := e.Out.ReadString('\n')
	require.True(t, errors.Is(err, io.EOF))
}

func setExitFunc() <-chan int {
	ch := make(chan int, 1)
	cli.OsExiter = func(code int) {
		ch <- code
	}
	return ch
}

func checkExit(t *testing.T, ch <-chan int, code int) {
	select {
	case c := <-ch:
		require.Equal(t, code, c)
	default:
		if code != 0 {
			require.Fail(t, "no exit was called")
		}
	}
}

// RunWithError runs command and checks that it has failed with exit code 1.
func (e *executor) RunWithError(t *testing.T, args ...string) {
	ch := setExitFunc()
	require.Error(t, e.run(args...))
	checkExit(t, ch, 1)
}

// Run runs command and checks that there were no errors.
func (e *executor) Run(t *testing.T, args ...string) {
	ch := setExitFunc()
	require.NoError(t, e.run(args...), e.Err.String())
	checkExit(t, ch, 0)
}

func (e *executor) run(args ...string) error {
	e.Out.Reset()
	e.Err.Reset()
	return e.CLI.Run(args)
}
