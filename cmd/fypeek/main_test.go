package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"fypeek/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommandC executes a cobra command and captures its output.
func executeCommandC(root *cobra.Command, args ...string) (string, string, error) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

type launchRecord struct {
	calls int
	path  string
	cfg   *config.Config
	err   error
}

func (r *launchRecord) launch(path string, cfg *config.Config, _ logrus.FieldLogger) error {
	r.calls++
	r.path = path
	r.cfg = cfg
	return r.err
}

func defaultConfig() (*config.Config, error) { return config.Default(), nil }

func TestRootHelp(t *testing.T) {
	rec := &launchRecord{}
	stdout, stderr, err := executeCommandC(NewRootCmd(rec.launch, defaultConfig), "--help")
	require.NoError(t, err, "stdout: %s, stderr: %s", stdout, stderr)
	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "fypeek [path]")
	assert.Zero(t, rec.calls)
}

func TestRootVersion(t *testing.T) {
	rec := &launchRecord{}
	stdout, _, err := executeCommandC(NewRootCmd(rec.launch, defaultConfig), "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, version)
	assert.Zero(t, rec.calls)
}

func TestRootLaunchesWithPath(t *testing.T) {
	dir := t.TempDir()
	rec := &launchRecord{}
	_, _, err := executeCommandC(NewRootCmd(rec.launch, defaultConfig), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, dir, rec.path)
	assert.Equal(t, config.Default(), rec.cfg)
}

func TestRootDefaultsToWorkingDirectory(t *testing.T) {
	rec := &launchRecord{}
	_, _, err := executeCommandC(NewRootCmd(rec.launch, defaultConfig))
	require.NoError(t, err)
	wd, err := filepath.Abs(".")
	require.NoError(t, err)
	assert.Equal(t, wd, rec.path)
}

func TestRootErrors(t *testing.T) {
	t.Run("too many args", func(t *testing.T) {
		rec := &launchRecord{}
		_, _, err := executeCommandC(NewRootCmd(rec.launch, defaultConfig), "a", "b")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "accepts at most 1 arg")
		assert.Zero(t, rec.calls)
	})

	t.Run("unknown flag", func(t *testing.T) {
		rec := &launchRecord{}
		_, _, err := executeCommandC(NewRootCmd(rec.launch, defaultConfig), "--slideshow")
		require.Error(t, err)
		assert.Zero(t, rec.calls)
	})

	t.Run("bad config", func(t *testing.T) {
		rec := &launchRecord{}
		bad := errors.New("invalid config file")
		_, _, err := executeCommandC(NewRootCmd(rec.launch, func() (*config.Config, error) { return nil, bad }), t.TempDir())
		assert.ErrorIs(t, err, bad)
		assert.Zero(t, rec.calls)
	})

	t.Run("launch failure", func(t *testing.T) {
		rec := &launchRecord{err: errors.New("failed to open")}
		_, _, err := executeCommandC(NewRootCmd(rec.launch, defaultConfig), t.TempDir())
		assert.EqualError(t, err, "failed to open")
	})
}
