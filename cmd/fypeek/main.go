package main

import (
	"os"
	"path/filepath"

	"fypeek/internal/config"
	"fypeek/internal/ui"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

// LaunchFunc runs the viewer on an initial path.
type LaunchFunc func(path string, cfg *config.Config, logger logrus.FieldLogger) error

// NewRootCmd creates the fypeek command. launch is swapped out in tests.
func NewRootCmd(launch LaunchFunc, loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:           "fypeek [path]",
		Short:         "fypeek - a borderless single picture viewer",
		Long:          "fypeek shows one picture at a time from a directory and follows changes to it.\nPath may be a picture file or a directory and defaults to the current directory.",
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger := logrus.New()
			logger.SetOutput(cmd.ErrOrStderr())
			logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			logger.SetLevel(cfg.Level())

			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			logger.WithField("path", abs).Debug("Starting viewer")
			return launch(abs, cfg, logger)
		},
	}
}

func main() {
	root := NewRootCmd(ui.CreateApplication, config.Load)
	if err := root.Execute(); err != nil {
		root.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
