package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/mdobak/go-xerrors"
	"github.com/spf13/cobra"

	"github.com/yok-tottii/cry-interpreter/internal/config"
)

const version = "0.1.0"

func init() {
	// The tray, the hotkey and the macOS permission calls need the main thread
	runtime.LockOSThread()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, xerrors.Sprint(xerrors.New(err)))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "cry-interpreter",
		Short:         "Classify infant cries from the microphone and chart the likely causes",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDefault(cmd.Context(), configPath, cmd.OutOrStdout())
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.GetConfigPath(), "path to the YAML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run in the system tray",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTray(configPath)
			},
		},
		newListenCmd(&configPath),
		newReplayCmd(&configPath),
		newDevicesCmd(),
	)

	return root
}

// runDefault runs with the display selected by the config: the tray, or the
// terminal chart until interrupted
func runDefault(ctx context.Context, configPath string, out io.Writer) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	console := cfg.Display == "console"
	s, err := newSession(configPath, cfg, console)
	if err != nil {
		return err
	}
	defer s.Close()

	if console {
		return listen(ctx, s, out, 0)
	}
	return trayMain(s)
}
