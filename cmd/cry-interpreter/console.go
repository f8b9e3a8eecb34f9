package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/yok-tottii/cry-interpreter/internal/audio"
	"github.com/yok-tottii/cry-interpreter/internal/display"
	"github.com/yok-tottii/cry-interpreter/internal/interpreter"
	"github.com/yok-tottii/cry-interpreter/internal/permissions"
	"github.com/yok-tottii/cry-interpreter/internal/recording"
)

// updateBuffer is how many chart updates may queue behind a slow terminal
const updateBuffer = 8

func newListenCmd(configPath *string) *cobra.Command {
	var (
		duration time.Duration
		device   int
	)

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Classify the microphone and draw the chart in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(*configPath, true)
			if err != nil {
				return err
			}
			defer s.Close()

			if cmd.Flags().Changed("device") {
				s.config.SetAudioDeviceID(device)
			}
			return listen(cmd.Context(), s, cmd.OutOrStdout(), duration)
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	cmd.Flags().IntVar(&device, "device", -1, "input device ID from 'devices' (-1 for the system default)")

	return cmd
}

func listen(ctx context.Context, s *session, out io.Writer, duration time.Duration) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	dispatcher := display.NewDispatcher(display.NewConsole(out), s.labels, updateBuffer)
	defer dispatcher.Close()

	loopConfig := s.loopConfig(audio.PortAudioOpener{Config: s.config.AudioConfig()}, dispatcher)
	loop := interpreter.New(loopConfig)

	checker := permissions.NewPermissionChecker()
	manager := recording.New(loop, checker, recording.Config{Logger: s.logger})
	manager.OnStateChange(func(state recording.State) {
		if state == recording.Unauthorized {
			s.logger.Warn("%s", permissions.GetPermissionStatusMessage(checker.MicrophoneStatus()))
		}
	})

	if err := manager.Start(); err != nil {
		return err
	}
	manager.Watch(nil, permissions.Watch(ctx, checker, 2*time.Second))

	s.logger.Info("Listening, press Ctrl+C to stop")
	<-ctx.Done()

	return manager.Close()
}

func newReplayCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <file.wav>",
		Short: "Classify a WAV file in real time and draw the chart in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(*configPath, true)
			if err != nil {
				return err
			}
			defer s.Close()

			return replay(cmd.Context(), s, afero.NewOsFs(), args[0], cmd.OutOrStdout())
		},
	}
}

// replay runs the loop over path for as long as the file plays
func replay(ctx context.Context, s *session, fs afero.Fs, path string, out io.Writer) error {
	if s.classifier == nil {
		return s.classifierErr
	}

	file, err := audio.NewWAVSource(fs, path, s.classifier.Format())
	if err != nil {
		return fmt.Errorf("%w: %v", interpreter.ErrResource, err)
	}
	length := file.Duration()
	if err := file.Release(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	// One extra interval so the last window of the file is classified
	ctx, cancel := context.WithTimeout(ctx, length+s.config.Interval())
	defer cancel()

	dispatcher := display.NewDispatcher(display.NewConsole(out), s.labels, updateBuffer)
	defer dispatcher.Close()

	loop := interpreter.New(s.loopConfig(audio.WAVOpener{Fs: fs, Path: path}, dispatcher))
	if err := loop.Start(); err != nil {
		return err
	}

	s.logger.Info("Replaying %s (%s)", path, length.Round(time.Millisecond))
	<-ctx.Done()

	if err := loop.Stop(); err != nil {
		return err
	}
	if n := loop.TickErrors(); n > 0 {
		s.logger.Warn("Replay finished with %d failed ticks", n)
	}
	return nil
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio input devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := audio.ListDevices()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, d := range devices {
				suffix := ""
				if d.IsDefault {
					suffix = " (default)"
				}
				fmt.Fprintf(out, "%3d  %s%s\n", d.ID, d.Name, suffix)
			}
			return nil
		},
	}
}
