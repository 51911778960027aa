package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rabidaudio/cdplay/console"
	"github.com/rabidaudio/cdplay/drive"
	"github.com/rabidaudio/cdplay/drive/cdrom"
	"github.com/rabidaudio/cdplay/player"
	"github.com/rabidaudio/cdplay/sink"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type options struct {
	Device string
	Image  string
	Output string
	Debug  bool
}

// environment is what the commands take from the process: the terminal
// streams and the constructors for the drive and the audio output.
type environment struct {
	In        *os.File
	Out       io.Writer
	OpenDrive func(opts options) (drive.Drive, error)
	OpenSink  func(name string) (sink.Sink, error)
}

func defaultEnvironment() environment {
	return environment{
		In:        os.Stdin,
		Out:       os.Stdout,
		OpenDrive: openDrive,
		OpenSink:  sink.Open,
	}
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	code := run(ctx, os.Args[1:], defaultEnvironment())
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit status.
func run(ctx context.Context, args []string, env environment) int {
	root := newRootCmd(env)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		logrus.Error(err)
		return 1
	}
	return 0
}

func newRootCmd(env environment) *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:   "cdplay",
		Short: "Play the audio cd in the drive",
		Long: "Play every track of the audio cd in the drive.\n\n" +
			"While playing, press n for the next track, p for the previous track and s to stop.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if opts.Debug {
				logrus.SetLevel(logrus.DebugLevel)
				logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339Nano})
				logrus.Debug("Debug mode activated")
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return play(cmd.Context(), opts, env)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.Device, "device", "", "cdrom device to read, e.g. /dev/cdrom (default: first detected drive)")
	flags.StringVar(&opts.Image, "image", "", "play a directory of 44.1kHz 16-bit stereo WAV files instead of a cd")
	flags.BoolVarP(&opts.Debug, "debug", "d", false, "enable debug logs")
	root.Flags().StringVar(&opts.Output, "output", sink.OutputSpeaker, "audio output: speaker or oto")

	root.AddCommand(newTOCCmd(&opts, env))
	return root
}

func openDrive(opts options) (drive.Drive, error) {
	if opts.Image != "" {
		if opts.Device != "" {
			return nil, fmt.Errorf("choose at most one of --device or --image")
		}
		logrus.Debugf("Opening disc image %s", opts.Image)
		return drive.OpenImage(opts.Image)
	}
	logrus.Debugf("Opening cd drive %q", opts.Device)
	return cdrom.Open(opts.Device)
}

// play sets up the terminal, drive and audio device, in that order, and
// releases whatever was acquired on the way out.
func play(ctx context.Context, opts options, env environment) error {
	tm, err := console.Acquire(env.In, env.Out)
	if err != nil {
		return err
	}
	defer tm.Restore()

	d, err := env.OpenDrive(opts)
	if err != nil {
		return fmt.Errorf("failed to open CD drive: %w", err)
	}
	defer d.Close()

	progress := player.Progress{W: env.Out}
	progress.TrackCount(d.TrackCount())

	if _, err := d.FirstTrack(); err != nil {
		return fmt.Errorf("failed to get the first track number: %w", err)
	}

	logrus.Debugf("Opening audio output %q", opts.Output)
	out, err := env.OpenSink(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to open audio device: %w", err)
	}
	defer out.Close()

	p := &player.Player{
		Drive:    d,
		Sink:     out,
		Input:    tm,
		Progress: progress,
		Log:      logrus.StandardLogger(),
	}
	err = p.Play(ctx)
	fmt.Fprintln(env.Out)
	return err
}
