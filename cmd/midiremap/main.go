// Package main is the entry point for the midiremap CLI
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/james-see/midiremap/pkg/api"
	"github.com/james-see/midiremap/pkg/config"
	"github.com/james-see/midiremap/pkg/converter"
	"github.com/james-see/midiremap/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "midiremap"})

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

type flags struct {
	output     string
	track      int
	tempo      []int
	blank      int
	configFile string
	eventsFile string
	verbose    bool
	serverPort int
}

func newRootCmd() *cobra.Command {
	var f flags

	rootCmd := &cobra.Command{
		Use:   "midiremap <input.mid>",
		Short: "Remap tempo and note-off events of a MIDI track",
		Long: `midiremap rewrites one track of a Standard MIDI File: it removes the blank
beats before the first note, optionally rescales the tempo, and replaces every
note-off with one placed right after the next event.

Options can also be read from a YAML file (midiremap.yml in the working
directory, or the file given with --config). Flags override the file.

Examples:
  midiremap song.mid
  midiremap song.mid -o fixed.mid -t 1
  midiremap song.mid -f 60 -f 160 -b 2
  midiremap song.mid --events events.txt
  midiremap tui
  midiremap serve --port 8080`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if f.verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemap(cmd, args, &f)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().IntVarP(&f.track, "track", "t", 0, "Track index to remap")
	rootCmd.PersistentFlags().IntSliceVarP(&f.tempo, "tempo", "f", nil, "Fix tempo: source and target tempo (-f 60 -f 160 or -f 60,160)")
	rootCmd.PersistentFlags().IntVarP(&f.blank, "blank", "b", 0, "Number of blank beats before the first note")
	rootCmd.PersistentFlags().StringVarP(&f.configFile, "config", "c", "", "Options file (YAML, default "+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.Flags().StringVarP(&f.output, "output", "o", "", "Output file path (default [input]"+converter.RemapSuffix+")")
	rootCmd.Flags().StringVarP(&f.eventsFile, "events", "e", "", "Also write the remapped events as a table to this file")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOptions(cmd, nil, &f)
			if err != nil {
				return err
			}
			// The TUI owns the terminal, keep log lines out of it unless asked for
			tuiLogger := log.New(io.Discard)
			if f.verbose {
				tuiLogger = logger
			}
			return tui.Run(opts, tuiLogger)
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Starting API server on port %d...\n", f.serverPort)
			return api.StartServer(f.serverPort, logger)
		},
	}
	serveCmd.Flags().IntVarP(&f.serverPort, "port", "p", 8080, "Server port")

	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
	return rootCmd
}

// loadOptions layers the options file and the explicitly set flags
func loadOptions(cmd *cobra.Command, args []string, f *flags) (*config.Options, error) {
	fileOpts, err := readOptionsFile(f.configFile)
	if err != nil {
		return nil, err
	}

	var flagOpts config.Options
	if len(args) > 0 {
		flagOpts.Input = args[0]
	}
	flagOpts.Output = f.output
	flagOpts.EventsFile = f.eventsFile
	if cmd.Flags().Changed("track") {
		flagOpts.Track = config.Int(f.track)
	}
	if cmd.Flags().Changed("tempo") {
		flagOpts.TempoFix = f.tempo
		if len(f.tempo) != 2 {
			return nil, fmt.Errorf("%w: argument -f must be given exactly two integers, got %d", config.ErrUsage, len(f.tempo))
		}
	}
	if cmd.Flags().Changed("blank") {
		flagOpts.BlankBeats = config.Int(f.blank)
	}

	opts := config.Merge(*fileOpts, flagOpts)
	return &opts, nil
}

// readOptionsFile reads name, or the default options file if name is empty and
// the default file exists
func readOptionsFile(name string) (*config.Options, error) {
	explicit := name != ""
	if !explicit {
		name = config.DefaultFile
	}
	opts, err := config.ReadOptions(os.DirFS(filepath.Dir(name)), filepath.Base(name))
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &config.Options{}, nil
		}
		return nil, fmt.Errorf("failed to read options: %w", err)
	}
	logger.Debug("read options file", "file", name)
	return opts, nil
}

func runRemap(cmd *cobra.Command, args []string, f *flags) error {
	opts, err := loadOptions(cmd, args, f)
	if err != nil {
		return err
	}
	cfg, err := opts.RemapConfig()
	if err != nil {
		return err
	}

	conv := converter.New(logger)
	result, err := conv.RemapFileWithEvents(opts.Input, opts.Output, opts.EventsFile, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Remapped %s -> %s\n", opts.Input, result.Filename)
	return nil
}
