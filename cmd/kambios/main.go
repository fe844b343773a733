// cmd/kambios/main.go
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"kambios/internal/config"
	"kambios/internal/journal"
	"kambios/internal/logging"
	"kambios/internal/plan"
	"kambios/internal/renamer"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const source = "kambios_cli"

type options struct {
	dir       string
	config    string
	logLevel  string
	natural   bool
	noJournal bool
	yes       bool
}

// app is what every command runs against once flags and config are loaded.
type app struct {
	opts    *options
	cfg     *config.Config
	logger  *logging.Logger
	renamer *renamer.Renamer
	in      *bufio.Reader
	out     io.Writer

	// preview defaults to renamer.Preview
	preview func(dir string, req renamer.Request) (*renamer.Preview, error)
}

// newRootCmd builds the command tree around a. The caller closes a once
// the command has run.
func newRootCmd(a *app) *cobra.Command {
	opts := &options{}
	a.opts = opts

	rootCmd := &cobra.Command{
		Use:   "kambios",
		Short: "Kambios renames the files of a directory in batch",
		Long: `Kambios renames every file of one directory at once: number them, give them
all the same base name, or replace part of their names. Every change is
previewed before it happens and the last batch can be undone.

Run without a command for the interactive menu.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.interactive()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.dir, "dir", "C", "", "Directory to work in (default: current directory)")
	flags.StringVar(&opts.config, "config", "", "Path to a JSON config file")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolVar(&opts.natural, "natural", false, "List files in natural order (2 before 10)")
	flags.BoolVar(&opts.noJournal, "no-journal", false, "Do not record operations in the journal")

	numberCmd := &cobra.Command{
		Use:   "number TEXT",
		Short: "Rename files to \"N - TEXT.ext\"",
		Long:  `Numbers the files from 0 in listing order, keeping each extension.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.workDir()
			if err != nil {
				return err
			}
			return a.runPlan(dir, renamer.Request{Strategy: plan.StrategyNumbering, Text: args[0]})
		},
	}

	replaceCmd := &cobra.Command{
		Use:   "replace TEXT",
		Short: "Rename every file to \"TEXT.ext\"",
		Long: `Gives every file the same base name, keeping each extension. Useful for a
movie and its subtitles.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.workDir()
			if err != nil {
				return err
			}
			return a.runPlan(dir, renamer.Request{Strategy: plan.StrategyFullReplace, Text: args[0]})
		},
	}

	partCmd := &cobra.Command{
		Use:   "part REMOVE [REPLACE]",
		Short: "Replace every occurrence of REMOVE in file names",
		Long:  `Replaces REMOVE with REPLACE (empty when omitted) in every name that contains it.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.workDir()
			if err != nil {
				return err
			}
			req := renamer.Request{Strategy: plan.StrategyPartReplace, Remove: args[0]}
			if len(args) == 2 {
				req.Replace = args[1]
			}
			return a.runPlan(dir, req)
		},
	}

	undoCmd := &cobra.Command{
		Use:   "undo",
		Short: "Undo the last batch of renames",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.workDir()
			if err != nil {
				return err
			}
			return a.undo(dir, true)
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the last batch can be undone",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.workDir()
			if err != nil {
				return err
			}
			return a.status(dir)
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded renames and undos, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return a.history(limit)
		},
	}

	for _, c := range []*cobra.Command{numberCmd, replaceCmd, partCmd, undoCmd} {
		c.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Apply without asking for confirmation")
	}
	historyCmd.Flags().IntP("limit", "n", 20, "Number of entries to show")

	rootCmd.AddCommand(numberCmd)
	rootCmd.AddCommand(replaceCmd)
	rootCmd.AddCommand(partCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Resolve(a.opts.config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.opts.logLevel != "" {
		level = a.opts.logLevel
	}
	a.logger, err = logging.NewDevelopment(level)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	var rec journal.Recorder = journal.Nop{}
	if cfg.Journal.Enabled && !a.opts.noJournal {
		j, err := journal.Open(journal.Options{
			Path:            cfg.Journal.Path,
			CacheSize:       cfg.Journal.CacheSize,
			CompressMinSize: cfg.Journal.CompressMinSize,
			Logger:          a.logger.Logger,
		})
		if err != nil {
			// another kambios may hold the journal; renaming works without it
			a.logger.Warn("journal unavailable", zap.String("path", cfg.Journal.Path), zap.Error(err))
		} else {
			rec = j
		}
	}

	a.renamer = renamer.New(renamer.Options{
		SidecarName: cfg.SidecarName,
		Source:      source,
		Natural:     a.opts.natural || cfg.NaturalSort,
		Journal:     rec,
		Logger:      a.logger.Logger,
	})
	a.in = bufio.NewReader(cmd.InOrStdin())
	a.out = cmd.OutOrStdout()
	return nil
}

func (a *app) close() error {
	if a.renamer == nil {
		return nil
	}
	err := a.renamer.Close()
	a.renamer = nil
	a.logger.Sync()
	return err
}

// workDir is --dir or the current directory.
func (a *app) workDir() (string, error) {
	if a.opts.dir != "" {
		return a.opts.dir, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return dir, nil
}

func main() {
	a := &app{}
	err := newRootCmd(a).Execute()
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}
