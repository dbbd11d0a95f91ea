// Package cli wires the triage use cases into the pt command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bkyoung/phototriage/internal/store"
	"github.com/bkyoung/phototriage/internal/usecase/triage"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// Triager defines the dependency required to run the run command.
type Triager interface {
	Run(ctx context.Context, req triage.RunRequest) (triage.Result, error)
}

// HistoryLister defines the dependency required to run the history command.
type HistoryLister interface {
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Triager        Triager
	History        HistoryLister // nil when the store is disabled
	Args           Arguments
	DefaultOutput  string
	Version        string
	TerminalOutput func() bool // nil uses IsOutputTerminal
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "pt",
		Short: "AI-assisted travel photo triage CLI",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	terminalOutput := deps.TerminalOutput
	if terminalOutput == nil {
		terminalOutput = IsOutputTerminal
	}

	root.AddCommand(runCommand(deps.Triager, deps.DefaultOutput, terminalOutput))
	root.AddCommand(historyCommand(deps.History))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func runCommand(triager Triager, defaultOutput string, terminalOutput func() bool) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "run <photo-dir>",
		Short: "Triage a directory of photos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if triager == nil {
				return fmt.Errorf("triage service not configured")
			}

			result, err := triager.Run(cmd.Context(), triage.RunRequest{
				SourceDir: args[0],
				OutputDir: outputDir,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			report := result.Report

			// Piped or redirected output gets the artifact paths only,
			// one per line.
			if !terminalOutput() {
				for _, path := range result.ArtifactPaths {
					_, _ = fmt.Fprintln(out, path)
				}
				return nil
			}

			_, _ = fmt.Fprintf(out, "Run %s finished in %s\n",
				report.RunID, report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
			_, _ = fmt.Fprintf(out, "  %d images, %d selected, %d flagged, %d duplicate groups\n",
				report.NumImages, report.Stats.Selected, report.Stats.Flagged, report.Stats.DuplicateGroups)
			_, _ = fmt.Fprintf(out, "  estimated cost: $%.4f\n", report.Cost.Total.EstimatedCostUSD)
			for _, path := range result.ArtifactPaths {
				_, _ = fmt.Fprintf(out, "  wrote %s\n", path)
			}
			return nil
		},
	}

	if defaultOutput == "" {
		defaultOutput = "out"
	}
	cmd.Flags().StringVar(&outputDir, "output", defaultOutput, "Directory to write run reports")

	return cmd
}

func historyCommand(history HistoryLister) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent triage runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if history == nil {
				return fmt.Errorf("run history is disabled; enable the store in configuration")
			}

			runs, err := history.ListRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}

			for _, run := range runs {
				_, _ = fmt.Fprintf(out, "%s  %s  %d images  %d selected  $%.4f\n",
					run.Timestamp.Format("2006-01-02 15:04"),
					run.RunID,
					run.NumImages,
					run.Selected,
					run.TotalCost,
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of runs to show")

	return cmd
}
