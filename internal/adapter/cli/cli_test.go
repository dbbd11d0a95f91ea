package cli_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bkyoung/phototriage/internal/adapter/cli"
	"github.com/bkyoung/phototriage/internal/store"
	"github.com/bkyoung/phototriage/internal/usecase/accounting"
	"github.com/bkyoung/phototriage/internal/usecase/pipeline"
	"github.com/bkyoung/phototriage/internal/usecase/triage"
)

type triagerStub struct {
	request triage.RunRequest
	result  triage.Result
	err     error
}

func (t *triagerStub) Run(ctx context.Context, req triage.RunRequest) (triage.Result, error) {
	t.request = req
	return t.result, t.err
}

type historyStub struct {
	limit int
	runs  []store.Run
	err   error
}

func (h *historyStub) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	h.limit = limit
	return h.runs, h.err
}

func sampleResult() triage.Result {
	started := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	return triage.Result{
		Report: pipeline.RunReport{
			RunID:      "run-20250615T103000Z-abc12345",
			StartedAt:  started,
			FinishedAt: started.Add(30 * time.Second),
			NumImages:  12,
			Stats:      pipeline.RunStats{Selected: 7, Flagged: 2, DuplicateGroups: 1},
			Cost: accounting.CostReport{
				Total: accounting.CostTotals{EstimatedCostUSD: 0.0456},
			},
		},
		ArtifactPaths: []string{"out/run-20250615T103000Z-abc12345.json"},
	}
}

func TestRunCommandInvokesService(t *testing.T) {
	stub := &triagerStub{result: sampleResult()}
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Triager:        stub,
		Args:           cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		DefaultOutput:  "build",
		Version:        "v1.2.3",
		TerminalOutput: func() bool { return true },
	})

	root.SetArgs([]string{"run", "/photos/japan"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if stub.request.SourceDir != "/photos/japan" {
		t.Fatalf("expected source dir /photos/japan, got %s", stub.request.SourceDir)
	}
	if stub.request.OutputDir != "build" {
		t.Fatalf("expected default output dir build, got %s", stub.request.OutputDir)
	}
	if !strings.Contains(buf.String(), "12 images, 7 selected, 2 flagged, 1 duplicate groups") {
		t.Fatalf("unexpected summary output: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "$0.0456") {
		t.Fatalf("cost missing from output: %q", buf.String())
	}
}

func TestRunCommandPipedOutputListsArtifactPathsOnly(t *testing.T) {
	stub := &triagerStub{result: sampleResult()}
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Triager:        stub,
		Args:           cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		TerminalOutput: func() bool { return false },
	})

	root.SetArgs([]string{"run", "/photos/japan"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	want := "out/run-20250615T103000Z-abc12345.json\n"
	if buf.String() != want {
		t.Fatalf("expected plain artifact paths %q, got %q", want, buf.String())
	}
}

func TestRunCommandOutputFlagOverridesDefault(t *testing.T) {
	stub := &triagerStub{result: sampleResult()}
	root := cli.NewRootCommand(cli.Dependencies{
		Triager:       stub,
		Args:          cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
		DefaultOutput: "build",
	})

	root.SetArgs([]string{"run", "/photos/japan", "--output", "/tmp/reports"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if stub.request.OutputDir != "/tmp/reports" {
		t.Fatalf("expected output dir /tmp/reports, got %s", stub.request.OutputDir)
	}
}

func TestRunCommandPropagatesServiceError(t *testing.T) {
	stub := &triagerStub{err: errors.New("no supported images found in /empty")}
	root := cli.NewRootCommand(cli.Dependencies{
		Triager: stub,
		Args:    cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
	})

	root.SetArgs([]string{"run", "/empty"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "no supported images") {
		t.Fatalf("expected service error, got %v", err)
	}
}

func TestHistoryCommandListsRuns(t *testing.T) {
	stub := &historyStub{runs: []store.Run{
		{
			RunID:     "run-20250615T103000Z-abc12345",
			Timestamp: time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC),
			NumImages: 12,
			Selected:  7,
			TotalCost: 0.0456,
		},
	}}
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Triager: &triagerStub{},
		History: stub,
		Args:    cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
	})

	root.SetArgs([]string{"history", "--limit", "5"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if stub.limit != 5 {
		t.Fatalf("expected limit 5, got %d", stub.limit)
	}
	if !strings.Contains(buf.String(), "run-20250615T103000Z-abc12345") {
		t.Fatalf("run id missing from output: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "12 images") {
		t.Fatalf("image count missing from output: %q", buf.String())
	}
}

func TestHistoryCommandWithoutStore(t *testing.T) {
	root := cli.NewRootCommand(cli.Dependencies{
		Triager: &triagerStub{},
		Args:    cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
	})

	root.SetArgs([]string{"history"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "history is disabled") {
		t.Fatalf("expected disabled-store error, got %v", err)
	}
}

func TestVersionFlagEmitsVersion(t *testing.T) {
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Triager: &triagerStub{},
		Args:    cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		Version: "v9.9.9",
	})

	root.SetArgs([]string{"--version"})
	err := root.Execute()
	if !errors.Is(err, cli.ErrVersionRequested) {
		t.Fatalf("expected version sentinel, got %v", err)
	}
	if strings.TrimSpace(buf.String()) != "v9.9.9" {
		t.Fatalf("unexpected version output: %q", buf.String())
	}
}
