// SPDX-License-Identifier: MPL-2.0

package external

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"rebuildctl/internal/process"
	"rebuildctl/internal/target"
)

func TestBuild_Success(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	storeLike := filepath.Join(dir, "store-path")
	if err := os.WriteFile(storeLike, []byte("fake derivation output"), 0o644); err != nil {
		t.Fatal(err)
	}
	outLink := filepath.Join(dir, "result")
	if err := os.Symlink(storeLike, outLink); err != nil {
		t.Fatal(err)
	}

	i := New(process.NewRunner())
	i.builder = "true" // stub: always exits 0, ignores args
	tgt := &target.Target{Kind: target.Flake, Reference: "."}

	path, err := i.Build(context.Background(), tgt, BuildOptions{OutLink: outLink})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != storeLike {
		t.Fatalf("expected resolved store path %q, got %q", storeLike, path)
	}
}

func TestBuild_FailureExtractsDerivations(t *testing.T) {
	t.Parallel()

	// A stand-in builder that ignores its "build ..." argv, reports a
	// failed derivation on stderr and exits non-zero.
	builderScript := filepath.Join(t.TempDir(), "builder.sh")
	if err := os.WriteFile(builderScript, []byte("#!/bin/sh\necho \"error: builder for '/nix/store/abc-foo.drv' failed with exit code 1\" >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	i := New(process.NewRunner())
	i.builder = builderScript
	tgt := &target.Target{Kind: target.Flake, Reference: "."}

	_, err := i.Build(context.Background(), tgt, BuildOptions{
		OutLink: filepath.Join(t.TempDir(), "result"),
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	buildErr, ok := err.(*BuildFailedError)
	if !ok {
		t.Fatalf("expected *BuildFailedError, got %T", err)
	}
	if len(buildErr.DetectedFailedDerivations) != 1 || buildErr.DetectedFailedDerivations[0] != "/nix/store/abc-foo.drv" {
		t.Fatalf("expected to detect the failed derivation, got %v", buildErr.DetectedFailedDerivations)
	}
}

func TestBuild_FailureExtractsDerivations_WithMonitor(t *testing.T) {
	t.Parallel()

	// A minimal stand-in for nom: drains stdin (the piped builder output)
	// and exits non-zero, the way a real monitor reports a detected build
	// failure back through run-piped's outcome. Ignores argv entirely so
	// the "--json" Build() appends doesn't matter to it.
	monitorScript := filepath.Join(t.TempDir(), "monitor.sh")
	if err := os.WriteFile(monitorScript, []byte("#!/bin/sh\ncat >/dev/null\nexit 1\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	// A stand-in builder that ignores its "build ..." argv, reports a
	// failed derivation on stderr and exits non-zero.
	builderScript := filepath.Join(t.TempDir(), "builder.sh")
	if err := os.WriteFile(builderScript, []byte("#!/bin/sh\necho \"error: builder for '/nix/store/abc-foo.drv' failed with exit code 1\" >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	i := New(process.NewRunner()).WithMonitor(monitorScript)
	i.builder = builderScript
	tgt := &target.Target{Kind: target.Flake, Reference: "."}

	_, err := i.Build(context.Background(), tgt, BuildOptions{
		OutLink:        filepath.Join(t.TempDir(), "result"),
		UseDiffMonitor: true,
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	buildErr, ok := err.(*BuildFailedError)
	if !ok {
		t.Fatalf("expected *BuildFailedError, got %T", err)
	}
	if len(buildErr.DetectedFailedDerivations) != 1 || buildErr.DetectedFailedDerivations[0] != "/nix/store/abc-foo.drv" {
		t.Fatalf("expected to detect the failed derivation via the piped builder's own stderr, got %v", buildErr.DetectedFailedDerivations)
	}
}

func TestEvaluateJSON_ParsesStdout(t *testing.T) {
	t.Parallel()

	i := New(process.NewRunner())
	// The "eval --json" args land after the builder name; "true" ignores
	// them and exits 0 with no output.
	i.builder = "true"
	tgt := &target.Target{Kind: target.Expression, Reference: `builtins.toJSON 1`}

	value, err := i.EvaluateJSON(context.Background(), tgt, 0)
	// Empty stdout is not valid JSON, so this exercises the
	// malformed-JSON error path instead of a success path.
	if err == nil {
		t.Fatalf("expected an error from empty stdout, got value %#v", value)
	}
	if _, ok := err.(*EvalFailedError); !ok {
		t.Fatalf("expected *EvalFailedError, got %T", err)
	}
}

func TestDryRunBuild_ReportsFailure(t *testing.T) {
	t.Parallel()

	i := New(process.NewRunner())
	i.builder = "false" // always exits 1
	tgt := &target.Target{Kind: target.Flake, Reference: "."}

	if err := i.DryRunBuild(context.Background(), tgt, 0); err == nil {
		t.Fatal("expected an error from a builder that always fails")
	}
}

func TestFetchBuildLog_Success(t *testing.T) {
	t.Parallel()

	i := New(process.NewRunner())
	i.builder = "echo"

	log, err := i.FetchBuildLog(context.Background(), "/nix/store/abc-foo.drv", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if log == "" {
		t.Fatal("expected non-empty log output")
	}
}
