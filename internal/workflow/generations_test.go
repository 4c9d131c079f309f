// SPDX-License-Identifier: MPL-2.0

package workflow

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"rebuildctl/internal/workflow/mode"
)

func TestListGenerations_SortsNewestFirst(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	profile := filepath.Join(dir, "system")
	for _, n := range []int{3, 1, 2} {
		mustTouch(t, filepath.Join(dir, "system-"+itoa(n)+"-link"))
	}
	// An unrelated profile family in the same directory must be ignored.
	mustTouch(t, filepath.Join(dir, "home-manager-1-link"))

	gens, err := listGenerations(profile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gens) != 3 {
		t.Fatalf("expected 3 generations, got %d: %v", len(gens), gens)
	}
	if gens[0].number != 3 || gens[1].number != 2 || gens[2].number != 1 {
		t.Fatalf("expected descending order, got %+v", gens)
	}
}

func TestGenerationsToPrune_KeepsCountAndNeverPrunesCurrent(t *testing.T) {
	t.Parallel()

	now := time.Now()
	gens := []generation{
		{number: 5, modTime: now},
		{number: 4, modTime: now},
		{number: 3, modTime: now},
		{number: 2, modTime: now},
		{number: 1, modTime: now},
	}

	prune := generationsToPrune(gens, 2, 0)
	if len(prune) != 3 {
		t.Fatalf("expected 3 pruned (keeping 2, the current one included), got %d: %+v", len(prune), prune)
	}
	for _, g := range prune {
		if g.number == 5 {
			t.Fatal("must never prune the current generation")
		}
	}
}

func TestGenerationsToPrune_AgeOverridesKeepCount(t *testing.T) {
	t.Parallel()

	old := time.Now().AddDate(0, 0, -30)
	gens := []generation{
		{number: 2, modTime: time.Now()},
		{number: 1, modTime: old},
	}

	prune := generationsToPrune(gens, 10, 14)
	if len(prune) != 1 || prune[0].number != 1 {
		t.Fatalf("expected the old generation to be pruned despite keep_count, got %+v", prune)
	}
}

func TestModeIn(t *testing.T) {
	t.Parallel()

	set := []mode.Activation{mode.Switch, mode.Boot}
	if !modeIn(mode.Switch, set) {
		t.Fatal("expected membership check to find Switch in {Switch, Boot}")
	}
	if modeIn(mode.Test, set) {
		t.Fatal("expected Test to not be a member of {Switch, Boot}")
	}
}

func mustTouch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}
