// SPDX-License-Identifier: MPL-2.0

package workflow

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"rebuildctl/internal/process"
)

// generationSuffix matches a nix profile generation symlink name, e.g.
// "system-42-link" for profile "/nix/var/nix/profiles/system".
var generationSuffix = regexp.MustCompile(`^(.+)-(\d+)-link$`)

// generation is one entry in a profile's generation history.
type generation struct {
	number  int
	link    string
	modTime time.Time
}

// listGenerations enumerates the generation symlinks sitting alongside
// profilePath, newest (highest number) first. This is the companion
// machinery §4.7's main-profile-path-for-cleanup implies but doesn't
// name separately (SPEC_FULL.md "Generation listing").
func listGenerations(profilePath string) ([]generation, error) {
	dir := filepath.Dir(profilePath)
	base := filepath.Base(profilePath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var gens []generation
	for _, e := range entries {
		m := generationSuffix.FindStringSubmatch(e.Name())
		if m == nil || m[1] != base {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		gens = append(gens, generation{number: n, link: filepath.Join(dir, e.Name()), modTime: info.ModTime()})
	}

	sort.Slice(gens, func(i, j int) bool { return gens[i].number > gens[j].number })
	return gens, nil
}

// generationsToPrune selects which generations to delete: everything
// beyond keepCount, plus anything (even within keepCount) older than
// keepDays, per §4.7 step 11. The current/most recent generation is
// never pruned.
func generationsToPrune(gens []generation, keepCount, keepDays int) []generation {
	if len(gens) == 0 {
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -keepDays)
	var prune []generation
	for i, g := range gens {
		if i == 0 {
			continue // never prune the current generation
		}
		tooMany := i >= keepCount
		tooOld := keepDays > 0 && g.modTime.Before(cutoff)
		if tooMany || tooOld {
			prune = append(prune, g)
		}
	}
	return prune
}

// pruneGenerations deletes the selected generations via "nix-env
// --delete-generations", elevated when profilePath is a system (not
// per-user) profile.
func pruneGenerations(ctx context.Context, runner *process.Runner, profilePath string, prune []generation, needsElevation bool) error {
	if len(prune) == 0 {
		return nil
	}

	args := []string{"--profile", profilePath, "--delete-generations"}
	for _, g := range prune {
		args = append(args, strconv.Itoa(g.number))
	}

	cmd := elevate(needsElevation, process.New("nix-env", args...))
	outcome := runner.Capture(ctx, cmd)
	if !outcome.Ok() {
		return outcome.Error()
	}
	return nil
}
