// SPDX-License-Identifier: MPL-2.0

package preflight

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"rebuildctl/internal/diagnostic"
)

// ParseCheck walks the working directory for configuration-language
// files, registers each with the Analyzer, and fails critically if any
// carries a syntax error (§4.6 check 2). File discovery is a sequential
// walk; reading and parsing fan out in parallel; Analyzer registration itself is serialized by the
// Analyzer's own mutex.
type ParseCheck struct {
	// Concurrency bounds the parallel file-reading fan-out. Zero means
	// the errgroup default (unbounded), mirroring most uses of
	// golang.org/x/sync/errgroup in the pack that only bound via
	// SetLimit when the caller actually cares.
	Concurrency int
}

func (c *ParseCheck) Name() string { return "Parse Check" }

func (c *ParseCheck) Run(rc RunContext) Status {
	files, err := discoverConfigFiles(rc.WorkDir)
	if err != nil {
		rc.Reporter.ReportProcessFailure(c.Name(), "failed to walk working directory", err.Error(), nil)
		return FailedCritical
	}

	type parseResult struct {
		diags []diagnostic.Diagnostic
	}
	results := make([]parseResult, len(files))

	g, _ := errgroup.WithContext(rc.Ctx)
	if c.Concurrency > 0 {
		g.SetLimit(c.Concurrency)
	}

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			text, err := os.ReadFile(path)
			if err != nil {
				results[i] = parseResult{diags: []diagnostic.Diagnostic{{
					Severity: diagnostic.Error,
					File:     path,
					Message:  "failed to read file: " + err.Error(),
					Kind:     diagnostic.Other,
				}}}
				return nil
			}
			// RegisterAndParse serializes its own mutation internally, so
			// calling it concurrently from this worker pool is safe.
			_, diags := rc.Analyzer.RegisterAndParse(path, string(text))
			results[i] = parseResult{diags: diags}
			return nil
		})
	}
	_ = g.Wait()

	var all []diagnostic.Diagnostic
	for _, r := range results {
		all = append(all, r.diags...)
	}

	if len(all) == 0 {
		return Passed
	}

	rc.Reporter.Report(c.Name(), all, func(path string) (string, bool) {
		text, err := os.ReadFile(path)
		if err != nil {
			return "", false
		}
		return string(text), true
	})
	return FailedCritical
}

// discoverConfigFiles recursively walks root for files ending in
// ConfigFileExtension, skipping hidden directories.
func discoverConfigFiles(root string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ConfigFileExtension) {
			found = append(found, path)
		}
		return nil
	})
	return found, err
}
