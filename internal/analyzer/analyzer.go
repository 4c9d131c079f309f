// SPDX-License-Identifier: MPL-2.0

package analyzer

import (
	"sync"

	"rebuildctl/internal/diagnostic"
)

// fileEntry is one registered source file: its text, parsed tree, and
// cached syntax diagnostics.
type fileEntry struct {
	path  string
	text  string
	tree  *node
	diags []diagnostic.Diagnostic
}

// Analyzer is the in-memory source database (C4): files register their
// text once and are parsed immediately; the resulting syntax
// diagnostics and tree are cached for later retrieval. Safe for
// concurrent use — §5's pre-flight parse check fans registration out
// across a worker pool while serializing the database mutation itself.
type Analyzer struct {
	mu     sync.Mutex
	files  map[int]*fileEntry
	byPath map[string]int
	nextID int
}

// New constructs an empty Analyzer.
func New() *Analyzer {
	return &Analyzer{
		files:  make(map[int]*fileEntry),
		byPath: make(map[string]int),
	}
}

// RegisterAndParse records path's text, parses it with the tolerant
// parser, and returns a stable file_id plus any syntax diagnostics
// found (§4.4). Re-registering a path already known to the Analyzer
// replaces its entry and reuses the same file_id.
func (a *Analyzer) RegisterAndParse(path, text string) (int, []diagnostic.Diagnostic) {
	tree, diags := parseFile(path, text)

	a.mu.Lock()
	defer a.mu.Unlock()

	id, exists := a.byPath[path]
	if !exists {
		a.nextID++
		id = a.nextID
		a.byPath[path] = id
	}
	a.files[id] = &fileEntry{path: path, text: text, tree: tree, diags: diags}
	return id, diags
}

// Text returns the registered source text for fileID, if known.
func (a *Analyzer) Text(fileID int) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.files[fileID]
	if !ok {
		return "", false
	}
	return e.text, true
}

// TextByPath mirrors Text but keyed by path, matching the signature the
// Diagnostic Reporter expects for resolving a Diagnostic.File back to
// source text.
func (a *Analyzer) TextByPath(path string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id, ok := a.byPath[path]
	if !ok {
		return "", false
	}
	return a.files[id].text, true
}

// SyntaxDiagnostics returns the cached syntax diagnostics for fileID.
func (a *Analyzer) SyntaxDiagnostics(fileID int) []diagnostic.Diagnostic {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.files[fileID]
	if !ok {
		return nil
	}
	return e.diags
}

// SemanticDiagnostics returns name-resolution and unused-binding
// diagnostics for fileID. When the analyzer's semantic capability is
// not compiled in (the default build), this always returns an empty
// slice — see semantic_disabled.go / semantic_enabled.go, selected by
// the nix_semantic build tag (§4.4).
func (a *Analyzer) SemanticDiagnostics(fileID int) []diagnostic.Diagnostic {
	a.mu.Lock()
	e, ok := a.files[fileID]
	a.mu.Unlock()
	if !ok {
		return nil
	}
	return semanticDiagnostics(e.path, e.tree)
}
