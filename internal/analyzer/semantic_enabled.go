// SPDX-License-Identifier: MPL-2.0

//go:build nix_semantic

package analyzer

import (
	"fmt"

	"rebuildctl/internal/diagnostic"
)

// builtinNames are identifiers every configuration file is assumed to
// have in scope without a local binding: the standard library and the
// handful of module-system names a config commonly references. This
// list is necessarily approximate — the semantic pass is a best-effort
// capability, not a full evaluator (§4.4).
var builtinNames = map[string]bool{
	"builtins": true, "true": true, "false": true, "null": true,
	"pkgs": true, "lib": true, "config": true, "options": true,
	"inputs": true, "self": true, "modulesPath": true, "super": true,
}

type scope struct {
	bindings map[string]*binding
	parent   *scope
}

func (s *scope) resolve(name string) (*scope, *binding) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.bindings[name]; ok {
			return cur, b
		}
	}
	return nil, nil
}

// semanticDiagnostics walks root tracking let-binding scopes, reporting
// references to names not in scope (UndefinedVariable) and let-bindings
// that are never referenced within their own body (UnusedBinding).
func semanticDiagnostics(path string, root *node) []diagnostic.Diagnostic {
	if root == nil {
		return nil
	}
	r := &resolver{path: path}
	r.walk(root, nil)
	return r.diags
}

type resolver struct {
	path  string
	diags []diagnostic.Diagnostic
}

func (r *resolver) walk(n *node, sc *scope) {
	if n == nil {
		return
	}

	switch n.kind {
	case nodeIdent:
		if builtinNames[n.name] {
			return
		}
		if owner, b := sc.resolve(n.name); owner != nil {
			b.used = true
			return
		}
		r.diags = append(r.diags, diagnostic.Diagnostic{
			Severity: diagnostic.Error,
			File:     r.path,
			Range:    diagnostic.Range{Start: n.pos, End: n.pos + len(n.name)},
			Message:  fmt.Sprintf("undefined variable %q", n.name),
			Kind:     diagnostic.UndefinedVariable,
			Name:     n.name,
		})

	case nodeLet:
		inner := &scope{bindings: make(map[string]*binding), parent: sc}
		for i := range n.bindings {
			inner.bindings[n.bindings[i].name] = &n.bindings[i]
		}
		for i := range n.bindings {
			r.walk(n.bindings[i].body, inner)
		}
		for _, child := range n.children {
			r.walk(child, inner)
		}
		for i := range n.bindings {
			b := &n.bindings[i]
			if b.used || b.body == nil {
				continue
			}
			r.diags = append(r.diags, diagnostic.Diagnostic{
				Severity: diagnostic.Warning,
				File:     r.path,
				Range:    diagnostic.Range{Start: b.pos, End: b.pos + len(b.name)},
				Message:  fmt.Sprintf("unused binding %q", b.name),
				Kind:     diagnostic.UnusedBinding,
				Name:     b.name,
			})
		}

	case nodeSet:
		for i := range n.bindings {
			r.walk(n.bindings[i].body, sc)
		}
		for _, child := range n.children {
			r.walk(child, sc)
		}

	default:
		for _, child := range n.children {
			r.walk(child, sc)
		}
	}
}
