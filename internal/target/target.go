// SPDX-License-Identifier: MPL-2.0

// Package target implements the Target Descriptor (C2): the "installable"
// tagged union of §3 and its attribute-path grammar, parser, and
// serializer (§4.2).
package target

import (
	"errors"
	"fmt"
	"strings"
)

// Kind discriminates the Target union (§3).
type Kind int

const (
	// Flake targets a reference string (repo URL, path, registry entry,
	// etc) plus an attribute path.
	Flake Kind = iota
	// File targets a filesystem path plus an attribute path.
	File
	// Expression targets a literal Nix expression string plus an
	// attribute path.
	Expression
	// Store targets a pre-built store path; it never carries an
	// attribute path.
	Store
)

func (k Kind) String() string {
	switch k {
	case Flake:
		return "flake"
	case File:
		return "file"
	case Expression:
		return "expr"
	case Store:
		return "store"
	default:
		return "unknown"
	}
}

// Target is the installable sum type of §3: a Kind tag plus the fields
// that apply to it. Reference holds the flake reference, file path, or
// expression source depending on Kind; Store targets keep it as the
// store path and leave AttrPath empty.
type Target struct {
	Kind      Kind
	Reference string
	AttrPath  []string
}

// HasAttrPath reports whether t already carries a non-empty attribute
// path, the signal every Strategy.ToplevelTarget uses to decide whether
// the user has overridden the canonical suffix (§4.7).
func (t *Target) HasAttrPath() bool { return len(t.AttrPath) > 0 }

// AppendAttrPath returns a copy of t with segs appended to its attribute
// path. t itself is left unmodified.
func (t *Target) AppendAttrPath(segs ...string) *Target {
	out := &Target{Kind: t.Kind, Reference: t.Reference}
	out.AttrPath = append(out.AttrPath, t.AttrPath...)
	out.AttrPath = append(out.AttrPath, segs...)
	return out
}

// ErrAttrPathSyntax is the sentinel error wrapped by AttrPathSyntaxError,
// mirroring the teacher's ErrInvalidExitCode / InvalidExitCodeError
// pattern (internal/runtime/exit_code.go).
var ErrAttrPathSyntax = errors.New("invalid attribute path syntax")

// AttrPathSyntaxError reports a positioned parse failure in an attribute
// path string (§4.2: "fails with a positioned error on malformed
// input").
type AttrPathSyntaxError struct {
	Pos int
	Msg string
}

func (e *AttrPathSyntaxError) Error() string {
	return fmt.Sprintf("attribute path: %s (at byte %d)", e.Msg, e.Pos)
}

func (e *AttrPathSyntaxError) Unwrap() error { return ErrAttrPathSyntax }

// isStorePath reports whether ref looks like a pre-built Nix store path,
// which never carries an attribute path (§3).
func isStorePath(ref string) bool {
	return strings.HasPrefix(ref, "/nix/store/")
}

// Parse parses ref, in the form "[<reference>][#<attrpath>]", into a
// Target. asFile and asExpr select the File and Expression variants
// respectively (mutually exclusive, mirroring the CLI's --file/--expr
// flags); when neither is set, Parse auto-detects a Store path and
// otherwise defaults to Flake.
func Parse(ref string, asFile, asExpr bool) (*Target, error) {
	if asFile && asExpr {
		return nil, fmt.Errorf("target: --file and --expr are mutually exclusive")
	}

	switch {
	case asExpr:
		source, attrRaw := splitHash(ref)
		segs, err := ParseAttrPath(attrRaw)
		if err != nil {
			return nil, err
		}
		return &Target{Kind: Expression, Reference: source, AttrPath: segs}, nil
	case asFile:
		path, attrRaw := splitHash(ref)
		segs, err := ParseAttrPath(attrRaw)
		if err != nil {
			return nil, err
		}
		return &Target{Kind: File, Reference: path, AttrPath: segs}, nil
	case isStorePath(ref):
		return &Target{Kind: Store, Reference: ref}, nil
	default:
		reference, attrRaw := splitHash(ref)
		segs, err := ParseAttrPath(attrRaw)
		if err != nil {
			return nil, err
		}
		return &Target{Kind: Flake, Reference: reference, AttrPath: segs}, nil
	}
}

// splitHash splits s on its first '#' into (before, after). If s has no
// '#', after is "".
func splitHash(s string) (string, string) {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// Serialize re-serializes t into the "[<reference>][#<attrpath>]" form
// Parse accepts, the inverse operation §4.2 and §8 require to round-trip:
// parse(serialize(t)) == t for every Target t.
func Serialize(t *Target) string {
	if t.Kind == Store {
		return t.Reference
	}
	if !t.HasAttrPath() {
		return t.Reference
	}
	return t.Reference + "#" + SerializeAttrPath(t.AttrPath)
}

// ParseAttrPath parses the attribute-path grammar of §3: a dot-separated
// sequence of segments, each either a bare identifier (first character
// alphabetic or underscore, subsequent characters alphanumeric,
// underscore, apostrophe, or hyphen) or a double-quoted string with
// backslash escapes. Parsing is total on the empty string (zero
// segments) and fails with a positioned AttrPathSyntaxError on malformed
// input (§4.2).
func ParseAttrPath(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}

	var segs []string
	i := 0
	n := len(s)
	for {
		seg, next, err := parseSegment(s, i)
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
		i = next

		if i >= n {
			break
		}
		if s[i] != '.' {
			return nil, &AttrPathSyntaxError{Pos: i, Msg: fmt.Sprintf("expected '.' or end of input, found %q", s[i])}
		}
		i++
		if i >= n {
			return nil, &AttrPathSyntaxError{Pos: i, Msg: "trailing '.' with no following segment"}
		}
	}
	return segs, nil
}

// parseSegment parses a single attribute-path segment starting at s[i],
// returning the unescaped segment text and the index just past it.
func parseSegment(s string, i int) (string, int, error) {
	if s[i] == '"' {
		return parseQuotedSegment(s, i)
	}
	return parseBareSegment(s, i)
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9') || b == '\'' || b == '-'
}

func parseBareSegment(s string, i int) (string, int, error) {
	start := i
	if i >= len(s) || !isIdentStart(s[i]) {
		return "", i, &AttrPathSyntaxError{Pos: i, Msg: "expected identifier or quoted segment"}
	}
	i++
	for i < len(s) && isIdentCont(s[i]) {
		i++
	}
	return s[start:i], i, nil
}

func parseQuotedSegment(s string, i int) (string, int, error) {
	start := i
	i++ // skip opening quote
	var b strings.Builder
	for {
		if i >= len(s) {
			return "", i, &AttrPathSyntaxError{Pos: start, Msg: "unterminated quoted segment"}
		}
		c := s[i]
		if c == '"' {
			i++
			return b.String(), i, nil
		}
		if c == '\\' {
			i++
			if i >= len(s) {
				return "", i, &AttrPathSyntaxError{Pos: start, Msg: "unterminated escape in quoted segment"}
			}
			b.WriteByte(s[i])
			i++
			continue
		}
		b.WriteByte(c)
		i++
	}
}

// SerializeAttrPath re-joins segs into the dotted string ParseAttrPath
// accepts, quoting any segment that would not round-trip unquoted (§3:
// "any segment containing a dot, or beginning with a non-identifier
// character, must be quoted; all others stay bare").
func SerializeAttrPath(segs []string) string {
	parts := make([]string, len(segs))
	for i, seg := range segs {
		parts[i] = serializeSegment(seg)
	}
	return strings.Join(parts, ".")
}

func serializeSegment(seg string) string {
	if needsQuoting(seg) {
		return quoteSegment(seg)
	}
	return seg
}

func needsQuoting(seg string) bool {
	if seg == "" {
		return true
	}
	if !isIdentStart(seg[0]) {
		return true
	}
	for i := 1; i < len(seg); i++ {
		if !isIdentCont(seg[i]) {
			return true
		}
	}
	return false
}

func quoteSegment(seg string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		if c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')
	return b.String()
}
