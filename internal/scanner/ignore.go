package scanner

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnorePattern represents a single gitignore-style pattern.
type IgnorePattern struct {
	pattern     string // Original pattern
	glob        string // doublestar glob relative to the scan root
	isNegation  bool   // True if pattern starts with !
	isDirectory bool   // True if pattern ends with /
}

// ParseIgnorePattern parses a gitignore-style pattern string. Patterns read
// from a nested ignore file pass that directory (relative to the scan root,
// slash-separated) as base.
func ParseIgnorePattern(pattern, base string) IgnorePattern {
	p := IgnorePattern{pattern: pattern}

	if strings.HasPrefix(pattern, "!") {
		p.isNegation = true
		pattern = pattern[1:]
	}

	if strings.HasSuffix(pattern, "/") {
		p.isDirectory = true
		pattern = strings.TrimSuffix(pattern, "/")
	}

	// Anchored patterns match from base only; patterns without a slash
	// match a name at any depth.
	switch {
	case strings.HasPrefix(pattern, "/"):
		pattern = pattern[1:]
	case !strings.Contains(pattern, "/"):
		pattern = "**/" + pattern
	}

	if base != "" && base != "." {
		pattern = path.Join(base, pattern)
	}
	p.glob = pattern

	return p
}

// Match reports whether relPath (relative to the scan root) matches this
// pattern. Files below a matching directory match too.
func (p IgnorePattern) Match(relPath string, isDir bool) bool {
	relPath = filepath.ToSlash(relPath)

	if !p.isDirectory || isDir {
		if ok, _ := doublestar.Match(p.glob, relPath); ok {
			return true
		}
	}

	parts := strings.Split(relPath, "/")
	for i := 1; i < len(parts); i++ {
		if ok, _ := doublestar.Match(p.glob, strings.Join(parts[:i], "/")); ok {
			return true
		}
	}
	return false
}

// IsNegation returns true if this pattern is a negation pattern.
func (p IgnorePattern) IsNegation() bool {
	return p.isNegation
}

// String returns the pattern as written.
func (p IgnorePattern) String() string {
	return p.pattern
}

// Valid reports whether the pattern compiles to a well-formed glob.
func (p IgnorePattern) Valid() bool {
	return doublestar.ValidatePattern(p.glob)
}
