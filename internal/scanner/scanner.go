// Package scanner finds Java sources to optimize. It walks file trees,
// respects .gflowignore files with gitignore-style patterns and skips the
// usual build and VCS directories.
package scanner

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileInfo represents information about a discovered file.
type FileInfo struct {
	Path     string // Relative path from root
	FullPath string // Absolute path
	Size     int64  // File size in bytes
}

// Options configures the scanner behavior.
type Options struct {
	SkipHidden      bool     // Skip hidden files and directories (starting with .)
	FollowSymlinks  bool     // Follow symlinks (within root only)
	DefaultExcludes []string // Default directories to exclude
	IgnoreFileName  string   // Name of the ignore file (default: .gflowignore)
	Extensions      []string // File extensions to keep (default: .java)
}

// DefaultOptions returns scanner options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		FollowSymlinks: false,
		IgnoreFileName: ".gflowignore",
		Extensions:     []string{".java"},
		DefaultExcludes: []string{
			".git",
			".gflow",
			".gradle",
			".idea",
			".vscode",
			".hg",
			".svn",
			"CVS",
			"build",
			"target",
			"out",
			"bin",
			"node_modules",
		},
	}
}

// Scanner provides file tree scanning capabilities.
type Scanner struct {
	opts Options
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	if opts.IgnoreFileName == "" {
		opts.IgnoreFileName = ".gflowignore"
	}
	return &Scanner{opts: opts}
}

// Scan recursively scans the directory at root and returns the source files
// below it, sorted by path.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}

	var (
		files    []FileInfo
		patterns []IgnorePattern
	)

	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		relPathSlash := filepath.ToSlash(relPath)

		if relPath != "." {
			if s.opts.SkipHidden && strings.HasPrefix(info.Name(), ".") {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if info.IsDir() && s.isDefaultExcluded(info.Name()) {
				return filepath.SkipDir
			}
			if matchesIgnorePatterns(relPathSlash, info.IsDir(), patterns) {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if info.IsDir() {
			nested, err := s.loadIgnorePatterns(path, relPathSlash)
			if err != nil {
				return fmt.Errorf("loading ignore patterns: %w", err)
			}
			patterns = append(patterns, nested...)
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 {
			if !s.opts.FollowSymlinks {
				return nil
			}
			realPath, err := filepath.EvalSymlinks(path)
			if err != nil {
				return nil
			}
			realAbs, err := filepath.Abs(realPath)
			if err != nil {
				return nil
			}
			if !strings.HasPrefix(realAbs, absRoot+string(filepath.Separator)) {
				return nil
			}
			targetInfo, err := os.Stat(realPath)
			if err != nil || targetInfo.IsDir() {
				return nil
			}
			info = targetInfo
		}

		if !s.wanted(path) {
			return nil
		}

		files = append(files, FileInfo{
			Path:     relPathSlash,
			FullPath: path,
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Collect resolves command-line arguments to source files. Directories are
// scanned; files are taken as given regardless of extension or ignore
// patterns. Duplicates are dropped.
func (s *Scanner) Collect(paths []string) ([]FileInfo, error) {
	seen := make(map[string]bool)
	var out []FileInfo

	add := func(f FileInfo) {
		if seen[f.FullPath] {
			return
		}
		seen[f.FullPath] = true
		out = append(out, f)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			abs, err := filepath.Abs(p)
			if err != nil {
				return nil, fmt.Errorf("getting absolute path: %w", err)
			}
			add(FileInfo{Path: filepath.ToSlash(p), FullPath: abs, Size: info.Size()})
			continue
		}
		files, err := s.Scan(p)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			f.Path = filepath.ToSlash(filepath.Join(p, f.Path))
			add(f)
		}
	}
	return out, nil
}

func (s *Scanner) wanted(path string) bool {
	if len(s.opts.Extensions) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, want := range s.opts.Extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// isDefaultExcluded checks if the name matches default exclusion patterns.
func (s *Scanner) isDefaultExcluded(name string) bool {
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

// loadIgnorePatterns loads patterns from the ignore file in dir. base is
// dir relative to the scan root.
func (s *Scanner) loadIgnorePatterns(dir, base string) ([]IgnorePattern, error) {
	file, err := os.Open(filepath.Join(dir, s.opts.IgnoreFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var patterns []IgnorePattern
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p := ParseIgnorePattern(line, base)
		if !p.Valid() {
			return nil, fmt.Errorf("%s: invalid pattern %q", s.opts.IgnoreFileName, line)
		}
		patterns = append(patterns, p)
	}
	return patterns, sc.Err()
}

// matchesIgnorePatterns implements gitignore semantics: later patterns win,
// and negations re-include earlier matches.
func matchesIgnorePatterns(relPath string, isDir bool, patterns []IgnorePattern) bool {
	ignored := false
	for _, pattern := range patterns {
		if pattern.Match(relPath, isDir) {
			ignored = !pattern.IsNegation()
		}
	}
	return ignored
}

// Scan is a convenience function that scans a directory with default options.
func Scan(root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(root)
}
