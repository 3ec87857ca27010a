package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/l3aro/go-gflow/internal/scanner"
	"github.com/l3aro/go-gflow/pkg/cache"
	"github.com/l3aro/go-gflow/pkg/frontend"
	"github.com/l3aro/go-gflow/pkg/jast"
	"github.com/l3aro/go-gflow/pkg/optimizer"
)

// fileResult is the outcome of optimizing one file.
type fileResult struct {
	Path       string `json:"path"`
	Changed    bool   `json:"changed"`
	Methods    int    `json:"methods"`
	Iterations int    `json:"iterations"`
	Cached     bool   `json:"cached"`
	Output     string `json:"output"`
}

// optimizeCmd represents the optimize command
var optimizeCmd = &cobra.Command{
	Use:   "optimize <path>...",
	Short: "Optimize Java files and print the rewritten methods",
	Long: `Runs the dataflow optimizer over every Java file found under the given
paths and prints the optimized methods. Directories are scanned
recursively, honoring .gflowignore files. Files are processed in
parallel; results are cached by content and settings.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		method, _ := cmd.Flags().GetString("method")
		noCache, _ := cmd.Flags().GetBool("no-cache")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		workers, _ := cmd.Flags().GetInt("workers")
		if workers <= 0 {
			workers = appConfig.Workers
		}
		if workers <= 0 {
			workers = runtime.NumCPU()
		}

		files, err := scanner.New(scanner.DefaultOptions()).Collect(args)
		if err != nil {
			return fmt.Errorf("collecting files: %w", err)
		}
		if len(files) == 0 {
			return fmt.Errorf("no Java files found")
		}

		var store *cache.Store
		if appConfig.Cache.Enabled && !noCache {
			store, err = cache.Open(appConfig.Cache.Dir, appConfig.Cache.MaxEntries)
			if err != nil {
				logger.Warn("cache unavailable", "error", err)
				store = nil
			}
		}

		start := time.Now()
		results, err := optimizeFiles(cmd.Context(), files, method, store, workers)
		if store != nil {
			if serr := store.Save(); serr != nil {
				logger.Warn("failed to save cache", "path", store.Path(), "error", serr)
			}
			stats := store.Stats()
			logger.Debug("cache", "entries", stats.Length, "hits", stats.HitCount, "misses", stats.MissCount)
		}
		if err != nil {
			return err
		}
		logger.Info("optimized", "files", len(results), "duration", time.Since(start).Round(time.Millisecond))

		out := cmd.OutOrStdout()
		if jsonOutput {
			data, err := json.MarshalIndent(results, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}
		for _, r := range results {
			if r.Output == "" {
				continue
			}
			fmt.Fprintf(out, "// %s\n%s", r.Path, r.Output)
		}
		return nil
	},
}

// optimizeFiles optimizes files concurrently, at most workers at a time.
// Results keep the order of files.
func optimizeFiles(ctx context.Context, files []scanner.FileInfo, method string, store *cache.Store, workers int) ([]fileResult, error) {
	results := make([]fileResult, len(files))
	fingerprint := appConfig.Fingerprint() + ";method=" + method

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			r, err := optimizeFile(gctx, f, method, fingerprint, store)
			if err != nil {
				return fmt.Errorf("%s: %w", f.Path, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func optimizeFile(ctx context.Context, f scanner.FileInfo, method, fingerprint string, store *cache.Store) (fileResult, error) {
	content, err := os.ReadFile(f.FullPath)
	if err != nil {
		return fileResult{}, fmt.Errorf("reading file: %w", err)
	}

	key := cache.Key(content, fingerprint)
	if store != nil {
		if cached, ok := store.Get(key); ok {
			logger.Debug("cache hit", "path", f.Path)
			return fileResult{
				Path:       f.Path,
				Changed:    cached.Changed,
				Methods:    cached.Methods,
				Iterations: cached.Iterations,
				Cached:     true,
				Output:     cached.Output,
			}, nil
		}
	}

	prog, err := frontend.Parse(ctx, content)
	if err != nil {
		return fileResult{}, err
	}

	opts := append(optimizer.FromConfig(appConfig), optimizer.WithLogger(logger))
	stats, err := optimizer.NewDriver(opts...).Run(ctx, prog)
	if err != nil {
		return fileResult{}, err
	}
	logger.Debug("optimized file",
		"path", f.Path,
		"iterations", stats.Iterations,
		"converged", stats.Converged,
		"changed", strings.Join(stats.ChangedMethods, ","),
	)

	r := fileResult{
		Path:       f.Path,
		Changed:    stats.Changed(),
		Methods:    stats.Methods,
		Iterations: stats.Iterations,
		Output:     renderMethods(prog, method),
	}
	if store != nil {
		store.Put(key, cache.Result{
			Output:     r.Output,
			Changed:    r.Changed,
			Methods:    r.Methods,
			Iterations: r.Iterations,
		})
	}
	return r, nil
}

// renderMethods prints every method with a body, or only those matching
// method when it is set.
func renderMethods(prog *jast.Program, method string) string {
	var sb strings.Builder
	for _, m := range prog.Methods {
		if m.Body == nil || (method != "" && !matchesMethod(m, method)) {
			continue
		}
		sb.WriteString(jast.MethodSource(m))
		sb.WriteString("\n")
	}
	return sb.String()
}

func init() {
	optimizeCmd.Flags().StringP("method", "m", "", "Only print this method (optionally Class.method)")
	optimizeCmd.Flags().Bool("no-cache", false, "Do not read or write the result cache")
	optimizeCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	optimizeCmd.Flags().IntP("workers", "w", 0, "Files optimized in parallel (default: config workers, then CPU count)")
}
