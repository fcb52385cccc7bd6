// Package batch cleans every matching document under a source directory
// into a mirrored tree under a destination directory. Documents are
// independent, so they are processed in parallel; a document that fails to
// parse is reported and does not stop the others.
package batch

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muzzletov/mendxml"
	"github.com/muzzletov/mendxml/internal/conform"
	"github.com/muzzletov/mendxml/internal/manifest"
	"github.com/muzzletov/mendxml/internal/source"
)

// Outcome is what happened to one document.
type Outcome string

const (
	Cleaned Outcome = "cleaned"
	Skipped Outcome = "skipped"
	Failed  Outcome = "failed"
)

// Options configures a Runner.
type Options struct {
	Src     string
	Dst     string
	Pattern string
	Workers int
	// Check re-reads every output with a conformant parser.
	Check bool
	// Force processes documents even when the manifest says they are current.
	Force bool
	// RetryFailed limits the run to documents whose last run failed. It
	// needs a manifest store.
	RetryFailed bool
	Parser      *mendxml.Parser
	Render      mendxml.RenderOptions
}

// Result describes one document.
type Result struct {
	Path     string
	Outcome  Outcome
	Err      error
	Duration time.Duration
}

// Report is the outcome of a whole run.
type Report struct {
	RunID   string
	Results []Result
	Cleaned int
	Skipped int
	Failed  int
	Elapsed time.Duration
}

// Runner executes batch runs. The manifest store is optional; without it
// every document is processed.
type Runner struct {
	opts   Options
	store  *manifest.Store
	logger *zap.Logger
}

// New creates a Runner.
func New(opts Options, store *manifest.Store, logger *zap.Logger) *Runner {
	if opts.Pattern == "" {
		opts.Pattern = "*.xml"
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Parser == nil {
		opts.Parser = mendxml.NewParser(mendxml.WithMaxDepth(mendxml.DefaultMaxDepth))
	}
	if opts.Render.Indent == "" {
		opts.Render.Indent = mendxml.DefaultIndent
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{opts: opts, store: store, logger: logger}
}

// Run processes every matching file under Src. The returned error covers
// setup failures and cancellation only; per-document failures are in the
// report.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	started := time.Now()
	report := &Report{RunID: uuid.NewString()}
	logger := r.logger.With(zap.String("run_id", report.RunID))

	paths, err := r.collect()
	if err != nil {
		return nil, err
	}

	if r.opts.RetryFailed {
		paths, err = r.failed(ctx, paths)
		if err != nil {
			return nil, err
		}
	}

	run := &manifest.Run{ID: report.RunID, Src: r.opts.Src, Dst: r.opts.Dst}
	if r.store != nil {
		if err := r.store.StartRun(ctx, run); err != nil {
			return nil, err
		}
	}

	logger.Info("batch started",
		zap.String("src", r.opts.Src),
		zap.String("dst", r.opts.Dst),
		zap.Int("documents", len(paths)),
		zap.Int("workers", r.opts.Workers))

	results := make([]Result, len(paths))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result := r.process(gctx, path, report.RunID)

			mu.Lock()
			results[i] = result
			mu.Unlock()

			fields := []zap.Field{
				zap.String("path", path),
				zap.String("outcome", string(result.Outcome)),
				zap.Duration("duration", result.Duration),
			}
			if result.Err != nil {
				logger.Warn("document failed", append(fields, zap.Error(result.Err))...)
			} else {
				logger.Debug("document done", fields...)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(a, b int) bool { return results[a].Path < results[b].Path })
	report.Results = results

	for _, result := range results {
		switch result.Outcome {
		case Cleaned:
			report.Cleaned++
		case Skipped:
			report.Skipped++
		case Failed:
			report.Failed++
		}
	}
	report.Elapsed = time.Since(started)

	if r.store != nil {
		run.Cleaned, run.Skipped, run.Failed = report.Cleaned, report.Skipped, report.Failed
		if err := r.store.FinishRun(ctx, run); err != nil {
			return nil, err
		}
	}

	logger.Info("batch finished",
		zap.Int("cleaned", report.Cleaned),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", report.Elapsed))

	return report, nil
}

// collect returns the matching files under Src as slash-separated relative
// paths, sorted.
func (r *Runner) collect() ([]string, error) {
	if _, err := filepath.Match(r.opts.Pattern, ""); err != nil {
		return nil, fmt.Errorf("pattern %q: %w", r.opts.Pattern, err)
	}

	var paths []string

	err := filepath.WalkDir(r.opts.Src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != r.opts.Src && filepath.Clean(path) == filepath.Clean(r.opts.Dst) {
				return filepath.SkipDir
			}
			return nil
		}

		if ok, _ := filepath.Match(r.opts.Pattern, d.Name()); !ok {
			return nil
		}

		rel, err := filepath.Rel(r.opts.Src, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", r.opts.Src, err)
	}

	sort.Strings(paths)

	return paths, nil
}

// failed keeps the paths the manifest lists as failed. Failed entries whose
// source is gone are dropped.
func (r *Runner) failed(ctx context.Context, paths []string) ([]string, error) {
	if r.store == nil {
		return nil, errors.New("retrying failed documents needs a manifest")
	}

	entries, err := r.store.Failed(ctx)
	if err != nil {
		return nil, err
	}

	failed := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		failed[entry.Path] = struct{}{}
	}

	kept := make([]string, 0, len(entries))
	for _, path := range paths {
		if _, ok := failed[path]; ok {
			kept = append(kept, path)
		}
	}

	return kept, nil
}

func (r *Runner) process(ctx context.Context, rel string, runID string) Result {
	started := time.Now()
	result := Result{Path: rel}

	finish := func(outcome Outcome, err error) Result {
		result.Outcome = outcome
		result.Err = err
		result.Duration = time.Since(started)
		return result
	}

	srcPath := filepath.Join(r.opts.Src, filepath.FromSlash(rel))
	dstPath := filepath.Join(r.opts.Dst, filepath.FromSlash(rel))

	data, err := os.ReadFile(srcPath)
	if err != nil {
		return finish(Failed, fmt.Errorf("read %s: %w", srcPath, err))
	}

	hash := r.digest(data)

	if r.current(ctx, rel, hash, dstPath) {
		return finish(Skipped, nil)
	}

	out, err := r.clean(data)
	if err == nil {
		err = writeFile(dstPath, out)
	}

	entry := &manifest.Entry{Path: rel, Hash: hash, Status: manifest.StatusCleaned, RunID: runID}
	if err != nil {
		entry.Status = manifest.StatusFailed
		entry.Error = err.Error()
	}

	if r.store != nil {
		if putErr := r.store.Put(ctx, entry); putErr != nil {
			err = errors.Join(err, putErr)
		}
	}

	if err != nil {
		return finish(Failed, err)
	}

	return finish(Cleaned, nil)
}

// digest keys a document by its content and by every setting that shapes
// the output, so changing the indent or the parse mode reprocesses it.
func (r *Runner) digest(data []byte) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s indent=%q\n", r.opts.Parser, r.opts.Render.Indent)
	h.Write(data)

	return hex.EncodeToString(h.Sum(nil))
}

// current reports whether the manifest already holds a clean result for
// this exact content and the output file still exists.
func (r *Runner) current(ctx context.Context, rel, hash, dstPath string) bool {
	if r.store == nil || r.opts.Force {
		return false
	}

	entry, err := r.store.Get(ctx, rel)
	if err != nil || entry == nil {
		return false
	}

	if entry.Hash != hash || entry.Status != manifest.StatusCleaned {
		return false
	}

	_, err = os.Stat(dstPath)

	return err == nil
}

// clean runs parse, normalize and render on one document.
func (r *Runner) clean(data []byte) ([]byte, error) {
	text, err := source.Decode(data)
	if err != nil {
		return nil, err
	}

	root, err := r.opts.Parser.Parse(text)
	if err != nil {
		return nil, err
	}

	mendxml.Normalize(root)

	var out bytes.Buffer
	if err := mendxml.RenderTo(&out, root, r.opts.Render); err != nil {
		return nil, err
	}

	if r.opts.Check {
		if err := conform.Verify(root, out.Bytes()); err != nil {
			return nil, fmt.Errorf("conformance: %w", err)
		}
	}

	return out.Bytes(), nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}

	return nil
}
