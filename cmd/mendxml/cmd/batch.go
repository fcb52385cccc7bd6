package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muzzletov/mendxml"
	"github.com/muzzletov/mendxml/internal/batch"
	"github.com/muzzletov/mendxml/internal/manifest"
)

func newBatchCmd(a *app) *cobra.Command {
	var noManifest bool

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Clean every matching document under a directory",
		Long: `Clean every document matching the pattern under --src into the same
relative path under --dst. A SQLite manifest remembers the content hash of
each document, so unchanged documents are skipped on the next run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.batchOptions(cmd)
			opts.Parser = a.parser(cmd)
			opts.Render = mendxml.RenderOptions{Indent: a.cfg.Render.Indent}

			ctx := cmd.Context()
			if timeout := a.cfg.Batch.Timeout.Duration; timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			if opts.RetryFailed && noManifest {
				return fmt.Errorf("--retry-failed needs the manifest")
			}

			var store *manifest.Store
			if !noManifest {
				manifestPath := a.cfg.Batch.Manifest
				if cmd.Flags().Changed("manifest") {
					manifestPath, _ = cmd.Flags().GetString("manifest")
				} else if cmd.Flags().Changed("dst") {
					manifestPath = filepath.Join(opts.Dst, ".mendxml.db")
				}

				var err error
				store, err = manifest.Open(manifestPath)
				if err != nil {
					return err
				}
				defer store.Close()
			}

			report, err := batch.New(opts, store, a.logger).Run(ctx)
			if err != nil {
				return err
			}

			if err := printReport(cmd.OutOrStdout(), report); err != nil {
				return err
			}

			if report.Failed > 0 {
				return fmt.Errorf("%d of %d documents failed", report.Failed, len(report.Results))
			}

			return nil
		},
	}

	flags := batchCmd.Flags()
	flags.String("src", "", "source directory (default from config: ./data)")
	flags.String("dst", "", "destination directory (default from config: ./clean)")
	flags.String("pattern", "", "file name pattern (default *.xml)")
	flags.Int("workers", 0, "parallel documents (default from config: 4)")
	flags.String("manifest", "", "manifest database (default <dst>/.mendxml.db)")
	flags.Bool("check", false, "verify every output with a conformant parser")
	flags.Bool("force", false, "process documents even if unchanged")
	flags.Bool("retry-failed", false, "only process documents that failed in the last run")
	flags.BoolVar(&noManifest, "no-manifest", false, "do not read or write the manifest")
	addParseFlags(batchCmd)

	return batchCmd
}

func (a *app) batchOptions(cmd *cobra.Command) batch.Options {
	cfg := a.cfg.Batch
	opts := batch.Options{
		Src:     cfg.Src,
		Dst:     cfg.Dst,
		Pattern: cfg.Pattern,
		Workers: cfg.Workers,
		Check:   cfg.Check,
		Force:   cfg.Force,
	}

	flags := cmd.Flags()
	if flags.Changed("src") {
		opts.Src, _ = flags.GetString("src")
	}
	if flags.Changed("dst") {
		opts.Dst, _ = flags.GetString("dst")
	}
	if flags.Changed("pattern") {
		opts.Pattern, _ = flags.GetString("pattern")
	}
	if flags.Changed("workers") {
		opts.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("check") {
		opts.Check, _ = flags.GetBool("check")
	}
	if flags.Changed("force") {
		opts.Force, _ = flags.GetBool("force")
	}
	opts.RetryFailed, _ = flags.GetBool("retry-failed")

	return opts
}

func printReport(w io.Writer, report *batch.Report) error {
	var b strings.Builder

	for _, result := range report.Results {
		if result.Outcome != batch.Failed {
			continue
		}
		fmt.Fprintf(&b, "%s %s\n  %s\n", errorStyle.Render("FAIL"), result.Path, mutedStyle.Render(result.Err.Error()))
	}

	summary := strings.Join([]string{
		headerStyle.Render("batch " + report.RunID),
		successStyle.Render(fmt.Sprintf("cleaned %d", report.Cleaned)),
		warningStyle.Render(fmt.Sprintf("skipped %d", report.Skipped)),
		errorStyle.Render(fmt.Sprintf("failed  %d", report.Failed)),
		mutedStyle.Render(fmt.Sprintf("elapsed %s", report.Elapsed.Round(time.Millisecond))),
	}, "\n")

	b.WriteString(summaryStyle.Render(summary))
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}
