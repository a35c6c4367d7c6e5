// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export walks a directory of Dropbox Paper placeholder files,
// exports each document through a Fetcher and writes the result under an
// output directory that mirrors the Dropbox tree.
//
// A skip or failure for one file never stops the batch.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paper-export/internal/dropbox"
	"github.com/pdiddy/paper-export/internal/pathmap"
	"github.com/pdiddy/paper-export/internal/render"
	"github.com/pdiddy/paper-export/pkg/types"
)

// Fetcher downloads a Paper document in the requested format.
// *dropbox.Client implements it.
type Fetcher interface {
	Export(ctx context.Context, remotePath string, format types.Format) (*dropbox.Document, error)
}

// Summary holds the outcome of an export run.
type Summary struct {
	Converted int
	Skipped   int
	Failed    int

	// Outcomes lists one record per discovered file, in discovery order.
	Outcomes []types.Outcome
}

// Total returns the number of files processed.
func (s Summary) Total() int {
	return s.Converted + s.Skipped + s.Failed
}

// HasFailures reports whether any file failed to export.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

func (s *Summary) add(o types.Outcome) {
	switch o.Status {
	case types.OutcomeConverted:
		s.Converted++
	case types.OutcomeSkipped:
		s.Skipped++
	case types.OutcomeFailed:
		s.Failed++
	}
	s.Outcomes = append(s.Outcomes, o)
}

// Exporter runs one export configuration. Status lines are written to the
// writer given to New.
type Exporter struct {
	fetcher  Fetcher
	renderer *render.Renderer
	cfg      types.ExportConfig

	mu sync.Mutex // guards w
	w  io.Writer
}

// New creates an Exporter. cfg.Workers below 1 means one file at a time.
func New(f Fetcher, cfg types.ExportConfig, w io.Writer) *Exporter {
	return &Exporter{
		fetcher: f,
		renderer: render.New(render.Options{
			Format:       cfg.Format,
			TitleHeader:  cfg.TitleHeader,
			SanitizeHTML: cfg.SanitizeHTML,
		}),
		cfg: cfg,
		w:   w,
	}
}

func (e *Exporter) printf(format string, args ...any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fmt.Fprintf(e.w, format, args...)
}

// ExportFile maps, fetches, renders and writes a single source file.
// dropboxRoot should already be resolved with Resolve.
func (e *Exporter) ExportFile(ctx context.Context, source, dropboxRoot string) types.Outcome {
	e.printf("processing: %s\n", source)

	// The output mirrors where the file was found; the document is requested
	// by the path of the file it links to.
	located := filepath.Join(Resolve(filepath.Dir(source)), filepath.Base(source))
	m, err := pathmap.Map(located, dropboxRoot, e.cfg.OutputDir, e.cfg.Format)
	if err == nil {
		var target pathmap.Mapping
		target, err = pathmap.Map(Resolve(source), dropboxRoot, e.cfg.OutputDir, e.cfg.Format)
		m.RemotePath = target.RemotePath
	}
	if err != nil {
		var skip *pathmap.SkipError
		if errors.As(err, &skip) {
			e.printf("skipped: %s (%v)\n", source, err)
			return types.Outcome{Source: source, Status: types.OutcomeSkipped, Reason: err.Error()}
		}
		return e.fail(types.Outcome{Source: source}, err)
	}

	out := types.Outcome{Source: source, RemotePath: m.RemotePath}

	doc, err := e.fetcher.Export(ctx, m.RemotePath, e.cfg.RemoteFormat())
	if err != nil {
		return e.fail(out, err)
	}

	data, err := e.renderer.Render(doc.Name, doc.Format, doc.Content)
	if err != nil {
		return e.fail(out, fmt.Errorf("rendering %s: %w", m.RemotePath, err))
	}

	if err := writeFile(m.OutputPath, data); err != nil {
		return e.fail(out, err)
	}

	e.printf("converted: %s -> %s\n", source, m.OutputPath)
	out.Output = m.OutputPath
	out.Status = types.OutcomeConverted
	return out
}

func (e *Exporter) fail(o types.Outcome, err error) types.Outcome {
	e.printf("failed:  %s (%v)\n", o.Source, err)
	o.Status = types.OutcomeFailed
	o.Reason = err.Error()
	return o
}

// Run exports every .paper file under the configured paper directory and
// prints a summary line. Per-file problems are counted, not returned. The
// error is non-nil only when the paper directory is unusable or ctx is
// cancelled; in the latter case the partial summary is still returned.
func (e *Exporter) Run(ctx context.Context) (Summary, error) {
	info, err := os.Stat(e.cfg.PaperDir)
	if err != nil {
		return Summary{}, fmt.Errorf("reading paper directory: %w", err)
	}
	if !info.IsDir() {
		return Summary{}, fmt.Errorf("paper directory %s is not a directory", e.cfg.PaperDir)
	}
	if _, err := os.ReadDir(e.cfg.PaperDir); err != nil {
		return Summary{}, fmt.Errorf("reading paper directory: %w", err)
	}

	root := Resolve(e.cfg.DropboxRoot)
	workers := max(e.cfg.Workers, 1)

	type indexed struct {
		n int
		o types.Outcome
	}
	var (
		mu      sync.Mutex
		results []indexed
		g       errgroup.Group
		n       int
	)
	g.SetLimit(workers)

	for path, err := range Discover(e.cfg.PaperDir) {
		if err != nil {
			var pe *fs.PathError
			if errors.As(err, &pe) && pe.Path == e.cfg.PaperDir {
				g.Wait()
				return Summary{}, fmt.Errorf("reading paper directory: %w", err)
			}
			e.printf("warning: %v\n", err)
			continue
		}
		if ctx.Err() != nil {
			break
		}
		i := n
		n++
		g.Go(func() error {
			o := e.ExportFile(ctx, path, root)
			mu.Lock()
			results = append(results, indexed{i, o})
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	sort.Slice(results, func(a, b int) bool { return results[a].n < results[b].n })
	var s Summary
	for _, r := range results {
		s.add(r.o)
	}

	if n == 0 && ctx.Err() == nil {
		e.printf("No .paper files found under %s\n", e.cfg.PaperDir)
	}
	e.printf("\nExport summary: %d converted, %d skipped, %d failed (total: %d)\n",
		s.Converted, s.Skipped, s.Failed, s.Total())

	return s, ctx.Err()
}
