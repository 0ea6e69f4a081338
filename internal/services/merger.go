package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"

	"github.com/Lllllllleong/pagecomposer/internal/models"
	"github.com/Lllllllleong/pagecomposer/internal/pdfdoc"
	"github.com/Lllllllleong/pagecomposer/internal/workspace"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoPages is returned when asked to merge an empty page list.
	ErrNoPages = errors.New("no pages to merge")
	// ErrInvalidPage is returned for a page spec with a page number below 1.
	ErrInvalidPage = errors.New("invalid page number")
	// ErrNoSource is returned for a page spec without PDF bytes, which is
	// what a closed document hands out.
	ErrNoSource = errors.New("page source is empty or closed")
)

// PageSpec selects one page of a source PDF for the merged output.
// Rotation is added to whatever rotation the page already has.
type PageSpec struct {
	Source     []byte
	PageNumber int
	Rotation   models.Rotation
}

// SpecsFor turns page references into merge specs, keeping their order.
func SpecsFor(refs []*models.PageReference) []PageSpec {
	specs := make([]PageSpec, len(refs))
	for i, ref := range refs {
		specs[i] = PageSpec{
			Source:     ref.Document().Bytes(),
			PageNumber: ref.SourcePageNumber(),
			Rotation:   ref.Rotation(),
		}
	}
	return specs
}

// Merger writes a new PDF from an ordered list of pages.
type Merger struct {
	creator     string
	concurrency int
}

// NewMerger returns a Merger that stamps creator into the output and
// extracts up to concurrency runs at once.
func NewMerger(creator string, concurrency int) *Merger {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Merger{
		creator:     creator,
		concurrency: concurrency,
	}
}

// MergeWorkspace merges every page of ws in its current order.
func (m *Merger) MergeWorkspace(ctx context.Context, ws *workspace.Manager, meta *models.Metadata) ([]byte, error) {
	return m.Merge(ctx, SpecsFor(ws.Pages()), meta)
}

// ExportPages writes only the given pages, in the given order.
func (m *Merger) ExportPages(ctx context.Context, refs []*models.PageReference, meta *models.Metadata) ([]byte, error) {
	return m.Merge(ctx, SpecsFor(refs), meta)
}

// run is a stretch of consecutive specs that share a source.
type run struct {
	source    []byte
	pages     []string
	rotations []models.Rotation
}

// Merge builds the output PDF. Consecutive pages from the same source
// are extracted together; the extracted runs are then concatenated.
func (m *Merger) Merge(ctx context.Context, pages []PageSpec, meta *models.Metadata) ([]byte, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	runs, err := splitRuns(pages)
	if err != nil {
		return nil, err
	}
	logCtx := slog.With("pageCount", len(pages), "runCount", len(runs))

	parts := make([][]byte, len(runs))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(m.concurrency)
	for i, r := range runs {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			part, err := m.extract(r)
			if err != nil {
				return fmt.Errorf("run %d: %w", i+1, err)
			}
			parts[i] = part
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		logCtx.Error("Failed to extract pages", "error", err)
		return nil, err
	}

	merged := parts[0]
	if len(parts) > 1 {
		readers := make([]io.ReadSeeker, len(parts))
		for i, p := range parts {
			readers[i] = bytes.NewReader(p)
		}
		var out bytes.Buffer
		if err := api.MergeRaw(readers, &out, false, pdfdoc.NewConfiguration()); err != nil {
			return nil, fmt.Errorf("failed to merge pages: %w", err)
		}
		// Runs cut from the same source carry copies of its resources.
		optimized, err := pdfdoc.Optimize(out.Bytes())
		if err != nil {
			return nil, err
		}
		merged = optimized
	}

	result, err := m.setInfo(merged, meta)
	if err != nil {
		return nil, err
	}
	logCtx.Info("Pages merged.", "size", len(result))
	return result, nil
}

func splitRuns(pages []PageSpec) ([]run, error) {
	var runs []run
	for i, p := range pages {
		if p.PageNumber < 1 {
			return nil, fmt.Errorf("page spec %d: %w: %d", i, ErrInvalidPage, p.PageNumber)
		}
		if len(p.Source) == 0 {
			return nil, fmt.Errorf("page spec %d: %w", i, ErrNoSource)
		}
		if n := len(runs); n == 0 || !sameSource(runs[n-1].source, p.Source) {
			runs = append(runs, run{source: p.Source})
		}
		last := &runs[len(runs)-1]
		last.pages = append(last.pages, strconv.Itoa(p.PageNumber))
		last.rotations = append(last.rotations, p.Rotation.Normalize())
	}
	return runs, nil
}

// sameSource reports whether a and b are the same loaded buffer. Empty
// buffers never match.
func sameSource(a, b []byte) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}
	return &a[0] == &b[0]
}

// extract copies the run's pages, in order, into a new PDF and applies
// the per-page rotations. pdfcpu writes into its configuration, so every
// call gets a fresh one.
func (m *Merger) extract(r run) ([]byte, error) {
	var out bytes.Buffer
	if err := api.Collect(bytes.NewReader(r.source), &out, r.pages, pdfdoc.NewConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to collect pages %v: %w", r.pages, err)
	}
	current := out.Bytes()

	for _, rot := range []models.Rotation{90, 180, 270} {
		var selected []string
		for i, pr := range r.rotations {
			if pr == rot {
				selected = append(selected, strconv.Itoa(i+1))
			}
		}
		if len(selected) == 0 {
			continue
		}
		var rotated bytes.Buffer
		if err := api.Rotate(bytes.NewReader(current), &rotated, int(rot), selected, pdfdoc.NewConfiguration()); err != nil {
			return nil, fmt.Errorf("failed to rotate pages %v by %d: %w", selected, rot, err)
		}
		current = rotated.Bytes()
	}
	return current, nil
}

// setInfo writes the document metadata and the creator into the Info
// dictionary. Empty fields are left out.
func (m *Merger) setInfo(pdf []byte, meta *models.Metadata) ([]byte, error) {
	props := map[string]string{}
	if m.creator != "" {
		props["Creator"] = m.creator
	}
	if meta != nil {
		for k, v := range map[string]string{
			"Title":    meta.Title,
			"Author":   meta.Author,
			"Subject":  meta.Subject,
			"Keywords": meta.Keywords,
		} {
			if v != "" {
				props[k] = v
			}
		}
	}
	if len(props) == 0 {
		return pdf, nil
	}
	var out bytes.Buffer
	if err := api.AddProperties(bytes.NewReader(pdf), &out, props, pdfdoc.NewConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to set document properties %v: %w", slices.Sorted(maps.Keys(props)), err)
	}
	return out.Bytes(), nil
}
