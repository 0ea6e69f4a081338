package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Lllllllleong/pagecomposer/internal/models"
	"github.com/Lllllllleong/pagecomposer/internal/pdfdoc"
	"github.com/Lllllllleong/pagecomposer/internal/pdfdoc/pdftest"
)

func pageCount(t *testing.T, data []byte) int {
	t.Helper()
	n, err := api.PageCount(bytes.NewReader(data), pdfdoc.NewConfiguration())
	if err != nil {
		t.Fatalf("merged output is not a readable pdf: %v", err)
	}
	return n
}

// readBack parses a merged PDF and renders each page as
// "<mediabox width>@<rotation>".
func readBack(t *testing.T, data []byte) ([]string, *model.Context) {
	t.Helper()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), pdfdoc.NewConfiguration())
	if err != nil {
		t.Fatalf("merged output is not a readable pdf: %v", err)
	}
	var pages []string
	for i := 1; i <= ctx.PageCount; i++ {
		_, _, inh, err := ctx.PageDict(i, false)
		if err != nil {
			t.Fatalf("page %d: %v", i, err)
		}
		pages = append(pages, fmt.Sprintf("%.0f@%d", inh.MediaBox.Width(), inh.Rotate))
	}
	return pages, ctx
}

func TestSplitRuns(t *testing.T) {
	a := pdftest.Minimal(3)
	b := pdftest.Minimal(2)
	specs := []PageSpec{
		{Source: a, PageNumber: 3},
		{Source: a, PageNumber: 1, Rotation: 90},
		{Source: b, PageNumber: 2, Rotation: -90},
		{Source: a, PageNumber: 2},
	}
	runs, err := splitRuns(specs)
	if err != nil {
		t.Fatal(err)
	}
	var pages [][]string
	var rotations [][]models.Rotation
	for _, r := range runs {
		pages = append(pages, r.pages)
		rotations = append(rotations, r.rotations)
	}
	if d := cmp.Diff([][]string{{"3", "1"}, {"2"}, {"2"}}, pages); d != "" {
		t.Errorf("run pages (-want +got):\n%s", d)
	}
	if d := cmp.Diff([][]models.Rotation{{0, 90}, {270}, {0}}, rotations); d != "" {
		t.Errorf("run rotations (-want +got):\n%s", d)
	}
}

func TestSplitRunsRejectsBadPage(t *testing.T) {
	_, err := splitRuns([]PageSpec{{Source: pdftest.Minimal(1), PageNumber: 0}})
	if !errors.Is(err, ErrInvalidPage) {
		t.Errorf("err = %v, want ErrInvalidPage", err)
	}
}

func TestSameSource(t *testing.T) {
	a := pdftest.Minimal(1)
	copyOfA := bytes.Clone(a)
	if !sameSource(a, a) {
		t.Error("buffer not equal to itself")
	}
	if sameSource(a, copyOfA) {
		t.Error("distinct buffers treated as one source")
	}
	if sameSource(nil, nil) {
		t.Error("closed documents treated as one source")
	}
}

func TestMergeNoPages(t *testing.T) {
	m := NewMerger("test", 2)
	if _, err := m.Merge(context.Background(), nil, nil); !errors.Is(err, ErrNoPages) {
		t.Errorf("err = %v, want ErrNoPages", err)
	}
}

func TestMerge(t *testing.T) {
	a := pdftest.Build(pdftest.Page{Width: 100}, pdftest.Page{Width: 200, Rotate: 90}, pdftest.Page{Width: 300})
	b := pdftest.Build(pdftest.Page{Width: 400}, pdftest.Page{Width: 500})
	specs := []PageSpec{
		{Source: b, PageNumber: 2},
		{Source: a, PageNumber: 1, Rotation: 90},
		{Source: a, PageNumber: 3, Rotation: 180},
		{Source: b, PageNumber: 1, Rotation: 270},
		{Source: a, PageNumber: 2, Rotation: 90},
	}
	m := NewMerger("", 2)
	out, err := m.Merge(context.Background(), specs, nil)
	if err != nil {
		t.Fatal(err)
	}
	// The last page already carried /Rotate 90; the merge adds to it.
	want := []string{"500@0", "100@90", "300@180", "400@270", "200@180"}
	got, _ := readBack(t, out)
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("merged pages (-want +got):\n%s", d)
	}
}

func TestMergeSingleRunWithMetadata(t *testing.T) {
	a := pdftest.Build(pdftest.Page{Width: 100}, pdftest.Page{Width: 200})
	specs := []PageSpec{
		{Source: a, PageNumber: 2},
		{Source: a, PageNumber: 1},
	}
	m := NewMerger("Page Composer", 1)
	meta := &models.Metadata{Title: "Report", Author: "Ops"}
	out, err := m.Merge(context.Background(), specs, meta)
	if err != nil {
		t.Fatal(err)
	}
	got, ctx := readBack(t, out)
	if d := cmp.Diff([]string{"200@0", "100@0"}, got); d != "" {
		t.Errorf("merged pages (-want +got):\n%s", d)
	}
	info := map[string]string{
		"Title":    ctx.Title,
		"Author":   ctx.Author,
		"Creator":  ctx.Creator,
		"Subject":  ctx.Subject,
		"Keywords": ctx.Keywords,
	}
	wantInfo := map[string]string{
		"Title":    "Report",
		"Author":   "Ops",
		"Creator":  "Page Composer",
		"Subject":  "",
		"Keywords": "",
	}
	if d := cmp.Diff(wantInfo, info); d != "" {
		t.Errorf("info dictionary (-want +got):\n%s", d)
	}
}

func TestMergeRejectsClosedSource(t *testing.T) {
	doc, err := pdfdoc.FromBytes(pdftest.Minimal(1))
	if err != nil {
		t.Fatal(err)
	}
	doc.Close()
	m := NewMerger("", 1)
	_, err = m.Merge(context.Background(), []PageSpec{{Source: doc.Bytes(), PageNumber: 1}}, nil)
	if !errors.Is(err, ErrNoSource) {
		t.Errorf("err = %v, want ErrNoSource", err)
	}
}

func TestMergeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMerger("", 1)
	_, err := m.Merge(ctx, []PageSpec{{Source: pdftest.Minimal(1), PageNumber: 1}}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
