package commands

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Lllllllleong/pagecomposer/internal/models"
	"github.com/Lllllllleong/pagecomposer/internal/workspace"
)

type fakeDoc struct{ pages int }

func (d *fakeDoc) NumPages() int { return d.pages }
func (d *fakeDoc) Bytes() []byte { return nil }
func (d *fakeDoc) Close() error  { return nil }

// newWorkspace loads document A with three pages and B with two.
func newWorkspace() *workspace.Manager {
	ws := workspace.NewManager()
	ws.AddDocument(&fakeDoc{pages: 3}, "A", false)
	ws.AddDocument(&fakeDoc{pages: 2}, "B", false)
	return ws
}

func ids(ws *workspace.Manager) []string {
	var out []string
	for _, p := range ws.Pages() {
		out = append(out, p.ID())
	}
	return out
}

func TestDeletePage(t *testing.T) {
	ws := newWorkspace()
	before := ids(ws)
	original, _ := ws.Page(1)

	cmd := NewDeletePage(ws, 1)
	if cmd.Description() != "Delete page 2" {
		t.Errorf("Description() = %q", cmd.Description())
	}
	ev := cmd.Execute()
	if !ev.Applied || ev.Kind != PagesDeleted || ws.PageCount() != 4 {
		t.Fatalf("Execute() = %+v, count %d", ev, ws.PageCount())
	}
	if !ws.IsModified() {
		t.Error("delete did not mark the workspace modified")
	}

	ev = cmd.Undo()
	if !ev.Applied || ev.Kind != PagesRestored || ev.FocusIndex() != 1 {
		t.Errorf("Undo() = %+v", ev)
	}
	if d := cmp.Diff(before, ids(ws)); d != "" {
		t.Errorf("sequence after undo (-want +got):\n%s", d)
	}
	if got, _ := ws.Page(1); got != original {
		t.Error("undo restored a different reference")
	}
	if !ws.IsModified() {
		t.Error("workspace not modified after undo")
	}
}

func TestDeletePageMissing(t *testing.T) {
	ws := newWorkspace()
	cmd := NewDeletePage(ws, 7)
	if ev := cmd.Execute(); ev.Applied {
		t.Error("delete of a missing page reported success")
	}
	if ev := cmd.Undo(); ev.Applied {
		t.Error("undo of a no-op delete reported success")
	}
	if ws.PageCount() != 5 {
		t.Errorf("PageCount() = %d, want 5", ws.PageCount())
	}
}

func TestDeletePageStaleUndo(t *testing.T) {
	ws := newWorkspace()
	cmd := NewDeletePage(ws, 4)
	cmd.Execute()
	ws.DeletePages([]int{0, 1, 2})
	if ev := cmd.Undo(); ev.Applied {
		t.Error("undo inserted past the end of a shrunken sequence")
	}
	if ws.PageCount() != 1 {
		t.Errorf("PageCount() = %d, want 1", ws.PageCount())
	}
}

func TestDeletePages(t *testing.T) {
	ws := newWorkspace()
	before := ids(ws)
	notified := 0
	ws.OnChange(func() { notified++ })

	cmd := NewDeletePages(ws, []int{4, 1, 3, 9})
	ev := cmd.Execute()
	if d := cmp.Diff([]int{1, 3, 4}, ev.From); d != "" {
		t.Errorf("deleted indices (-want +got):\n%s", d)
	}
	if notified != 1 {
		t.Errorf("delete notified %d times, want 1", notified)
	}
	if d := cmp.Diff([]string{before[0], before[2]}, ids(ws)); d != "" {
		t.Errorf("remaining (-want +got):\n%s", d)
	}

	ev = cmd.Undo()
	if !ev.Applied {
		t.Fatal("undo not applied")
	}
	if d := cmp.Diff(before, ids(ws)); d != "" {
		t.Errorf("sequence after undo (-want +got):\n%s", d)
	}
}

func TestDeletePagesRedo(t *testing.T) {
	ws := newWorkspace()
	cmd := NewDeletePages(ws, []int{0, 2})
	cmd.Execute()
	after := ids(ws)
	cmd.Undo()
	cmd.Execute()
	if d := cmp.Diff(after, ids(ws)); d != "" {
		t.Errorf("redo (-want +got):\n%s", d)
	}
	cmd.Undo()
	if ws.PageCount() != 5 {
		t.Errorf("PageCount() = %d after second undo", ws.PageCount())
	}
}

func TestDeletePagesDescription(t *testing.T) {
	ws := newWorkspace()
	cmd := NewDeletePages(ws, []int{1, 1, 99})
	if d := cmd.Description(); d != "Delete 2 pages" {
		t.Errorf("Description() before Execute = %q", d)
	}
	cmd.Execute()
	if d := cmd.Description(); d != "Delete 1 page" {
		t.Errorf("Description() after Execute = %q", d)
	}
	if ws.PageCount() != 4 {
		t.Errorf("PageCount() = %d, want 4", ws.PageCount())
	}

	many := NewDeletePages(ws, []int{0, 2})
	many.Execute()
	if d := many.Description(); d != "Delete 2 pages" {
		t.Errorf("Description() = %q", d)
	}
}

func TestMovePage(t *testing.T) {
	for from := 0; from < 5; from++ {
		for to := 0; to < 5; to++ {
			ws := newWorkspace()
			before := ids(ws)
			notified := 0
			ws.OnChange(func() { notified++ })

			cmd := NewMovePage(ws, from, to)
			ev := cmd.Execute()
			if ev.Applied != (from != to) {
				t.Errorf("move %d->%d: Applied = %v", from, to, ev.Applied)
			}
			undo := cmd.Undo()
			if ev.Applied && (undo.From[0] != to || undo.To[0] != from) {
				t.Errorf("move %d->%d: undo event %+v", from, to, undo)
			}
			if d := cmp.Diff(before, ids(ws)); d != "" {
				t.Errorf("move %d->%d then undo (-want +got):\n%s", from, to, d)
			}
			if notified != 0 {
				t.Errorf("move %d->%d notified workspace listeners", from, to)
			}
		}
	}
}

func TestMovePagesContiguous(t *testing.T) {
	ws := newWorkspace()
	before := ids(ws)

	cmd := NewMovePages(ws, []int{1, 0}, 4)
	ev := cmd.Execute()
	if d := cmp.Diff([]int{2, 3}, ev.To); d != "" {
		t.Errorf("new indices (-want +got):\n%s", d)
	}
	want := []string{before[2], before[3], before[0], before[1], before[4]}
	if d := cmp.Diff(want, ids(ws)); d != "" {
		t.Errorf("after move (-want +got):\n%s", d)
	}

	cmd.Undo()
	if d := cmp.Diff(before, ids(ws)); d != "" {
		t.Errorf("after undo (-want +got):\n%s", d)
	}
}

func TestMovePagesTowardsFrontUndo(t *testing.T) {
	ws := newWorkspace()
	p := ids(ws)

	cmd := NewMovePages(ws, []int{3, 4}, 0)
	cmd.Execute()
	if d := cmp.Diff([]string{p[3], p[4], p[0], p[1], p[2]}, ids(ws)); d != "" {
		t.Errorf("after move (-want +got):\n%s", d)
	}
	ev := cmd.Undo()
	if d := cmp.Diff([]int{3, 4}, ev.To); d != "" {
		t.Errorf("undo indices (-want +got):\n%s", d)
	}
	if d := cmp.Diff(p, ids(ws)); d != "" {
		t.Errorf("after undo (-want +got):\n%s", d)
	}
}

// Every contiguous selection moved to any target comes back exactly.
func TestMovePagesContiguousUndoExhaustive(t *testing.T) {
	for first := 0; first < 5; first++ {
		for last := first; last < 5; last++ {
			for to := 0; to <= 5; to++ {
				ws := newWorkspace()
				before := ids(ws)
				var sel []int
				for i := first; i <= last; i++ {
					sel = append(sel, i)
				}
				cmd := NewMovePages(ws, sel, to)
				cmd.Execute()
				cmd.Undo()
				if d := cmp.Diff(before, ids(ws)); d != "" {
					t.Errorf("move %v to %d then undo (-want +got):\n%s", sel, to, d)
				}
			}
		}
	}
}

func TestMovePagesIgnoresInvalidIndices(t *testing.T) {
	ws := newWorkspace()
	before := ids(ws)

	cmd := NewMovePages(ws, []int{-1, 2, 3, 9}, 0)
	ev := cmd.Execute()
	if d := cmp.Diff([]int{2, 3}, ev.From); d != "" {
		t.Errorf("moved indices (-want +got):\n%s", d)
	}
	cmd.Undo()
	if d := cmp.Diff(before, ids(ws)); d != "" {
		t.Errorf("after undo (-want +got):\n%s", d)
	}
}

// A scattered selection comes back as one run at its first index.
func TestMovePagesScatteredUndo(t *testing.T) {
	ws := newWorkspace()
	p := ids(ws)

	cmd := NewMovePages(ws, []int{0, 2, 4}, 2)
	ev := cmd.Execute()
	if d := cmp.Diff([]int{1, 2, 3}, ev.To); d != "" {
		t.Errorf("new indices (-want +got):\n%s", d)
	}
	if d := cmp.Diff([]string{p[1], p[0], p[2], p[4], p[3]}, ids(ws)); d != "" {
		t.Errorf("after move (-want +got):\n%s", d)
	}

	ev = cmd.Undo()
	if d := cmp.Diff([]int{0, 1, 2}, ev.To); d != "" {
		t.Errorf("undo indices (-want +got):\n%s", d)
	}
	if d := cmp.Diff([]string{p[0], p[2], p[4], p[1], p[3]}, ids(ws)); d != "" {
		t.Errorf("after undo (-want +got):\n%s", d)
	}
}

func TestMovePagesNothingToMove(t *testing.T) {
	ws := newWorkspace()
	cmd := NewMovePages(ws, []int{8, 9}, 0)
	if ev := cmd.Execute(); ev.Applied {
		t.Error("move of invalid indices applied")
	}
	if ev := cmd.Undo(); ev.Applied {
		t.Error("undo of empty move applied")
	}
	if cmd.Description() != "Move 2 pages" {
		t.Errorf("Description() = %q", cmd.Description())
	}
}

func TestRotatePage(t *testing.T) {
	ws := newWorkspace()
	page, _ := ws.Page(3)
	page.SetRotation(90)

	cmd := NewRotatePage(ws, 3, Left)
	if cmd.Description() != "Rotate page 4 left" {
		t.Errorf("Description() = %q", cmd.Description())
	}
	cmd.Execute()
	if page.Rotation() != 0 {
		t.Fatalf("rotation = %d, want 0", page.Rotation())
	}

	notified := 0
	ws.OnChange(func() { notified++ })
	ev := cmd.Undo()
	if !ev.Applied || page.Rotation() != 90 {
		t.Errorf("Undo() = %+v, rotation %d", ev, page.Rotation())
	}
	if notified != 1 {
		t.Errorf("undo notified %d times, want 1", notified)
	}

	right := NewRotatePage(ws, 3, Right)
	right.Execute()
	right.Execute()
	if page.Rotation() != 270 {
		t.Errorf("rotation = %d, want 270", page.Rotation())
	}
}

func TestRotatePageStaleUndo(t *testing.T) {
	ws := newWorkspace()
	cmd := NewRotatePage(ws, 0, Right)
	cmd.Execute()
	ws.DeletePage(0)
	moved, _ := ws.Page(0)
	if ev := cmd.Undo(); ev.Applied {
		t.Error("undo applied to a different page")
	}
	if moved.Rotation() != models.Rotation(0) {
		t.Errorf("unrelated page rotated to %d", moved.Rotation())
	}
}

func TestFocusIndex(t *testing.T) {
	cases := []struct {
		ev   Event
		want int
	}{
		{Event{}, -1},
		{Event{Applied: true}, -1},
		{Event{Applied: true, From: []int{3}}, 3},
		{Event{Applied: true, From: []int{3}, To: []int{1, 2}}, 1},
		{Event{Applied: false, From: []int{3}}, -1},
	}
	for _, tc := range cases {
		if got := tc.ev.FocusIndex(); got != tc.want {
			t.Errorf("%+v.FocusIndex() = %d, want %d", tc.ev, got, tc.want)
		}
	}
}
