// Package commands wraps workspace edits as reversible commands.
//
// Commands only call the workspace's public mutators. Execute and Undo
// return an Event describing what changed so that callers can update
// dependent views (current page, thumbnail selection) without the
// commands knowing about them. If a command finds the workspace no longer
// matches what it captured, it does nothing and returns an Event with
// Applied set to false.
package commands

import (
	"fmt"
	"slices"

	"github.com/Lllllllleong/pagecomposer/internal/models"
	"github.com/Lllllllleong/pagecomposer/internal/workspace"
)

// Command is a reversible edit. Execute is also used to redo.
type Command interface {
	Description() string
	Execute() Event
	Undo() Event
}

// EventKind says which kind of edit an Event reports.
type EventKind int

const (
	PagesDeleted EventKind = iota + 1
	PagesRestored
	PageMoved
	PagesMoved
	PageRotated
)

func (k EventKind) String() string {
	switch k {
	case PagesDeleted:
		return "pages-deleted"
	case PagesRestored:
		return "pages-restored"
	case PageMoved:
		return "page-moved"
	case PagesMoved:
		return "pages-moved"
	case PageRotated:
		return "page-rotated"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is the outcome of Execute or Undo.
//
// For PageMoved, From and To hold the single source and destination
// index. For PagesMoved, From holds the indices the pages were taken
// from and To the indices they now occupy. For deletions and
// restorations From lists the affected indices; for rotations it holds
// the rotated page's index.
type Event struct {
	Kind    EventKind
	Applied bool
	From    []int
	To      []int
}

// FocusIndex is the page a viewer should show after the event, or -1.
func (e Event) FocusIndex() int {
	switch {
	case !e.Applied:
		return -1
	case len(e.To) > 0:
		return e.To[0]
	case len(e.From) > 0:
		return e.From[0]
	}
	return -1
}

// DeletePage removes one page; Undo puts the same reference back.
type DeletePage struct {
	ws      *workspace.Manager
	index   int
	deleted *models.PageReference
}

// NewDeletePage returns a command deleting the page at index.
func NewDeletePage(ws *workspace.Manager, index int) *DeletePage {
	return &DeletePage{ws: ws, index: index}
}

func (c *DeletePage) Description() string {
	return fmt.Sprintf("Delete page %d", c.index+1)
}

func (c *DeletePage) Execute() Event {
	c.deleted = nil
	page, ok := c.ws.Page(c.index)
	if !ok {
		return Event{Kind: PagesDeleted}
	}
	c.deleted = page
	c.ws.DeletePage(c.index)
	return Event{Kind: PagesDeleted, Applied: true, From: []int{c.index}}
}

func (c *DeletePage) Undo() Event {
	if c.deleted == nil || !c.ws.InsertPage(c.index, c.deleted) {
		return Event{Kind: PagesRestored}
	}
	return Event{Kind: PagesRestored, Applied: true, From: []int{c.index}}
}

type deletedPage struct {
	index int
	page  *models.PageReference
}

// DeletePages removes several pages as one edit.
type DeletePages struct {
	ws      *workspace.Manager
	indices []int
	deleted []deletedPage
}

// NewDeletePages returns a command deleting the pages at indices.
// Repeated indices count once.
func NewDeletePages(ws *workspace.Manager, indices []int) *DeletePages {
	unique := slices.Clone(indices)
	slices.Sort(unique)
	return &DeletePages{ws: ws, indices: slices.Compact(unique)}
}

// Description counts the pages the last Execute removed, or the requested
// indices before the first run.
func (c *DeletePages) Description() string {
	n := len(c.indices)
	if len(c.deleted) > 0 {
		n = len(c.deleted)
	}
	if n == 1 {
		return "Delete 1 page"
	}
	return fmt.Sprintf("Delete %d pages", n)
}

func (c *DeletePages) Execute() Event {
	c.deleted = c.deleted[:0]
	// Pair each index with its page before the batch delete shifts them.
	// indices is sorted, so deleted is in ascending order.
	var targets []int
	for _, idx := range c.indices {
		if page, ok := c.ws.Page(idx); ok {
			targets = append(targets, idx)
			c.deleted = append(c.deleted, deletedPage{index: idx, page: page})
		}
	}
	if len(targets) == 0 {
		return Event{Kind: PagesDeleted}
	}
	c.ws.DeletePages(targets)

	from := make([]int, len(c.deleted))
	for i, d := range c.deleted {
		from[i] = d.index
	}
	return Event{Kind: PagesDeleted, Applied: true, From: from}
}

func (c *DeletePages) Undo() Event {
	if len(c.deleted) == 0 {
		return Event{Kind: PagesRestored}
	}
	var restored []int
	// Ascending order rebuilds the original layout one slot at a time.
	for _, d := range c.deleted {
		if c.ws.InsertPage(d.index, d.page) {
			restored = append(restored, d.index)
		}
	}
	return Event{Kind: PagesRestored, Applied: len(restored) > 0, From: restored}
}

// MovePage moves one page. It is its own inverse with the indices
// swapped.
type MovePage struct {
	ws       *workspace.Manager
	from, to int
}

// NewMovePage returns a command moving the page at from to to.
func NewMovePage(ws *workspace.Manager, from, to int) *MovePage {
	return &MovePage{ws: ws, from: from, to: to}
}

func (c *MovePage) Description() string {
	return fmt.Sprintf("Move page %d to position %d", c.from+1, c.to+1)
}

func (c *MovePage) Execute() Event {
	return c.move(c.from, c.to)
}

func (c *MovePage) Undo() Event {
	return c.move(c.to, c.from)
}

func (c *MovePage) move(from, to int) Event {
	// Moves do not notify workspace listeners; views follow the event.
	if !c.ws.MovePage(from, to, false) {
		return Event{Kind: PageMoved}
	}
	return Event{Kind: PageMoved, Applied: true, From: []int{from}, To: []int{to}}
}

// MovePages moves a selection of pages to a target index.
//
// Undo moves the pages back as one run starting at the smallest index
// that was moved. A contiguous selection is restored exactly; a
// scattered one keeps its relative order and starting position but comes
// back contiguous.
type MovePages struct {
	ws         *workspace.Manager
	original   []int
	target     int
	moved      []int
	newIndices []int
}

// NewMovePages returns a command moving the pages at fromIndices to toIndex.
func NewMovePages(ws *workspace.Manager, fromIndices []int, toIndex int) *MovePages {
	original := slices.Clone(fromIndices)
	slices.Sort(original)
	return &MovePages{ws: ws, original: slices.Compact(original), target: toIndex}
}

func (c *MovePages) Description() string {
	return fmt.Sprintf("Move %d pages", len(c.original))
}

func (c *MovePages) Execute() Event {
	count := c.ws.PageCount()
	c.moved = slices.DeleteFunc(slices.Clone(c.original), func(i int) bool { return i < 0 || i >= count })
	c.newIndices = c.ws.MovePages(c.moved, c.target, false)
	if len(c.newIndices) == 0 {
		return Event{Kind: PagesMoved}
	}
	return Event{Kind: PagesMoved, Applied: true, From: slices.Clone(c.moved), To: slices.Clone(c.newIndices)}
}

func (c *MovePages) Undo() Event {
	if len(c.newIndices) == 0 {
		return Event{Kind: PagesMoved}
	}
	restored := c.ws.MovePages(c.newIndices, runTarget(c.newIndices, c.moved[0]), false)
	if len(restored) == 0 {
		return Event{Kind: PagesMoved}
	}
	return Event{Kind: PagesMoved, Applied: true, From: slices.Clone(c.newIndices), To: restored}
}

// runTarget returns the index to pass to Manager.MovePages so that the
// pages at moved start at start once they are taken out of the sequence.
// Manager.MovePages shifts its target down by one for every moved page
// before it.
func runTarget(moved []int, start int) int {
	target := start
	for {
		below := 0
		for _, i := range moved {
			if i < target {
				below++
			}
		}
		if target-below >= start {
			return target
		}
		target++
	}
}

// Direction selects which way RotatePage turns a page.
type Direction int

const (
	Right Direction = iota
	Left
)

func (d Direction) String() string {
	if d == Left {
		return "left"
	}
	return "right"
}

// RotatePage turns one page by 90 degrees. Undo restores the rotation
// captured before Execute.
type RotatePage struct {
	ws        *workspace.Manager
	index     int
	direction Direction
	page      *models.PageReference
	previous  models.Rotation
}

// NewRotatePage returns a command turning the page at index in direction.
func NewRotatePage(ws *workspace.Manager, index int, direction Direction) *RotatePage {
	return &RotatePage{ws: ws, index: index, direction: direction}
}

func (c *RotatePage) Description() string {
	return fmt.Sprintf("Rotate page %d %s", c.index+1, c.direction)
}

func (c *RotatePage) Execute() Event {
	page, ok := c.ws.Page(c.index)
	if !ok {
		return Event{Kind: PageRotated}
	}
	c.page = page
	c.previous = page.Rotation()
	if c.direction == Left {
		c.ws.RotatePageLeft(c.index)
	} else {
		c.ws.RotatePageRight(c.index)
	}
	return Event{Kind: PageRotated, Applied: true, From: []int{c.index}}
}

func (c *RotatePage) Undo() Event {
	page, ok := c.ws.Page(c.index)
	if !ok || page != c.page {
		return Event{Kind: PageRotated}
	}
	page.SetRotation(c.previous)
	c.ws.NotifyChange()
	return Event{Kind: PageRotated, Applied: true, From: []int{c.index}}
}
