// Package workspace keeps the flat, reorderable page sequence built from
// one or more source documents.
//
// All methods run to completion before returning and are meant to be
// called from a single goroutine. Invalid indices never panic: mutators
// report failure through their boolean or empty results.
package workspace

import (
	"log/slog"
	"slices"

	"github.com/Lllllllleong/pagecomposer/internal/models"
	"github.com/Lllllllleong/pagecomposer/internal/observer"
)

// Entry pairs a loaded source document with its display file name.
type Entry struct {
	ID       string
	Doc      models.SourceDocument
	FileName string
}

// ListenerID identifies a change listener registered with Subscribe.
type ListenerID = observer.ID

// Manager owns the page sequence and the documents its pages come from.
type Manager struct {
	documents []Entry
	pages     []*models.PageReference
	modified  bool

	pageIDs   *models.IDGenerator
	docIDs    *models.IDGenerator
	listeners observer.Registry
	logger    *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for debug output about rejected edits.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithIDGenerators replaces the page and document identifier generators.
func WithIDGenerators(pages, docs *models.IDGenerator) Option {
	return func(m *Manager) {
		m.pageIDs = pages
		m.docIDs = docs
	}
}

// NewManager returns an empty workspace. By default it logs to
// slog.Default and numbers pages and documents from 1.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		pageIDs: models.NewIDGenerator("page"),
		docIDs:  models.NewIDGenerator("doc"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddDocument appends every page of doc, in source order, to the end of
// the sequence. Pass notify=false while loading a batch and call
// NotifyChange once at the end.
func (m *Manager) AddDocument(doc models.SourceDocument, fileName string, notify bool) {
	m.documents = append(m.documents, Entry{ID: m.docIDs.Next(), Doc: doc, FileName: fileName})
	for n := 1; n <= doc.NumPages(); n++ {
		m.pages = append(m.pages, models.NewPageReference(m.pageIDs.Next(), doc, n, fileName))
	}
	m.modified = true
	if notify {
		m.listeners.Notify()
	}
}

// NotifyChange calls all listeners. Use it to flush after operations
// that were run with notify=false.
func (m *Manager) NotifyChange() {
	m.listeners.Notify()
}

// Pages returns a copy of the current sequence.
func (m *Manager) Pages() []*models.PageReference {
	return slices.Clone(m.pages)
}

// Page returns the reference at index.
func (m *Manager) Page(index int) (*models.PageReference, bool) {
	if !m.valid(index) {
		return nil, false
	}
	return m.pages[index], true
}

// IndexOf returns the position of ref in the sequence, or -1.
func (m *Manager) IndexOf(ref *models.PageReference) int {
	return slices.Index(m.pages, ref)
}

func (m *Manager) PageCount() int   { return len(m.pages) }
func (m *Manager) IsEmpty() bool    { return len(m.pages) == 0 }
func (m *Manager) IsModified() bool { return m.modified }

// MarkSaved clears the modified flag.
func (m *Manager) MarkSaved() {
	m.modified = false
}

// DeletePage removes and returns the reference at index.
func (m *Manager) DeletePage(index int) (*models.PageReference, bool) {
	if !m.valid(index) {
		m.logger.Debug("Delete ignored, index out of range.", "index", index, "pageCount", len(m.pages))
		return nil, false
	}
	removed := m.pages[index]
	m.pages = slices.Delete(m.pages, index, index+1)
	m.modified = true
	m.listeners.Notify()
	return removed, true
}

// DeletePages removes the references at indices as one edit. Invalid and
// repeated indices are ignored. The removed references are returned in
// ascending order of their original index. Listeners are notified once.
func (m *Manager) DeletePages(indices []int) []*models.PageReference {
	valid := m.validSorted(indices)
	if len(valid) == 0 {
		return nil
	}
	removed := make([]*models.PageReference, len(valid))
	// Highest index first so pending indices keep their positions.
	for i := len(valid) - 1; i >= 0; i-- {
		idx := valid[i]
		removed[i] = m.pages[idx]
		m.pages = slices.Delete(m.pages, idx, idx+1)
	}
	m.modified = true
	m.listeners.Notify()
	return removed
}

// MovePage moves the page at from so that it ends up at index to.
// It fails when either index is out of range or they are equal.
func (m *Manager) MovePage(from, to int, notify bool) bool {
	if !m.valid(from) || !m.valid(to) || from == to {
		m.logger.Debug("Move ignored.", "from", from, "to", to, "pageCount", len(m.pages))
		return false
	}
	page := m.pages[from]
	m.pages = slices.Delete(m.pages, from, from+1)
	m.pages = slices.Insert(m.pages, to, page)
	m.modified = true
	if notify {
		m.listeners.Notify()
	}
	return true
}

// MovePages moves the pages at fromIndices, which need not be contiguous,
// so that they form one run in their original relative order. The run
// starts at toIndex minus the number of moved pages that sat before
// toIndex, clamped to the remaining sequence. It returns the new indices
// of the moved pages in ascending order.
func (m *Manager) MovePages(fromIndices []int, toIndex int, notify bool) []int {
	valid := m.validSorted(fromIndices)
	if len(valid) == 0 {
		return nil
	}

	moving := make([]*models.PageReference, len(valid))
	for i := len(valid) - 1; i >= 0; i-- {
		idx := valid[i]
		moving[i] = m.pages[idx]
		m.pages = slices.Delete(m.pages, idx, idx+1)
	}

	insertAt := toIndex
	for _, idx := range valid {
		if idx < toIndex {
			insertAt--
		}
	}
	insertAt = max(0, min(insertAt, len(m.pages)))

	m.pages = slices.Insert(m.pages, insertAt, moving...)
	newIndices := make([]int, len(moving))
	for i := range moving {
		newIndices[i] = insertAt + i
	}

	m.modified = true
	if notify {
		m.listeners.Notify()
	}
	return newIndices
}

// MovePageUp moves the page at index one position towards the front.
func (m *Manager) MovePageUp(index int, notify bool) bool {
	return m.MovePage(index, index-1, notify)
}

// MovePageDown moves the page at index one position towards the end.
func (m *Manager) MovePageDown(index int, notify bool) bool {
	return m.MovePage(index, index+1, notify)
}

// RotatePageRight turns the page at index 90 degrees clockwise.
func (m *Manager) RotatePageRight(index int) bool {
	return m.rotate(index, models.Rotation.RotateRight)
}

// RotatePageLeft turns the page at index 90 degrees counter-clockwise.
func (m *Manager) RotatePageLeft(index int) bool {
	return m.rotate(index, models.Rotation.RotateLeft)
}

func (m *Manager) rotate(index int, step func(models.Rotation) models.Rotation) bool {
	page, ok := m.Page(index)
	if !ok {
		m.logger.Debug("Rotate ignored, index out of range.", "index", index, "pageCount", len(m.pages))
		return false
	}
	page.SetRotation(step(page.Rotation()))
	m.modified = true
	m.listeners.Notify()
	return true
}

// InsertPage puts an existing reference back at index. It is the inverse
// of DeletePage and keeps the reference's identity. Insertion fails if
// index is outside [0, PageCount()], if ref is already in the sequence or
// if its document is not part of this workspace.
func (m *Manager) InsertPage(index int, ref *models.PageReference) bool {
	if ref == nil || index < 0 || index > len(m.pages) {
		m.logger.Debug("Insert ignored, index out of range.", "index", index, "pageCount", len(m.pages))
		return false
	}
	if slices.Contains(m.pages, ref) || !m.owns(ref.Document()) {
		m.logger.Debug("Insert ignored, stale page reference.", "pageId", ref.ID())
		return false
	}
	m.pages = slices.Insert(m.pages, index, ref)
	m.modified = true
	m.listeners.Notify()
	return true
}

// Clear closes every source document and empties the workspace.
func (m *Manager) Clear() {
	for _, e := range m.documents {
		if err := e.Doc.Close(); err != nil {
			m.logger.Warn("Failed to release source document.", "documentId", e.ID, "fileName", e.FileName, "error", err)
		}
	}
	m.documents = nil
	m.pages = nil
	m.modified = false
	m.listeners.Notify()
}

// Subscribe registers fn to be called after every notifying mutation.
// Listeners run synchronously in registration order.
func (m *Manager) Subscribe(fn func()) ListenerID {
	return m.listeners.Add(fn)
}

// Unsubscribe removes the listener registered under id.
func (m *Manager) Unsubscribe(id ListenerID) bool {
	return m.listeners.Remove(id)
}

// OnChange is Subscribe returning a function that unsubscribes.
func (m *Manager) OnChange(fn func()) (unsubscribe func()) {
	id := m.listeners.Add(fn)
	return func() { m.listeners.Remove(id) }
}

// Documents returns the loaded documents in load order.
func (m *Manager) Documents() []Entry {
	return slices.Clone(m.documents)
}

func (m *Manager) owns(doc models.SourceDocument) bool {
	return slices.ContainsFunc(m.documents, func(e Entry) bool { return e.Doc == doc })
}

func (m *Manager) valid(index int) bool {
	return index >= 0 && index < len(m.pages)
}

// validSorted filters indices to the sequence, sorts them ascending and
// drops repeats.
func (m *Manager) validSorted(indices []int) []int {
	valid := make([]int, 0, len(indices))
	for _, i := range indices {
		if m.valid(i) {
			valid = append(valid, i)
		}
	}
	slices.Sort(valid)
	return slices.Compact(valid)
}
