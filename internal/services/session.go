package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/pagecomposer/internal/commands"
	"github.com/Lllllllleong/pagecomposer/internal/history"
	"github.com/Lllllllleong/pagecomposer/internal/models"
	"github.com/Lllllllleong/pagecomposer/internal/pdfdoc"
	"github.com/Lllllllleong/pagecomposer/internal/workspace"
)

// Session is one editing session: the page workspace, its undo history
// and the merger used to save it.
type Session struct {
	Workspace *workspace.Manager
	History   *history.UndoManager
	merger    *Merger
	logger    *slog.Logger
}

// NewSession creates an empty session keeping up to maxHistory undo
// entries. A nil logger selects slog.Default.
func NewSession(maxHistory int, merger *Merger, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		Workspace: workspace.NewManager(workspace.WithLogger(logger)),
		History:   history.New(maxHistory),
		merger:    merger,
		logger:    logger,
	}
}

// Load appends the successfully loaded documents as one batch and returns
// the names of the files that failed. History from before the load is
// dropped; listeners are notified once.
func (s *Session) Load(results []pdfdoc.Result) (failed []string) {
	s.History.Clear()
	loaded := 0
	for _, r := range results {
		if r.Err != nil {
			s.logger.Warn("Skipping source that failed to load.", "fileName", r.Name, "error", r.Err)
			failed = append(failed, r.Name)
			continue
		}
		s.Workspace.AddDocument(r.Doc, r.Name, false)
		loaded++
	}
	if loaded > 0 {
		s.Workspace.NotifyChange()
	}
	s.logger.Info("Sources loaded.", "loaded", loaded, "failed", len(failed), "pageCount", s.Workspace.PageCount())
	return failed
}

// Run executes cmd through the history.
func (s *Session) Run(cmd commands.Command) commands.Event {
	ev := s.History.Execute(cmd)
	s.logger.Debug("Command executed.", "description", cmd.Description(), "applied", ev.Applied)
	return ev
}

// Undo reverts the last command if there is one.
func (s *Session) Undo() (commands.Event, bool) {
	cmd, ev, ok := s.History.Undo()
	if ok {
		s.logger.Debug("Command undone.", "description", cmd.Description(), "applied", ev.Applied)
	}
	return ev, ok
}

// Redo re-executes the last undone command if there is one.
func (s *Session) Redo() (commands.Event, bool) {
	cmd, ev, ok := s.History.Redo()
	if ok {
		s.logger.Debug("Command redone.", "description", cmd.Description(), "applied", ev.Applied)
	}
	return ev, ok
}

// Save merges the workspace and marks it saved. The caller persists the
// returned bytes.
func (s *Session) Save(ctx context.Context, meta *models.Metadata) ([]byte, error) {
	if s.Workspace.IsEmpty() {
		return nil, ErrNoPages
	}
	out, err := s.merger.MergeWorkspace(ctx, s.Workspace, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to merge workspace: %w", err)
	}
	s.Workspace.MarkSaved()
	return out, nil
}

// Close releases all documents and forgets the history.
func (s *Session) Close() {
	s.Workspace.Clear()
	s.History.Clear()
}
