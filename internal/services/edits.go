package services

import (
	"errors"
	"fmt"

	"github.com/Lllllllleong/pagecomposer/internal/commands"
	"github.com/Lllllllleong/pagecomposer/internal/models"
)

// ErrInvalidEdit is returned for an edit with an unknown op.
var ErrInvalidEdit = errors.New("invalid edit")

// Edit operations understood by Apply.
const (
	OpDelete      = "delete"
	OpDeleteMany  = "delete-many"
	OpMove        = "move"
	OpMoveMany    = "move-many"
	OpMoveUp      = "move-up"
	OpMoveDown    = "move-down"
	OpRotateLeft  = "rotate-left"
	OpRotateRight = "rotate-right"
	OpUndo        = "undo"
	OpRedo        = "redo"
)

// Apply replays edits against the session in order and returns the event
// of each one. Edits that have nothing to act on, such as moving the
// first page up or undoing with an empty history, are skipped and yield
// an event with Applied unset. Every edit is validated before any is run.
func (s *Session) Apply(edits []models.Edit) ([]commands.Event, error) {
	for i, e := range edits {
		if !knownOp(e.Op) {
			return nil, fmt.Errorf("edit %d: %w: unknown op %q", i, ErrInvalidEdit, e.Op)
		}
	}

	events := make([]commands.Event, 0, len(edits))
	for _, e := range edits {
		events = append(events, s.apply(e))
	}
	return events, nil
}

func (s *Session) apply(e models.Edit) commands.Event {
	ws := s.Workspace
	switch e.Op {
	case OpDelete:
		return s.Run(commands.NewDeletePage(ws, e.Index))
	case OpDeleteMany:
		return s.Run(commands.NewDeletePages(ws, e.Indices))
	case OpMove:
		return s.Run(commands.NewMovePage(ws, e.Index, e.To))
	case OpMoveMany:
		return s.Run(commands.NewMovePages(ws, e.Indices, e.To))
	case OpMoveUp:
		if e.Index-1 < 0 {
			return commands.Event{Kind: commands.PageMoved}
		}
		return s.Run(commands.NewMovePage(ws, e.Index, e.Index-1))
	case OpMoveDown:
		if e.Index+1 >= ws.PageCount() {
			return commands.Event{Kind: commands.PageMoved}
		}
		return s.Run(commands.NewMovePage(ws, e.Index, e.Index+1))
	case OpRotateLeft:
		return s.Run(commands.NewRotatePage(ws, e.Index, commands.Left))
	case OpRotateRight:
		return s.Run(commands.NewRotatePage(ws, e.Index, commands.Right))
	case OpUndo:
		ev, _ := s.Undo()
		return ev
	case OpRedo:
		ev, _ := s.Redo()
		return ev
	}
	return commands.Event{}
}

func knownOp(op string) bool {
	switch op {
	case OpDelete, OpDeleteMany, OpMove, OpMoveMany, OpMoveUp, OpMoveDown,
		OpRotateLeft, OpRotateRight, OpUndo, OpRedo:
		return true
	}
	return false
}
