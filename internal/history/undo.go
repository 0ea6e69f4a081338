// Package history sequences command execution, undo and redo.
package history

import (
	"github.com/Lllllllleong/pagecomposer/internal/commands"
	"github.com/Lllllllleong/pagecomposer/internal/observer"
)

// DefaultMaxSize is the history bound used when none is configured.
const DefaultMaxSize = 50

// UndoManager keeps two bounded stacks of commands. Executing a new
// command always discards the redo stack.
type UndoManager struct {
	undoStack []commands.Command
	redoStack []commands.Command
	maxSize   int
	listeners observer.Registry
}

// New returns an UndoManager that keeps at most maxSize undo entries.
// A non-positive maxSize selects DefaultMaxSize.
func New(maxSize int) *UndoManager {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &UndoManager{maxSize: maxSize}
}

// Execute runs cmd and records it, evicting the oldest entry when the
// history is full.
func (u *UndoManager) Execute(cmd commands.Command) commands.Event {
	ev := cmd.Execute()
	u.undoStack = append(u.undoStack, cmd)
	clear(u.redoStack)
	u.redoStack = u.redoStack[:0]
	if len(u.undoStack) > u.maxSize {
		u.undoStack[0] = nil
		u.undoStack = u.undoStack[1:]
	}
	u.listeners.Notify()
	return ev
}

// Undo reverts the most recent command. ok is false if there was nothing
// to undo.
func (u *UndoManager) Undo() (cmd commands.Command, ev commands.Event, ok bool) {
	cmd, ok = pop(&u.undoStack)
	if !ok {
		return nil, commands.Event{}, false
	}
	ev = cmd.Undo()
	u.redoStack = append(u.redoStack, cmd)
	u.listeners.Notify()
	return cmd, ev, true
}

// Redo re-executes the most recently undone command.
func (u *UndoManager) Redo() (cmd commands.Command, ev commands.Event, ok bool) {
	cmd, ok = pop(&u.redoStack)
	if !ok {
		return nil, commands.Event{}, false
	}
	ev = cmd.Execute()
	u.undoStack = append(u.undoStack, cmd)
	u.listeners.Notify()
	return cmd, ev, true
}

func (u *UndoManager) CanUndo() bool { return len(u.undoStack) > 0 }
func (u *UndoManager) CanRedo() bool { return len(u.redoStack) > 0 }

// UndoLen and RedoLen report the depth of each stack.
func (u *UndoManager) UndoLen() int { return len(u.undoStack) }
func (u *UndoManager) RedoLen() int { return len(u.redoStack) }

// UndoDescription describes the command Undo would revert.
func (u *UndoManager) UndoDescription() (string, bool) {
	return top(u.undoStack)
}

// RedoDescription describes the command Redo would re-execute.
func (u *UndoManager) RedoDescription() (string, bool) {
	return top(u.redoStack)
}

// Clear drops all history. Call it when a new set of documents is loaded
// or the workspace is closed.
func (u *UndoManager) Clear() {
	u.undoStack = nil
	u.redoStack = nil
	u.listeners.Notify()
}

// OnChange registers fn to run whenever the stacks change and returns a
// function that removes it.
func (u *UndoManager) OnChange(fn func()) (unsubscribe func()) {
	id := u.listeners.Add(fn)
	return func() { u.listeners.Remove(id) }
}

func pop(stack *[]commands.Command) (commands.Command, bool) {
	s := *stack
	if len(s) == 0 {
		return nil, false
	}
	cmd := s[len(s)-1]
	s[len(s)-1] = nil
	*stack = s[:len(s)-1]
	return cmd, true
}

func top(stack []commands.Command) (string, bool) {
	if len(stack) == 0 {
		return "", false
	}
	return stack[len(stack)-1].Description(), true
}
