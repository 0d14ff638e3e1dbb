package editor

import (
	"context"
	"sort"
	"strings"
)

// Command is an editor action reachable from the keyboard
type Command string

const (
	CmdNone       Command = ""
	CmdUndo       Command = "undo"
	CmdRedo       Command = "redo"
	CmdDuplicate  Command = "duplicate-selected"
	CmdDelete     Command = "delete-selected"
	CmdSave       Command = "save"
	CmdToggleView Command = "toggle-view"
	CmdCommitEdit Command = "commit-edit"
)

// Keymap maps normalized chords ("mod+shift+z") to commands
type Keymap map[string]Command

// DefaultKeymap binds the conventional shortcuts. "mod" is ctrl or cmd.
func DefaultKeymap() Keymap {
	return Keymap{
		"mod+z":       CmdUndo,
		"mod+shift+z": CmdRedo,
		"mod+y":       CmdRedo,
		"mod+d":       CmdDuplicate,
		"delete":      CmdDelete,
		"backspace":   CmdDelete,
		"mod+s":       CmdSave,
		"mod+e":       CmdToggleView,
		"mod+enter":   CmdCommitEdit,
	}
}

var modifierAliases = map[string]string{
	"ctrl":    "mod",
	"control": "mod",
	"cmd":     "mod",
	"command": "mod",
	"meta":    "mod",
	"mod":     "mod",
	"shift":   "shift",
	"alt":     "alt",
	"option":  "alt",
}

// NormalizeChord lowercases a chord, maps ctrl/cmd/meta to "mod" and orders
// modifiers alphabetically before the key: "Shift+Ctrl+Z" → "mod+shift+z".
func NormalizeChord(chord string) string {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(chord)), "+")
	var mods []string
	key := ""
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if m, ok := modifierAliases[p]; ok {
			mods = append(mods, m)
			continue
		}
		key = p
	}
	sort.Strings(mods)
	mods = dedupe(mods)
	if key == "" {
		return strings.Join(mods, "+")
	}
	return strings.Join(append(mods, key), "+")
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i > 0 && sorted[i-1] == s {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Resolve returns the command bound to chord
func (k Keymap) Resolve(chord string) Command {
	return k[NormalizeChord(chord)]
}

// HandleKey runs the command bound to chord. While an inline edit is open,
// delete and backspace belong to the text and are not dispatched, and
// mod+enter commits the edit. The
// returned error is the save collaborator's.
func (s *Session) HandleKey(ctx context.Context, chord string) (Command, error) {
	if s.closed {
		return CmdNone, nil
	}
	cmd := s.keymap.Resolve(chord)
	switch cmd {
	case CmdUndo:
		s.Undo()
	case CmdRedo:
		s.Redo()
	case CmdDuplicate:
		s.DuplicateSelected()
	case CmdDelete:
		if s.inline != nil {
			return CmdNone, nil
		}
		s.DeleteSelected()
	case CmdSave:
		return cmd, s.Save(ctx)
	case CmdToggleView:
		s.ToggleMode()
	case CmdCommitEdit:
		if s.inline == nil {
			return CmdNone, nil
		}
		s.inline.Key(KeyConfirm, false)
	}
	return cmd, nil
}
