// Package models defines the data objects shared across lazystage packages.
package models

import "strings"

// renameArrow separates source and destination of a rename or copy in
// git status output.
const renameArrow = " -> "

// ChangeEntry represents one file path reported by git status.
type ChangeEntry struct {
	Path   string
	Code   string // XY porcelain code as printed by git (e.g. " M", "??", "A ")
	Staged bool
}

// Untracked reports whether git does not track the path yet.
func (e ChangeEntry) Untracked() bool {
	return e.Code == "??"
}

// GitPath is the path git commands take for the entry, still quoted as git
// printed it. For a rename or copy that is the destination; any other path
// is used whole, even when it contains the arrow.
func (e ChangeEntry) GitPath() string {
	if !strings.ContainsAny(e.Code, "RC") {
		return e.Path
	}
	if idx := renameSeparator(e.Path); idx >= 0 {
		return e.Path[idx+len(renameArrow):]
	}
	return e.Path
}

// renameSeparator finds the arrow outside of a quoted segment.
func renameSeparator(path string) int {
	inQuotes := false
	for i := 0; i < len(path); i++ {
		switch path[i] {
		case '\\':
			if inQuotes {
				i++
			}
		case '"':
			inQuotes = !inQuotes
		case ' ':
			if !inQuotes && strings.HasPrefix(path[i:], renameArrow) {
				return i
			}
		}
	}
	return -1
}

// Flipped returns a copy of the entry moved to the other bucket, with the
// code git status reports once git add or git reset ran for the path.
func (e ChangeEntry) Flipped() ChangeEntry {
	e.Staged = !e.Staged
	if len(e.Code) != 2 {
		return e
	}
	index, worktree := e.Code[0], e.Code[1]
	switch {
	case e.Staged && e.Code == "??":
		e.Code = "A "
	case e.Staged:
		e.Code = string(worktree) + " "
	case index == 'A' || index == 'R' || index == 'C':
		// git reset leaves a path the index just learnt about untracked.
		e.Path = e.GitPath()
		e.Code = "??"
	case worktree != ' ':
		e.Code = " " + string(worktree)
	default:
		e.Code = " " + string(index)
	}
	return e
}

// StatusSnapshot is the result of one parse of git status --porcelain.
// Both slices keep the order git printed the entries in.
type StatusSnapshot struct {
	Unstaged []ChangeEntry
	Staged   []ChangeEntry
}

// Empty reports whether neither bucket has entries.
func (s StatusSnapshot) Empty() bool {
	return len(s.Unstaged) == 0 && len(s.Staged) == 0
}

// Paths returns the paths of the given entries, preserving order.
func Paths(entries []ChangeEntry) []string {
	if len(entries) == 0 {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}
