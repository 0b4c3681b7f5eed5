// Package stage keeps the unstaged and staged buckets of a repository in
// sync with user actions and with git.
package stage

import (
	"strings"

	"github.com/chmouel/lazystage/internal/models"
)

// pathOffset is where the path starts in a porcelain v1 line: "XY path".
const pathOffset = 3

// Classify turns one porcelain status line into an entry. Lines starting
// with a space or "??" are unstaged, everything else is staged.
func Classify(line string) (models.ChangeEntry, bool) {
	if len(line) <= pathOffset {
		return models.ChangeEntry{}, false
	}
	return models.ChangeEntry{
		Path:   line[pathOffset:],
		Code:   line[:2],
		Staged: !(strings.HasPrefix(line, " ") || strings.HasPrefix(line, "??")),
	}, true
}

// Parse buckets porcelain status lines, keeping git's order.
func Parse(lines []string) models.StatusSnapshot {
	var snap models.StatusSnapshot
	for _, line := range lines {
		entry, ok := Classify(line)
		if !ok {
			continue
		}
		if entry.Staged {
			snap.Staged = append(snap.Staged, entry)
		} else {
			snap.Unstaged = append(snap.Unstaged, entry)
		}
	}
	return snap
}
