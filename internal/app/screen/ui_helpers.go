package screen

import (
	"strings"

	"github.com/chmouel/lazystage/internal/utils"
)

// FileIconFunc returns the icon for a file name, or "" when none applies.
type FileIconFunc func(name string) string

var fileIcon FileIconFunc = func(string) string { return "" }

// SetFileIconFunc installs the file icon lookup used in screen titles.
func SetFileIconFunc(fn FileIconFunc) {
	if fn == nil {
		fn = func(string) string { return "" }
	}
	fileIcon = fn
}

func iconWithSpace(icon string) string {
	if icon == "" {
		return ""
	}
	return icon + " "
}

// fileLabel renders a path for a title: optional icon, middle elided to width.
func fileLabel(path string, width int, showIcons bool) string {
	label := utils.ElideMiddle(path, width)
	if !showIcons {
		return label
	}
	return iconWithSpace(fileIcon(path)) + label
}

func clampInt(value, minValue, maxValue int) int {
	if value < minValue {
		return minValue
	}
	if value > maxValue {
		return maxValue
	}
	return value
}

// lastLines keeps the final maxLines lines of s. Git puts the useful part
// of an error at the end.
func lastLines(s string, maxLines int) string {
	lines := strings.Split(s, "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.Join(lines, "\n")
}
