package utils

import "github.com/mattn/go-runewidth"

const ellipsis = "..."

// ElideMiddle shortens s to at most width terminal cells by replacing the
// middle with "...". The end of the name gets the odd cell so the file
// extension stays visible.
func ElideMiddle(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= len(ellipsis) {
		return runewidth.Truncate(s, width, "")
	}

	room := width - len(ellipsis)
	headWidth := room / 2
	tailWidth := room - headWidth

	head := runewidth.Truncate(s, headWidth, "")
	tail := takeTail(s, tailWidth)
	return head + ellipsis + tail
}

// takeTail returns the longest suffix of s that fits in width cells.
func takeTail(s string, width int) string {
	runes := []rune(s)
	used := 0
	i := len(runes)
	for i > 0 {
		w := runewidth.RuneWidth(runes[i-1])
		if used+w > width {
			break
		}
		used += w
		i--
	}
	return string(runes[i:])
}
