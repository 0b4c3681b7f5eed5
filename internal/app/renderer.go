package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	appscreen "github.com/chmouel/lazystage/internal/app/screen"
	"github.com/chmouel/lazystage/internal/models"
	"github.com/chmouel/lazystage/internal/utils"
)

// View renders the active screen for the Bubble Tea program.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	// Wait for window size before rendering full UI
	if m.windowWidth == 0 || m.windowHeight == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	commit := m.renderCommitBox()
	status := m.renderStatusLine()

	fixed := lipgloss.Height(header) + lipgloss.Height(footer) + lipgloss.Height(commit) + lipgloss.Height(status)
	body := m.renderBody(max(m.windowHeight-fixed, 4))

	baseView := lipgloss.JoinVertical(lipgloss.Left, header, body, commit, status, footer)
	baseView = truncateToHeight(baseView, m.windowHeight)

	if m.screens.IsActive() {
		scr := m.screens.Current()
		switch scr.Type() {
		case appscreen.TypeDiff:
			if ds, ok := scr.(*appscreen.DiffScreen); ok {
				ds.Resize(m.windowWidth, m.windowHeight)
			}
			return m.overlayPopup(baseView, scr.View(), 1)
		case appscreen.TypeTextarea:
			return m.overlayPopup(baseView, scr.View(), 2)
		default:
			return m.overlayPopup(baseView, scr.View(), 3)
		}
	}

	return baseView
}

func (m *Model) renderHeader() string {
	headerStyle := lipgloss.NewStyle().
		Background(m.theme.AccentDim).
		Foreground(m.theme.TextFg).
		Bold(true).
		Width(m.windowWidth).
		Padding(0, 2).Align(lipgloss.Center)

	content := "Lazystage"
	if name := m.repoName(); name != "" && name != "." {
		content = fmt.Sprintf("%s  •  %s", content, name)
	}
	if m.branch != "" {
		branch := m.branch
		if m.config.ShowIcons {
			branch = iconWithSpace(iconBranch) + branch
		}
		content = fmt.Sprintf("%s  •  %s", content, branch)
	}
	return headerStyle.Render(content)
}

// paneStyle returns a pane style with focus indication.
func (m *Model) paneStyle(focused bool) lipgloss.Style {
	borderColor := m.theme.BorderDim
	borderStyle := lipgloss.NormalBorder()
	if focused {
		borderColor = m.theme.Accent
		borderStyle = lipgloss.RoundedBorder()
	}
	return lipgloss.NewStyle().
		Border(borderStyle).
		BorderForeground(borderColor).
		Padding(0, 1)
}

// renderBody lays the two lists side by side, or stacked when the
// terminal is too narrow for two columns of elided names.
func (m *Model) renderBody(height int) string {
	gap := 1
	width := m.windowWidth
	if width >= 2*(m.config.ElideWidth+12) {
		paneWidth := (width - gap) / 2
		left := m.renderPane(paneUnstaged, paneWidth, height)
		right := m.renderPane(paneStaged, width-gap-paneWidth, height)
		return lipgloss.JoinHorizontal(lipgloss.Top, left, strings.Repeat(" ", gap), right)
	}
	top := height / 2
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderPane(paneUnstaged, width, top),
		m.renderPane(paneStaged, width, height-top),
	)
}

func (m *Model) renderPaneTitle(p pane, count int) string {
	focused := m.focused == p
	titleStyle := lipgloss.NewStyle().Foreground(m.theme.MutedFg)
	if focused {
		titleStyle = titleStyle.Foreground(m.theme.TextFg).Bold(true)
	}
	title := p.title()
	if m.config.ShowIcons {
		icon := iconUnstaged
		if p == paneStaged {
			icon = iconStaged
		}
		title = iconWithSpace(icon) + title
	}
	countStyle := lipgloss.NewStyle().Foreground(m.theme.MutedFg)
	return titleStyle.Render(title) + " " + countStyle.Render(fmt.Sprintf("(%d)", count))
}

func (m *Model) renderPane(p pane, width, height int) string {
	style := m.paneStyle(m.focused == p)
	innerWidth := max(width-style.GetHorizontalFrameSize(), 1)
	innerHeight := max(height-style.GetVerticalFrameSize(), 1)

	list := m.entries(p)
	lines := []string{m.renderPaneTitle(p, len(list))}
	rows := innerHeight - 1

	if len(list) == 0 {
		empty := lipgloss.NewStyle().Foreground(m.theme.MutedFg).Italic(true)
		if p == paneStaged {
			lines = append(lines, empty.Render("Nothing staged"))
		} else {
			lines = append(lines, empty.Render("Working tree clean"))
		}
	} else {
		start := 0
		if cur := m.cursor[p]; rows > 0 && cur >= rows {
			start = cur - rows + 1
		}
		for i := start; i < len(list) && i-start < rows; i++ {
			lines = append(lines, m.renderEntry(list[i], i == m.cursor[p] && m.focused == p, innerWidth))
		}
	}

	return style.Width(innerWidth).Height(innerHeight).Render(strings.Join(lines, "\n"))
}

func (m *Model) codeStyle(e models.ChangeEntry) lipgloss.Style {
	switch {
	case e.Untracked():
		return lipgloss.NewStyle().Foreground(m.theme.UntrackedFg)
	case e.Staged:
		return lipgloss.NewStyle().Foreground(m.theme.StagedFg)
	default:
		return lipgloss.NewStyle().Foreground(m.theme.UnstagedFg)
	}
}

func (m *Model) renderEntry(e models.ChangeEntry, selected bool, width int) string {
	code := e.Code
	if code == "" {
		code = "  "
	}
	name := utils.ElideMiddle(e.Path, m.config.ElideWidth)
	if m.config.ShowIcons {
		name = iconWithSpace(deviconForPath(e.Path)) + name
	}

	if selected {
		rowStyle := lipgloss.NewStyle().
			Foreground(m.theme.AccentFg).
			Background(m.theme.Accent).
			Bold(true).
			Width(width)
		return rowStyle.Render(code + " " + name)
	}
	nameStyle := lipgloss.NewStyle().Foreground(m.theme.TextFg)
	return m.codeStyle(e).Render(code) + " " + nameStyle.Render(name)
}

func (m *Model) renderCommitBox() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.BorderDim).
		Padding(0, 1)
	innerWidth := max(m.windowWidth-style.GetHorizontalFrameSize(), 1)

	label := lipgloss.NewStyle().Foreground(m.theme.Accent).Bold(true).Render("Commit message")
	msg := strings.TrimSpace(m.commitMessage)
	var body string
	if msg == "" {
		body = lipgloss.NewStyle().Foreground(m.theme.MutedFg).Italic(true).Render("press c to write one")
	} else {
		first, _, _ := strings.Cut(msg, "\n")
		body = lipgloss.NewStyle().Foreground(m.theme.TextFg).Render(ansi.Truncate(first, innerWidth, "…"))
	}
	return style.Width(innerWidth).Render(label + "\n" + body)
}

func (m *Model) renderStatusLine() string {
	style := lipgloss.NewStyle().Foreground(m.theme.MutedFg).Padding(0, 1).Width(m.windowWidth)
	if m.push != nil {
		return style.Foreground(m.theme.WarnFg).Render("Pushing...")
	}
	return style.Render(ansi.Truncate(m.statusLine, max(m.windowWidth-2, 0), "…"))
}

func (m *Model) renderKeyHint(key, label string) string {
	keyStyle := lipgloss.NewStyle().
		Foreground(m.theme.AccentFg).
		Background(m.theme.Accent).
		Bold(true).
		Padding(0, 1)
	labelStyle := lipgloss.NewStyle().Foreground(m.theme.Accent)
	return fmt.Sprintf("%s %s", keyStyle.Render(key), labelStyle.Render(label))
}

func (m *Model) renderFooter() string {
	footerStyle := lipgloss.NewStyle().
		Foreground(m.theme.TextFg).
		Background(m.theme.BorderDim).
		Padding(0, 1).
		Width(m.windowWidth)

	toggle := "Stage"
	bulk := m.renderKeyHint("a", "Stage All")
	if m.focused == paneStaged {
		toggle = "Unstage"
		bulk = m.renderKeyHint("u", "Unstage All")
	}
	hints := []string{
		m.renderKeyHint("Space", toggle),
		bulk,
		m.renderKeyHint("d", "Diff"),
	}
	if m.focused == paneUnstaged {
		hints = append(hints, m.renderKeyHint("x", "Restore"))
	}
	hints = append(hints,
		m.renderKeyHint("c", "Message"),
		m.renderKeyHint("P", "Push"),
		m.renderKeyHint("r", "Refresh"),
		m.renderKeyHint("Tab", "Switch Pane"),
		m.renderKeyHint("q", "Quit"),
	)
	return footerStyle.Render(ansi.Truncate(strings.Join(hints, "  "), max(m.windowWidth-2, 0), ""))
}

// overlayPopup overlays a popup on top of the base view, preserving
// the portions of the base that fall outside the popup bounds so that
// underlying box borders remain visible.
func (m *Model) overlayPopup(base, popup string, marginTop int) string {
	if base == "" || popup == "" {
		return base
	}

	baseLines := strings.Split(base, "\n")
	popupLines := strings.Split(popup, "\n")

	baseWidth := lipgloss.Width(baseLines[0])
	popupWidth := lipgloss.Width(popupLines[0])

	leftPad := max((baseWidth-popupWidth)/2, 0)

	for i, line := range popupLines {
		row := marginTop + i
		if row >= len(baseLines) {
			break
		}

		leftPart := ansi.Truncate(baseLines[row], leftPad, "")
		if w := lipgloss.Width(leftPart); w < leftPad {
			leftPart += strings.Repeat(" ", leftPad-w)
		}
		rightPart := ansi.TruncateLeft(baseLines[row], leftPad+popupWidth, "")

		newLine := leftPart + line + rightPart
		if w := lipgloss.Width(newLine); w < baseWidth {
			newLine += strings.Repeat(" ", baseWidth-w)
		}
		baseLines[row] = newLine
	}

	return strings.Join(baseLines, "\n")
}

// truncateToHeight ensures output doesn't exceed maxLines.
func truncateToHeight(s string, maxLines int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return strings.Join(lines, "\n")
}
