package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/ivlev/procdoc/internal/moments"
	"github.com/ivlev/procdoc/internal/session"
)

var (
	colorCyan    = lipgloss.Color("#00FFFF")
	colorYellow  = lipgloss.Color("#FFFF00")
	colorGreen   = lipgloss.Color("#00FF00")
	colorGray    = lipgloss.Color("#666666")
	colorDimGray = lipgloss.Color("#444444")
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	idStyle     = lipgloss.NewStyle().Width(4).Align(lipgloss.Right).MarginRight(1)
	timeStyle   = lipgloss.NewStyle().Width(7).Foreground(colorGray)
	kindStyle   = lipgloss.NewStyle().Width(11).Foreground(colorYellow)
	pathStyle   = lipgloss.NewStyle().Foreground(colorCyan)
	stateStyle  = lipgloss.NewStyle().Width(10).Foreground(colorGreen)
	dimStyle    = lipgloss.NewStyle().Foreground(colorGray)
	deletedRow  = lipgloss.NewStyle().Foreground(colorDimGray).Strikethrough(true)
)

// renderMoments prints one line per moment. Moments marked for deletion are
// struck through.
func renderMoments(w io.Writer, sess *session.Session, all bool) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Session %s (%s)", sess.ID, sess.State)))

	deleted := make(map[int]bool)
	for _, id := range sess.Moments.Deleted() {
		deleted[id] = true
	}

	list := sess.Moments.Live()
	if all {
		list = sess.Moments.All()
	}
	if len(list) == 0 {
		fmt.Fprintln(w, dimStyle.Render("  no moments"))
		return
	}

	for _, m := range moments.Sorted(list) {
		line := idStyle.Render(strconv.Itoa(m.ID)) +
			timeStyle.Render(m.Time.String()) +
			kindStyle.Render(string(m.Kind)) +
			m.Description
		if p := m.DisplayPath(); p != "" {
			line += " " + pathStyle.Render("["+p+"]")
		}
		if deleted[m.ID] {
			line = deletedRow.Render(line)
		}
		fmt.Fprintln(w, line)
	}

	if n := len(deleted); n > 0 {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("  %d marked for deletion, applied on commit", n)))
	}
}

func renderSessions(w io.Writer, list []session.Info) {
	if len(list) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no sessions"))
		return
	}
	fmt.Fprintln(w, headerStyle.Render("Sessions"))
	for _, info := range list {
		fmt.Fprintf(w, "%s  %s %s %s\n",
			info.ID,
			stateStyle.Render(string(info.State)),
			dimStyle.Render(fmt.Sprintf("%3d moments", info.Moments)),
			info.VideoPath)
	}
}
