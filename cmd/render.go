package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/andishehs/MetaGen/core"
)

type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	speaker lipgloss.Style
	round   lipgloss.Style
	content lipgloss.Style
	ok      lipgloss.Style
	failed  lipgloss.Style
	faint   lipgloss.Style
	bot     lipgloss.Style
}

// newStyles binds styles to w so colors are dropped when w is not a terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:   r.NewStyle().Bold(true),
		label:   r.NewStyle().Foreground(lipgloss.Color("241")),
		speaker: r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		round:   r.NewStyle().Foreground(lipgloss.Color("244")),
		content: r.NewStyle().Foreground(lipgloss.Color("252")).PaddingLeft(2),
		ok:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		failed:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		faint:   r.NewStyle().Faint(true),
		bot:     r.NewStyle().Foreground(lipgloss.Color("213")),
	}
}

func (s styles) entry(e core.TranscriptEntry) string {
	head := s.round.Render(fmt.Sprintf("[%d]", e.Round)) + " " + s.speaker.Render(e.Speaker)
	return head + "\n" + s.content.Render(e.Content)
}

func (s styles) status(out core.Outcome) string {
	line := fmt.Sprintf("%s after %d round(s) in %s", out.Status, out.Rounds, out.Duration().Round(time.Millisecond))
	if !out.Succeeded() {
		line = s.failed.Render(line)
		if out.FailureReason != "" {
			line += "\n" + s.label.Render("reason: ") + out.FailureReason
		}
		return line
	}
	return s.ok.Render(line)
}

func (s styles) orchestra(o *core.Orchestra) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", s.label.Render("Details for Orchestra:"), s.title.Render(o.Name))
	fmt.Fprintf(&b, "%s %s\n", s.label.Render("Description:"), o.Description)
	fmt.Fprintf(&b, "%s %s\n", s.label.Render("Date:"), o.Date)
	fmt.Fprintf(&b, "%s\n%s", s.label.Render("Additional Data:"), indentJSON(o.Definition))
	return b.String()
}

func indentJSON(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(out)
}
