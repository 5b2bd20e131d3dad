package sync

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/charmbracelet/lipgloss"

	"github.com/bolasblack/taskstodo/internal/task"
	"github.com/bolasblack/taskstodo/internal/util"
)

var reportTmpl = template.Must(template.New("report").Parse(
	`{{ .Summary }}
{{ range .Sections }}
{{ .Header }}
{{ range .Lines }}  {{ . }}
{{ else }}  (none)
{{ end }}{{ end }}`))

type reportSection struct {
	Header string
	Lines  []string
}

type reportData struct {
	Summary  string
	Sections []reportSection
}

// RenderReport writes a one-line summary of res to w. In verbose mode the
// fetched sets and every add and delete per side follow.
// Uses lipgloss for TTY-aware colored output (auto-strips ANSI when not a TTY).
func RenderReport(w io.Writer, res *Result, verbose bool) {
	if res == nil {
		return
	}

	renderer := lipgloss.NewRenderer(w)
	bold := renderer.NewStyle().Bold(true)
	green := renderer.NewStyle().Foreground(lipgloss.Color("2"))
	red := renderer.NewStyle().Foreground(lipgloss.Color("1"))

	data := reportData{Summary: summaryLine(res)}
	if verbose {
		p := res.Plan
		data.Sections = []reportSection{
			{bold.Render("Remote tasks:"), taskLines(res.Remote)},
			{bold.Render("Local tasks:"), taskLines(res.Local)},
			{green.Render("Local tasks added:"), taskLines(p.LocalAdd)},
			{green.Render("Remote tasks added:"), taskLines(p.RemoteAdd)},
			{red.Render("Local tasks deleted:"), taskLines(p.LocalDelete)},
			{red.Render("Remote tasks deleted:"), taskLines(p.RemoteDelete)},
		}
	}

	var buf strings.Builder
	_ = reportTmpl.Execute(&buf, data)
	_, _ = io.WriteString(w, buf.String())
}

func summaryLine(res *Result) string {
	if res.Empty() {
		return fmt.Sprintf("%s %s is already in sync", util.MarkDone, res.List)
	}
	p := res.Plan
	verb := "Synced"
	if res.DryRun {
		verb = "Would sync"
	}
	return fmt.Sprintf("%s %s %s: local +%d -%d, remote +%d -%d", util.MarkDone, verb, res.List,
		len(p.LocalAdd), len(p.LocalDelete), len(p.RemoteAdd), len(p.RemoteDelete))
}

func taskLines(tasks []task.Task) []string {
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		line := "- " + t.Title
		if t.HasNote() {
			line += "\n    " + strings.ReplaceAll(t.Note, "\n", "\n    ")
		}
		lines = append(lines, line)
	}
	return lines
}
