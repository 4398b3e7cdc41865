// Package termui renders playback state for terminals.
package termui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/AaronLay10/chaintour/internal/controls"
	"github.com/AaronLay10/chaintour/internal/diagram"
	"github.com/AaronLay10/chaintour/internal/playback"
)

var (
	Brand  = color.New(color.FgHiCyan, color.Bold)
	Subtle = color.New(color.FgHiBlack)
	Active = color.New(color.FgHiBlue, color.Bold)
	Lit    = color.New(color.FgMagenta)
	Good   = color.New(color.FgGreen)
	Bad    = color.New(color.FgRed)
)

// Banner prints the tour title.
func Banner(w io.Writer, title, subtitle string) {
	fmt.Fprintf(w, "%s %s\n\n", Brand.Sprint(title), Subtle.Sprint(subtitle))
}

// Table prints a simple aligned table.
func Table(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	headerLine := "  "
	sepLine := "  "
	for i, h := range headers {
		headerLine += fmt.Sprintf("%-*s  ", widths[i], h)
		sepLine += strings.Repeat("─", widths[i]) + "  "
	}
	Subtle.Fprintln(w, strings.TrimRight(headerLine, " "))
	Subtle.Fprintln(w, strings.TrimRight(sepLine, " "))

	for _, row := range rows {
		line := "  "
		for i, cell := range row {
			if i < len(widths) {
				line += fmt.Sprintf("%-*s  ", widths[i], cell)
			}
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// StatusIcon returns a check or a cross.
func StatusIcon(ok bool) string {
	if ok {
		return Good.Sprint("✓")
	}
	return Bad.Sprint("✗")
}

// Renderer prints one block per step change. It ignores repeated states so
// it can be fed every update from Controls.Watch.
type Renderer struct {
	w     io.Writer
	graph *diagram.Graph
	last  string
}

// NewRenderer returns a renderer writing to w.
func NewRenderer(w io.Writer, g *diagram.Graph) *Renderer {
	return &Renderer{w: w, graph: g}
}

// Render prints st if it differs from the last rendered state.
func (r *Renderer) Render(st controls.State) {
	p := st.Playback
	key := fmt.Sprintf("%s/%s/%d", p.RunID, p.Status, p.StepIndex)
	if key == r.last {
		return
	}
	r.last = key

	switch p.Status {
	case playback.StatusIdle:
		Subtle.Fprintln(r.w, "idle")
		return
	case playback.StatusPaused:
		Subtle.Fprintf(r.w, "paused at step %d/%d\n", p.StepIndex+1, p.StepCount)
		return
	case playback.StatusCompleted:
		fmt.Fprintf(r.w, "%s %s\n", StatusIcon(true), Good.Sprintf("completed %s", p.ScenarioID))
		return
	}

	fmt.Fprintf(r.w, "%s %s", Subtle.Sprintf("[%d/%d]", p.StepIndex+1, p.StepCount), Active.Sprint(r.label(p.ActiveNode)))
	if len(p.Highlight) > 0 {
		names := make([]string, len(p.Highlight))
		for i, id := range p.Highlight {
			names[i] = r.label(id)
		}
		fmt.Fprintf(r.w, " %s", Lit.Sprintf("+ %s", strings.Join(names, ", ")))
	}
	fmt.Fprintln(r.w)
	if p.Description != "" {
		fmt.Fprintf(r.w, "      %s\n", p.Description)
	}
	for _, id := range p.ActiveEdges {
		fmt.Fprintf(r.w, "      %s\n", Subtle.Sprint(id))
	}
}

func (r *Renderer) label(id string) string {
	if n, ok := r.graph.Node(id); ok && n.Label != "" {
		return n.Label
	}
	return id
}
