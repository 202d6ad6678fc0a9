package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/joshharrison/critpath/internal/cpm"
	"github.com/joshharrison/critpath/internal/graph"
	"github.com/joshharrison/critpath/internal/ui"
)

// PathSeparator joins activity ids in a printed critical path.
const PathSeparator = " -> "

// Reporter renders a finished schedule. It must only be built from a
// successful analysis.
type Reporter struct {
	Name   string
	Graph  *graph.Graph
	Result *cpm.Result
}

// New creates a new Reporter.
func New(name string, g *graph.Graph, result *cpm.Result) *Reporter {
	return &Reporter{Name: name, Graph: g, Result: result}
}

// CriticalPath returns the critical activities joined in topological order.
func (r *Reporter) CriticalPath() string {
	return strings.Join(r.Result.CriticalPath, PathSeparator)
}

// PrintTable writes the schedule table in topological order, followed by
// the project duration and the critical path.
func (r *Reporter) PrintTable(w io.Writer) {
	idWidth := len("Activity")
	for _, id := range r.Result.Order {
		if len(id) > idWidth {
			idWidth = len(id)
		}
	}

	rule := ui.Cyan(strings.Repeat("─", idWidth+62))
	header := fmt.Sprintf("%-*s  %8s  %6s  %6s  %6s  %6s  %6s  %8s",
		idWidth, "Activity", "Duration", "ES", "EF", "LS", "LF", "Slack", "Critical")

	fmt.Fprintf(w, "📋 %s %s\n", ui.BoldCyan("Schedule"), ui.Dim(r.Name))
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, ui.Bold(header))
	fmt.Fprintln(w, rule)

	for _, id := range r.Result.Order {
		s := r.Result.Schedule(id)
		idCell := fmt.Sprintf("%-*s", idWidth, id)
		if s.Critical {
			idCell = ui.BoldMagenta(idCell)
		}
		fmt.Fprintf(w, "%s  %8d  %6d  %6d  %6d  %6d  %s  %s %s\n",
			idCell, s.Duration, s.ES, s.EF, s.LS, s.LF,
			ui.Slack(fmt.Sprintf("%6d", s.Slack), s.Slack),
			ui.CriticalMark(s.Critical),
			ui.YesNo(s.Critical))
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Duration:  %s\n", ui.Bold(r.Result.ProjectDuration))
	r.PrintCriticalPath(w)
}

// PrintCriticalPath writes the critical sequence on one line.
func (r *Reporter) PrintCriticalPath(w io.Writer) {
	fmt.Fprintf(w, "⚡ Critical path: %s (%d activities)\n",
		ui.BoldYellow(r.CriticalPath()), len(r.Result.CriticalPath))
}

// JSON returns machine-readable schedule output.
func (r *Reporter) JSON() ([]byte, error) {
	type output struct {
		Project         string          `json:"project"`
		ProjectDuration int             `json:"project_duration"`
		CriticalPath    []string        `json:"critical_path"`
		Order           []string        `json:"order"`
		Activities      []*cpm.Schedule `json:"activities"`
		Waves           []cpm.Wave      `json:"waves"`
	}

	o := output{
		Project:         r.Name,
		ProjectDuration: r.Result.ProjectDuration,
		CriticalPath:    r.Result.CriticalPath,
		Order:           r.Result.Order,
		Waves:           r.Result.Waves,
	}
	if o.CriticalPath == nil {
		o.CriticalPath = []string{}
	}
	for _, id := range r.Result.Order {
		o.Activities = append(o.Activities, r.Result.Schedule(id))
	}
	if o.Activities == nil {
		o.Activities = []*cpm.Schedule{}
	}

	return json.MarshalIndent(o, "", "  ")
}

// PrintASCII writes the dependency graph grouped by wave, with outgoing
// edges under each activity.
func (r *Reporter) PrintASCII(w io.Writer) {
	fmt.Fprintf(w, "🔗 %s %s\n", ui.BoldCyan("Activity Dependency Graph"), ui.Dim(r.Name))
	fmt.Fprintln(w, ui.Cyan("═══════════════════════════"))
	fmt.Fprintln(w)

	for _, wave := range r.Result.Waves {
		fmt.Fprintf(w, "%s Wave %d (t=%d) %s\n", ui.Cyan("──"), wave.Index+1, wave.Start, ui.Cyan("──────────────────────"))
		for _, id := range wave.ActivityIDs {
			s := r.Result.Schedule(id)
			fmt.Fprintf(w, "  %s [%s] %s\n", ui.CriticalMark(s.Critical), ui.BoldMagenta(id),
				ui.Dim(fmt.Sprintf("%d units, slack %d", s.Duration, s.Slack)))
			for _, succ := range r.Graph.Activity(id).Successors {
				fmt.Fprintf(w, "      %s %s\n", ui.Dim("└──→"), ui.Magenta(succ))
			}
		}
		fmt.Fprintln(w)
	}
}

// PrintDOT writes the graph in Graphviz DOT format with the critical path
// highlighted.
func (r *Reporter) PrintDOT(w io.Writer) {
	fmt.Fprintln(w, "digraph critpath {")
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintln(w, "  node [shape=box, style=rounded];")
	fmt.Fprintln(w)

	for _, id := range r.Result.Order {
		s := r.Result.Schedule(id)
		label := fmt.Sprintf("%s\\nES %d  EF %d\\nLS %d  LF %d", id, s.ES, s.EF, s.LS, s.LF)
		attrs := fmt.Sprintf(`label="%s"`, label)
		if s.Critical {
			attrs += `, style="rounded,bold", color=red`
		}
		fmt.Fprintf(w, "  %q [%s];\n", id, attrs)
	}

	fmt.Fprintln(w)

	for _, from := range r.Result.Order {
		for _, to := range r.Graph.Activity(from).Successors {
			style := ""
			if r.Result.Schedule(from).Critical && r.Result.Schedule(to).Critical {
				style = " [color=red, penwidth=2]"
			}
			fmt.Fprintf(w, "  %q -> %q%s;\n", from, to, style)
		}
	}

	fmt.Fprintln(w, "}")
}
