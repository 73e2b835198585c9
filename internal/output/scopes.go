package output

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/metriculator/internal/service/analysis"
	"github.com/panbanda/metriculator/pkg/metrics"
	"github.com/panbanda/metriculator/pkg/model"
)

// TreeView renders a scope tree as an indented outline.
type TreeView struct {
	Tree *model.Tree

	// Linkage marks declarations that have no definition. Optional.
	Linkage *metrics.Linkage
}

var kindColors = map[model.Kind]*color.Color{
	model.KindWorkspace:     color.New(color.Bold, color.FgCyan),
	model.KindFile:          color.New(color.Bold),
	model.KindNamespace:     color.New(color.FgBlue),
	model.KindCompositeType: color.New(color.FgMagenta),
	model.KindFunctionDecl:  color.New(color.FgYellow),
	model.KindFunctionDef:   color.New(color.FgGreen),
	model.KindMember:        color.New(color.Faint),
}

func (v *TreeView) label(id model.NodeID) string {
	n := v.Tree.Node(id)
	d := n.Descriptor
	var b strings.Builder
	b.WriteString(n.Name)
	if !n.Kind.IsRoot() && d.StartLine() > 0 {
		if d.EndLine() > d.StartLine() {
			fmt.Fprintf(&b, " [%d-%d]", d.StartLine(), d.EndLine())
		} else {
			fmt.Fprintf(&b, " [%d]", d.StartLine())
		}
	}
	if d.IsFriend() {
		b.WriteString(" (friend)")
	}
	if d.IsElaboratedType() {
		b.WriteString(" (incomplete)")
	}
	if v.Linkage != nil && n.Kind == model.KindFunctionDecl && !v.Linkage.Defined(id) {
		b.WriteString(" (undefined)")
	}
	return b.String()
}

func (v *TreeView) RenderText(w io.Writer, colored bool) error {
	v.Tree.Walk(v.Tree.Root(), func(id model.NodeID, depth int) bool {
		n := v.Tree.Node(id)
		kind := n.Kind.String()
		if colored {
			kind = kindColors[n.Kind].Sprint(kind)
		}
		fmt.Fprintf(w, "%s%s %s\n", strings.Repeat("  ", depth), kind, v.label(id))
		return true
	})
	return nil
}

func (v *TreeView) RenderMarkdown(w io.Writer) error {
	v.Tree.Walk(v.Tree.Root(), func(id model.NodeID, depth int) bool {
		n := v.Tree.Node(id)
		fmt.Fprintf(w, "%s- **%s** `%s`\n", strings.Repeat("  ", depth), n.Kind, v.label(id))
		return true
	})
	fmt.Fprintln(w)
	return nil
}

func (v *TreeView) RenderData() any {
	return v.Tree
}

// MetricsReport lays out an analysis report as summary, function, violation
// and linkage sections. Function rows are limited to top entries by
// cyclomatic complexity when top is positive.
func MetricsReport(r *analysis.Report, top int) *Report {
	out := &Report{Title: "Scope Metrics", Data: r}

	s := r.Summary
	dist := func(name string, d metrics.Distribution) []string {
		return []string{name,
			fmt.Sprintf("%.1f", d.Mean), fmt.Sprintf("%.0f", d.P50), fmt.Sprintf("%.0f", d.P90),
			fmt.Sprintf("%.0f", d.P95), fmt.Sprintf("%.0f", d.Max)}
	}
	out.Sections = append(out.Sections, NewTable(
		fmt.Sprintf("Summary (%d files, %d functions)", len(r.Files), s.Functions),
		[]string{"Metric", "Mean", "P50", "P90", "P95", "Max"},
		[][]string{
			dist("cyclomatic", s.Cyclomatic),
			dist("cognitive", s.Cognitive),
			dist("nesting", s.Nesting),
			dist("lsloc", s.LSLOC),
			dist("parameters", s.Parameters),
		},
		nil, s,
	))

	fns := TopFunctions(r.Functions(), top)
	rows := make([][]string, 0, len(fns))
	for _, fm := range fns {
		rows = append(rows, []string{
			fmt.Sprintf("%s:%d", filepath.Base(fm.File), fm.StartLine),
			fm.Qualified,
			fmt.Sprint(fm.Cyclomatic),
			fmt.Sprint(fm.Cognitive),
			fmt.Sprint(fm.MaxNesting),
			fmt.Sprint(fm.LSLOC),
			fmt.Sprint(fm.Parameters),
		})
	}
	out.Sections = append(out.Sections, NewTable("Functions",
		[]string{"Location", "Function", "Cyclomatic", "Cognitive", "Nesting", "LSLOC", "Params"},
		rows, nil, fns))

	if len(r.Violations) > 0 {
		rows := make([][]string, 0, len(r.Violations))
		for _, v := range r.Violations {
			rows = append(rows, []string{
				string(v.Severity),
				v.Rule,
				fmt.Sprintf("%s:%d", filepath.Base(v.File), v.Line),
				v.Scope,
				fmt.Sprintf("%d/%d", v.Value, v.Threshold),
			})
		}
		out.Sections = append(out.Sections, NewTable("Violations",
			[]string{"Severity", "Rule", "Location", "Scope", "Value"},
			rows, []string{fmt.Sprintf("%d total", len(r.Violations)), "", "", "", ""}, r.Violations))
	}

	if len(r.Undefined) > 0 {
		out.Sections = append(out.Sections, &Section{
			Title:   "Declared but not defined",
			Content: strings.Join(r.Undefined, "\n"),
			Data:    r.Undefined,
		})
	}

	if len(r.Errors) > 0 {
		lines := make([]string, len(r.Errors))
		for i, e := range r.Errors {
			lines[i] = e.Path + ": " + e.Error
		}
		out.Sections = append(out.Sections, &Section{
			Title:   "Errors",
			Content: strings.Join(lines, "\n"),
			Data:    r.Errors,
		})
	}
	return out
}

// TopFunctions sorts fns by descending cyclomatic then cognitive complexity
// and keeps the first top entries. A top of zero keeps everything.
func TopFunctions(fns []metrics.FunctionMetrics, top int) []metrics.FunctionMetrics {
	sort.SliceStable(fns, func(i, j int) bool { return less(fns[i], fns[j]) })
	if top > 0 && len(fns) > top {
		fns = fns[:top]
	}
	return fns
}

func less(a, b metrics.FunctionMetrics) bool {
	if a.Cyclomatic != b.Cyclomatic {
		return a.Cyclomatic > b.Cyclomatic
	}
	if a.Cognitive != b.Cognitive {
		return a.Cognitive > b.Cognitive
	}
	return a.Qualified < b.Qualified
}
