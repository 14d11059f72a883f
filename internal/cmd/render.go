package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/tracetree/tracetree/internal/proto"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderTree renders the statistics and the per-depth degrees of a tree.
func renderTree(s styles, tree proto.SessionTree) string {
	lines := []string{
		s.Title.Render(tree.Session),
		s.field("  Messages", tree.MessageCount),
		s.field("  Nodes", tree.Stats.Nodes) + "  " +
			s.field("Leaves", tree.Stats.Leaves) + "  " +
			s.field("Depth", tree.Stats.Depth),
		s.field("  Max fan-out", tree.Stats.MaxFanOut) + "  " +
			s.field("Max breadth", tree.Stats.MaxBreadth),
	}

	degrees := tree.Tree()
	for depth, level := range degrees.Levels() {
		parts := make([]string, 0, level[1]-level[0])
		for _, d := range degrees.Degrees[level[0]:level[1]] {
			parts = append(parts, fmt.Sprint(d))
		}
		lines = append(lines, fmt.Sprintf("  %s %s",
			s.Muted.Render(fmt.Sprintf("%3d", depth)),
			s.Text.Render(strings.Join(parts, " "))))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderReport(s styles, report proto.BatchReport) string {
	var sections []string
	for _, tree := range report.Trees {
		sections = append(sections, renderTree(s, tree), "")
	}
	for _, f := range report.Failures {
		sections = append(sections, fmt.Sprintf("%s %s",
			s.Error.Render("rejected "+f.Session+":"),
			s.Text.Render(f.Error)))
	}
	sections = append(sections, s.Success.Render(fmt.Sprintf("%d sessions reconstructed, %d rejected",
		len(report.Trees), len(report.Failures))))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
