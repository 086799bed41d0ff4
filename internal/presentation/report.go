package presentation

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"github.com/paulsava/cpg/pkg/orchestrator"
	"github.com/paulsava/cpg/pkg/passes"
	"golang.org/x/term"
)

// ResultMarkdown renders an orchestration result as a markdown report.
func ResultMarkdown(res *orchestrator.Result) string {
	var b strings.Builder

	switch res.Status {
	case orchestrator.StatusDone:
		fmt.Fprintf(&b, "# Pass run: done\n\n")
	default:
		fmt.Fprintf(&b, "# Pass run: failed\n\n")
	}

	if len(res.Executed) == 0 {
		b.WriteString("Nothing to execute; all targets were already satisfied.\n")
	} else {
		b.WriteString("| # | Pass | Targets | Summary |\n")
		b.WriteString("|---|------|---------|---------|\n")
		for i, ex := range res.Executed {
			name := ex.PassID
			if ex.RequestedID != "" && ex.RequestedID != ex.PassID {
				name = fmt.Sprintf("%s (for %s)", ex.PassID, ex.RequestedID)
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", i+1, name, strings.Join(ex.NodeIDs, ", "), ex.Message)
		}
	}

	for _, w := range res.Warnings {
		fmt.Fprintf(&b, "\n> **Warning**: %s\n", w)
	}
	if res.Error != "" {
		fmt.Fprintf(&b, "\n**Error**: %s\n", res.Error)
	}
	return b.String()
}

// CatalogMarkdown renders the pass catalog as a markdown table.
func CatalogMarkdown(descs []passes.Descriptor) string {
	var b strings.Builder
	b.WriteString("# Registered passes\n\n")
	b.WriteString("| Pass | Category | Hard deps | Soft deps | Overrides |\n")
	b.WriteString("|------|----------|-----------|-----------|-----------|\n")
	for _, d := range descs {
		overrides := make([]string, 0, len(d.Overrides))
		for lang, id := range d.Overrides {
			overrides = append(overrides, fmt.Sprintf("%s: %s", lang, id))
		}
		sort.Strings(overrides)
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			d.ID, d.Category,
			strings.Join(d.HardDeps, ", "),
			strings.Join(d.SoftDeps, ", "),
			strings.Join(overrides, ", "),
		)
	}
	return b.String()
}

// Render pretty-prints markdown when stdout is a terminal, and passes it
// through unchanged otherwise (pipes, CI).
func Render(markdown string) string {
	if !term.IsTerminal(int(os.Stdout.Fd())) || termenv.ColorProfile() == termenv.Ascii {
		return markdown
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}
