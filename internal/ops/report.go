package ops

import (
	"fmt"
	"strings"
)

// FormatReportMarkdown renders an eviction report as a Markdown summary.
func FormatReportMarkdown(r *EvictionReport) string {
	var b strings.Builder

	b.WriteString("## Cookie eviction\n\n")
	if r == nil || len(r.Outcomes) == 0 {
		b.WriteString("No domains selected.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Report `%s`: %d %s, %d %s deleted",
		r.ID,
		len(r.Outcomes), plural(len(r.Outcomes), "domain", "domains"),
		r.Deleted, plural(r.Deleted, "cookie", "cookies"))
	if r.Failed > 0 {
		fmt.Fprintf(&b, ", **%d failed**", r.Failed)
	}
	b.WriteString(".\n\n")

	b.WriteString("| Domain | Deleted | Result |\n")
	b.WriteString("|---|---:|---|\n")
	for _, o := range r.Outcomes {
		fmt.Fprintf(&b, "| `%s` | %d | %s |\n", escapeCell(o.Domain), o.Deleted, escapeCell(o.Message))
	}
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
