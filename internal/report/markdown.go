package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/DmitryBochkarev/string-tools/internal/model"
	"github.com/DmitryBochkarev/string-tools/linkpolicy"
)

// maxHostRows caps the host table of a summary.
const maxHostRows = 20

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report of one document in Markdown format.
func (w *MarkdownWriter) Write(report *model.FilterReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeVerdicts(md, report)
	w.writeLinks(md, report)

	return len(md.String()), md.Build()
}

// WriteSummary outputs the totals of a batch in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Link Filter Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Documents", strconv.Itoa(summary.Documents)},
			{"Changed", strconv.Itoa(summary.Changed)},
			{"Failed", strconv.Itoa(summary.Failed)},
			{"Kept", strconv.Itoa(summary.Kept)},
			{"Unwrapped", strconv.Itoa(summary.Unwrapped)},
			{"Normalized", strconv.Itoa(summary.Normalized)},
		},
	})
	md.PlainText("")

	if summary.Total() > 0 {
		w.writePieChart(md, "Link Verdicts", summary.Kept, summary.Unwrapped)
	}

	if summary.Failed > 0 {
		md.Warningf("%d document(s) could not be filtered.", summary.Failed)
		md.PlainText("")
	}

	if len(summary.UnwrappedHosts) > 0 {
		md.H2("Unwrapped Hosts")
		md.PlainText("")

		hosts := summary.UnwrappedHosts
		if len(hosts) > maxHostRows {
			hosts = hosts[:maxHostRows]
		}
		rows := make([][]string, len(hosts))
		for i, hc := range hosts {
			rows[i] = []string{"`" + hc.Host + "`", strconv.Itoa(hc.Count)}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Host", "Links"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with document information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.FilterReport) {
	md.H1("Link Filter Report")
	md.PlainText("")

	rows := [][]string{
		{"Source", "`" + report.Source + "`"},
		{"Date", report.DateProcessed.Format("2006-01-02 15:04:05 MST")},
		{"Size", strconv.Itoa(report.InputSize) + " bytes"},
		{"Status", w.getStatusText(report)},
	}
	if report.OutputPath != "" {
		rows = append(rows, []string{"Output", "`" + report.OutputPath + "`"})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.FilterReport) string {
	switch {
	case report.Failed():
		return "❌ Error - " + report.ErrorMessage
	case report.Changed():
		return "✏️ Changed"
	default:
		return "✅ Unchanged"
	}
}

// writeVerdicts writes the verdict counters, a chart and an alert.
func (w *MarkdownWriter) writeVerdicts(md *markdown.Markdown, report *model.FilterReport) {
	md.H2("Verdicts")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Verdict", "Count"},
		Rows: [][]string{
			{"🟢 Kept", strconv.Itoa(report.Kept)},
			{"🔴 Unwrapped", strconv.Itoa(report.Unwrapped)},
			{"🔵 Normalized", strconv.Itoa(report.Normalized)},
		},
	})
	md.PlainText("")

	if report.Kept+report.Unwrapped > 0 {
		w.writePieChart(md, "Link Verdicts", report.Kept, report.Unwrapped)
	}

	switch {
	case report.Failed():
		md.Cautionf("Filtering failed: %s", report.ErrorMessage)
	case report.Unwrapped > 0:
		md.Importantf("%d link(s) were replaced by their content.", report.Unwrapped)
	case report.Kept > 0:
		md.Note("All links are on the whitelist.")
	default:
		md.Tip("No links found.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of kept and unwrapped links.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, title string, kept, unwrapped int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle(title),
		piechart.WithShowData(true),
	)

	if kept > 0 {
		chart.LabelAndIntValue("Kept", uint64(kept))
	}
	if unwrapped > 0 {
		chart.LabelAndIntValue("Unwrapped", uint64(unwrapped))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeLinks writes a table of every link, innermost first.
func (w *MarkdownWriter) writeLinks(md *markdown.Markdown, report *model.FilterReport) {
	md.H2("Links")
	md.PlainText("")

	if len(report.Links) == 0 {
		md.PlainText("No anchors in this document.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Links))
	for i, l := range report.Links {
		host := l.Host
		if host == "" {
			host = "-"
		}
		verdict := "🟢 keep"
		if l.Verdict == linkpolicy.Unwrap {
			verdict = "🔴 unwrap"
		}

		rows[i] = []string{
			"`" + truncateString(l.Href, 60) + "`",
			host,
			l.Kind.String(),
			verdict,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Href", "Host", "Kind", "Verdict"},
		Rows:   rows,
	})
	md.PlainText("")

	// Full hrefs of the truncated rows.
	for _, l := range report.Links {
		if len(l.Href) > 60 {
			md.Details(truncateString(l.Href, 40), l.Href)
		}
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by linkfilter*")
}

// truncateString truncates a string to maxLen bytes with ellipsis.
// The cut never splits a UTF-8 sequence.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return cutRunes(s, maxLen)
	}
	return cutRunes(s, maxLen-3) + "..."
}

// cutRunes returns the longest prefix of s of at most n bytes that ends on a
// rune boundary.
func cutRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	end := 0
	for i := range s {
		if i > n {
			break
		}
		end = i
	}
	return s[:end]
}
