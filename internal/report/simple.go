package report

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/DmitryBochkarev/string-tools/internal/model"
	"github.com/DmitryBochkarev/string-tools/linkpolicy"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting and no color codes, so it can be piped to files.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to list are shown.
	showEmpty bool

	// verbose lists kept links as well as unwrapped ones.
	verbose bool

	// title renders verdict and kind labels.
	title cases.Caser
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose lists every link instead of only the unwrapped ones.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		title:      cases.Title(language.Und),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report of one document in human-readable format.
func (w *SimpleWriter) Write(report *model.FilterReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeCounts(&sb, report)
	w.writeLinks(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// WriteSummary outputs the totals of a batch in human-readable format.
func (w *SimpleWriter) WriteSummary(summary *model.Summary) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                            SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Documents:  %d\n", summary.Documents)
	fmt.Fprintf(&sb, "Changed:    %d\n", summary.Changed)
	fmt.Fprintf(&sb, "Failed:     %d\n", summary.Failed)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  %-12s %d\n", w.title.String(linkpolicy.Keep.String())+":", summary.Kept)
	fmt.Fprintf(&sb, "  %-12s %d\n", w.title.String(linkpolicy.Unwrap.String())+":", summary.Unwrapped)
	fmt.Fprintf(&sb, "  %-12s %d\n", "Normalized:", summary.Normalized)
	sb.WriteString("\n")

	for _, kind := range []linkpolicy.Kind{linkpolicy.KindWithHost, linkpolicy.KindHostless, linkpolicy.KindUnparsable} {
		count := summary.Kinds[kind.String()]
		if count == 0 && !w.showEmpty {
			continue
		}
		fmt.Fprintf(&sb, "  %-12s %d\n", w.title.String(kind.String())+":", count)
	}

	if len(summary.UnwrappedHosts) > 0 {
		sb.WriteString("\nMost unwrapped hosts:\n")
		for _, hc := range summary.UnwrappedHosts {
			fmt.Fprintf(&sb, "  %5d  %s\n", hc.Count, hc.Host)
		}
	}
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with document information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.FilterReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        LINK FILTER REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Source:     %s\n", report.Source)
	fmt.Fprintf(sb, "Date:       %s\n", report.DateProcessed.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Size:       %d bytes\n", report.InputSize)

	switch {
	case report.Failed():
		fmt.Fprintf(sb, "Status:     ERROR - %s\n", report.ErrorMessage)
	case report.Changed():
		sb.WriteString("Status:     Changed\n")
	default:
		sb.WriteString("Status:     Unchanged\n")
	}

	if report.OutputPath != "" {
		fmt.Fprintf(sb, "Output:     %s\n", report.OutputPath)
	}

	sb.WriteString("\n")
}

// writeCounts writes the verdict counters.
func (w *SimpleWriter) writeCounts(sb *strings.Builder, report *model.FilterReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("VERDICTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "  KEPT:       %d\n", report.Kept)
	fmt.Fprintf(sb, "  UNWRAPPED:  %d\n", report.Unwrapped)
	fmt.Fprintf(sb, "  NORMALIZED: %d\n", report.Normalized)
	sb.WriteString("\n")
}

// writeLinks writes one line per link, innermost first.
// Without verbose only unwrapped links are listed.
func (w *SimpleWriter) writeLinks(sb *strings.Builder, report *model.FilterReport) {
	links := report.Links
	if !w.verbose {
		links = report.LinksWithVerdict(linkpolicy.Unwrap)
	}

	if len(links) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("LINKS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(links) == 0 {
		sb.WriteString("  No links\n\n")
		return
	}

	for _, l := range links {
		fmt.Fprintf(sb, "  [%s] %s\n", w.verdictIndicator(l.Verdict), l.Href)
		fmt.Fprintf(sb, "    Kind: %s\n", w.title.String(l.Kind.String()))
		if l.Host != "" {
			fmt.Fprintf(sb, "    Host: %s\n", l.Host)
		}
	}
	sb.WriteString("\n")
}

// verdictIndicator returns a visual indicator for the verdict.
func (w *SimpleWriter) verdictIndicator(v linkpolicy.Verdict) string {
	switch v {
	case linkpolicy.Keep:
		return "+"
	case linkpolicy.Unwrap:
		return "-"
	default:
		return "?"
	}
}
