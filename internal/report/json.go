package report

import (
	"encoding/json"
	"io"

	"github.com/DmitryBochkarev/string-tools/internal/model"
)

// JSONWriter outputs reports in JSON format, one document per call.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in JSON format.
func (w *JSONWriter) Write(report *model.FilterReport) (int, error) {
	return w.writeJSON(report)
}

// WriteSummary outputs the summary in JSON format.
func (w *JSONWriter) WriteSummary(summary *model.Summary) (int, error) {
	return w.writeJSON(summary)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Trailing newline for terminal output.
	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONReport wraps the reports of a batch with metadata, so a whole run is
// one JSON document.
type JSONReport struct {
	// Version is the linkfilter version that generated this report.
	Version string `json:"version"`

	// Whitelist is the whitelist the documents were filtered with.
	Whitelist []string `json:"whitelist"`

	// Reports holds one report per document, in input order.
	Reports []*model.FilterReport `json:"reports"`

	// Summary totals the reports.
	Summary *model.Summary `json:"summary"`
}

// NewJSONReport creates a JSONReport wrapper with version information.
// Nil reports are left out.
func NewJSONReport(reports []*model.FilterReport, whitelist []string, version string) *JSONReport {
	kept := make([]*model.FilterReport, 0, len(reports))
	for _, r := range reports {
		if r != nil {
			kept = append(kept, r)
		}
	}
	if whitelist == nil {
		whitelist = []string{}
	}

	return &JSONReport{
		Version:   version,
		Whitelist: whitelist,
		Reports:   kept,
		Summary:   model.NewSummary(kept),
	}
}

// FullJSONWriter outputs a batch as one JSON document with metadata.
type FullJSONWriter struct {
	*JSONWriter

	// version is the linkfilter version string.
	version string

	// whitelist is recorded in the output.
	whitelist []string
}

// NewFullJSONWriter creates a writer for complete batches with metadata.
func NewFullJSONWriter(output io.Writer, version string, whitelist []string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
		whitelist:  whitelist,
	}
}

// Write outputs a single report wrapped with metadata.
func (w *FullJSONWriter) Write(report *model.FilterReport) (int, error) {
	return w.WriteBatch([]*model.FilterReport{report})
}

// WriteBatch outputs every report and their summary as one JSON document.
func (w *FullJSONWriter) WriteBatch(reports []*model.FilterReport) (int, error) {
	return w.writeJSON(NewJSONReport(reports, w.whitelist, w.version))
}
