package report

import (
	"io"

	"github.com/DmitryBochkarev/string-tools/internal/model"
)

// Writer defines the interface for report output.
// Implementations write filter results in various formats.
type Writer interface {
	// Write outputs the report of one document.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.FilterReport) (int, error)

	// WriteSummary outputs the totals of a batch.
	WriteSummary(summary *model.Summary) (int, error)
}

// WriteBatch writes every non-nil report followed by the summary of all of
// them. It stops on the first error.
func WriteBatch(w Writer, reports []*model.FilterReport) (int, error) {
	var total int
	for _, r := range reports {
		if r == nil {
			continue
		}
		n, err := w.Write(r)
		total += n
		if err != nil {
			return total, err
		}
	}

	n, err := w.WriteSummary(model.NewSummary(reports))
	return total + n, err
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.FilterReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteSummary outputs the summary to all configured Writers.
func (m *MultiWriter) WriteSummary(summary *model.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSummary(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
