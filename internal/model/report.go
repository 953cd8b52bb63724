package model

import (
	"time"

	"github.com/DmitryBochkarev/string-tools/linkpolicy"
	"github.com/DmitryBochkarev/string-tools/markup"
)

// FilterReport is the result of filtering one document.
// Pipeline steps fill it in as the document moves through them.
type FilterReport struct {
	// Source names where the document came from: a file path, or "-" for
	// standard input.
	Source string `json:"source"`

	// DateProcessed is when filtering started.
	DateProcessed time.Time `json:"date_processed"`

	// === Content ===

	// Input is the document as read.
	Input string `json:"-"`

	// Output is the rendered document after filtering.
	Output string `json:"-"`

	// Document is the parsed tree. It is rewritten in place by later steps.
	Document *markup.Document `json:"-"`

	// InputSize is the length of Input in bytes.
	InputSize int `json:"input_size"`

	// InputDigest and OutputDigest are hex SHA3-256 digests of the document
	// before and after filtering.
	InputDigest  string `json:"input_digest,omitempty"`
	OutputDigest string `json:"output_digest,omitempty"`

	// OutputPath is where the result was written, if it was written to a
	// file.
	OutputPath string `json:"output_path,omitempty"`

	// === Verdicts ===

	// Links holds one record per anchor, innermost anchors first.
	Links []LinkRecord `json:"links,omitempty"`

	// Kept is the number of anchors left in place.
	Kept int `json:"kept"`

	// Unwrapped is the number of anchors replaced by their content.
	Unwrapped int `json:"unwrapped"`

	// Normalized is the number of URL attributes whose host was encoded.
	Normalized int `json:"normalized"`

	// Steps lists the pipeline steps that ran, in order.
	Steps []string `json:"steps,omitempty"`

	// === Error Information ===

	// Error holds the failure of the step that stopped processing.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// LinkRecord is the verdict recorded for one anchor.
type LinkRecord struct {
	// Href is the anchor's href as written.
	Href string `json:"href"`

	// Host is the host of Href, empty unless Kind is with-host.
	Host string `json:"host,omitempty"`

	// Kind is the classification of Href.
	Kind linkpolicy.Kind `json:"kind"`

	// Verdict is what happened to the anchor.
	Verdict linkpolicy.Verdict `json:"verdict"`
}

// NewFilterReport creates an empty report for the given source.
func NewFilterReport(source string) *FilterReport {
	return &FilterReport{
		Source:        source,
		DateProcessed: time.Now(),
		Links:         make([]LinkRecord, 0),
	}
}

// AddDecision records the verdict taken for one anchor and updates the
// counters.
func (r *FilterReport) AddDecision(d linkpolicy.Decision) {
	r.Links = append(r.Links, LinkRecord{
		Href:    d.Href,
		Host:    d.URL.Host,
		Kind:    d.URL.Kind,
		Verdict: d.Verdict,
	})

	switch d.Verdict {
	case linkpolicy.Keep:
		r.Kept++
	case linkpolicy.Unwrap:
		r.Unwrapped++
	}
}

// SetError records err as the reason processing stopped.
func (r *FilterReport) SetError(err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// Failed reports whether processing stopped with an error.
func (r *FilterReport) Failed() bool {
	return r.Error != nil || r.ErrorMessage != ""
}

// Changed reports whether the output differs from the input.
func (r *FilterReport) Changed() bool {
	return r.Output != r.Input
}

// LinksWithVerdict returns the records carrying verdict v, in order.
func (r *FilterReport) LinksWithVerdict(v linkpolicy.Verdict) []LinkRecord {
	var out []LinkRecord
	for _, l := range r.Links {
		if l.Verdict == v {
			out = append(out, l)
		}
	}
	return out
}
