package model

import (
	"sort"
	"strings"

	"github.com/DmitryBochkarev/string-tools/linkpolicy"
)

// Summary totals a batch of filter reports for quick review.
type Summary struct {
	// Documents is the number of reports summarized.
	Documents int `json:"documents"`

	// Failed is the number of documents that could not be processed.
	Failed int `json:"failed"`

	// Changed is the number of documents whose output differs from input.
	Changed int `json:"changed"`

	// === Link Counts ===

	Kept       int `json:"kept"`
	Unwrapped  int `json:"unwrapped"`
	Normalized int `json:"normalized"`

	// Kinds counts anchors by the classification of their href.
	Kinds map[string]int `json:"kinds"`

	// UnwrappedHosts lists the hosts of unwrapped links, most frequent first.
	UnwrappedHosts []HostCount `json:"unwrapped_hosts,omitempty"`
}

// HostCount is the number of links seen for one host.
type HostCount struct {
	Host  string `json:"host"`
	Count int    `json:"count"`
}

// NewSummary totals the given reports. Nil reports are skipped.
func NewSummary(reports []*FilterReport) *Summary {
	s := &Summary{Kinds: make(map[string]int)}
	hosts := make(map[string]int)

	for _, r := range reports {
		if r == nil {
			continue
		}
		s.Documents++
		if r.Failed() {
			s.Failed++
			continue
		}
		if r.Changed() {
			s.Changed++
		}
		s.Kept += r.Kept
		s.Unwrapped += r.Unwrapped
		s.Normalized += r.Normalized

		for _, l := range r.Links {
			s.Kinds[l.Kind.String()]++
			if l.Verdict == linkpolicy.Unwrap && l.Host != "" {
				hosts[strings.ToLower(l.Host)]++
			}
		}
	}

	for host, count := range hosts {
		s.UnwrappedHosts = append(s.UnwrappedHosts, HostCount{Host: host, Count: count})
	}
	sort.Slice(s.UnwrappedHosts, func(i, j int) bool {
		a, b := s.UnwrappedHosts[i], s.UnwrappedHosts[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Host < b.Host
	})

	return s
}

// Total returns the number of anchors seen.
func (s *Summary) Total() int {
	return s.Kept + s.Unwrapped
}
