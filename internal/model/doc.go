// Package model defines the records produced when documents are filtered.
//
// This package contains the following main types:
//   - FilterReport: The result of filtering one document
//   - LinkRecord: The verdict recorded for one anchor
//   - Summary: Totals over a batch of reports
//
// Models live in their own package so that pipeline, report and database can
// share them without import cycles. All of them serialize to JSON for report
// output and database storage.
package model
