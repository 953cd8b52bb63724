package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and File.GetProfile() and
// can be checked with errors.Is(). Errors about a particular value wrap the
// sentinel with the offending value.
var (
	// ErrNoInput is returned when there is nothing to process.
	ErrNoInput = errors.New("no input specified: provide files or use - for standard input")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	// A batch size of zero would mean no document is ever processed.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxInputSize is returned when the input size limit is negative.
	// Use 0 to fall back to the default limit.
	ErrInvalidMaxInputSize = errors.New("invalid max input size: must be non-negative")

	// ErrInvalidWhitelistEntry is returned when a whitelist entry is not a
	// bare domain name, for example when a full URL was given.
	ErrInvalidWhitelistEntry = errors.New("invalid whitelist entry: must be a domain name")

	// ErrUnknownProfile is returned when a requested profile is not defined
	// in the configuration file.
	ErrUnknownProfile = errors.New("unknown profile")
)
