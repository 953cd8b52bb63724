package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultBatchSize is the number of documents filtered concurrently.
	// Filtering is CPU bound, so a small number keeps memory use predictable.
	DefaultBatchSize = 4

	// DefaultMaxInputSize limits the size of a single input document.
	// 5MB is far beyond typical HTML fragments while bounding the tree size.
	DefaultMaxInputSize = 5 * 1024 * 1024 // 5MB

	// DefaultRemoveWithoutHost matches the behavior of RemoveLinks without
	// options: links without a host are removed.
	DefaultRemoveWithoutHost = true

	// AppName is the application name used for XDG directory paths.
	AppName = "linkfilter"

	// StdinSource is the input name that selects standard input.
	StdinSource = "-"
)

// Config holds all configuration options for linkfilter.
// It is populated from CLI flags and the configuration file and passed
// through the application rather than kept in global state.
type Config struct {
	// Whitelist is the list of domains whose links are kept.
	// Subdomains of an entry are kept as well.
	Whitelist []string

	// RemoveWithoutHost controls links without a host (relative paths,
	// fragments, mailto: and the like). When true they are unwrapped.
	RemoveWithoutHost bool

	// Normalize runs the host normalization pass over URL attributes after
	// links were filtered.
	Normalize bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// BatchSize is the number of documents processed concurrently.
	BatchSize int

	// MaxInputSize is the largest input document accepted, in bytes.
	// Set to 0 to use the default (5MB).
	MaxInputSize int64

	// Inputs are the documents to process. StdinSource reads standard input.
	Inputs []string

	// OutputDir is where filtered documents are written. When empty they are
	// written to standard output.
	OutputDir string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches the locations listed in FindConfigFile.
	ConfigFilePath string

	// Profile names the whitelist profile from the configuration file.
	// Empty selects the defaults section only.
	Profile string

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output with tables and a pie
	// chart of verdicts. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stderr.
	ReportFile string

	// DBDir is the directory holding the SQLite history database.
	// Defaults to the XDG data directory (~/.local/share/linkfilter on Linux).
	DBDir string

	// SaveToDB indicates whether to store filter runs in the database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		RemoveWithoutHost: DefaultRemoveWithoutHost,
		BatchSize:         DefaultBatchSize,
		MaxInputSize:      DefaultMaxInputSize,
		DBDir:             XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for linkfilter.
// On Linux: ~/.local/share/linkfilter
// On macOS: ~/Library/Application Support/linkfilter
// On Windows: %LOCALAPPDATA%\linkfilter
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for linkfilter.
// On Linux: ~/.config/linkfilter
// On macOS: ~/Library/Application Support/linkfilter
// On Windows: %APPDATA%\linkfilter
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// EffectiveMaxInputSize returns MaxInputSize, or the default when it is 0.
func (c *Config) EffectiveMaxInputSize() int64 {
	if c.MaxInputSize == 0 {
		return DefaultMaxInputSize
	}
	return c.MaxInputSize
}

// ApplyProfile merges p into the configuration. The profile's whitelist
// comes first, followed by the entries already present that it lacks.
// Options set in the profile replace the current values.
func (c *Config) ApplyProfile(p Profile) {
	c.Whitelist = mergeWhitelists(p.Whitelist, c.Whitelist)
	if p.RemoveWithoutHost != nil {
		c.RemoveWithoutHost = *p.RemoveWithoutHost
	}
	if p.Normalize != nil {
		c.Normalize = *p.Normalize
	}
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Inputs) == 0 {
		return ErrNoInput
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxInputSize < 0 {
		return ErrInvalidMaxInputSize
	}

	return ValidateWhitelist(c.Whitelist)
}

// ValidateWhitelist checks that every entry is a bare domain name.
// Entries holding a scheme, path, port, userinfo or whitespace are rejected
// because they would never match a host.
func ValidateWhitelist(entries []string) error {
	for _, entry := range entries {
		if strings.TrimSpace(entry) == "" || strings.ContainsAny(entry, "/:@?# \t\r\n") {
			return fmt.Errorf("%w: %q", ErrInvalidWhitelistEntry, entry)
		}
	}
	return nil
}

// mergeWhitelists returns base followed by the entries of extra that base
// does not already contain.
func mergeWhitelists(base, extra []string) []string {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	merged := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, entry := range list {
			if seen[entry] {
				continue
			}
			seen[entry] = true
			merged = append(merged, entry)
		}
	}
	return merged
}
