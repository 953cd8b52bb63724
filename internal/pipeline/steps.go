package pipeline

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/crypto/sha3"

	"github.com/DmitryBochkarev/string-tools/internal/config"
	"github.com/DmitryBochkarev/string-tools/internal/model"
	"github.com/DmitryBochkarev/string-tools/linkpolicy"
	"github.com/DmitryBochkarev/string-tools/markup"
)

// ReadStep loads the document named by the report's source.
// The source config.StdinSource reads from the configured standard input.
type ReadStep struct {
	// maxSize is the largest document accepted, in bytes.
	maxSize int64

	// stdin is read when the source is config.StdinSource.
	stdin io.Reader
}

// ReadStepOption configures a ReadStep.
type ReadStepOption func(*ReadStep)

// WithReadMaxSize sets the size limit for documents.
func WithReadMaxSize(size int64) ReadStepOption {
	return func(s *ReadStep) {
		if size > 0 {
			s.maxSize = size
		}
	}
}

// WithReadStdin sets the reader used for the standard input source.
func WithReadStdin(r io.Reader) ReadStepOption {
	return func(s *ReadStep) {
		s.stdin = r
	}
}

// NewReadStep creates a new read step.
func NewReadStep(opts ...ReadStepOption) *ReadStep {
	s := &ReadStep{
		maxSize: config.DefaultMaxInputSize,
		stdin:   os.Stdin,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ReadStep) Name() string {
	return "read"
}

// Do executes the read step.
func (s *ReadStep) Do(_ context.Context, report *model.FilterReport) error {
	var r io.Reader
	if report.Source == config.StdinSource {
		r = s.stdin
	} else {
		f, err := os.Open(report.Source)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", report.Source, err)
		}
		defer f.Close() //nolint:errcheck // read-only file

		if info, err := f.Stat(); err == nil && info.Size() > s.maxSize {
			return fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrInputTooLarge, report.Source, info.Size(), s.maxSize)
		}
		r = f
	}

	// One byte past the limit tells a full document from an oversized one.
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", report.Source, err)
	}
	if int64(len(data)) > s.maxSize {
		return fmt.Errorf("%w: %s exceeds %d bytes", ErrInputTooLarge, report.Source, s.maxSize)
	}

	report.Input = string(data)
	report.InputSize = len(data)
	return nil
}

// ParseStep builds the markup tree of the document.
type ParseStep struct{}

// NewParseStep creates a new parse step.
func NewParseStep() *ParseStep {
	return &ParseStep{}
}

// Name returns the step name.
func (s *ParseStep) Name() string {
	return "parse"
}

// Do executes the parse step. Parsing never fails.
func (s *ParseStep) Do(_ context.Context, report *model.FilterReport) error {
	report.Document = markup.Parse(report.Input)
	return nil
}

// FilterLinksStep unwraps the anchors the policy does not keep and records
// every decision in the report.
type FilterLinksStep struct {
	// policy decides which anchors stay.
	policy *linkpolicy.Policy

	// logger for structured logging.
	logger *slog.Logger
}

// FilterLinksStepOption configures a FilterLinksStep.
type FilterLinksStepOption func(*FilterLinksStep)

// WithFilterLogger sets a custom logger for the filter step.
func WithFilterLogger(logger *slog.Logger) FilterLinksStepOption {
	return func(s *FilterLinksStep) {
		s.logger = logger
	}
}

// NewFilterLinksStep creates a new link filtering step for the policy.
func NewFilterLinksStep(policy *linkpolicy.Policy, opts ...FilterLinksStepOption) *FilterLinksStep {
	s := &FilterLinksStep{
		policy: policy,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *FilterLinksStep) Name() string {
	return "filter_links"
}

// Do executes the filter step.
func (s *FilterLinksStep) Do(_ context.Context, report *model.FilterReport) error {
	if report.Document == nil {
		return ErrNoDocument
	}

	for _, d := range s.policy.Rewrite(report.Document) {
		report.AddDecision(d)
		s.logger.Debug("link decided",
			"source", report.Source,
			"href", d.Href,
			"kind", d.URL.Kind.String(),
			"verdict", d.Verdict.String(),
		)
	}
	return nil
}

// NormalizeStep encodes the hosts of URL attributes in ASCII form.
type NormalizeStep struct{}

// NewNormalizeStep creates a new normalization step.
func NewNormalizeStep() *NormalizeStep {
	return &NormalizeStep{}
}

// Name returns the step name.
func (s *NormalizeStep) Name() string {
	return "normalize"
}

// Do executes the normalization step.
func (s *NormalizeStep) Do(_ context.Context, report *model.FilterReport) error {
	if report.Document == nil {
		return ErrNoDocument
	}
	report.Normalized = linkpolicy.NormalizeDocument(report.Document)
	return nil
}

// RenderStep serializes the tree back to markup and records content digests.
// A document nothing was changed in is passed through exactly as read.
type RenderStep struct{}

// NewRenderStep creates a new render step.
func NewRenderStep() *RenderStep {
	return &RenderStep{}
}

// Name returns the step name.
func (s *RenderStep) Name() string {
	return "render"
}

// Do executes the render step.
func (s *RenderStep) Do(_ context.Context, report *model.FilterReport) error {
	if report.Document == nil {
		return ErrNoDocument
	}

	if report.Unwrapped == 0 && report.Normalized == 0 {
		report.Output = report.Input
	} else {
		report.Output = report.Document.String()
	}

	report.InputDigest = Digest(report.Input)
	report.OutputDigest = Digest(report.Output)
	return nil
}

// Digest returns the hex SHA3-256 digest of s.
func Digest(s string) string {
	sum := sha3.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// WriteStep writes the rendered document below an output directory.
// Relative sources keep their path below the directory; absolute sources
// and standard input are written under their base name.
type WriteStep struct {
	// dir is the output directory.
	dir string
}

// NewWriteStep creates a new write step for the output directory.
func NewWriteStep(dir string) *WriteStep {
	return &WriteStep{dir: dir}
}

// Name returns the step name.
func (s *WriteStep) Name() string {
	return "write"
}

// Do executes the write step.
func (s *WriteStep) Do(_ context.Context, report *model.FilterReport) error {
	path := OutputPath(s.dir, report.Source)

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(report.Output), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	report.OutputPath = path
	return nil
}

// OutputPath returns where WriteStep stores the document read from source.
func OutputPath(dir, source string) string {
	switch {
	case source == config.StdinSource:
		return filepath.Join(dir, "stdin.html")
	case filepath.IsLocal(source):
		return filepath.Join(dir, source)
	default:
		return filepath.Join(dir, filepath.Base(source))
	}
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// MaxInputSize is the largest document accepted, in bytes.
	MaxInputSize int64

	// Normalize adds the host normalization step after filtering.
	Normalize bool

	// OutputDir adds the write step when set.
	OutputDir string

	// Stdin is read for the standard input source.
	Stdin io.Reader

	// Logger is used by steps that log per link.
	Logger *slog.Logger
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineMaxInputSize sets the document size limit.
func WithPipelineMaxInputSize(size int64) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxInputSize = size
	}
}

// WithPipelineNormalize enables host normalization after filtering.
func WithPipelineNormalize(normalize bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Normalize = normalize
	}
}

// WithPipelineOutputDir writes results below dir.
func WithPipelineOutputDir(dir string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.OutputDir = dir
	}
}

// WithPipelineStdin sets the reader for the standard input source.
func WithPipelineStdin(r io.Reader) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Stdin = r
	}
}

// WithPipelineStepLogger sets the logger used by individual steps.
func WithPipelineStepLogger(logger *slog.Logger) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Logger = logger
	}
}

// DefaultPipeline creates the standard filter pipeline for the policy:
// read, parse, filter links, optionally normalize, render, optionally write.
// Links are filtered before hosts are normalized, so whitelist entries
// written in Unicode still match hosts written in Unicode.
//
// The first parameter after the policy accepts pipeline options (WithLogger,
// etc). The rest configure the steps (WithPipelineNormalize, etc).
func DefaultPipeline(policy *linkpolicy.Policy, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		MaxInputSize: config.DefaultMaxInputSize,
		Stdin:        os.Stdin,
		Logger:       slog.Default(),
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	p.AddSteps(
		NewReadStep(WithReadMaxSize(cfg.MaxInputSize), WithReadStdin(cfg.Stdin)),
		NewParseStep(),
		NewFilterLinksStep(policy, WithFilterLogger(cfg.Logger)),
	)
	if cfg.Normalize {
		p.AddStep(NewNormalizeStep())
	}
	p.AddStep(NewRenderStep())
	if cfg.OutputDir != "" {
		p.AddStep(NewWriteStep(cfg.OutputDir))
	}

	return p
}
