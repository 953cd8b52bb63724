package pipeline

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/DmitryBochkarev/string-tools/internal/config"
	"github.com/DmitryBochkarev/string-tools/internal/model"
	"github.com/DmitryBochkarev/string-tools/linkpolicy"
	"github.com/DmitryBochkarev/string-tools/markup"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// TestReadStep tests loading documents from files and standard input.
func TestReadStep(t *testing.T) {
	t.Parallel()

	t.Run("reads a file", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, t.TempDir(), "a.html", "<p>hello</p>")

		report := model.NewFilterReport(path)
		if err := NewReadStep().Do(t.Context(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Input != "<p>hello</p>" || report.InputSize != 12 {
			t.Errorf("got input %q size %d", report.Input, report.InputSize)
		}
	})

	t.Run("reads standard input for the dash source", func(t *testing.T) {
		t.Parallel()

		step := NewReadStep(WithReadStdin(strings.NewReader("<a href='/x'>x</a>")))
		report := model.NewFilterReport(config.StdinSource)
		if err := step.Do(t.Context(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Input != "<a href='/x'>x</a>" {
			t.Errorf("got input %q", report.Input)
		}
	})

	t.Run("rejects oversized files", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, t.TempDir(), "big.html", strings.Repeat("x", 64))

		err := NewReadStep(WithReadMaxSize(16)).Do(t.Context(), model.NewFilterReport(path))
		if !errors.Is(err, ErrInputTooLarge) {
			t.Errorf("expected ErrInputTooLarge, got %v", err)
		}
	})

	t.Run("rejects oversized standard input", func(t *testing.T) {
		t.Parallel()

		step := NewReadStep(WithReadMaxSize(4), WithReadStdin(strings.NewReader("12345")))
		err := step.Do(t.Context(), model.NewFilterReport(config.StdinSource))
		if !errors.Is(err, ErrInputTooLarge) {
			t.Errorf("expected ErrInputTooLarge, got %v", err)
		}
	})

	t.Run("accepts input exactly at the limit", func(t *testing.T) {
		t.Parallel()

		step := NewReadStep(WithReadMaxSize(4), WithReadStdin(strings.NewReader("1234")))
		if err := step.Do(t.Context(), model.NewFilterReport(config.StdinSource)); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		err := NewReadStep().Do(t.Context(), model.NewFilterReport(filepath.Join(t.TempDir(), "none.html")))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected os.ErrNotExist, got %v", err)
		}
	})
}

// TestFilterLinksStep tests policy application and decision recording.
func TestFilterLinksStep(t *testing.T) {
	t.Parallel()

	t.Run("records decisions and logs them", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		report := model.NewFilterReport("a.html")
		report.Document = markup.Parse(`<a href="http://yandex.ru/">y</a> <a href="http://evil.com/">e</a> <a href="/rel">r</a>`)

		step := NewFilterLinksStep(linkpolicy.NewPolicy([]string{"yandex.ru"}), WithFilterLogger(logger))
		if err := step.Do(t.Context(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []model.LinkRecord{
			{Href: "http://yandex.ru/", Host: "yandex.ru", Kind: linkpolicy.KindWithHost, Verdict: linkpolicy.Keep},
			{Href: "http://evil.com/", Host: "evil.com", Kind: linkpolicy.KindWithHost, Verdict: linkpolicy.Unwrap},
			{Href: "/rel", Kind: linkpolicy.KindHostless, Verdict: linkpolicy.Unwrap},
		}
		if diff := cmp.Diff(want, report.Links); diff != "" {
			t.Errorf("links mismatch (-want +got):\n%s", diff)
		}
		if report.Kept != 1 || report.Unwrapped != 2 {
			t.Errorf("got kept=%d unwrapped=%d", report.Kept, report.Unwrapped)
		}
		if !strings.Contains(buf.String(), "evil.com") {
			t.Errorf("expected decisions in debug log, got %s", buf.String())
		}
	})

	t.Run("requires a parsed document", func(t *testing.T) {
		t.Parallel()

		err := NewFilterLinksStep(linkpolicy.NewPolicy(nil)).Do(t.Context(), model.NewFilterReport("a.html"))
		if !errors.Is(err, ErrNoDocument) {
			t.Errorf("expected ErrNoDocument, got %v", err)
		}
	})
}

// TestNormalizeStep tests host normalization of the tree.
func TestNormalizeStep(t *testing.T) {
	t.Parallel()

	report := model.NewFilterReport("a.html")
	report.Document = markup.Parse(`<img src="http://рф/a.png">`)

	if err := NewNormalizeStep().Do(t.Context(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Normalized != 1 {
		t.Errorf("expected 1 normalized attribute, got %d", report.Normalized)
	}
	if got := report.Document.String(); got != `<img src="http://xn--p1ai/a.png">` {
		t.Errorf("got %q", got)
	}
}

// TestRenderStep tests serialization and digests.
func TestRenderStep(t *testing.T) {
	t.Parallel()

	t.Run("unchanged documents pass through", func(t *testing.T) {
		t.Parallel()

		input := "<P CLASS=x>text<br/></P>"
		report := model.NewFilterReport("a.html")
		report.Input = input
		report.Document = markup.Parse(input)

		if err := NewRenderStep().Do(t.Context(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Output != input {
			t.Errorf("got %q, want %q", report.Output, input)
		}
		if report.InputDigest != report.OutputDigest {
			t.Error("expected equal digests for unchanged document")
		}
		if report.Changed() {
			t.Error("expected Changed() to be false")
		}
	})

	t.Run("rewritten documents are rendered", func(t *testing.T) {
		t.Parallel()

		input := `<p><a href="http://evil.com">e</a></p>`
		report := model.NewFilterReport("a.html")
		report.Input = input
		report.Document = markup.Parse(input)
		for _, d := range linkpolicy.NewPolicy(nil).Rewrite(report.Document) {
			report.AddDecision(d)
		}

		if err := NewRenderStep().Do(t.Context(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Output != "<p>e</p>" {
			t.Errorf("got %q", report.Output)
		}
		if report.InputDigest == report.OutputDigest {
			t.Error("expected digests to differ")
		}
	})
}

// TestDigest tests the SHA3-256 digest helper.
func TestDigest(t *testing.T) {
	t.Parallel()

	// SHA3-256 of the empty string.
	want := "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"
	if got := Digest(""); got != want {
		t.Errorf("Digest(\"\") = %s, want %s", got, want)
	}
	if len(Digest("abc")) != 64 {
		t.Error("expected 64 hex characters")
	}
}

// TestOutputPath tests output layout for relative, absolute and stdin sources.
func TestOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{name: "relative path keeps its directories", source: filepath.Join("docs", "a.html"), want: filepath.Join("out", "docs", "a.html")},
		{name: "absolute path uses base name", source: filepath.Join(string(filepath.Separator), "tmp", "b.html"), want: filepath.Join("out", "b.html")},
		{name: "parent reference uses base name", source: filepath.Join("..", "c.html"), want: filepath.Join("out", "c.html")},
		{name: "standard input", source: config.StdinSource, want: filepath.Join("out", "stdin.html")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := OutputPath("out", tt.source); got != tt.want {
				t.Errorf("OutputPath() = %s, want %s", got, tt.want)
			}
		})
	}
}

// TestWriteStep tests writing results below the output directory.
func TestWriteStep(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	report := model.NewFilterReport(config.StdinSource)
	report.Output = "<p>done</p>"

	if err := NewWriteStep(dir).Do(t.Context(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := filepath.Join(dir, "stdin.html")
	if report.OutputPath != want {
		t.Errorf("OutputPath = %s, want %s", report.OutputPath, want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if string(data) != "<p>done</p>" {
		t.Errorf("got %q", data)
	}
}

// TestDefaultPipeline tests the assembled pipeline.
func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	policy := linkpolicy.NewPolicy([]string{"yandex.ru"})

	t.Run("step names", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			opts []DefaultPipelineOption
			want []string
		}{
			{name: "minimal", want: []string{"read", "parse", "filter_links", "render"}},
			{
				name: "with normalize",
				opts: []DefaultPipelineOption{WithPipelineNormalize(true)},
				want: []string{"read", "parse", "filter_links", "normalize", "render"},
			},
			{
				name: "with normalize and output directory",
				opts: []DefaultPipelineOption{WithPipelineNormalize(true), WithPipelineOutputDir("out")},
				want: []string{"read", "parse", "filter_links", "normalize", "render", "write"},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				p := DefaultPipeline(policy, nil, tt.opts...)
				if diff := cmp.Diff(tt.want, p.StepNames()); diff != "" {
					t.Errorf("StepNames() mismatch (-want +got):\n%s", diff)
				}
			})
		}
	})

	t.Run("filters and normalizes a document end to end", func(t *testing.T) {
		t.Parallel()

		input := `<p><a href="http://yandex.ru/">y</a> <a href="http://рф/">r</a> <img src="http://рф/i.png"></p>`
		p := DefaultPipeline(policy, nil,
			WithPipelineStdin(strings.NewReader(input)),
			WithPipelineNormalize(true),
		)

		report := model.NewFilterReport(config.StdinSource)
		if err := p.Execute(t.Context(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := `<p><a href="http://yandex.ru/">y</a> r <img src="http://xn--p1ai/i.png"></p>`
		if report.Output != want {
			t.Errorf("got %q, want %q", report.Output, want)
		}
		if report.Kept != 1 || report.Unwrapped != 1 || report.Normalized != 1 {
			t.Errorf("got kept=%d unwrapped=%d normalized=%d", report.Kept, report.Unwrapped, report.Normalized)
		}
	})
}
