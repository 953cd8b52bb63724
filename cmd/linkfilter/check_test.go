package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/DmitryBochkarev/string-tools/internal/config"
	"github.com/DmitryBochkarev/string-tools/linkpolicy"
)

// TestRunCheck tests verdict lines and whitelist warnings.
func TestRunCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		whitelist         []string
		removeWithoutHost bool
		targets           []string
		want              string
	}{
		{
			name:              "bare hosts and URLs",
			whitelist:         []string{"example.com"},
			removeWithoutHost: true,
			targets:           []string{"www.example.com", "http://evil.com/x", "/relative", "http://example.com/%zz"},
			want: "keep    with-host  www.example.com\n" +
				"unwrap  with-host  http://evil.com/x\n" +
				"unwrap  hostless   /relative\n" +
				"keep    unparsable http://example.com/%zz\n",
		},
		{
			name:              "hostless links kept when configured",
			removeWithoutHost: false,
			targets:           []string{"#top", "mailto:a@b.c"},
			want: "keep    hostless   #top\n" +
				"keep    hostless   mailto:a@b.c\n",
		},
		{
			name:              "public suffix entries are reported",
			whitelist:         []string{"co.uk"},
			removeWithoutHost: true,
			targets:           []string{"shop.co.uk"},
			want: "warning: whitelist entry \"co.uk\" is a public suffix and keeps links to every domain below it\n" +
				"keep    with-host  shop.co.uk\n",
		},
		{
			name:              "empty whitelist without targets",
			removeWithoutHost: true,
			want:              "Whitelist is empty: every link with a host is removed.\n",
		},
		{
			name:              "whitelist without targets",
			whitelist:         []string{"a.com", "b.org"},
			removeWithoutHost: true,
			want:              "Whitelist: a.com, b.org\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.NewConfig()
			cfg.Whitelist = tt.whitelist
			cfg.RemoveWithoutHost = tt.removeWithoutHost

			var buf bytes.Buffer
			if err := runCheck(&buf, cfg, tt.targets); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", buf.String(), tt.want)
			}
		})
	}
}

// TestClassifyTarget tests how check arguments are classified.
func TestClassifyTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		target string
		kind   linkpolicy.Kind
		host   string
	}{
		{target: "example.com", kind: linkpolicy.KindWithHost, host: "example.com"},
		{target: "http://example.com:8080/", kind: linkpolicy.KindWithHost, host: "example.com"},
		{target: "page.html", kind: linkpolicy.KindWithHost, host: "page.html"},
		{target: "./page.html", kind: linkpolicy.KindHostless},
		{target: "", kind: linkpolicy.KindHostless},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			t.Parallel()

			got := classifyTarget(tt.target)
			if got.Kind != tt.kind || got.Host != tt.host {
				t.Errorf("classifyTarget(%q) = %s %q, want %s %q", tt.target, got.Kind, got.Host, tt.kind, tt.host)
			}
		})
	}
}

// TestCheckCmd tests the check command with a configuration profile.
func TestCheckCmd(t *testing.T) {
	t.Parallel()

	configPath := writeConfig(t)

	t.Run("profile whitelist and options apply", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		cmd := NewRootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"check", "-c", configPath, "-P", "forum", "example.com", "forum.org", "evil.com", "/rel"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := "keep    with-host  example.com\n" +
			"keep    with-host  forum.org\n" +
			"unwrap  with-host  evil.com\n" +
			"keep    hostless   /rel\n"
		if out.String() != want {
			t.Errorf("got:\n%s\nwant:\n%s", out.String(), want)
		}
	})

	t.Run("keep-hostless flag overrides the profile", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		cmd := NewRootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"check", "-c", configPath, "-P", "forum", "--keep-hostless=false", "/rel"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(out.String(), "unwrap") {
			t.Errorf("expected unwrap verdict, got %q", out.String())
		}
	})

	t.Run("whitelist flags are merged after the profile", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		cmd := NewRootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"check", "-c", configPath, "-w", "extra.net"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := "Whitelist: example.com, extra.net\n"; out.String() != want {
			t.Errorf("got %q, want %q", out.String(), want)
		}
	})

	t.Run("unknown profile", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"check", "-c", configPath, "-P", "missing"})

		if err := cmd.Execute(); !errors.Is(err, config.ErrUnknownProfile) {
			t.Errorf("expected ErrUnknownProfile, got %v", err)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"check", "-c", configPath + ".missing"})

		if err := cmd.Execute(); !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid whitelist entry", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"check", "-c", configPath, "-w", "http://example.com/"})

		if err := cmd.Execute(); !errors.Is(err, config.ErrInvalidWhitelistEntry) {
			t.Errorf("expected ErrInvalidWhitelistEntry, got %v", err)
		}
	})
}
