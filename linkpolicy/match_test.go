package linkpolicy

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestMatches tests label-suffix matching of hosts against whitelists.
func TestMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		host      string
		whitelist []string
		want      bool
	}{
		{name: "exact domain", host: "yandex.ru", whitelist: []string{"yandex.ru"}, want: true},
		{name: "subdomain", host: "www.yandex.ru", whitelist: []string{"yandex.ru"}, want: true},
		{name: "deep subdomain", host: "firm.pulscen.com.ua", whitelist: []string{"yandex.ru", "pulscen.com.ua"}, want: true},
		{name: "parent of whitelisted domain", host: "com.ua", whitelist: []string{"pulscen.com.ua"}, want: false},
		{name: "whitelisted subdomain does not allow its parent", host: "yandex.ru", whitelist: []string{"www.yandex.ru"}, want: false},
		{name: "string suffix that is not a label suffix", host: "notyandex.ru", whitelist: []string{"yandex.ru"}, want: false},
		{name: "ASCII labels ignore case", host: "WWW.Yandex.RU", whitelist: []string{"yandex.ru"}, want: true},
		{name: "ASCII entry in upper case", host: "www.yandex.ru", whitelist: []string{"YANDEX.RU"}, want: true},
		{name: "unicode subdomain", host: "www.фермаежей.рф", whitelist: []string{"фермаежей.рф"}, want: true},
		{name: "unicode label with extra prefix", host: "www.мояфермаежей.рф", whitelist: []string{"фермаежей.рф"}, want: false},
		{name: "unicode labels compare exactly", host: "ФЕРМАЕЖЕЙ.РФ", whitelist: []string{"фермаежей.рф"}, want: false},
		{name: "punycode host against unicode entry", host: "xn--80ajbaetq5a8a.xn--p1ai", whitelist: []string{"фермаежей.рф"}, want: false},
		{name: "trailing root dot on host", host: "example.com.", whitelist: []string{"example.com"}, want: true},
		{name: "trailing root dot on entry", host: "www.example.com", whitelist: []string{"example.com."}, want: true},
		{name: "top level entry", host: "example.com", whitelist: []string{"com"}, want: true},
		{name: "empty whitelist", host: "example.com", whitelist: nil, want: false},
		{name: "empty host", host: "", whitelist: []string{"example.com"}, want: false},
		{name: "empty entry is ignored", host: "a.example.com", whitelist: []string{"", "example.com"}, want: true},
		{name: "only empty entries", host: "example.com", whitelist: []string{""}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Matches(tt.host, tt.whitelist); got != tt.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.host, tt.whitelist, got, tt.want)
			}
		})
	}
}

// TestWhitelist tests the Whitelist type.
func TestWhitelist(t *testing.T) {
	t.Parallel()

	t.Run("keeps first-seen order without duplicates or empty names", func(t *testing.T) {
		t.Parallel()

		w := NewWhitelist("yandex.ru", "", "pulscen.com.ua", "yandex.ru")
		want := []string{"yandex.ru", "pulscen.com.ua"}
		if diff := cmp.Diff(want, w.Domains()); diff != "" {
			t.Errorf("Domains() mismatch (-want +got):\n%s", diff)
		}
		if w.Len() != 2 {
			t.Errorf("Len() = %d, want 2", w.Len())
		}
	})

	t.Run("nil whitelist matches nothing", func(t *testing.T) {
		t.Parallel()

		var w *Whitelist
		if w.Matches("example.com") {
			t.Error("nil whitelist should not match")
		}
		if w.Len() != 0 {
			t.Errorf("Len() = %d, want 0", w.Len())
		}
		if w.Domains() != nil {
			t.Errorf("Domains() = %v, want nil", w.Domains())
		}
	})

	t.Run("zero value matches nothing", func(t *testing.T) {
		t.Parallel()

		var w Whitelist
		if w.Matches("example.com") {
			t.Error("zero whitelist should not match")
		}
	})
}

// TestPublicSuffixEntries tests detection of whitelist entries that are
// registry suffixes.
func TestPublicSuffixEntries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		whitelist []string
		want      []string
	}{
		{
			name:      "registry suffixes are reported in order",
			whitelist: []string{"yandex.ru", "com.ua", "рф", "pulscen.com.ua", "co.uk"},
			want:      []string{"com.ua", "рф", "co.uk"},
		},
		{
			name:      "case and trailing dot are ignored",
			whitelist: []string{"COM.UA."},
			want:      []string{"COM.UA."},
		},
		{
			name:      "registered domains only",
			whitelist: []string{"google.com", "фермаежей.рф", "www.example.co.uk"},
			want:      nil,
		},
		{
			name:      "empty entries are skipped",
			whitelist: []string{"", "."},
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := PublicSuffixEntries(tt.whitelist)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("PublicSuffixEntries() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
