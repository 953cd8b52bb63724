// Package linkpolicy filters hyperlinks in an HTML fragment against a domain
// whitelist and normalizes internationalized hosts in URL attributes.
//
// # Removing links
//
// [RemoveLinks] unwraps every anchor whose target is not allowed: the <a>
// element disappears, its content stays in place. Everything else in the
// fragment is rendered exactly as it was written.
//
//	out := linkpolicy.RemoveLinks(in, []string{"example.com"})
//
// An anchor's href is classified by [Classify] into one of three kinds:
//   - [KindWithHost]: kept when the host matches the whitelist, unwrapped otherwise
//   - [KindHostless]: unwrapped by default, kept with WithRemoveWithoutHost(false)
//   - [KindUnparsable]: always kept, since its target cannot be evaluated
//
// Whitelist matching works on dot-separated labels compared from the right.
// A whitelisted domain allows itself and all of its subdomains, but never its
// parent: "www.example.com" does not allow "example.com". ASCII labels compare
// case-insensitively; other labels compare exactly, without any Unicode or
// IDNA normalization.
//
// Anchors nested inside anchors are resolved innermost first, so the result
// never contains a partially removed link.
//
// # Normalizing hosts
//
// [NormalizeHost] rewrites the host of a URL to its ASCII-compatible (IDNA)
// form and leaves every other byte alone. [NormalizeURLs] applies it to all
// URL-bearing attributes of a fragment.
//
// # Concurrency
//
// All functions are pure. A [Policy] is immutable after construction and can
// be shared between goroutines; a Document must not be rewritten by two
// goroutines at once.
package linkpolicy
