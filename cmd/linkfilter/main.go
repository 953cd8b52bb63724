// Package main provides the entry point for the linkfilter CLI.
//
// linkfilter removes links to domains outside a whitelist from HTML
// documents. Removed anchors are replaced by their content, so the text
// stays in place. It can also encode internationalized hosts in URLs in
// their ASCII form.
//
// Usage:
//
//	linkfilter filter -w example.com page.html
//	linkfilter normalize http://пример.рф/
//	linkfilter check -w example.com www.example.com
//
// See --help for all available options.
package main

// main is the entry point for linkfilter.
func main() {
	Execute()
}
