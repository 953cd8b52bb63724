package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DmitryBochkarev/string-tools/linkpolicy"
)

// NewNormalizeCmd creates the normalize command.
func NewNormalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize [urls...]",
		Short: "Encode internationalized URL hosts in ASCII form",
		Long: `Normalize prints each URL with its host encoded in ASCII (IDNA) form.
Only the host changes; scheme, userinfo, port, path, query and fragment are
printed exactly as given. URLs without a host, and URLs that cannot be parsed,
are printed unchanged.

With no arguments, URLs are read from standard input, one per line.
With --html, standard input is read as an HTML document and the hosts of all
URL attributes (href, src, action and the like) are normalized.

Examples:
  linkfilter normalize http://пример.рф/path
  # http://xn--e1afmkfd.xn--p1ai/path

  cat urls.txt | linkfilter normalize

  linkfilter normalize --html < page.html > page.ascii.html`,
		Args: cobra.ArbitraryArgs,
		RunE: runNormalizeCmd,
	}

	cmd.Flags().Bool("html", false,
		"Read an HTML document from standard input and normalize its URL attributes")

	return cmd
}

// runNormalizeCmd executes the normalize command.
func runNormalizeCmd(cmd *cobra.Command, args []string) error {
	html, err := cmd.Flags().GetBool("html")
	if err != nil {
		return err
	}

	if html {
		if len(args) > 0 {
			return fmt.Errorf("--html reads standard input and takes no arguments, got %d", len(args))
		}
		return normalizeDocument(cmd.InOrStdin(), cmd.OutOrStdout())
	}

	if len(args) > 0 {
		for _, arg := range args {
			fmt.Fprintln(cmd.OutOrStdout(), linkpolicy.NormalizeHost(arg))
		}
		return nil
	}

	return normalizeLines(cmd.InOrStdin(), cmd.OutOrStdout())
}

// normalizeLines normalizes one URL per input line. Blank lines are kept.
func normalizeLines(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if _, err := fmt.Fprintln(w, linkpolicy.NormalizeHost(line)); err != nil {
			return err
		}
	}

	return scanner.Err()
}

// normalizeDocument normalizes the URL attributes of an HTML document.
func normalizeDocument(r io.Reader, w io.Writer) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	_, err = io.WriteString(w, linkpolicy.NormalizeURLs(string(data)))
	return err
}
