package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DmitryBochkarev/string-tools/internal/config"
	"github.com/DmitryBochkarev/string-tools/linkpolicy"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [hosts-or-urls...]",
		Short: "Show which links the whitelist keeps",
		Long: `Check prints the verdict the filter would take for a link to each argument.
An argument is a URL, or a bare host name such as www.example.com, which is
checked as a link to that host.

Check also warns about whitelist entries that are public suffixes (such as
co.uk or com.ua): they keep links to every domain registered below them.

Examples:
  linkfilter check -w example.com www.example.com evil.com /relative
  # keep    with-host  www.example.com
  # unwrap  with-host  evil.com
  # unwrap  hostless   /relative

  # Check the whitelist of a profile
  linkfilter check -P forum`,
		Args: cobra.ArbitraryArgs,
		RunE: runCheckCmd,
	}

	policyFlags(cmd)

	return cmd
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()
	if err := loadPolicyConfig(cmd, cfg); err != nil {
		return err
	}

	return runCheck(cmd.OutOrStdout(), cfg, args)
}

// runCheck writes the whitelist warnings and one verdict line per target.
func runCheck(w io.Writer, cfg *config.Config, targets []string) error {
	for _, entry := range linkpolicy.PublicSuffixEntries(cfg.Whitelist) {
		fmt.Fprintf(w, "warning: whitelist entry %q is a public suffix and keeps links to every domain below it\n", entry)
	}

	if len(targets) == 0 {
		if len(cfg.Whitelist) == 0 {
			fmt.Fprintln(w, "Whitelist is empty: every link with a host is removed.")
			return nil
		}
		fmt.Fprintf(w, "Whitelist: %s\n", strings.Join(cfg.Whitelist, ", "))
		return nil
	}

	policy := linkpolicy.NewPolicy(cfg.Whitelist, linkpolicy.WithRemoveWithoutHost(cfg.RemoveWithoutHost))
	for _, target := range targets {
		u := classifyTarget(target)
		fmt.Fprintf(w, "%-7s %-10s %s\n", policy.DecideURL(u).String(), u.Kind.String(), target)
	}
	return nil
}

// classifyTarget classifies a check argument. A bare host name would parse
// as a relative path, so an argument without a scheme, slash or colon is
// checked as a scheme-relative link to that host.
func classifyTarget(target string) linkpolicy.ParsedURL {
	if target != "" && !strings.ContainsAny(target, "/:?#") {
		if u := linkpolicy.Classify("//" + target); u.HasHost() {
			return u
		}
	}
	return linkpolicy.Classify(target)
}
