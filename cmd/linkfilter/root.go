package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/DmitryBochkarev/string-tools/internal/config"
	seclog "github.com/DmitryBochkarev/string-tools/internal/log"
)

// NewRootCmd creates the root command for linkfilter.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkfilter",
		Short: "Remove links to non-whitelisted domains from HTML",
		Long: `linkfilter removes links to domains outside a whitelist from HTML documents.

A removed anchor is replaced by its content, so the link text stays in place.
Links to a whitelisted domain or any of its subdomains are kept. Links without
a host (relative paths, fragments, mailto:) are removed unless --keep-hostless
is given, and links that cannot be parsed are always kept.

Whitelists can be given with -w or read from a profile in the configuration
file (.linkfilter in the current or home directory, or config.yaml in the XDG
config directory).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .linkfilter in current or home directory)")
	cmd.PersistentFlags().StringP("profile", "P", "",
		"Whitelist profile from the configuration file")

	// Add subcommands
	cmd.AddCommand(NewFilterCmd())
	cmd.AddCommand(NewNormalizeCmd())
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getStringFlag retrieves a global string flag from the command or its
// parent. It returns "" when neither defines the flag.
func getStringFlag(cmd *cobra.Command, name string) string {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		value, err = cmd.Root().PersistentFlags().GetString(name)
		if err != nil {
			return ""
		}
	}
	return value
}

// setupLogger creates a structured logger based on verbosity setting.
// Hrefs are logged at debug level, so the handler masks credentials.
func setupLogger(verbose bool) *slog.Logger {
	return seclog.NewSecureLogger(os.Stderr, verbose)
}

// policyFlags registers the flags shared by commands that build a policy.
func policyFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("whitelist", "w", nil,
		"Domain whose links are kept, with its subdomains (repeatable)")
	cmd.Flags().BoolP("keep-hostless", "k", false,
		"Keep links without a host (relative paths, fragments, mailto:)")
}

// loadPolicyConfig fills the whitelist and policy options of cfg from the
// configuration file profile and the command flags. Flags win over the
// profile; whitelists are merged, profile entries first.
func loadPolicyConfig(cmd *cobra.Command, cfg *config.Config) error {
	var err error

	cfg.Whitelist, err = cmd.Flags().GetStringArray("whitelist")
	if err != nil {
		return err
	}

	cfg.ConfigFilePath = getStringFlag(cmd, "config")
	cfg.Profile = getStringFlag(cmd, "profile")

	// An explicit config path must exist; the default locations are optional.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case configPath != "":
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		profile, err := cf.GetProfile(cfg.Profile)
		if err != nil {
			return err
		}
		cfg.ApplyProfile(profile)
	case explicitConfigPath:
		return fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	case cfg.Profile != "":
		return fmt.Errorf("%w: %q (no configuration file found)", config.ErrUnknownProfile, cfg.Profile)
	}

	if cmd.Flags().Changed("keep-hostless") {
		keep, err := cmd.Flags().GetBool("keep-hostless")
		if err != nil {
			return err
		}
		cfg.RemoveWithoutHost = !keep
	}

	return config.ValidateWhitelist(cfg.Whitelist)
}

// errDocumentsFailed is returned when at least one document of a batch
// could not be filtered.
var errDocumentsFailed = errors.New("some documents could not be filtered")
