package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/DmitryBochkarev/string-tools/internal/config"
)

//go:embed templates/linkfilter.yaml
var configTemplate embed.FS

// configFileName is the default configuration file name.
const configFileName = config.DefaultConfigFile

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new linkfilter configuration file",
		Long: `Initialize creates a new .linkfilter configuration file in the current directory.

The generated file includes:
- A defaults section with an empty whitelist
- Commented examples of named whitelist profiles
- Documentation for all available options

Examples:
  # Create .linkfilter in current directory
  linkfilter init

  # Create the file in the XDG config directory
  linkfilter init --xdg

  # Create config file at a specific path
  linkfilter init -o myconfig.yaml

  # Force overwrite existing file
  linkfilter init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")
	cmd.Flags().Bool("xdg", false,
		"Write config.yaml in the XDG config directory instead of --output")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	xdgDir, err := cmd.Flags().GetBool("xdg")
	if err != nil {
		return err
	}
	if xdgDir {
		outputPath = filepath.Join(config.XDGConfigDir(), config.XDGConfigFile)
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/linkfilter.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0o600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure:")
	fmt.Fprintln(out, "  - The domains whose links are kept")
	fmt.Fprintln(out, "  - Whether links without a host are removed")
	fmt.Fprintln(out, "  - Named whitelist profiles, selected with -P")

	return nil
}
