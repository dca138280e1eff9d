package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/samarth/internal/config"
	"github.com/diogo/samarth/internal/render"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long: `Manage the samarth configuration file (~/.samarth/config.json,
or $SAMARTH_HOME/config.json).

Settable keys:
  ` + strings.Join(config.Keys(), "\n  "),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showConfig()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting",
		Long: `Change a setting and save the configuration file.

default_model accepts ` + joinNames(config.AvailableModels()) + ` or a full model name.
markdown.style accepts ` + joinNames(render.ThemeNames()) + ` or a JSON style file.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.setConfig(args[0], args[1])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "styles",
		Short: "List the markdown styles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, theme := range render.AvailableThemes() {
				marker := " "
				if theme.Name == a.cfg.Markdown.Style {
					marker = "*"
				}
				fmt.Fprintf(a.deps.Stdout, "%s %-12s %s\n", marker, theme.Name, theme.Description)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.deps.Stdout, path)
			return nil
		},
	})

	return cmd
}

func (a *app) showConfig() error {
	data, err := json.MarshalIndent(a.cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprintln(a.deps.Stdout, string(data))

	key, err := config.LoadAPIKey()
	if err != nil {
		fmt.Fprintf(a.deps.Stdout, "api key: not set (%s)\n", strings.Join(config.APIKeyEnvVars, " or "))
	} else {
		fmt.Fprintf(a.deps.Stdout, "api key: %s\n", config.MaskAPIKey(key))
	}
	return nil
}

func (a *app) setConfig(key, value string) error {
	if key == "markdown.style" {
		if err := render.ValidateStyle(value); err != nil {
			return err
		}
	}

	cfg := a.cfg
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := config.SaveConfig(cfg); err != nil {
		return err
	}
	a.cfg = cfg
	fmt.Fprintf(a.deps.Stdout, "%s = %s\n", key, value)
	return nil
}

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}
