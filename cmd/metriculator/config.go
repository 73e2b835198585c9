package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/panbanda/metriculator/pkg/config"
	"github.com/urfave/cli/v2"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the effective configuration",
				Description: `Shows the configuration merged from defaults and the config file.

Examples:
  metriculator config show
  metriculator -c metriculator.toml config show --yaml`,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yaml",
						Usage: "Print YAML instead of TOML",
					},
				},
				Action: runConfigShow,
			},
			{
				Name:      "validate",
				Usage:     "Validate a configuration file against the schema",
				ArgsUsage: "[path]",
				Action:    runConfigValidate,
			},
		},
	}
}

func runConfigShow(c *cli.Context) error {
	cfg, source, err := loadConfig(c)
	if err != nil {
		return err
	}

	format := "toml"
	if c.Bool("yaml") {
		format = "yaml"
	}
	content, err := cfg.Marshal(format)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	w := c.App.Writer
	if source != "" {
		fmt.Fprintf(w, "# Configuration from: %s\n\n", source)
	} else {
		fmt.Fprintln(w, "# Default configuration (no config file found)")
	}
	fmt.Fprint(w, string(content))
	return nil
}

func runConfigValidate(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		path = c.String("config")
	}
	if path == "" {
		path = config.Find()
	}
	if path == "" {
		fmt.Fprintln(c.App.Writer, color.YellowString("No config file found. Default configuration is valid."))
		return nil
	}

	if _, err := config.Validate(path); err != nil {
		fmt.Fprintln(c.App.Writer, color.RedString("Configuration validation failed:"))
		fmt.Fprintf(c.App.Writer, "  - %s\n", err)
		return err
	}
	fmt.Fprintln(c.App.Writer, color.GreenString("Configuration valid: %s", path))
	return nil
}
