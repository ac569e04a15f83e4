// Package main implements the matcha CLI.
//
// This file provides the config commands: showing the effective
// configuration and writing individual keys.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"matcha/internal/config"
	"matcha/internal/workspace"
)

// configCmd prints the effective configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Prints the configuration matcha would use for this workspace:
defaults, overlaid by .matcha/config.yaml, overlaid by MATCHA_*
environment variables.

Examples:
  matcha config
  matcha config set runner.parallelism 8
  matcha config set report.format json`,
	RunE: showConfig,
}

// configSetCmd writes one configuration key
var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration key and write the config file",
	Long: `Sets a dotted configuration key and writes .matcha/config.yaml.

Keys: runner.parallelism, runner.timeout_seconds, report.format,
report.color, suites.dir, history.enabled, history.path, history.keep,
watch.debounce_ms, matchers.user_dir, matchers.load_timeout_seconds,
logging.debug_mode, logging.level`,
	Args: cobra.ExactArgs(2),
	RunE: setConfigKey,
}

func showConfig(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	out, err := yaml.Marshal(env.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Printf("# workspace: %s\n# file: %s\n", env.Workspace, config.Path(env.Workspace))
	fmt.Print(string(out))
	return nil
}

func setConfigKey(cmd *cobra.Command, args []string) error {
	ws := workspaceDir
	if ws == "" {
		root, err := workspace.Find("")
		if err != nil {
			return fmt.Errorf("locate workspace: %w", err)
		}
		ws = root
	}

	// LoadFile, not Load: set must never persist MATCHA_* env values
	cfg, err := config.LoadFile(ws)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Set(args[0], args[1]); err != nil {
		return err
	}
	if err := cfg.Save(ws); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("%s = %s (written to %s)\n", args[0], args[1], config.Path(ws))
	return nil
}

func init() {
	configCmd.AddCommand(configSetCmd)
}
