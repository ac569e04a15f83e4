// Package main implements the matcha CLI.
//
// This file provides the environment shared by the subcommands: workspace
// discovery, configuration, file logging, registry construction, and suite
// loading.
package main

import (
	"context"
	"fmt"

	"matcha/internal/config"
	"matcha/internal/extension"
	"matcha/internal/logging"
	"matcha/internal/matcher"
	"matcha/internal/matcher/builtin"
	"matcha/internal/suite"
	"matcha/internal/workspace"
)

// cliEnv carries the resolved workspace context a subcommand operates in.
type cliEnv struct {
	Workspace string
	Config    *config.Config
}

// loadEnv resolves the workspace root, loads the configuration, and wires
// the categorized file logger plus the audit trail. Every subcommand that
// touches suites, matchers, or history starts here.
func loadEnv() (*cliEnv, error) {
	ws := workspaceDir
	if ws == "" {
		root, err := workspace.Find("")
		if err != nil {
			return nil, fmt.Errorf("locate workspace: %w", err)
		}
		ws = root
	}

	cfg, err := config.Load(ws)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := logging.Initialize(ws); err != nil {
		return nil, fmt.Errorf("initialize file logging: %w", err)
	}
	if err := logging.InitAudit(); err != nil {
		return nil, fmt.Errorf("initialize audit trail: %w", err)
	}

	return &cliEnv{Workspace: ws, Config: cfg}, nil
}

// Close flushes and closes the file loggers opened by loadEnv.
func (env *cliEnv) Close() {
	logging.CloseAudit()
	logging.CloseAll()
}

// buildRegistry constructs a fresh registry with the builtin catalog and any
// user matchers found under the workspace matcher directory. The registry is
// returned unsealed; the runner seals it before evaluation.
func buildRegistry(ctx context.Context, env *cliEnv) (*matcher.Registry, int, error) {
	reg := matcher.NewRegistry()
	if err := builtin.Register(reg); err != nil {
		return nil, 0, fmt.Errorf("register builtin matchers: %w", err)
	}

	loader := extension.NewLoader(extension.WithTimeout(env.Config.GetLoadTimeout()))
	loaded, err := loader.LoadDir(ctx, workspace.MatchersDir(env.Workspace, env.Config), reg)
	if err != nil {
		return nil, 0, fmt.Errorf("load user matchers: %w", err)
	}

	return reg, loaded, nil
}

// loadSuites loads the suites named by args, or every suite under the
// configured suites directory when args is empty.
func loadSuites(env *cliEnv, args []string) ([]*suite.Suite, error) {
	if len(args) > 0 {
		return suite.LoadPaths(args)
	}
	return suite.LoadDir(workspace.SuitesDir(env.Workspace, env.Config))
}
