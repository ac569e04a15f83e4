// Package main implements the matcha CLI.
//
// This file provides the matchers commands: catalog listing and per-matcher
// documentation.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"matcha/internal/matcher"
)

// matchersCmd is the parent command for matcher catalog operations
var matchersCmd = &cobra.Command{
	Use:   "matchers",
	Short: "List registered matchers",
	Long: `Lists every matcher the registry would hold for this workspace:
the builtin catalog plus user matchers loaded from .matcha/matchers/.

Examples:
  matcha matchers                          # full catalog
  matcha matchers describe be_the_square_of`,
	RunE: listMatchers,
}

// matchersDescribeCmd renders one matcher's documentation
var matchersDescribeCmd = &cobra.Command{
	Use:   "describe [name]",
	Short: "Show a matcher's documentation",
	Args:  cobra.ExactArgs(1),
	RunE:  describeMatcher,
}

func listMatchers(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := context.WithTimeout(context.Background(), env.Config.GetLoadTimeout())
	defer cancel()

	reg, _, err := buildRegistry(ctx, env)
	if err != nil {
		return err
	}

	fmt.Printf("%-28s %-8s %s\n", "NAME", "SOURCE", "DOC")
	fmt.Println(strings.Repeat("-", 72))
	for _, name := range reg.Names() {
		def, ok := reg.Lookup(name)
		if !ok {
			continue
		}
		fmt.Printf("%-28s %-8s %s\n", def.Name(), def.Source(), firstLine(def.Doc()))
	}
	fmt.Printf("\n%d matcher(s) registered\n", reg.Len())
	return nil
}

func describeMatcher(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := context.WithTimeout(context.Background(), env.Config.GetLoadTimeout())
	defer cancel()

	reg, _, err := buildRegistry(ctx, env)
	if err != nil {
		return err
	}

	name := args[0]
	def, ok := reg.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", matcher.ErrUnknownMatcher, name)
	}

	doc := def.Doc()
	if doc == "" {
		doc = "_No documentation._"
	}
	md := fmt.Sprintf("# %s\n\nSource: `%s`\n\n%s\n", def.Name(), def.Source(), doc)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Plain markdown is still readable without a renderer
		fmt.Print(md)
		return nil
	}
	out, err := renderer.Render(md)
	if err != nil {
		fmt.Print(md)
		return nil
	}
	fmt.Print(out)
	return nil
}

// firstLine truncates a doc string to its first line for table display.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func init() {
	matchersCmd.AddCommand(matchersDescribeCmd)
}
