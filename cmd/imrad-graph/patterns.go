// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/imrad-graph/internal/patterns"
	"github.com/pdiddy/imrad-graph/pkg/types"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Manage the learned cue-pattern store",
	Long: `Patterns inspects and maintains the store of cue patterns learned from
accepted fallback decisions. Learned patterns feed back into the rule
classifier on subsequent runs.`,
}

// --- list subcommand ---

var patternsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List learned patterns with provenance",
	RunE:  runPatternsList,
}

func runPatternsList(cmd *cobra.Command, args []string) error {
	s, err := openPatterns(cmd)
	if err != nil {
		return err
	}

	typeFilter, _ := cmd.Flags().GetString("type")

	entries := s.Snapshot()
	shown := 0
	fmt.Fprintf(os.Stdout, "%-45s  %-12s  %-14s  %s\n", "Pattern", "Type", "Run", "Learned")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 95))
	for _, e := range entries {
		if typeFilter != "" && string(e.Type) != typeFilter {
			continue
		}
		pattern := e.Pattern
		if len(pattern) > 45 {
			pattern = pattern[:42] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-45s  %-12s  %-14s  %s\n",
			pattern, e.Type, e.RunID, e.Timestamp.Format("2006-01-02"))
		shown++
	}
	fmt.Fprintf(os.Stdout, "\n%d patterns\n", shown)
	return nil
}

// --- prune subcommand ---

var patternsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove stale or unwanted learned patterns",
	Long: `Prune removes learned patterns, either one at a time by exact pattern
text and type, or in bulk by age. Built-in cue patterns are never affected.`,
	RunE: runPatternsPrune,
}

func runPatternsPrune(cmd *cobra.Command, args []string) error {
	s, err := openPatterns(cmd)
	if err != nil {
		return err
	}

	pattern, _ := cmd.Flags().GetString("pattern")
	typeName, _ := cmd.Flags().GetString("type")
	olderThan, _ := cmd.Flags().GetDuration("older-than")

	if pattern != "" {
		if typeName == "" {
			return fmt.Errorf("--pattern requires --type")
		}
		removed, err := s.Remove(pattern, types.NodeType(typeName))
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("pattern not found: %q (%s)", pattern, typeName)
		}
		fmt.Println("removed 1 pattern")
		return nil
	}

	if olderThan > 0 {
		cutoff := time.Now().Add(-olderThan)
		removed := 0
		for _, e := range s.Snapshot() {
			if e.Timestamp.Before(cutoff) {
				ok, err := s.Remove(e.Pattern, e.Type)
				if err != nil {
					return err
				}
				if ok {
					removed++
				}
			}
		}
		fmt.Printf("removed %d pattern(s)\n", removed)
		return nil
	}

	return fmt.Errorf("nothing to prune: provide --pattern with --type, or --older-than")
}

func openPatterns(cmd *cobra.Command) (*patterns.Store, error) {
	path, _ := cmd.Flags().GetString("patterns")
	return patterns.Open(types.PatternStoreConfig{Path: path})
}

func init() {
	patternsCmd.PersistentFlags().String("patterns", "knowledge/patterns.yaml", "learned cue-pattern store file")

	patternsListCmd.Flags().String("type", "", "filter by node type")

	patternsPruneCmd.Flags().String("pattern", "", "exact pattern text to remove")
	patternsPruneCmd.Flags().String("type", "", "node type of the pattern to remove")
	patternsPruneCmd.Flags().Duration("older-than", 0, "remove patterns learned longer ago than this (e.g. 720h)")

	patternsCmd.AddCommand(patternsListCmd)
	patternsCmd.AddCommand(patternsPruneCmd)

	rootCmd.AddCommand(patternsCmd)
}
