// Sermon snapshot maintenance CLI
// Inspects, verifies, prunes, and exports snapshot files offline
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Blakthorne/whispersermons-sub001/pkg/ast"
	"github.com/Blakthorne/whispersermons-sub001/pkg/bridge"
	"github.com/Blakthorne/whispersermons-sub001/pkg/query"
	"github.com/Blakthorne/whispersermons-sub001/pkg/snapshot"
	"github.com/Blakthorne/whispersermons-sub001/pkg/state"
)

var (
	pruneKeep    int
	pruneOut     string
	exportEditor bool
	exportOut    string

	rootCmd = &cobra.Command{
		Use:           "sermonctl",
		Short:         "Maintain sermon document snapshot files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	statsCmd = &cobra.Command{
		Use:   "stats <snapshot>",
		Short: "Print document statistics for a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE:  runStats,
	}

	verifyCmd = &cobra.Command{
		Use:   "verify <snapshot>",
		Short: "Check a snapshot file for structural and index consistency",
		Args:  cobra.ExactArgs(1),
		RunE:  runVerify,
	}

	pruneCmd = &cobra.Command{
		Use:   "prune <snapshot>",
		Short: "Trim a snapshot's event log to the newest entries",
		Long: `Trim a snapshot's event log to the newest --keep entries.

Pruning discards the undo and redo history; a restored document keeps
its content but starts with empty history stacks.`,
		Args: cobra.ExactArgs(1),
		RunE: runPrune,
	}

	exportCmd = &cobra.Command{
		Use:   "export <snapshot>",
		Short: "Print a snapshot's document tree as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}
)

func init() {
	pruneCmd.Flags().IntVar(&pruneKeep, "keep", 100, "Newest log entries to keep")
	pruneCmd.Flags().StringVar(&pruneOut, "out", "", "Output file (defaults to rewriting the input)")
	exportCmd.Flags().BoolVar(&exportEditor, "editor", false, "Emit the editor document form instead of the storage tree")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (defaults to stdout)")

	rootCmd.AddCommand(statsCmd, verifyCmd, pruneCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadState(path string) (*state.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return snapshot.Deserialize(data)
}

func runStats(cmd *cobra.Command, args []string) error {
	st, err := loadState(args[0])
	if err != nil {
		return err
	}
	stats := query.NewEngine(st).Stats()

	fmt.Printf("Version:       %d\n", stats.Version)
	fmt.Printf("Created:       %s\n", st.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Last modified: %s\n", st.LastModified.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Words:         %d\n", stats.Words)
	fmt.Printf("Log entries:   %d\n", stats.EventLogLength)
	fmt.Printf("Passages:      %d (%d verified)\n", stats.Passages, stats.VerifiedPassages)
	fmt.Println("Nodes:")
	for _, kind := range []ast.Kind{ast.KindDocument, ast.KindParagraph, ast.KindText, ast.KindPassage, ast.KindInterjection} {
		if n := stats.Nodes[kind]; n > 0 {
			fmt.Printf("  %-13s %d\n", string(kind)+":", n)
		}
	}
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	st, err := loadState(args[0])
	if err != nil {
		return fmt.Errorf("snapshot rejected: %w", err)
	}
	if err := state.CheckConsistency(st); err != nil {
		return fmt.Errorf("consistency check failed: %w", err)
	}
	fmt.Printf("OK: version %d, %d nodes, %d log entries\n",
		st.Version, ast.CountNodes(st.Root), len(st.EventLog))
	return nil
}

func runPrune(cmd *cobra.Command, args []string) error {
	if pruneKeep < 0 {
		return fmt.Errorf("--keep must not be negative, got %d", pruneKeep)
	}
	st, err := loadState(args[0])
	if err != nil {
		return err
	}

	before := len(st.EventLog)
	pruned := snapshot.PruneEventLog(st, pruneKeep)
	data, err := snapshot.Serialize(pruned, snapshot.Options{IncludeEventLog: true})
	if err != nil {
		return err
	}

	out := pruneOut
	if out == "" {
		out = args[0]
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}

	fmt.Printf("Pruned %d of %d log entries, wrote %s\n", before-len(pruned.EventLog), before, out)
	if len(st.UndoStack) > 0 || len(st.RedoStack) > 0 {
		fmt.Println("Warning: undo and redo history was discarded")
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	st, err := loadState(args[0])
	if err != nil {
		return err
	}

	var out any = st.Root
	if exportEditor {
		form, err := bridge.TreeToEditorForm(st.Root)
		if err != nil {
			return err
		}
		out = form
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if exportOut == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(exportOut, data, 0o644)
}
