package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/cognigen/internal/store"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recorded edits and their outcomes",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		pathID, _ := cmd.Flags().GetString("path")
		failed, _ := cmd.Flags().GetBool("failed")

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		recs, err := e.store.JournalRepo().Query(context.Background(), store.QueryOpts{Limit: limit, PathID: pathID})
		if err != nil {
			return fmt.Errorf("query journal: %w", err)
		}
		if len(recs) == 0 {
			fmt.Println("No edits recorded.")
			return nil
		}

		fmt.Printf("%-19s  %-18s  %-9s  %-36s  %s\n", "Timestamp", "Kind", "Phase", "Label", "Error")
		fmt.Println(strings.Repeat("─", 100))
		for _, r := range recs {
			if failed && r.Phase != "failed" {
				continue
			}
			fmt.Printf("%-19s  %-18s  %-9s  %-36s  %s\n",
				r.Timestamp.Local().Format("2006-01-02 15:04:05"),
				r.Kind,
				r.Phase,
				truncate(r.Label, 36),
				r.Error,
			)
		}
		return nil
	},
}

func init() {
	journalCmd.Flags().IntP("limit", "n", 50, "Number of records to show")
	journalCmd.Flags().String("path", "", "Only show edits of this path id")
	journalCmd.Flags().Bool("failed", false, "Only show failed edits")
}
