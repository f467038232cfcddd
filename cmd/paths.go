package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/cognigen/internal/api"
	"github.com/abhisek/cognigen/internal/auth"
	"github.com/abhisek/cognigen/internal/content"
	"github.com/abhisek/cognigen/internal/engine"
	"github.com/abhisek/cognigen/internal/store"
)

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "List, show and delete learning paths without the TUI",
}

// signIn builds a client and signs in with --email and COGNIGEN_PASSWORD.
func signIn(ctx context.Context, cmd *cobra.Command, e *env) (*api.Client, error) {
	client, err := e.client()
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}
	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		email = os.Getenv("COGNIGEN_EMAIL")
	}
	password := os.Getenv("COGNIGEN_PASSWORD")
	if email == "" || password == "" {
		return nil, errors.New("set --email (or COGNIGEN_EMAIL) and COGNIGEN_PASSWORD to sign in")
	}
	sess := auth.NewSession(client, client, e.log)
	if err := sess.Login(ctx, email, password); err != nil {
		return nil, fmt.Errorf("sign in: %s", api.Message(err))
	}
	return client, nil
}

var pathsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List learning paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		ctx := context.Background()

		if cached, _ := cmd.Flags().GetBool("cached"); cached {
			return listCached(ctx, e.store)
		}

		client, err := signIn(ctx, cmd, e)
		if err != nil {
			return err
		}
		paths, err := client.ListPaths(ctx)
		if err != nil {
			return fmt.Errorf("list paths: %s", api.Message(err))
		}
		if len(paths) == 0 {
			fmt.Println("No learning paths yet.")
			return nil
		}

		fmt.Printf("%-26s  %-32s  %-9s  %6s  %s\n", "ID", "Title", "Status", "Topics", "Progress")
		fmt.Println(strings.Repeat("─", 90))
		for _, p := range paths {
			fmt.Printf("%-26s  %-32s  %-9s  %6d  %5.0f%%\n",
				p.ID, truncate(p.DisplayTitle(), 32), p.Status, len(p.Topics), p.Progress.Percentage)
		}
		return nil
	},
}

func listCached(ctx context.Context, st *store.Store) error {
	cached, err := st.PathCacheRepo().List(ctx)
	if err != nil {
		return fmt.Errorf("list cached paths: %w", err)
	}
	if len(cached) == 0 {
		fmt.Println("No cached paths.")
		return nil
	}
	fmt.Printf("%-26s  %-32s  %s\n", "ID", "Title", "Fetched")
	fmt.Println(strings.Repeat("─", 80))
	for _, c := range cached {
		fmt.Printf("%-26s  %-32s  %s\n", c.PathID, truncate(c.Title, 32), c.FetchedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

var pathsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the outline of a learning path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		ctx := context.Background()

		var path *content.Path
		if cached, _ := cmd.Flags().GetBool("cached"); cached {
			cp, err := e.store.PathCacheRepo().Load(ctx, args[0])
			if err != nil {
				return fmt.Errorf("load cached path: %w", err)
			}
			if cp == nil {
				return fmt.Errorf("path %s is not cached", args[0])
			}
			path = &content.Path{}
			if err := json.Unmarshal(cp.Document, path); err != nil {
				return fmt.Errorf("decode cached path: %w", err)
			}
		} else {
			client, err := signIn(ctx, cmd, e)
			if err != nil {
				return err
			}
			path, err = client.FetchPath(ctx, args[0])
			if err != nil {
				return fmt.Errorf("fetch path: %s", api.Message(err))
			}
		}
		printOutline(path)
		return nil
	},
}

func printOutline(p *content.Path) {
	fmt.Printf("%s  (%s, %.0f%% complete)\n", p.DisplayTitle(), p.Status, p.Progress.Percentage)
	fmt.Println(strings.Repeat("─", 60))
	for i := range p.Topics {
		t := &p.Topics[i]
		gen := ""
		if !t.ContentGenerated {
			gen = "  [not generated]"
		}
		fmt.Printf("%2d. %s  (%s, %d min, %d%%)%s\n", i+1, t.Name, t.Difficulty, t.EstimatedTimeMinutes, t.ProgressPercent(), gen)
		for _, s := range t.Submodules {
			mark := "○"
			if s.Completed {
				mark = "✓"
			}
			quiz := ""
			if s.HasQuiz() {
				quiz = fmt.Sprintf("  quiz: %d", len(s.MiniQuiz))
			}
			fmt.Printf("      %s %s  (%d cells)%s\n", mark, s.Title, len(s.Cells), quiz)
		}
	}
}

var pathsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a learning path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		ctx := context.Background()

		client, err := signIn(ctx, cmd, e)
		if err != nil {
			return err
		}
		paths, err := client.ListPaths(ctx)
		if err != nil {
			return fmt.Errorf("list paths: %s", api.Message(err))
		}
		tracker := engine.NewTracker(client)
		tracker.SetPaths(paths)

		confirm, _ := cmd.Flags().GetString("confirm")
		req, err := tracker.RequestDelete(args[0], confirm)
		if errors.Is(err, engine.ErrConfirmation) {
			return fmt.Errorf("pass --confirm %s to delete %s", engine.DeleteConfirmation, args[0])
		}
		if err != nil {
			return err
		}
		if err := tracker.ResolveDelete(req.Send(ctx)); err != nil {
			return fmt.Errorf("delete path: %s", api.Message(err))
		}
		if err := e.store.PathCacheRepo().Delete(ctx, args[0]); err != nil {
			e.log.Warn("drop cached path", "path", args[0], "error", err)
		}
		fmt.Printf("Deleted %s.\n", args[0])
		return nil
	},
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func init() {
	pathsCmd.PersistentFlags().String("email", "", "Account email (or COGNIGEN_EMAIL); the password is read from COGNIGEN_PASSWORD")
	pathsListCmd.Flags().Bool("cached", false, "List the local cache instead of the server")
	pathsShowCmd.Flags().Bool("cached", false, "Show the locally cached copy")
	pathsDeleteCmd.Flags().String("confirm", "", `Type "delete" to confirm`)

	pathsCmd.AddCommand(pathsListCmd)
	pathsCmd.AddCommand(pathsShowCmd)
	pathsCmd.AddCommand(pathsDeleteCmd)
}
