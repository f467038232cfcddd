package cmd

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/cognigen/internal/llm"
	"github.com/abhisek/cognigen/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect generation requests made by the sandbox",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent generation requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		failed, _ := cmd.Flags().GetBool("failed")
		if purpose != "" && !slices.Contains(llm.Purposes, purpose) {
			return fmt.Errorf("unknown purpose %q (want one of %s)", purpose, strings.Join(llm.Purposes, ", "))
		}

		en, err := setup(cmd)
		if err != nil {
			return err
		}
		defer en.Close()

		opts := store.QueryOpts{Purpose: purpose}
		if !failed {
			opts.Limit = limit
		}
		events, err := en.store.EventRepo().QueryLLMEvents(context.Background(), opts)
		if err != nil {
			return fmt.Errorf("query requests: %w", err)
		}
		if failed {
			events = slices.DeleteFunc(events, func(e store.LLMRequestEventRecord) bool { return e.Success })
			if limit > 0 && len(events) > limit {
				events = events[:limit]
			}
		}
		if len(events) == 0 {
			fmt.Println("No generation requests recorded.")
			return nil
		}

		fmt.Printf("%-5s  %-16s  %-11s  %-26s  %11s  %6s  %s\n",
			"ID", "When", "Purpose", "Model", "Tokens", "Ms", "Result")
		fmt.Println(strings.Repeat("─", 96))
		for _, e := range events {
			result := "ok"
			if !e.Success {
				result = truncate(e.ErrorMessage, 24)
			}
			fmt.Printf("%-5d  %-16s  %-11s  %-26s  %5d/%-5d  %6d  %s\n",
				e.ID, e.Timestamp.Local().Format("01-02 15:04:05"), e.Purpose,
				truncate(e.Model, 26), e.InputTokens, e.OutputTokens, e.LatencyMs, result)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and reply of one generation request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid request id %q", args[0])
		}

		en, err := setup(cmd)
		if err != nil {
			return err
		}
		defer en.Close()

		ev, err := en.store.EventRepo().GetLLMEvent(context.Background(), id)
		if err != nil {
			return fmt.Errorf("get request: %w", err)
		}
		if ev == nil {
			return fmt.Errorf("request %d not found", id)
		}

		fmt.Printf("Request %d (%s) at %s\n", ev.ID, ev.Purpose, ev.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("  %s / %s, %d tokens in, %d out, %dms\n",
			ev.Provider, ev.Model, ev.InputTokens, ev.OutputTokens, ev.LatencyMs)
		if cost := llm.LookupCost(ev.Model); cost != nil {
			fmt.Printf("  estimated cost %s\n", formatCost(cost.Cost(ev.InputTokens, ev.OutputTokens)))
		}
		if !ev.Success {
			fmt.Printf("  failed: %s\n", ev.ErrorMessage)
		}
		printBody("Prompt", ev.RequestBody)
		printBody("Reply", ev.ResponseBody)
		return nil
	},
}

func printBody(title, body string) {
	fmt.Printf("\n── %s %s\n", title, strings.Repeat("─", 56-len(title)))
	if body == "" {
		fmt.Println("(not captured)")
		return
	}
	fmt.Println(body)
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize generation token usage and estimated cost per purpose",
	RunE: func(cmd *cobra.Command, args []string) error {
		en, err := setup(cmd)
		if err != nil {
			return err
		}
		defer en.Close()

		events, err := en.store.EventRepo().QueryLLMEvents(context.Background(), store.QueryOpts{})
		if err != nil {
			return fmt.Errorf("query requests: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No generation requests recorded.")
			return nil
		}

		rows, unpriced := usageByPurpose(events)
		fmt.Printf("%-12s  %6s  %6s  %10s  %10s  %8s  %10s\n",
			"Purpose", "Calls", "Failed", "Input", "Output", "Avg Ms", "Cost")
		fmt.Println(strings.Repeat("─", 74))
		var total usage
		for _, u := range rows {
			fmt.Printf("%-12s  %6d  %6d  %10d  %10d  %8d  %10s\n",
				u.Purpose, u.Calls, u.Failed, u.InputTokens, u.OutputTokens, u.avgLatency(), formatCost(u.Cost))
			total.add(u)
		}
		fmt.Println(strings.Repeat("─", 74))
		fmt.Printf("%-12s  %6d  %6d  %10d  %10d  %8s  %10s\n",
			"total", total.Calls, total.Failed, total.InputTokens, total.OutputTokens, "", formatCost(total.Cost))
		if len(unpriced) > 0 {
			fmt.Printf("\nNo pricing for %s; their calls are not in the cost column.\n", strings.Join(unpriced, ", "))
		}
		return nil
	},
}

// usage aggregates requests sharing a purpose.
type usage struct {
	Purpose      string
	Calls        int
	Failed       int
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Cost         float64
}

func (u *usage) add(o usage) {
	u.Calls += o.Calls
	u.Failed += o.Failed
	u.InputTokens += o.InputTokens
	u.OutputTokens += o.OutputTokens
	u.LatencyMs += o.LatencyMs
	u.Cost += o.Cost
}

func (u usage) avgLatency() int64 {
	if u.Calls == 0 {
		return 0
	}
	return u.LatencyMs / int64(u.Calls)
}

// usageByPurpose groups events by purpose, busiest first, and reports the
// models it had no price for.
func usageByPurpose(events []store.LLMRequestEventRecord) ([]usage, []string) {
	byPurpose := make(map[string]*usage)
	unpriced := make(map[string]bool)
	for _, e := range events {
		u, ok := byPurpose[e.Purpose]
		if !ok {
			u = &usage{Purpose: e.Purpose}
			byPurpose[e.Purpose] = u
		}
		one := usage{Calls: 1, InputTokens: e.InputTokens, OutputTokens: e.OutputTokens, LatencyMs: e.LatencyMs}
		if !e.Success {
			one.Failed = 1
		}
		if cost := llm.LookupCost(e.Model); cost != nil {
			one.Cost = cost.Cost(e.InputTokens, e.OutputTokens)
		} else {
			unpriced[e.Model] = true
		}
		u.add(one)
	}

	out := make([]usage, 0, len(byPurpose))
	for _, u := range byPurpose {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Calls != out[j].Calls {
			return out[i].Calls > out[j].Calls
		}
		return out[i].Purpose < out[j].Purpose
	})
	models := make([]string, 0, len(unpriced))
	for m := range unpriced {
		models = append(models, m)
	}
	sort.Strings(models)
	return out, models
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only this purpose ("+strings.Join(llm.Purposes, ", ")+")")
	llmListCmd.Flags().Bool("failed", false, "Only failed requests")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
