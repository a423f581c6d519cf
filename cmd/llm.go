package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/llm"
	"github.com/abhisek/adaptiq/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded LLM traffic",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM events, newest first",
	RunE:  runLLMList,
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Print one LLM event with its full request and response",
	Args:  cobra.ExactArgs(1),
	RunE:  runLLMView,
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize token usage per purpose and estimated cost per model",
	RunE:  runLLMStats,
}

func rule(width int) string { return strings.Repeat("─", width) }

func runLLMList(cmd *cobra.Command, _ []string) error {
	opts := store.QueryOpts{}
	opts.Limit, _ = cmd.Flags().GetInt("limit")
	opts.Purpose, _ = cmd.Flags().GetString("purpose")
	opts.AttemptID, _ = cmd.Flags().GetString("attempt")
	if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
		opts.From = time.Now().Add(-since)
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("query events: %w", err)
	}
	if len(events) == 0 {
		fmt.Println("No LLM events found.")
		return nil
	}

	fmt.Printf("%-5s  %-19s  %-6s  %-11s  %-26s  %-12s  %6s  %6s  %6s  %s\n",
		"ID", "Time", "Kind", "Purpose", "Model", "Attempt", "In", "Out", "Ms", "OK")
	fmt.Println(rule(116))
	for _, e := range events {
		ok := "✓"
		if !e.Success {
			ok = "✗"
		}
		attempt := e.AttemptID
		if attempt == "" {
			attempt = "-"
		}
		fmt.Printf("%-5d  %-19s  %-6s  %-11s  %-26s  %-12s  %6d  %6d  %6d  %s\n",
			e.ID, e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Kind,
			truncate(e.Purpose, 11), truncate(e.Model, 26), truncate(attempt, 12),
			e.InputTokens, e.OutputTokens, e.LatencyMs, ok)
	}
	return nil
}

func runLLMView(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid event id %q", args[0])
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("get event: %w", err)
	}
	if e == nil {
		return fmt.Errorf("event %d not found", id)
	}

	fields := [][2]string{
		{"ID", strconv.Itoa(e.ID)},
		{"Time", e.Timestamp.Local().Format(time.RFC3339)},
		{"Kind", e.Kind},
		{"Vendor", e.Provider},
		{"Model", e.Model},
		{"Purpose", e.Purpose},
		{"Attempt", e.AttemptID},
		{"Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens)},
		{"Latency", fmt.Sprintf("%dms", e.LatencyMs)},
		{"Success", strconv.FormatBool(e.Success)},
		{"Error", e.ErrorMessage},
	}
	for _, f := range fields {
		if f[1] != "" {
			fmt.Printf("%-9s  %s\n", f[0]+":", f[1])
		}
	}

	for _, body := range []struct{ title, text string }{
		{"REQUEST", e.RequestBody},
		{"RESPONSE", e.ResponseBody},
	} {
		fmt.Printf("\n%s\n%s\n%s\n", rule(60), body.title, rule(60))
		if body.text == "" {
			body.text = "(not captured)"
		}
		fmt.Println(strings.TrimRight(body.text, "\n"))
	}
	return nil
}

func runLLMStats(cmd *cobra.Command, _ []string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	byPurpose, err := s.EventRepo().LLMUsageByPurpose(ctx)
	if err != nil {
		return fmt.Errorf("query usage: %w", err)
	}
	if len(byPurpose) == 0 {
		fmt.Println("No LLM usage recorded yet.")
		return nil
	}

	fmt.Println("Usage by purpose")
	fmt.Println(rule(72))
	fmt.Printf("%-16s  %6s  %10s  %10s  %10s  %8s\n", "Purpose", "Calls", "Input", "Output", "Total", "Avg ms")
	fmt.Println(rule(72))
	var calls, in, out int
	for _, st := range byPurpose {
		fmt.Printf("%-16s  %6d  %10d  %10d  %10d  %8d\n",
			truncate(st.Purpose, 16), st.Calls, st.InputTokens, st.OutputTokens, st.InputTokens+st.OutputTokens, st.AvgLatencyMs)
		calls, in, out = calls+st.Calls, in+st.InputTokens, out+st.OutputTokens
	}
	fmt.Println(rule(72))
	fmt.Printf("%-16s  %6d  %10d  %10d  %10d\n", "TOTAL", calls, in, out, in+out)

	byModel, err := s.EventRepo().LLMUsageByModel(ctx)
	if err != nil {
		return fmt.Errorf("query model usage: %w", err)
	}
	if len(byModel) == 0 {
		return nil
	}

	fmt.Println()
	fmt.Println("Estimated cost (USD)")
	fmt.Println(rule(72))
	fmt.Printf("%-32s  %6s  %10s  %10s  %9s\n", "Model", "Calls", "Input", "Output", "Cost")
	fmt.Println(rule(72))
	var (
		total    float64
		unpriced []string
	)
	for _, mu := range byModel {
		cost := "?"
		if price := llm.LookupCost(mu.Model); price != nil {
			c := price.Cost(mu.InputTokens, mu.OutputTokens)
			total += c
			cost = formatCost(c)
		} else {
			unpriced = append(unpriced, mu.Model)
		}
		fmt.Printf("%-32s  %6d  %10d  %10d  %9s\n", truncate(mu.Model, 32), mu.Calls, mu.InputTokens, mu.OutputTokens, cost)
	}
	fmt.Println(rule(72))
	label := "TOTAL"
	if len(unpriced) > 0 {
		label = "TOTAL (partial)"
	}
	fmt.Printf("%-32s  %6s  %10s  %10s  %9s\n", label, "", "", "", formatCost(total))
	if len(unpriced) > 0 {
		fmt.Printf("\nNo list price for: %s\n", strings.Join(unpriced, ", "))
	}
	return nil
}

// openStore opens only the database; inspecting events needs no engine.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dsn := cfg.Store.DSN
	if dsn == "" && cfg.Store.Driver == "sqlite" {
		if dsn, err = store.DefaultDBPath(); err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
	}
	s, err := store.Open(cmd.Context(), cfg.Store.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	f := llmListCmd.Flags()
	f.IntP("limit", "n", 20, "Number of events to show")
	f.StringP("purpose", "p", "", "Only events with this purpose ("+llm.PurposeItemGen+", "+llm.PurposeItemEmbed+")")
	f.String("attempt", "", "Only events issued on behalf of this attempt ID")
	f.Duration("since", 0, "Only events newer than this age, e.g. 24h")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
